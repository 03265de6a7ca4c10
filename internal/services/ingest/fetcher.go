// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package ingest

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/mlops-lab/dsingest/internal/services/listing"
	"github.com/mlops-lab/dsingest/internal/utils"
)

// fetchMember downloads one archive member into the workspace. No
// retries: a transport error yields ErrFetchFailed and the caller
// moves on to the next member.
func fetchMember(ctx context.Context, source listing.Source, m listing.ArchiveMember, workspace string) (string, error) {
	dest := filepath.Join(workspace, filepath.Base(m.Name))

	utils.Infof("Fetching %s (%s declared)", m.Name, utils.HumanBytes(m.Size))
	written, err := source.Fetch(ctx, m.Name, dest)
	if err != nil {
		return "", fmt.Errorf("%w: member %s: %v", ErrFetchFailed, m.Name, err)
	}

	// soft integrity check: remote listings are not always byte-exact
	if m.Size > 0 && written != m.Size {
		utils.Warnf("size mismatch for %s: declared %d, got %d", m.Name, m.Size, written)
	}
	return dest, nil
}
