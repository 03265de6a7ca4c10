// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package listing

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/mlops-lab/dsingest/internal/config"
)

// Source enumerates archive members of a remote dataset collection and
// fetches one named member to a local path.
type Source interface {
	// List returns the ordered member sequence. An empty result is not
	// an error here; the orchestrator decides what emptiness means.
	List(ctx context.Context) ([]ArchiveMember, error)
	// Fetch downloads one member into destPath and returns the bytes
	// written to disk.
	Fetch(ctx context.Context, name, destPath string) (int64, error)
}

// NewSource builds a Source from the configured source identifier:
// "s3://bucket/prefix" or an http(s) base URL plus a manifest file.
func NewSource(ctx context.Context, conf config.Config) (Source, error) {
	src := conf.Pipeline.Source
	if src == "" {
		return nil, fmt.Errorf("missing source: set ingest_source")
	}

	u, err := url.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("invalid source %q: %w", src, err)
	}

	switch u.Scheme {
	case "s3":
		s3c, err := config.NewS3Client(ctx, conf.S3)
		if err != nil {
			return nil, fmt.Errorf("S3 init failed: %w", err)
		}
		return NewS3Source(s3c, u.Host, strings.TrimPrefix(u.Path, "/")), nil
	case "http", "https":
		if conf.Pipeline.Manifest == "" {
			return nil, fmt.Errorf("http sources need a manifest: set ingest_manifest")
		}
		return NewHTTPSource(nil, src, conf.Pipeline.Manifest), nil
	default:
		return nil, fmt.Errorf("unsupported source scheme %q", u.Scheme)
	}
}
