// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func makeStructure(t *testing.T, root, marker string) *DatasetStructure {
	t.Helper()
	trainDir := filepath.Join(root, "train", "n00000001")
	valDir := filepath.Join(root, "val")
	require.NoError(t, os.MkdirAll(trainDir, 0o755))
	require.NoError(t, os.MkdirAll(valDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(trainDir, marker+".JPEG"), []byte(marker), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(valDir, marker+".JPEG"), []byte(marker), 0o644))
	return &DatasetStructure{
		RootPath:  root,
		TrainPath: filepath.Join(root, "train"),
		ValPath:   filepath.Join(root, "val"),
	}
}

func TestReorganizeProducesCanonicalLayout(t *testing.T) {
	canonical := filepath.Join(t.TempDir(), "canonical")
	ds := makeStructure(t, t.TempDir(), "first")

	require.NoError(t, reorganize(ds, canonical))

	entries, err := os.ReadDir(canonical)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.DirExists(t, filepath.Join(canonical, "train"))
	require.DirExists(t, filepath.Join(canonical, "val"))

	// copied, not moved
	require.FileExists(t, filepath.Join(ds.TrainPath, "n00000001", "first.JPEG"))
}

func TestReorganizeReplacesPriorCopy(t *testing.T) {
	canonical := filepath.Join(t.TempDir(), "canonical")
	first := makeStructure(t, t.TempDir(), "first")
	second := makeStructure(t, t.TempDir(), "second")

	require.NoError(t, reorganize(first, canonical))
	require.NoError(t, reorganize(second, canonical))

	// full replace, not merge: only the second input's content remains
	require.NoFileExists(t, filepath.Join(canonical, "train", "n00000001", "first.JPEG"))
	require.FileExists(t, filepath.Join(canonical, "train", "n00000001", "second.JPEG"))
	require.FileExists(t, filepath.Join(canonical, "val", "second.JPEG"))
}

func TestReorganizeMissingSourceFails(t *testing.T) {
	ds := &DatasetStructure{
		TrainPath: filepath.Join(t.TempDir(), "missing-train"),
		ValPath:   filepath.Join(t.TempDir(), "missing-val"),
	}
	err := reorganize(ds, filepath.Join(t.TempDir(), "canonical"))
	require.ErrorIs(t, err, ErrReorganizeFailed)
}
