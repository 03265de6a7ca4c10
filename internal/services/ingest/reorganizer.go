// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package ingest

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// reorganize copies (never moves) a validated structure into the
// canonical train/ and val/ layout under canonicalDir. Any prior
// canonical directory is fully replaced, never merged: at most one
// canonical local copy exists at any time.
func reorganize(ds *DatasetStructure, canonicalDir string) error {
	if err := os.RemoveAll(canonicalDir); err != nil {
		return fmt.Errorf("%w: %v", ErrReorganizeFailed, err)
	}

	if err := copyTree(ds.TrainPath, filepath.Join(canonicalDir, "train")); err != nil {
		return fmt.Errorf("%w: train: %v", ErrReorganizeFailed, err)
	}
	if err := copyTree(ds.ValPath, filepath.Join(canonicalDir, "val")); err != nil {
		return fmt.Errorf("%w: val: %v", ErrReorganizeFailed, err)
	}
	return nil
}

func copyTree(src, dst string) error {
	return filepath.Walk(src, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		if info.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		return copyFile(p, target)
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
