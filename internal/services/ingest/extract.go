// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package ingest

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// extractArchive unpacks archivePath into destDir. Supported formats:
// .tar, .tar.gz/.tgz, .zip. Anything else (labels, checksums, partial
// shards) yields ErrExtractFailed, which is member-local.
func extractArchive(archivePath, destDir string) error {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrExtractFailed, err)
	}

	name := strings.ToLower(archivePath)
	switch {
	case strings.HasSuffix(name, ".tar"):
		return extractTar(archivePath, destDir, false)
	case strings.HasSuffix(name, ".tar.gz"), strings.HasSuffix(name, ".tgz"):
		return extractTar(archivePath, destDir, true)
	case strings.HasSuffix(name, ".zip"):
		return extractZip(archivePath, destDir)
	default:
		return fmt.Errorf("%w: unsupported archive format: %s", ErrExtractFailed, filepath.Base(archivePath))
	}
}

func extractTar(archivePath, destDir string, gzipped bool) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrExtractFailed, err)
	}
	defer f.Close()

	var r io.Reader = f
	if gzipped {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrExtractFailed, err)
		}
		defer gz.Close()
		r = gz
	}

	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrExtractFailed, err)
		}

		target, err := securePath(destDir, hdr.Name)
		if err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("%w: %v", ErrExtractFailed, err)
			}
		case tar.TypeReg:
			if err := writeEntry(target, tr); err != nil {
				return err
			}
		default:
			// symlinks and specials are not part of the dataset
		}
	}
}

func extractZip(archivePath, destDir string) error {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrExtractFailed, err)
	}
	defer zr.Close()

	for _, zf := range zr.File {
		target, err := securePath(destDir, zf.Name)
		if err != nil {
			return err
		}

		if zf.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("%w: %v", ErrExtractFailed, err)
			}
			continue
		}

		rc, err := zf.Open()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrExtractFailed, err)
		}
		err = writeEntry(target, rc)
		rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

// securePath rejects member names escaping the destination.
func securePath(destDir, name string) (string, error) {
	target := filepath.Join(destDir, filepath.FromSlash(name))
	if !strings.HasPrefix(target, filepath.Clean(destDir)+string(os.PathSeparator)) {
		return "", fmt.Errorf("%w: illegal path in archive: %s", ErrExtractFailed, name)
	}
	return target, nil
}

func writeEntry(target string, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrExtractFailed, err)
	}
	out, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrExtractFailed, err)
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return fmt.Errorf("%w: %v", ErrExtractFailed, err)
	}
	return out.Close()
}
