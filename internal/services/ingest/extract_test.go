// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package ingest

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeTar(t *testing.T, path string, gzipped bool, dirs []string, files map[string][]byte) {
	t.Helper()
	var buf bytes.Buffer

	var tw *tar.Writer
	var gz *gzip.Writer
	if gzipped {
		gz = gzip.NewWriter(&buf)
		tw = tar.NewWriter(gz)
	} else {
		tw = tar.NewWriter(&buf)
	}

	for _, d := range dirs {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     d + "/",
			Typeflag: tar.TypeDir,
			Mode:     0o755,
		}))
	}
	for name, content := range files {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     name,
			Typeflag: tar.TypeReg,
			Mode:     0o644,
			Size:     int64(len(content)),
		}))
		_, err := tw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	if gz != nil {
		require.NoError(t, gz.Close())
	}
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func TestExtractTar(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "member.tar")
	writeTar(t, archive, false,
		[]string{"train", "train/n01440764"},
		map[string][]byte{"train/n01440764/img1.JPEG": []byte("x")})

	dest := filepath.Join(dir, "extracted")
	require.NoError(t, extractArchive(archive, dest))
	require.FileExists(t, filepath.Join(dest, "train", "n01440764", "img1.JPEG"))
}

func TestExtractTarGz(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "member.tar.gz")
	writeTar(t, archive, true, nil, map[string][]byte{"a/b.txt": []byte("data")})

	dest := filepath.Join(dir, "extracted")
	require.NoError(t, extractArchive(archive, dest))

	got, err := os.ReadFile(filepath.Join(dest, "a", "b.txt"))
	require.NoError(t, err)
	require.Equal(t, "data", string(got))
}

func TestExtractZip(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "member.zip")

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("val/img.JPEG")
	require.NoError(t, err)
	_, err = w.Write([]byte("img"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, os.WriteFile(archive, buf.Bytes(), 0o644))

	dest := filepath.Join(dir, "extracted")
	require.NoError(t, extractArchive(archive, dest))
	require.FileExists(t, filepath.Join(dest, "val", "img.JPEG"))
}

func TestExtractRejectsPathEscape(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "evil.tar")
	writeTar(t, archive, false, nil, map[string][]byte{"../escape.txt": []byte("x")})

	err := extractArchive(archive, filepath.Join(dir, "extracted"))
	require.ErrorIs(t, err, ErrExtractFailed)
	require.NoFileExists(t, filepath.Join(dir, "escape.txt"))
}

func TestExtractUnsupportedFormat(t *testing.T) {
	dir := t.TempDir()
	labels := filepath.Join(dir, "labels.txt")
	require.NoError(t, os.WriteFile(labels, []byte("n01440764 tench"), 0o644))

	err := extractArchive(labels, filepath.Join(dir, "extracted"))
	require.ErrorIs(t, err, ErrExtractFailed)
}

func TestExtractCorruptTar(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "corrupt.tar")
	require.NoError(t, os.WriteFile(archive, []byte("not really a tar archive"), 0o644))

	err := extractArchive(archive, filepath.Join(dir, "extracted"))
	require.ErrorIs(t, err, ErrExtractFailed)
}
