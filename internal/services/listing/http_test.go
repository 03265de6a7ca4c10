// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package listing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseManifest(t *testing.T) {
	manifest := `
# imagenet object localization archives
imagenet_object_localization_patched2019.tar.gz 166011676266
LOC_synset_mapping.txt 31588

LOC_val_solution.csv
`
	members, err := parseManifest(strings.NewReader(manifest))
	require.NoError(t, err)
	require.Len(t, members, 3)

	assert.Equal(t, ArchiveMember{Name: "imagenet_object_localization_patched2019.tar.gz", Size: 166011676266}, members[0])
	assert.Equal(t, int64(31588), members[1].Size)
	// size column is optional
	assert.Equal(t, ArchiveMember{Name: "LOC_val_solution.csv"}, members[2])
}

func TestParseManifestBadSize(t *testing.T) {
	_, err := parseManifest(strings.NewReader("member.tar not-a-number\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 1")
}

func TestHTTPSourceList(t *testing.T) {
	manifestPath := filepath.Join(t.TempDir(), "manifest.txt")
	require.NoError(t, os.WriteFile(manifestPath, []byte("a.tar 10\nb.tar 20\n"), 0o644))

	src := NewHTTPSource(nil, "https://example.com/dataset", manifestPath)
	members, err := src.List(context.Background())
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, "a.tar", members[0].Name)
}

func TestHTTPSourceFetch(t *testing.T) {
	const body = "archive bytes"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/dataset/member.tar" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	defer server.Close()

	src := NewHTTPSource(server.Client(), server.URL+"/dataset", "")
	dest := filepath.Join(t.TempDir(), "member.tar")

	written, err := src.Fetch(context.Background(), "member.tar", dest)
	require.NoError(t, err)
	assert.Equal(t, int64(len(body)), written)

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, body, string(got))
}

func TestHTTPSourceFetchNotFound(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	src := NewHTTPSource(server.Client(), server.URL, "")
	_, err := src.Fetch(context.Background(), "missing.tar", filepath.Join(t.TempDir(), "missing.tar"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}
