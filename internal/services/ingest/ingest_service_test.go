// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package ingest

import (
	"archive/tar"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlops-lab/dsingest/internal/config"
	"github.com/mlops-lab/dsingest/internal/services/listing"
	"github.com/mlops-lab/dsingest/internal/services/sink"
)

/* ------------ fakes ------------ */

type fakeSource struct {
	members  []listing.ArchiveMember
	blobs    map[string][]byte
	fetchErr map[string]error
}

func (f *fakeSource) List(_ context.Context) ([]listing.ArchiveMember, error) {
	return f.members, nil
}

func (f *fakeSource) Fetch(_ context.Context, name, destPath string) (int64, error) {
	if err := f.fetchErr[name]; err != nil {
		return 0, err
	}
	blob, ok := f.blobs[name]
	if !ok {
		return 0, errors.New("unknown member")
	}
	if err := os.WriteFile(destPath, blob, 0o644); err != nil {
		return 0, err
	}
	return int64(len(blob)), nil
}

type memStore struct {
	mu       sync.Mutex
	keys     map[string]int64
	texts    map[string]string
	failWhen string
}

func newMemStore() *memStore {
	return &memStore{keys: map[string]int64{}, texts: map[string]string{}}
}

func (m *memStore) PutLocalFile(_ context.Context, _, key, localPath string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWhen != "" && strings.Contains(key, m.failWhen) {
		return 0, errors.New("induced transport failure")
	}
	info, err := os.Stat(localPath)
	if err != nil {
		return 0, err
	}
	m.keys[key] = info.Size()
	return info.Size(), nil
}

func (m *memStore) PutText(_ context.Context, _, key, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.texts[key] = content
	return nil
}

func (m *memStore) keysWithPrefix(prefix string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for k := range m.keys {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	return out
}

/* ------------ fixtures ------------ */

// goodDatasetTar builds an archive with 901 class directories (one
// image each) and 901 validation subdirectories, enough to pass the
// resolver thresholds.
func goodDatasetTar(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)

	writeDir := func(name string) {
		require.NoError(t, tw.WriteHeader(&tar.Header{Name: name + "/", Typeflag: tar.TypeDir, Mode: 0o755}))
	}
	writeFile := func(name string, content []byte) {
		require.NoError(t, tw.WriteHeader(&tar.Header{Name: name, Typeflag: tar.TypeReg, Mode: 0o644, Size: int64(len(content))}))
		_, err := tw.Write(content)
		require.NoError(t, err)
	}

	writeDir("train")
	writeDir("val")
	for i := 0; i < 901; i++ {
		class := fmt.Sprintf("train/n%08d", i)
		writeDir(class)
		writeFile(class+"/img.JPEG", []byte("jpeg"))
		writeDir(fmt.Sprintf("val/n%08d", i))
	}
	require.NoError(t, tw.Close())
	return buf.Bytes()
}

// junkTar is a valid archive with no recognizable dataset structure.
func junkTar(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	content := []byte("n01440764 tench")
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: "labels.txt", Typeflag: tar.TypeReg, Mode: 0o644, Size: int64(len(content))}))
	_, err := tw.Write(content)
	require.NoError(t, err)
	require.NoError(t, tw.Close())
	return buf.Bytes()
}

func newTestService(t *testing.T, source listing.Source, store *memStore) *Service {
	t.Helper()
	conf := config.PipelineConfig{
		Bucket:  "test-bucket",
		Dataset: "imagenet",
		Workdir: t.TempDir(),
		// force the streaming strategy regardless of host disk
		DiskThresholdGB: 1 << 20,
		UploadWorkers:   4,
	}
	return NewService(source, sink.NewService(store, conf.Bucket, conf.UploadWorkers), nil, conf)
}

/* ------------ tests ------------ */

func TestRunEndToEnd(t *testing.T) {
	source := &fakeSource{
		members: []listing.ArchiveMember{
			{Name: "good.tar", Size: 0},
			{Name: "junk.tar", Size: 0},
		},
		blobs: map[string][]byte{
			"good.tar": goodDatasetTar(t),
			"junk.tar": junkTar(t),
		},
	}
	store := newMemStore()
	svc := newTestService(t, source, store)

	report, err := svc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, report.MembersProcessed)
	assert.Equal(t, 1, report.StructuresFound)
	assert.True(t, report.Verified)
	assert.Equal(t, StrategyStreaming, report.Strategy)

	// raw backups exist for both members
	assert.Contains(t, store.keys, "raw/good.tar")
	assert.Contains(t, store.keys, "raw/junk.tar")
	assert.Equal(t, 2, report.RawUploads)

	// canonical upload exists for the structured member only
	assert.Len(t, store.keysWithPrefix("processed/imagenet/train/"), 901)
	assert.Empty(t, store.keysWithPrefix("processed/imagenet/labels"))

	// completion markers distinguish verified success
	assert.Contains(t, store.texts["processing_complete.txt"], "verified success")
	assert.Contains(t, store.texts["dataset_info.txt"], "s3://test-bucket/processed/imagenet")

	require.Len(t, report.Outcomes, 2)
	assert.Equal(t, "done", report.Outcomes[0].Status)
	assert.Equal(t, "no_structure", report.Outcomes[1].Status)
}

func TestRunCleansWorkspaces(t *testing.T) {
	source := &fakeSource{
		members: []listing.ArchiveMember{{Name: "good.tar"}},
		blobs:   map[string][]byte{"good.tar": goodDatasetTar(t)},
	}
	store := newMemStore()
	workdir := t.TempDir()

	conf := config.PipelineConfig{
		Bucket:          "test-bucket",
		Dataset:         "imagenet",
		Workdir:         workdir,
		DiskThresholdGB: 1 << 20,
		UploadWorkers:   2,
	}
	svc := NewService(source, sink.NewService(store, conf.Bucket, conf.UploadWorkers), nil, conf)

	_, err := svc.Run(context.Background())
	require.NoError(t, err)

	entries, err := os.ReadDir(workdir)
	require.NoError(t, err)
	assert.Empty(t, entries, "workspaces and canonical copy removed on all exit paths")
}

func TestRunNoMembers(t *testing.T) {
	svc := newTestService(t, &fakeSource{}, newMemStore())
	_, err := svc.Run(context.Background())
	require.ErrorIs(t, err, ErrNoMembersFound)
}

func TestRunFetchFailureSkipsMember(t *testing.T) {
	source := &fakeSource{
		members: []listing.ArchiveMember{
			{Name: "broken.tar"},
			{Name: "good.tar"},
		},
		blobs:    map[string][]byte{"good.tar": goodDatasetTar(t)},
		fetchErr: map[string]error{"broken.tar": errors.New("connection reset")},
	}
	store := newMemStore()
	svc := newTestService(t, source, store)

	report, err := svc.Run(context.Background())
	require.NoError(t, err, "a member failure never aborts the run")

	assert.Equal(t, 2, report.MembersProcessed)
	assert.True(t, report.Verified)
	assert.Equal(t, "fetch_failed", report.Outcomes[0].Status)
	assert.Equal(t, "done", report.Outcomes[1].Status)
	assert.NotContains(t, store.keys, "raw/broken.tar")
}

func TestRunRawBackupFailureContinues(t *testing.T) {
	source := &fakeSource{
		members: []listing.ArchiveMember{{Name: "good.tar"}},
		blobs:   map[string][]byte{"good.tar": goodDatasetTar(t)},
	}
	store := newMemStore()
	store.failWhen = "raw/"
	svc := newTestService(t, source, store)

	report, err := svc.Run(context.Background())
	require.NoError(t, err)

	assert.Zero(t, report.RawUploads)
	assert.True(t, report.Verified, "canonical upload proceeds despite backup failure")
	assert.False(t, report.Outcomes[0].RawUploaded)
}

func TestRunNothingProduced(t *testing.T) {
	source := &fakeSource{
		members: []listing.ArchiveMember{{Name: "junk.tar"}},
		blobs:   map[string][]byte{"junk.tar": junkTar(t)},
	}
	store := newMemStore()
	svc := newTestService(t, source, store)

	report, err := svc.Run(context.Background())
	require.NoError(t, err)

	assert.False(t, report.Verified)
	assert.Contains(t, store.texts["processing_complete.txt"], "no data produced")
}

func TestRunIdempotentRemoteContent(t *testing.T) {
	source := &fakeSource{
		members: []listing.ArchiveMember{{Name: "good.tar"}},
		blobs:   map[string][]byte{"good.tar": goodDatasetTar(t)},
	}
	store := newMemStore()

	_, err := newTestService(t, source, store).Run(context.Background())
	require.NoError(t, err)
	firstKeys := store.keysWithPrefix("")

	_, err = newTestService(t, source, store).Run(context.Background())
	require.NoError(t, err)
	secondKeys := store.keysWithPrefix("")

	// overwrite-safe: same key set, no duplicated files
	assert.ElementsMatch(t, firstKeys, secondKeys)
}

func TestRunBulkStrategy(t *testing.T) {
	workdir := t.TempDir()
	if AvailableBytes(workdir) < 1<<30 {
		t.Skip("not enough free space to exercise the bulk path")
	}

	source := &fakeSource{
		members: []listing.ArchiveMember{
			{Name: "good.tar"},
			{Name: "junk.tar"},
		},
		blobs: map[string][]byte{
			"good.tar": goodDatasetTar(t),
			"junk.tar": junkTar(t),
		},
	}
	store := newMemStore()
	conf := config.PipelineConfig{
		Bucket:          "test-bucket",
		Dataset:         "imagenet",
		Workdir:         workdir,
		DiskThresholdGB: 1,
		UploadWorkers:   2,
	}
	svc := NewService(source, sink.NewService(store, conf.Bucket, conf.UploadWorkers), nil, conf)

	report, err := svc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StrategyBulk, report.Strategy)
	assert.Equal(t, 2, report.MembersProcessed)
	assert.True(t, report.Verified)
	assert.Contains(t, store.keys, "raw/good.tar")
	assert.Contains(t, store.keys, "raw/junk.tar")
}
