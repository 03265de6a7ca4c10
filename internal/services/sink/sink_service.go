// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package sink

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mlops-lab/dsingest/internal/utils"
)

// progress line every this many successful uploads
const progressEvery = 1000

type Service struct {
	store   ObjectStore
	bucket  string
	workers int
}

func NewService(store ObjectStore, bucket string, workers int) *Service {
	if workers < 1 {
		workers = 1
	}
	return &Service{store: store, bucket: bucket, workers: workers}
}

// Upload transfers localPath (file or tree) under remotePrefix. For a
// tree, only regular files matching the allowed image extensions are
// uploaded, preserving the relative path in the key. Each file's upload
// is independent: one failure is recorded and the walk continues. The
// report is returned even when enumeration fails partway.
func (s *Service) Upload(ctx context.Context, localPath, remotePrefix string) (*UploadReport, error) {
	report := &UploadReport{}

	info, err := os.Stat(localPath)
	if err != nil {
		return report, fmt.Errorf("stat error on %s: %w", localPath, err)
	}

	if !info.IsDir() {
		key := path.Join(remotePrefix, filepath.Base(localPath))
		n, err := s.store.PutLocalFile(ctx, s.bucket, key, localPath)
		if err != nil {
			report.Failures = append(report.Failures, UploadFailure{Path: localPath, Cause: err.Error()})
			return report, nil
		}
		report.FilesUploaded = 1
		report.BytesUploaded = n
		return report, nil
	}

	var localFiles []string
	walkErr := filepath.Walk(localPath, func(p string, fi os.FileInfo, werr error) error {
		if werr != nil {
			return fmt.Errorf("walk error: %w", werr)
		}
		if fi.IsDir() || !fi.Mode().IsRegular() {
			return nil
		}
		if !hasAllowedExtension(fi.Name()) {
			return nil
		}
		localFiles = append(localFiles, p)
		return nil
	})
	if walkErr != nil {
		return report, fmt.Errorf("failed to enumerate local directory: %w", walkErr)
	}

	total := len(localFiles)
	utils.Infof("Preparing upload directory %s → s3://%s/%s (%d files)",
		localPath, s.bucket, remotePrefix, total)

	var mu sync.Mutex
	var wg sync.WaitGroup
	jobs := make(chan string)

	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range jobs {
				relPath, err := filepath.Rel(localPath, p)
				if err != nil {
					mu.Lock()
					report.Failures = append(report.Failures, UploadFailure{Path: p, Cause: err.Error()})
					mu.Unlock()
					continue
				}
				key := path.Join(remotePrefix, filepath.ToSlash(relPath))

				n, upErr := s.store.PutLocalFile(ctx, s.bucket, key, p)

				mu.Lock()
				if upErr != nil {
					report.Failures = append(report.Failures, UploadFailure{Path: p, Cause: upErr.Error()})
				} else {
					report.FilesUploaded++
					report.BytesUploaded += n
					if report.FilesUploaded%progressEvery == 0 {
						utils.Infof("   uploaded %d/%d files (%s) under %s",
							report.FilesUploaded, total, utils.HumanBytes(report.BytesUploaded), remotePrefix)
					}
				}
				mu.Unlock()
			}
		}()
	}

	for _, p := range localFiles {
		jobs <- p
	}
	close(jobs)
	wg.Wait()

	if len(report.Failures) > 0 {
		utils.Warnf("upload under %s finished with %d failures (%d succeeded)",
			remotePrefix, len(report.Failures), report.FilesUploaded)
	}
	return report, nil
}

// PutDocument writes a small plain-text object (markers, info documents).
func (s *Service) PutDocument(ctx context.Context, key, content string) error {
	return s.store.PutText(ctx, s.bucket, key, content)
}

func hasAllowedExtension(name string) bool {
	for _, ext := range utils.AllowedImageExtensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}
