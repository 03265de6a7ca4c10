// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package listing

import (
	"context"
	"fmt"
	"strings"

	"github.com/mlops-lab/dsingest/internal/config"
	"github.com/mlops-lab/dsingest/internal/utils"
)

// S3Source lists and fetches archive members from a source bucket prefix.
type S3Source struct {
	client *config.S3Client
	bucket string
	prefix string
}

func NewS3Source(client *config.S3Client, bucket, prefix string) *S3Source {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &S3Source{client: client, bucket: bucket, prefix: prefix}
}

func (s *S3Source) List(ctx context.Context) ([]ArchiveMember, error) {
	files, err := s.client.ListFilesAll(ctx, s.bucket, s.prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list source bucket: %w", err)
	}

	members := make([]ArchiveMember, 0, len(files))
	for _, f := range files {
		// skip "folder" placeholders
		if f.Name == "" || strings.HasSuffix(f.Name, "/") {
			continue
		}
		members = append(members, ArchiveMember{Name: f.Name, Size: f.Size})
	}
	return members, nil
}

func (s *S3Source) Fetch(ctx context.Context, name, destPath string) (int64, error) {
	key := s.prefix + name

	gp := &utils.GlobalProgress{}
	var prevWritten int64
	hook := &config.ProgressHook{
		OnStart: func(k string, total int64) {
			if total > 0 {
				gp.TotalKnown = true
				gp.TotalBytes = total
			}
		},
		OnProgress: func(k string, written, total int64) {
			delta := written - prevWritten
			if delta > 0 {
				gp.Add(delta)
				gp.Render(false)
			}
			prevWritten = written
		},
	}

	written, err := s.client.DownloadFileWithProgress(ctx, s.bucket, key, destPath, hook)
	if err != nil {
		return written, fmt.Errorf("failed to fetch s3://%s/%s: %w", s.bucket, key, err)
	}
	gp.Done()
	return written, nil
}
