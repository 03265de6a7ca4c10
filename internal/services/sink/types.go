// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package sink

import "context"

// ObjectStore is the minimal surface the sink needs from object
// storage. *config.S3Client satisfies it.
type ObjectStore interface {
	PutLocalFile(ctx context.Context, bucket, key, localPath string) (int64, error)
	PutText(ctx context.Context, bucket, key, content string) error
}

// UploadFailure records one file that could not be transferred. The
// failures list is the sole record of what must be retried manually.
type UploadFailure struct {
	Path  string `json:"path"`
	Cause string `json:"cause"`
}

// UploadReport is produced once per Upload invocation and always
// surfaced to the caller, partial failures included.
type UploadReport struct {
	FilesUploaded int             `json:"files_uploaded"`
	BytesUploaded int64           `json:"bytes_uploaded"`
	Failures      []UploadFailure `json:"failures,omitempty"`
}
