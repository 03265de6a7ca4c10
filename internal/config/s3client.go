// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type S3Client struct {
	s3 *s3.Client
}

func NewS3Client(ctx context.Context, cfgCreds S3Config) (*S3Client, error) {
	creds := aws.NewCredentialsCache(credentials.NewStaticCredentialsProvider(
		cfgCreds.AccessKey,
		cfgCreds.SecretKey,
		cfgCreds.AccessToken,
	))

	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(creds),
		awsconfig.WithRegion(cfgCreds.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Options := func(o *s3.Options) {
		if cfgCreds.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfgCreds.EndpointURL)
			o.UsePathStyle = true // required by most S3-compatible stores
		}
	}

	return &S3Client{
		s3: s3.NewFromConfig(cfg, s3Options),
	}, nil
}

type S3File struct {
	Path         string
	Name         string
	Size         int64
	LastModified string
}

/* -------------------- LIST (paged) -------------------- */

func (c *S3Client) ListFilesPaged(
	ctx context.Context,
	bucket string,
	prefix string,
	maxKeys *int32,
	continuationToken *string,
) ([]S3File, *string, error) {
	input := &s3.ListObjectsV2Input{
		Bucket:            aws.String(bucket),
		Prefix:            aws.String(prefix),
		MaxKeys:           maxKeys,
		ContinuationToken: continuationToken,
	}

	resp, err := c.s3.ListObjectsV2(ctx, input)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list objects in S3: %w", err)
	}

	files := make([]S3File, 0, len(resp.Contents))
	for _, obj := range resp.Contents {
		name := aws.ToString(obj.Key)
		if prefix != "" && strings.HasPrefix(name, prefix) {
			name = strings.TrimPrefix(name, prefix)
		}
		files = append(files, S3File{
			Path:         aws.ToString(obj.Key),
			Name:         strings.TrimPrefix(name, "/"),
			Size:         aws.ToInt64(obj.Size),
			LastModified: obj.LastModified.Format("2006-01-02T15:04:05Z07:00"),
		})
	}

	return files, resp.NextContinuationToken, nil
}

func (c *S3Client) ListFilesAll(ctx context.Context, bucket string, prefix string) ([]S3File, error) {
	var allFiles []S3File
	var token *string
	max := int32(1000)

	for {
		files, nextToken, err := c.ListFilesPaged(ctx, bucket, prefix, &max, token)
		if err != nil {
			return nil, err
		}
		allFiles = append(allFiles, files...)
		if nextToken == nil || *nextToken == "" {
			break
		}
		token = nextToken
	}
	return allFiles, nil
}

/* -------------------- PROGRESS HOOK -------------------- */

type ProgressHook struct {
	OnStart    func(key string, totalBytes int64)                     // called once at the beginning
	OnProgress func(key string, written, totalBytes int64)            // called periodically
	OnDone     func(key string, totalBytes int64, took time.Duration) // end of file
}

type progressWriter struct {
	key        string
	total      int64
	written    int64
	lastEmit   time.Time
	interval   time.Duration
	onProgress func(key string, written, total int64)
}

func (pw *progressWriter) Write(p []byte) (int, error) {
	n := len(p)
	pw.written += int64(n)
	now := time.Now()
	if pw.onProgress != nil && (pw.written == pw.total || now.Sub(pw.lastEmit) >= pw.interval) {
		pw.onProgress(pw.key, pw.written, pw.total)
		pw.lastEmit = now
	}
	return n, nil
}

/* -------------------- DOWNLOAD -------------------- */

func (c *S3Client) DownloadFileWithProgress(
	ctx context.Context,
	bucket, key, localPath string,
	hook *ProgressHook,
) (int64, error) {
	out, err := c.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to get object from S3: %w", err)
	}
	defer out.Body.Close()

	total := aws.ToInt64(out.ContentLength)

	if hook != nil && hook.OnStart != nil {
		hook.OnStart(key, total)
	}

	f, err := os.Create(localPath)
	if err != nil {
		return 0, fmt.Errorf("failed to create local file: %w", err)
	}
	defer f.Close()

	pw := &progressWriter{
		key:      key,
		total:    total,
		interval: 250 * time.Millisecond,
	}
	if hook != nil {
		pw.onProgress = hook.OnProgress
	}

	start := time.Now()
	tee := io.TeeReader(out.Body, pw)

	written, err := io.Copy(f, tee)
	if err != nil {
		return written, fmt.Errorf("failed to write to local file: %w", err)
	}

	if hook != nil && hook.OnDone != nil {
		hook.OnDone(key, total, time.Since(start))
	}
	return written, nil
}

/* -------------------- UPLOAD -------------------- */

// PutLocalFile uploads one local file, switching to the multipart
// manager above the size threshold. Returns the bytes transferred.
func (c *S3Client) PutLocalFile(ctx context.Context, bucket, key, localPath string) (int64, error) {
	const threshold = 100 * 1024 * 1024

	file, err := os.Open(localPath)
	if err != nil {
		return 0, fmt.Errorf("failed to open local file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat error: %w", err)
	}
	size := info.Size()

	// Detect MIME type
	header := make([]byte, 512)
	n, _ := file.Read(header)
	mime := http.DetectContentType(header[:n])
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return 0, fmt.Errorf("rewind error: %w", err)
	}

	if size > threshold {
		_, err = manager.NewUploader(c.s3).Upload(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(bucket),
			Key:         aws.String(key),
			Body:        file,
			ContentType: aws.String(mime),
		})
		if err != nil {
			return 0, fmt.Errorf("upload error: %w", err)
		}
		return size, nil
	}

	_, err = c.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          file,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(mime),
	})
	if err != nil {
		return 0, fmt.Errorf("upload error: %w", err)
	}
	return size, nil
}

// PutText writes a small plain-text object (markers, info documents).
func (c *S3Client) PutText(ctx context.Context, bucket, key, content string) error {
	_, err := c.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          strings.NewReader(content),
		ContentLength: aws.Int64(int64(len(content))),
		ContentType:   aws.String("text/plain; charset=utf-8"),
	})
	if err != nil {
		return fmt.Errorf("upload error: %w", err)
	}
	return nil
}
