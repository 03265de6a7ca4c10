// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package config

// Config is the full configuration handed to the pipeline at construction.
// No viper/INI here: resolution happens in utils, callers pass plain values.
type Config struct {
	Pipeline PipelineConfig
	S3       S3Config
}

type PipelineConfig struct {
	// Destination bucket for raw backups, canonical copies and markers.
	Bucket string
	// Dataset source: "s3://bucket/prefix" or an http(s) base URL.
	Source string
	// Manifest file listing "name size" pairs, required for http sources.
	Manifest string
	// Canonical dataset name, used in remote prefixes.
	Dataset string
	// Local scratch directory. Empty means os.TempDir().
	Workdir string
	// Free-space threshold (GB) for the bulk/streaming decision.
	DiskThresholdGB int64
	// Parallel uploads within one sink invocation.
	UploadWorkers int
	// Optional command to exec once processing completed successfully.
	CompletionHook string
}

type S3Config struct {
	AccessKey   string
	SecretKey   string
	AccessToken string
	Region      string
	EndpointURL string
}
