// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package utils

const (
	IniName            = ".dsingest.ini"
	CurrentEnvironment = "current_environment"
	UpdatedEnvKey      = "updated_environment"

	// viper keys
	AwsAccessKeyID     = "aws_access_key_id"
	AwsSecretAccessKey = "aws_secret_access_key"
	AwsSessionToken    = "aws_session_token"
	AwsRegion          = "aws_region"
	AwsEndpointURL     = "aws_endpoint_url"
	IngestBucket       = "ingest_bucket"
	IngestSource       = "ingest_source"
	IngestManifest     = "ingest_manifest"
	IngestDataset      = "ingest_dataset"
	IngestWorkdir      = "ingest_workdir"
	DiskThresholdGB    = "disk_threshold_gb"
	UploadWorkers      = "upload_workers"
	CompletionHook     = "completion_hook"
	RunId              = "run_id"

	// remote layout
	RawPrefix       = "raw"
	ProcessedPrefix = "processed"
	InfoDocKey      = "dataset_info.txt"
	CompleteDocKey  = "processing_complete.txt"
)

// AllowedImageExtensions is the fixed, case-sensitive extension set a
// directory upload is filtered by. It matches the archive's historical
// naming and is deliberately not user-extensible.
var AllowedImageExtensions = []string{".JPEG", ".jpg", ".png"}
