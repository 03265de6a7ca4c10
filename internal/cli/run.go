// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"errors"
	"fmt"
	"os/exec"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"sigs.k8s.io/yaml"

	"github.com/mlops-lab/dsingest/internal/config"
	"github.com/mlops-lab/dsingest/internal/services/ingest"
	"github.com/mlops-lab/dsingest/internal/services/listing"
	"github.com/mlops-lab/dsingest/internal/services/sink"
	"github.com/mlops-lab/dsingest/internal/utils"
)

// exitCodeError carries a process exit code through cobra.
type exitCodeError struct {
	code int
	err  error
}

func (e exitCodeError) Error() string { return e.err.Error() }
func (e exitCodeError) Unwrap() error { return e.err }

// ExitCode maps an Execute() error to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var ec exitCodeError
	if errors.As(err, &ec) {
		return ec.code
	}
	return ExitFailure
}

func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the ingestion pipeline against the configured source",
		RunE:  runPipeline,
	}

	cmd.Flags().String("bucket", "", "destination bucket")
	cmd.Flags().String("source", "", "dataset source: s3://bucket/prefix or http(s) base URL")
	cmd.Flags().String("manifest", "", "manifest file for http sources (name size per line)")
	cmd.Flags().String("dataset", "", "canonical dataset name")
	cmd.Flags().String("workdir", "", "local scratch directory")
	cmd.Flags().Int64("disk-threshold-gb", 0, "free-space threshold override (GB)")
	cmd.Flags().Int("workers", 0, "parallel uploads per sink invocation")
	cmd.Flags().Bool("report", false, "print the run report as YAML on stdout")

	return cmd
}

var flagToKey = map[string]string{
	"bucket":            utils.IngestBucket,
	"source":            utils.IngestSource,
	"manifest":          utils.IngestManifest,
	"dataset":           utils.IngestDataset,
	"workdir":           utils.IngestWorkdir,
	"disk-threshold-gb": utils.DiskThresholdGB,
	"workers":           utils.UploadWorkers,
}

func runPipeline(cmd *cobra.Command, _ []string) error {
	envName, _ := cmd.Flags().GetString("env")
	if err := utils.RegisterIniCfgWithViper(envName); err != nil {
		return err
	}

	// explicit flags win over env/INI
	for flag, key := range flagToKey {
		if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
			viper.Set(key, f.Value.String())
		}
	}

	conf := config.Config{
		S3: config.S3Config{
			AccessKey:   viper.GetString(utils.AwsAccessKeyID),
			SecretKey:   viper.GetString(utils.AwsSecretAccessKey),
			AccessToken: viper.GetString(utils.AwsSessionToken),
			Region:      viper.GetString(utils.AwsRegion),
			EndpointURL: viper.GetString(utils.AwsEndpointURL),
		},
		Pipeline: config.PipelineConfig{
			Bucket:          viper.GetString(utils.IngestBucket),
			Source:          viper.GetString(utils.IngestSource),
			Manifest:        viper.GetString(utils.IngestManifest),
			Dataset:         viper.GetString(utils.IngestDataset),
			Workdir:         viper.GetString(utils.IngestWorkdir),
			DiskThresholdGB: viper.GetInt64(utils.DiskThresholdGB),
			UploadWorkers:   viper.GetInt(utils.UploadWorkers),
			CompletionHook:  viper.GetString(utils.CompletionHook),
		},
	}
	if conf.Pipeline.Bucket == "" {
		return errors.New("missing destination bucket: set --bucket or ingest_bucket")
	}

	ctx := cmd.Context()

	source, err := listing.NewSource(ctx, conf)
	if err != nil {
		return err
	}
	s3c, err := config.NewS3Client(ctx, conf.S3)
	if err != nil {
		return fmt.Errorf("S3 init failed: %w", err)
	}
	sinkSvc := sink.NewService(s3c, conf.Pipeline.Bucket, conf.Pipeline.UploadWorkers)
	svc := ingest.NewService(source, sinkSvc, nil, conf.Pipeline)

	report, err := svc.Run(ctx)
	if err != nil {
		if errors.Is(err, ingest.ErrNoMembersFound) {
			return exitCodeError{code: ExitNoMembers, err: err}
		}
		return err
	}

	if show, _ := cmd.Flags().GetBool("report"); show {
		out, err := yaml.Marshal(report)
		if err != nil {
			utils.Warnf("failed to render report: %v", err)
		} else {
			fmt.Print(string(out))
		}
	}

	if !report.Verified {
		return exitCodeError{code: ExitNothingStored, err: errors.New("run completed but no canonical upload succeeded")}
	}

	// fire-and-forget completion signal to the external collaborator
	if hook := conf.Pipeline.CompletionHook; hook != "" {
		if err := exec.Command("/bin/sh", "-c", hook).Start(); err != nil {
			utils.Warnf("failed to start completion hook: %v", err)
		}
	}
	return nil
}
