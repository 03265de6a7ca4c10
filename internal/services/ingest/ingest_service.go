// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package ingest

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/mlops-lab/dsingest/internal/config"
	"github.com/mlops-lab/dsingest/internal/services/listing"
	"github.com/mlops-lab/dsingest/internal/services/sink"
	"github.com/mlops-lab/dsingest/internal/utils"
)

// Uploader is the slice of the sink the orchestrator needs.
type Uploader interface {
	Upload(ctx context.Context, localPath, remotePrefix string) (*sink.UploadReport, error)
	PutDocument(ctx context.Context, key, content string) error
}

// Service drives the fetch → extract → resolve → reorganize → upload →
// cleanup sequence per archive member, strictly sequentially. A member
// failure never aborts the run; only an empty listing does.
type Service struct {
	source   listing.Source
	uploader Uploader
	resolver *Resolver
	conf     config.PipelineConfig
	runID    string
}

func NewService(source listing.Source, uploader Uploader, resolver *Resolver, conf config.PipelineConfig) *Service {
	if resolver == nil {
		resolver = NewResolver(nil)
	}
	return &Service{
		source:   source,
		uploader: uploader,
		resolver: resolver,
		conf:     conf,
		runID:    utils.UUIDv4NoDash(),
	}
}

func (s *Service) Run(ctx context.Context) (*RunReport, error) {
	// LISTING
	members, err := s.source.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoMembersFound, err)
	}
	if len(members) == 0 {
		return nil, ErrNoMembersFound
	}
	utils.Infof("Listed %d archive members", len(members))

	baseDir := s.conf.Workdir
	if baseDir == "" {
		baseDir = filepath.Join(os.TempDir(), "dsingest-"+s.runID)
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create workdir: %w", err)
	}
	canonicalDir := filepath.Join(baseDir, "canonical")

	// PLANNING: once per run, fixed for all members
	threshold := int64(DefaultDiskThresholdBytes)
	if s.conf.DiskThresholdGB > 0 {
		threshold = s.conf.DiskThresholdGB * 1024 * 1024 * 1024
	}
	avail := AvailableBytes(baseDir)
	strategy := PlanStrategy(avail, threshold)
	utils.Infof("Free space %s, threshold %s → %s strategy",
		utils.HumanBytes(avail), utils.HumanBytes(threshold), strategy)

	report := &RunReport{
		RunID:               s.runID,
		Strategy:            strategy,
		CanonicalRemotePath: fmt.Sprintf("s3://%s/%s/%s", s.conf.Bucket, utils.ProcessedPrefix, s.conf.Dataset),
	}

	if strategy == StrategyBulk {
		s.runBulk(ctx, members, baseDir, canonicalDir, report)
	} else {
		s.runStreaming(ctx, members, baseDir, canonicalDir, report)
	}

	// VERIFYING: success is a derived property, recomputed here
	report.CompletedAt = time.Now().UTC()
	report.Verified = report.CanonicalFiles > 0
	s.writeMarkers(ctx, report)

	utils.Infof("Run %s finished: %d members, %d structures, %d canonical files (%s)",
		s.runID, report.MembersProcessed, report.StructuresFound,
		report.CanonicalFiles, utils.HumanBytes(report.CanonicalBytes))
	return report, nil
}

// runStreaming fully processes and discards one member before the
// next begins.
func (s *Service) runStreaming(ctx context.Context, members []listing.ArchiveMember, baseDir, canonicalDir string, report *RunReport) {
	for _, m := range members {
		ws := s.workspaceFor(baseDir, m.Name)

		var outcome MemberOutcome
		archive, rawUploaded, err := s.fetchAndBackup(ctx, m, ws, report)
		if err != nil {
			utils.Errorf("skipping %s: %v", m.Name, err)
			outcome = MemberOutcome{Member: m.Name, Status: "fetch_failed", Error: err.Error()}
		} else {
			outcome = s.processArchive(ctx, m, archive, canonicalDir, rawUploaded, report)
		}

		report.Outcomes = append(report.Outcomes, outcome)
		report.MembersProcessed++
		s.cleanup(ws, canonicalDir)
	}
}

// runBulk downloads every member first, then processes them. Raw
// backups still happen right after each successful fetch.
func (s *Service) runBulk(ctx context.Context, members []listing.ArchiveMember, baseDir, canonicalDir string, report *RunReport) {
	type fetchedMember struct {
		member      listing.ArchiveMember
		ws, archive string
		rawUploaded bool
	}

	var fetched []fetchedMember
	for _, m := range members {
		ws := s.workspaceFor(baseDir, m.Name)
		archive, rawUploaded, err := s.fetchAndBackup(ctx, m, ws, report)
		if err != nil {
			utils.Errorf("skipping %s: %v", m.Name, err)
			report.Outcomes = append(report.Outcomes, MemberOutcome{Member: m.Name, Status: "fetch_failed", Error: err.Error()})
			report.MembersProcessed++
			s.cleanup(ws, canonicalDir)
			continue
		}
		fetched = append(fetched, fetchedMember{member: m, ws: ws, archive: archive, rawUploaded: rawUploaded})
	}

	for _, fm := range fetched {
		outcome := s.processArchive(ctx, fm.member, fm.archive, canonicalDir, fm.rawUploaded, report)
		report.Outcomes = append(report.Outcomes, outcome)
		report.MembersProcessed++
		s.cleanup(fm.ws, canonicalDir)
	}
}

// fetchAndBackup runs FETCHING plus the unconditional raw backup
// upload. A backup failure is logged and never blocks continuation.
func (s *Service) fetchAndBackup(ctx context.Context, m listing.ArchiveMember, ws string, report *RunReport) (string, bool, error) {
	if err := os.MkdirAll(ws, 0o755); err != nil {
		return "", false, fmt.Errorf("%w: workspace: %v", ErrFetchFailed, err)
	}

	archive, err := fetchMember(ctx, s.source, m, ws)
	if err != nil {
		return "", false, err
	}

	rawRep, upErr := s.uploader.Upload(ctx, archive, utils.RawPrefix)
	rawUploaded := upErr == nil && rawRep != nil && rawRep.FilesUploaded > 0
	if !rawUploaded {
		cause := "no files uploaded"
		if upErr != nil {
			cause = upErr.Error()
		} else if rawRep != nil && len(rawRep.Failures) > 0 {
			cause = rawRep.Failures[0].Cause
		}
		utils.Warnf("raw backup of %s failed, continuing: %s", m.Name, cause)
	} else {
		report.RawUploads++
	}
	return archive, rawUploaded, nil
}

// processArchive covers EXTRACTING through UPLOADING for one fetched
// member.
func (s *Service) processArchive(ctx context.Context, m listing.ArchiveMember, archive, canonicalDir string, rawUploaded bool, report *RunReport) MemberOutcome {
	outcome := MemberOutcome{Member: m.Name, RawUploaded: rawUploaded}

	extractDir := filepath.Join(filepath.Dir(archive), "extracted")
	utils.Infof("Extracting %s", m.Name)
	if err := extractArchive(archive, extractDir); err != nil {
		utils.Errorf("extraction of %s failed: %v", m.Name, err)
		outcome.Status = "extract_failed"
		outcome.Error = err.Error()
		return outcome
	}

	ds, err := s.resolver.Resolve(extractDir)
	if err != nil {
		utils.Infof("%s: %v", m.Name, err)
		outcome.Status = "no_structure"
		outcome.Error = err.Error()
		return outcome
	}
	report.StructuresFound++

	if err := reorganize(ds, canonicalDir); err != nil {
		utils.Errorf("reorganization of %s failed: %v", m.Name, err)
		outcome.Status = "reorganize_failed"
		outcome.Error = err.Error()
		return outcome
	}

	prefix := path.Join(utils.ProcessedPrefix, s.conf.Dataset)
	upRep, upErr := s.uploader.Upload(ctx, canonicalDir, prefix)
	if upErr != nil {
		utils.Warnf("canonical upload of %s incomplete: %v", m.Name, upErr)
	}
	if upRep != nil {
		report.CanonicalFiles += upRep.FilesUploaded
		report.CanonicalBytes += upRep.BytesUploaded
		outcome.CanonicalFiles = upRep.FilesUploaded
		if len(upRep.Failures) > 0 {
			utils.Warnf("%d files failed during canonical upload of %s", len(upRep.Failures), m.Name)
		}
	}

	outcome.Status = "done"
	return outcome
}

// cleanup is the one step guaranteed to run for every member,
// regardless of which state preceded it.
func (s *Service) cleanup(ws, canonicalDir string) {
	if err := os.RemoveAll(ws); err != nil {
		utils.Warnf("failed to remove workspace %s: %v", ws, err)
	}
	if err := os.RemoveAll(canonicalDir); err != nil {
		utils.Warnf("failed to remove canonical directory %s: %v", canonicalDir, err)
	}
}

func (s *Service) workspaceFor(baseDir, memberName string) string {
	sanitized := strings.NewReplacer("/", "_", "\\", "_").Replace(memberName)
	return filepath.Join(baseDir, "work-"+sanitized)
}

// writeMarkers publishes the dataset info document and the completion
// marker. Both are best-effort: a write failure is logged, not fatal.
func (s *Service) writeMarkers(ctx context.Context, report *RunReport) {
	status := "no data produced"
	if report.Verified {
		status = "verified success"
	}

	info := fmt.Sprintf(`dataset: %s
canonical path: %s
layout: train/ and val/
expected classes: 1000
expected training samples: ~1.2M
expected validation samples: ~50K
run id: %s
completed at: %s
`, s.conf.Dataset, report.CanonicalRemotePath, report.RunID, report.CompletedAt.Format(time.RFC3339))

	complete := fmt.Sprintf(`status: %s
completed at: %s
run id: %s
canonical path: %s
members processed: %d
structures found: %d
canonical files uploaded: %d
raw backups: %d
`, status, report.CompletedAt.Format(time.RFC3339), report.RunID, report.CanonicalRemotePath,
		report.MembersProcessed, report.StructuresFound, report.CanonicalFiles, report.RawUploads)

	if err := s.uploader.PutDocument(ctx, utils.InfoDocKey, info); err != nil {
		utils.Warnf("failed to write %s: %v", utils.InfoDocKey, err)
	}
	if err := s.uploader.PutDocument(ctx, utils.CompleteDocKey, complete); err != nil {
		utils.Warnf("failed to write %s: %v", utils.CompleteDocKey, err)
	}
}
