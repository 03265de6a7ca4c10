// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package ingest

import "time"

type Strategy string

const (
	// StrategyStreaming processes one member at a time and discards it.
	StrategyStreaming Strategy = "streaming"
	// StrategyBulk downloads every member first, then processes.
	StrategyBulk Strategy = "bulk"
)

// Candidate is one location where the expected dataset layout might
// land after extraction. All three paths are relative: Root to the
// extraction directory, Train/Val to Root.
type Candidate struct {
	Root  string
	Train string
	Val   string
}

// DatasetStructure is produced by the resolver only when the
// validation thresholds are met.
type DatasetStructure struct {
	RootPath         string
	TrainPath        string
	ValPath          string
	ClassCount       int
	TrainSampleCount int
	ValSampleCount   int
}

// MemberOutcome records how far one archive member got.
type MemberOutcome struct {
	Member         string `json:"member"`
	Status         string `json:"status"` // done | fetch_failed | extract_failed | no_structure | reorganize_failed
	Error          string `json:"error,omitempty"`
	RawUploaded    bool   `json:"raw_uploaded"`
	CanonicalFiles int    `json:"canonical_files"`
}

// RunReport summarizes one orchestrator run. Overall success is a
// derived property (any canonical upload succeeded), recomputed at
// verification, not accumulated error state.
type RunReport struct {
	RunID               string          `json:"run_id"`
	Strategy            Strategy        `json:"strategy"`
	MembersProcessed    int             `json:"members_processed"`
	StructuresFound     int             `json:"structures_found"`
	RawUploads          int             `json:"raw_uploads"`
	CanonicalFiles      int             `json:"canonical_files"`
	CanonicalBytes      int64           `json:"canonical_bytes"`
	CanonicalRemotePath string          `json:"canonical_remote_path"`
	Verified            bool            `json:"verified"`
	CompletedAt         time.Time       `json:"completed_at"`
	Outcomes            []MemberOutcome `json:"outcomes"`
}
