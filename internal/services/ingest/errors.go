// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package ingest

import "errors"

// Member-local conditions are non-fatal to the run; only
// ErrNoMembersFound terminates it.
var (
	ErrFetchFailed       = errors.New("fetch failed")
	ErrExtractFailed     = errors.New("extract failed")
	ErrStructureNotFound = errors.New("structure not found")
	ErrReorganizeFailed  = errors.New("reorganize failed")
	ErrNoMembersFound    = errors.New("no archive members found")
)
