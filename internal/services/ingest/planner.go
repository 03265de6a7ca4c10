// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package ingest

import (
	"syscall"

	"github.com/mlops-lab/dsingest/internal/utils"
)

// DefaultDiskThresholdBytes is the free-space level at which the whole
// dataset is assumed to fit locally.
const DefaultDiskThresholdBytes = 200 * 1024 * 1024 * 1024

// PlanStrategy is a pure function: space at or above the threshold
// selects bulk, anything below selects streaming.
func PlanStrategy(availableBytes, thresholdBytes int64) Strategy {
	if availableBytes >= thresholdBytes {
		return StrategyBulk
	}
	return StrategyStreaming
}

// AvailableBytes measures free space on the filesystem holding path.
// A measurement error degrades to 0, which planning treats as limited
// space rather than aborting.
func AvailableBytes(path string) int64 {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(path, &stat); err != nil {
		utils.Warnf("failed to stat filesystem at %s, assuming limited space: %v", path, err)
		return 0
	}
	return int64(stat.Bavail) * int64(stat.Bsize)
}
