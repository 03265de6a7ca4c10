// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mlops-lab/dsingest/internal/utils"
)

// Validation thresholds. The canonical dataset defines 1000 classes;
// partial extractions are rejected. Both are strict "greater than".
const (
	MinClassDirs     = 900
	MinFlatValImages = 10000
	MinValSubdirs    = 900
)

// DefaultCandidates lists the known extraction layouts, most
// archive-specific first, most generic last.
func DefaultCandidates() []Candidate {
	return []Candidate{
		{Root: "ILSVRC/Data/CLS-LOC", Train: "train", Val: "val"},
		{Root: "imagenet_object_localization_patched2019/ILSVRC/Data/CLS-LOC", Train: "train", Val: "val"},
		{Root: "data", Train: "train", Val: "val"},
		{Root: ".", Train: "train", Val: "val"},
	}
}

// Resolver searches a prioritized candidate list for a directory
// layout matching the expected training/validation split.
type Resolver struct {
	candidates []Candidate
}

func NewResolver(candidates []Candidate) *Resolver {
	if len(candidates) == 0 {
		candidates = DefaultCandidates()
	}
	return &Resolver{candidates: candidates}
}

// Resolve checks candidates in priority order and returns the first
// one whose training and validation subpaths exist and pass the
// thresholds. Not every archive member contains the full structure, so
// ErrStructureNotFound is a normal, member-local outcome.
func (r *Resolver) Resolve(root string) (*DatasetStructure, error) {
	for i, cand := range r.candidates {
		candRoot := filepath.Join(root, filepath.FromSlash(cand.Root))
		trainPath := filepath.Join(candRoot, filepath.FromSlash(cand.Train))
		valPath := filepath.Join(candRoot, filepath.FromSlash(cand.Val))

		if !isDir(trainPath) || !isDir(valPath) {
			continue
		}

		classDirs, trainSamples := countClassDirs(trainPath)
		valImages, valSubdirs := countValEntries(valPath)

		if classDirs <= MinClassDirs {
			utils.Infof("candidate %d (%s): only %d class directories, need more than %d",
				i, cand.Root, classDirs, MinClassDirs)
			continue
		}
		// validation data is accepted either as one flat pool of
		// images or as per-class subdirectories
		if valImages <= MinFlatValImages && valSubdirs <= MinValSubdirs {
			utils.Infof("candidate %d (%s): validation too small (%d images, %d subdirs)",
				i, cand.Root, valImages, valSubdirs)
			continue
		}

		valSamples := valImages
		if valSubdirs > MinValSubdirs {
			valSamples = countFilesRecursive(valPath)
		}

		utils.Infof("resolved structure at %s: %d classes, %d train samples, %d val samples",
			candRoot, classDirs, trainSamples, valSamples)
		return &DatasetStructure{
			RootPath:         candRoot,
			TrainPath:        trainPath,
			ValPath:          valPath,
			ClassCount:       classDirs,
			TrainSampleCount: trainSamples,
			ValSampleCount:   valSamples,
		}, nil
	}

	return nil, fmt.Errorf("%w: tried %d candidates under %s", ErrStructureNotFound, len(r.candidates), root)
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// countClassDirs returns the number of class directories directly
// under trainPath and the total sample files inside them.
func countClassDirs(trainPath string) (dirs, samples int) {
	entries, err := os.ReadDir(trainPath)
	if err != nil {
		return 0, 0
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dirs++
		sub, err := os.ReadDir(filepath.Join(trainPath, e.Name()))
		if err != nil {
			continue
		}
		for _, f := range sub {
			if !f.IsDir() {
				samples++
			}
		}
	}
	return dirs, samples
}

// countValEntries returns the flat image count and the subdirectory
// count directly under valPath.
func countValEntries(valPath string) (images, subdirs int) {
	entries, err := os.ReadDir(valPath)
	if err != nil {
		return 0, 0
	}
	for _, e := range entries {
		if e.IsDir() {
			subdirs++
			continue
		}
		for _, ext := range utils.AllowedImageExtensions {
			if strings.HasSuffix(e.Name(), ext) {
				images++
				break
			}
		}
	}
	return images, subdirs
}

func countFilesRecursive(root string) int {
	var n int
	_ = filepath.Walk(root, func(_ string, info os.FileInfo, err error) error {
		if err == nil && info.Mode().IsRegular() {
			n++
		}
		return nil
	})
	return n
}
