package install

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// ArchiveReplace extracts a release archive into the target directory. The
// archive is unpacked into a staging directory next to the target first, so
// a corrupt archive never removes the currently installed files.
type ArchiveReplace struct{}

// Name implements Strategy.
func (ArchiveReplace) Name() string { return StrategyArchive }

// Install implements Strategy.
func (ArchiveReplace) Install(ctx context.Context, req Request) (*Result, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	name := req.AssetName
	if name == "" {
		name = filepath.Base(req.Artifact)
	}
	format := DetectFormat(name)
	if format == FormatUnknown {
		return nil, fmt.Errorf("unsupported archive format: %s", name)
	}

	if err := os.MkdirAll(req.TargetDir, 0755); err != nil {
		return nil, &ConflictError{Op: "mkdir", Path: req.TargetDir, Err: err}
	}
	staging, err := os.MkdirTemp(req.TargetDir, ".extract-*")
	if err != nil {
		return nil, &ConflictError{Op: "mkdir", Path: req.TargetDir, Err: err}
	}
	defer os.RemoveAll(staging)

	if err := Extract(ctx, req.Artifact, format, staging); err != nil {
		return nil, err
	}

	if _, err := os.Stat(filepath.Join(staging, req.FileName)); err != nil {
		return nil, fmt.Errorf("%w: %s not found in %s", ErrArtifactMissing, req.FileName, name)
	}

	if err := removeIfExists(filepath.Join(req.TargetDir, req.FileName)); err != nil {
		return nil, err
	}
	if err := removePrevious(req); err != nil {
		return nil, err
	}

	files, err := promote(staging, req.TargetDir)
	if err != nil {
		return nil, err
	}
	return &Result{FileName: req.FileName, Files: files}, nil
}

// promote moves every entry of staging into dir, replacing existing files,
// and returns the moved paths relative to dir.
func promote(staging, dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(staging, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(staging, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		dst := filepath.Join(dir, rel)

		if d.IsDir() {
			if err := os.MkdirAll(dst, 0755); err != nil {
				return &ConflictError{Op: "mkdir", Path: dst, Err: err}
			}
			return nil
		}
		if err := moveFile(path, dst); err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		var conflict *ConflictError
		if errors.As(err, &conflict) {
			return nil, err
		}
		return nil, &ConflictError{Op: "write", Path: dir, Err: err}
	}
	sort.Strings(files)
	return files, nil
}
