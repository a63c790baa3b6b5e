// Package install turns a downloaded artifact into installed files. Two
// strategies exist: ArchiveReplace extracts an archive over the target
// directory, SingleFileStamp copies one file into place. Both are idempotent
// and remove a previously installed file whose name differs from the new one.
package install

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Request describes one installation.
type Request struct {
	Artifact     string // downloaded file
	AssetName    string // published name; selects the archive format
	TargetDir    string // directory the addon is installed into
	FileName     string // primary file expected in TargetDir afterwards
	PreviousFile string // primary file of the prior install, if any
}

// Result describes the installed state.
type Result struct {
	FileName string   // primary file name, relative to TargetDir
	Files    []string // every file written, relative to TargetDir
}

// Strategy installs artifacts for one kind of addon.
type Strategy interface {
	Name() string
	Install(ctx context.Context, req Request) (*Result, error)
}

// Strategy names accepted by ByName.
const (
	StrategyArchive = "archive"
	StrategyFile    = "file"
)

// ByName returns the strategy registered under name.
func ByName(name string) (Strategy, error) {
	switch name {
	case StrategyArchive:
		return ArchiveReplace{}, nil
	case StrategyFile, "":
		return SingleFileStamp{}, nil
	default:
		return nil, fmt.Errorf("unknown install strategy %q (expected %q or %q)", name, StrategyArchive, StrategyFile)
	}
}

func validate(req Request) error {
	if req.TargetDir == "" {
		return errors.New("install target directory is empty")
	}
	if req.FileName == "" || filepath.Base(req.FileName) != req.FileName {
		return fmt.Errorf("invalid install file name %q", req.FileName)
	}
	if req.PreviousFile != "" && filepath.Base(req.PreviousFile) != req.PreviousFile {
		return fmt.Errorf("invalid previous file name %q", req.PreviousFile)
	}
	return nil
}

// removeIfExists removes path. A missing file is not an error; any other
// failure is an install conflict.
func removeIfExists(path string) error {
	err := os.Remove(path)
	if err == nil || errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return &ConflictError{Op: "remove", Path: path, Err: err}
}

// removePrevious removes the prior primary file when its name differs from
// the one about to be installed.
func removePrevious(req Request) error {
	if req.PreviousFile == "" || req.PreviousFile == req.FileName {
		return nil
	}
	return removeIfExists(filepath.Join(req.TargetDir, req.PreviousFile))
}

// moveFile renames src to dst, replacing dst. Windows refuses to rename over
// an existing file, so the destination is removed first there.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	if err := removeIfExists(dst); err != nil {
		return err
	}
	if err := os.Rename(src, dst); err != nil {
		return &ConflictError{Op: "write", Path: dst, Err: err}
	}
	return nil
}

// CopyFile copies src to dst through a temporary sibling file so dst is
// either the old or the new content, never a mix.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open artifact: %w", err)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return &ConflictError{Op: "mkdir", Path: filepath.Dir(dst), Err: err}
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*.tmp")
	if err != nil {
		return &ConflictError{Op: "write", Path: dst, Err: err}
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return &ConflictError{Op: "write", Path: dst, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return &ConflictError{Op: "write", Path: dst, Err: err}
	}

	if err := moveFile(tmpPath, dst); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}
