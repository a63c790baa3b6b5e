package install

import (
	"context"
	"path/filepath"
)

// SingleFileStamp installs a downloaded file verbatim as TargetDir/FileName.
// The fingerprint is stamped onto the addon record by the caller.
type SingleFileStamp struct{}

// Name implements Strategy.
func (SingleFileStamp) Name() string { return StrategyFile }

// Install implements Strategy.
func (SingleFileStamp) Install(ctx context.Context, req Request) (*Result, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := CopyFile(req.Artifact, filepath.Join(req.TargetDir, req.FileName)); err != nil {
		return nil, err
	}
	if err := removePrevious(req); err != nil {
		return nil, err
	}

	return &Result{FileName: req.FileName, Files: []string{req.FileName}}, nil
}
