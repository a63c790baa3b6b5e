package install

import (
	"errors"
	"fmt"
)

// ErrInstallConflict is matched by every *ConflictError.
var ErrInstallConflict = errors.New("install conflict")

// ErrArtifactMissing is returned when an archive does not contain the file
// the addon is expected to install.
var ErrArtifactMissing = errors.New("artifact missing from archive")

// ConflictError reports a filesystem write or removal that failed during
// installation, for example a file locked by the running host.
type ConflictError struct {
	Op   string // "remove", "write", "mkdir"
	Path string
	Err  error
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("install conflict: cannot %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *ConflictError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrInstallConflict) true for any ConflictError.
func (e *ConflictError) Is(target error) bool {
	return target == ErrInstallConflict
}
