package store

import (
	"errors"
	"fmt"
)

// ErrConfigCorrupt is matched by errors returned when the persisted document
// cannot be parsed.
var ErrConfigCorrupt = errors.New("config document corrupt")

// ErrHostPathUnset is returned when an operation needs the host installation
// root but none has been configured.
var ErrHostPathUnset = errors.New("host path not configured")

// CorruptError reports an unparseable configuration document.
type CorruptError struct {
	Path string
	Err  error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("config document %s is corrupt: %v", e.Path, e.Err)
}

func (e *CorruptError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrConfigCorrupt) true for any CorruptError.
func (e *CorruptError) Is(target error) bool {
	return target == ErrConfigCorrupt
}
