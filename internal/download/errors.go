package download

import (
	"errors"
	"fmt"

	"github.com/addonmgr/addonmgr/internal/log"
)

// ErrTransfer is matched by every *TransferError.
var ErrTransfer = errors.New("transfer failed")

// ErrInsecureURL is returned for non-HTTPS download URLs.
var ErrInsecureURL = errors.New("insecure download URL")

// TransferError reports a failed download. The destination file is never
// modified when one is returned.
type TransferError struct {
	Task       *Task
	StatusCode int // HTTP status when the server answered with a failure
	Message    string
	Err        error
}

func (e *TransferError) Error() string {
	src := log.SanitizeURL(e.Task.SourceURL)
	if e.Err != nil {
		return fmt.Sprintf("download %s: %s: %v", src, e.Message, e.Err)
	}
	return fmt.Sprintf("download %s: %s", src, e.Message)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrTransfer) true for any TransferError.
func (e *TransferError) Is(target error) bool {
	return target == ErrTransfer
}
