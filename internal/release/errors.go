package release

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

// ErrorType says why a release lookup failed. Everything except
// ErrTypeMalformed means the endpoint could not be reached or answered.
type ErrorType int

const (
	ErrTypeNetwork ErrorType = iota // unclassified transport failure
	ErrTypeMalformed                // no tag, no matching asset, unparseable hash
	ErrTypeRateLimit
	ErrTypeTimeout
	ErrTypeDNS
	ErrTypeConnection // refused or reset
	ErrTypeTLS
)

var errorTypeNames = [...]string{
	ErrTypeNetwork:    "network",
	ErrTypeMalformed:  "malformed",
	ErrTypeRateLimit:  "rate-limit",
	ErrTypeTimeout:    "timeout",
	ErrTypeDNS:        "dns",
	ErrTypeConnection: "connection",
	ErrTypeTLS:        "tls",
}

func (t ErrorType) String() string {
	if int(t) >= 0 && int(t) < len(errorTypeNames) {
		return errorTypeNames[t]
	}
	return fmt.Sprintf("ErrorType(%d)", int(t))
}

// Sentinels matched by errors.Is against any *ResolverError of the
// corresponding family.
var (
	ErrNetwork           = errors.New("release endpoint unreachable")
	ErrMalformedResponse = errors.New("malformed release response")
)

// ResolverError provides structured error information for release resolution failures.
// Every ResolverError is non-fatal: callers keep the previously installed state.
type ResolverError struct {
	Type    ErrorType
	Source  string // endpoint description, e.g. "github:owner/repo"
	Message string // Human-readable error message
	Err     error  // Underlying error (if any)
}

func (e *ResolverError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s resolver: %s: %v", e.Source, e.Message, e.Err)
	}
	return fmt.Sprintf("%s resolver: %s", e.Source, e.Message)
}

func (e *ResolverError) Unwrap() error {
	return e.Err
}

// Is matches ErrMalformedResponse for malformed responses and ErrNetwork for
// every other type.
func (e *ResolverError) Is(target error) bool {
	switch target {
	case ErrMalformedResponse:
		return e.Type == ErrTypeMalformed
	case ErrNetwork:
		return e.Type != ErrTypeMalformed
	}
	return false
}

// Suggestion returns an actionable suggestion for the user based on the error type.
// Returns an empty string if no specific suggestion is available.
func (e *ResolverError) Suggestion() string {
	switch e.Type {
	case ErrTypeRateLimit:
		return "Wait a few minutes before trying again, or set GITHUB_TOKEN to authenticate"
	case ErrTypeTimeout:
		return "Check your internet connection, or raise ADDONMGR_API_TIMEOUT"
	case ErrTypeDNS:
		return "Check your DNS settings and internet connection"
	case ErrTypeConnection:
		return "The service may be down or blocked. Check if you can access it in a browser"
	case ErrTypeTLS:
		return "There may be a certificate issue. Check your system time is correct"
	case ErrTypeMalformed:
		return "The upstream project may not have published a usable release yet"
	case ErrTypeNetwork:
		return "Check your internet connection and try again"
	default:
		return ""
	}
}

// ClassifyError examines an error and returns the most specific ErrorType.
func ClassifyError(err error) ErrorType {
	if err == nil {
		return ErrTypeNetwork
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTypeTimeout
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsTimeout {
			return ErrTypeTimeout
		}
		return ErrTypeDNS
	}

	var certErr *tls.CertificateVerificationError
	if errors.As(err, &certErr) {
		return ErrTypeTLS
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Timeout() {
			return ErrTypeTimeout
		}
		return ErrTypeConnection
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return ErrTypeTimeout
		}
		msg := urlErr.Err.Error()
		if strings.Contains(msg, "certificate") ||
			strings.Contains(msg, "tls") ||
			strings.Contains(msg, "x509") {
			return ErrTypeTLS
		}
		return ClassifyError(urlErr.Err)
	}

	return ErrTypeNetwork
}

// wrapNetworkError wraps an error with the type chosen by ClassifyError.
func wrapNetworkError(err error, source, message string) *ResolverError {
	return &ResolverError{
		Type:    ClassifyError(err),
		Source:  source,
		Message: message,
		Err:     err,
	}
}

func malformed(source, message string) *ResolverError {
	return &ResolverError{Type: ErrTypeMalformed, Source: source, Message: message}
}
