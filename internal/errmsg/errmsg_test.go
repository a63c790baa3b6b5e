package errmsg

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"testing"

	"github.com/addonmgr/addonmgr/internal/addon"
	"github.com/addonmgr/addonmgr/internal/catalog"
	"github.com/addonmgr/addonmgr/internal/download"
	"github.com/addonmgr/addonmgr/internal/install"
	"github.com/addonmgr/addonmgr/internal/release"
	"github.com/addonmgr/addonmgr/internal/store"
)

func assertContains(t *testing.T, result string, checks ...string) {
	t.Helper()
	for _, check := range checks {
		if !strings.Contains(result, check) {
			t.Errorf("expected result to contain %q, got:\n%s", check, result)
		}
	}
}

func TestFormat_NilError(t *testing.T) {
	if result := Format(nil, nil); result != "" {
		t.Errorf("expected empty string for nil error, got %q", result)
	}
}

func TestFormat_GenericError(t *testing.T) {
	err := errors.New("something went wrong")
	if result := Format(err, nil); result != "something went wrong" {
		t.Errorf("expected original error message, got %q", result)
	}
}

func TestFormat_ResolverErrors(t *testing.T) {
	network := &release.ResolverError{Type: release.ErrTypeTimeout, Source: "github:o/r", Message: "failed to get latest release"}
	assertContains(t, Format(network, nil),
		"failed to get latest release", "Possible causes:", "Network connectivity issue", "ADDONMGR_API_TIMEOUT", "left untouched")

	rate := &release.ResolverError{Type: release.ErrTypeRateLimit, Source: "github:o/r", Message: "rate limited"}
	assertContains(t, Format(rate, nil), "GITHUB_TOKEN")

	malformed := &release.ResolverError{Type: release.ErrTypeMalformed, Source: "github:o/r", Message: "no assets"}
	assertContains(t, Format(malformed, nil), "not published a release")
}

func TestFormat_CycleErrorUnwraps(t *testing.T) {
	err := &addon.CycleError{
		Addon: "arcdps",
		Phase: "installing",
		Err:   &install.ConflictError{Op: "remove", Path: "/game/bin64/d3d9.dll", Err: errors.New("text file busy")},
	}
	assertContains(t, Format(err, &ErrorContext{AddonID: "arcdps"}),
		"arcdps: installing failed", "Close the game")
}

func TestFormat_Transfer(t *testing.T) {
	err := &download.TransferError{Task: &download.Task{SourceURL: "https://example.com/a.dll"}, Message: "HTTP 500"}
	assertContains(t, Format(err, &ErrorContext{AddonID: "arcdps"}),
		"HTTP 500", "addonmgr update arcdps", "ADDONMGR_DOWNLOAD_TIMEOUT")
}

func TestFormat_StateErrors(t *testing.T) {
	assertContains(t, Format(fmt.Errorf("enable: %w", addon.ErrNothingToEnable), nil), "already enabled")
	assertContains(t, Format(addon.ErrNothingToDisable, nil), "already disabled")
	assertContains(t, Format(store.ErrHostPathUnset, nil), "config set host_path")
	assertContains(t, Format(&store.CorruptError{Path: "/x/addonmgr.toml", Err: errors.New("bad")}, nil),
		"/x/addonmgr.toml", "empty configuration")
	assertContains(t, Format(fmt.Errorf("%w: foo", catalog.ErrUnknownAddon), &ErrorContext{AddonID: "foo"}),
		"addonmgr list", "[sources.foo]")
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

var _ net.Error = timeoutErr{}

func TestFormat_NetworkError(t *testing.T) {
	assertContains(t, Format(timeoutErr{}, nil), "Request timed out", "Check your internet connection")
}

func TestFormat_PermissionError(t *testing.T) {
	assertContains(t, Format(errors.New("open /game/bin64: permission denied"), nil), "ADDONMGR_HOME")
}

func TestFprint(t *testing.T) {
	var sb strings.Builder
	Fprint(&sb, errors.New("boom"), nil)
	if sb.String() != "Error: boom\n" {
		t.Errorf("unexpected output %q", sb.String())
	}

	sb.Reset()
	Fprint(&sb, nil, nil)
	if sb.String() != "" {
		t.Errorf("expected no output for nil error, got %q", sb.String())
	}
}
