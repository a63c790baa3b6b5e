// Package errmsg provides enhanced error message formatting with actionable suggestions.
package errmsg

import (
	"errors"
	"fmt"
	"io"
	"net"
	"strings"

	"github.com/addonmgr/addonmgr/internal/addon"
	"github.com/addonmgr/addonmgr/internal/catalog"
	"github.com/addonmgr/addonmgr/internal/download"
	"github.com/addonmgr/addonmgr/internal/install"
	"github.com/addonmgr/addonmgr/internal/release"
	"github.com/addonmgr/addonmgr/internal/selfupdate"
	"github.com/addonmgr/addonmgr/internal/store"
)

// ErrorContext provides additional context for error formatting
type ErrorContext struct {
	AddonID string // The addon being operated on (for suggestions)
}

func (c *ErrorContext) addon() string {
	if c == nil || c.AddonID == "" {
		return "<addon>"
	}
	return c.AddonID
}

// section collects causes and suggestions under the error message.
type section struct {
	causes      []string
	suggestions []string
}

func (s section) render(msg string) string {
	var sb strings.Builder
	sb.WriteString(msg)
	sb.WriteString("\n")
	if len(s.causes) > 0 {
		sb.WriteString("\nPossible causes:\n")
		for _, c := range s.causes {
			sb.WriteString("  - " + c + "\n")
		}
	}
	if len(s.suggestions) > 0 {
		sb.WriteString("\nSuggestions:\n")
		for _, c := range s.suggestions {
			sb.WriteString("  - " + c + "\n")
		}
	}
	return sb.String()
}

// Format returns a formatted error message with possible causes and suggestions.
// The context parameter is optional - pass nil for generic formatting.
func Format(err error, ctx *ErrorContext) string {
	if err == nil {
		return ""
	}
	msg := err.Error()

	switch {
	case errors.Is(err, addon.ErrNothingToEnable):
		return section{
			causes:      []string{"The addon is not installed, or is already enabled"},
			suggestions: []string{"Run 'addonmgr list' to see each addon's state"},
		}.render(msg)

	case errors.Is(err, addon.ErrNothingToDisable):
		return section{
			causes:      []string{"The addon is not installed, or is already disabled"},
			suggestions: []string{"Run 'addonmgr list' to see each addon's state"},
		}.render(msg)

	case errors.Is(err, store.ErrHostPathUnset):
		return section{
			causes:      []string{"The game installation folder has not been configured"},
			suggestions: []string{"Run 'addonmgr config set host_path <game folder>'"},
		}.render(msg)

	case errors.Is(err, store.ErrConfigCorrupt):
		return section{
			causes: []string{
				"The configuration document was edited by hand and is no longer valid TOML",
				"A previous run was killed by the system while writing",
			},
			suggestions: []string{
				"Fix or delete the file named above; addonmgr starts from an empty configuration without it",
				"Installed addons will be treated as not installed until they are updated again",
			},
		}.render(msg)

	case errors.Is(err, catalog.ErrUnknownAddon):
		return section{
			suggestions: []string{
				"Run 'addonmgr list' to see known addons",
				"Declare GitHub-hosted addons under [sources." + ctx.addon() + "] in the configuration",
			},
		}.render(msg)

	case errors.Is(err, selfupdate.ErrDevBuild):
		return section{
			suggestions: []string{"Install a tagged release of addonmgr to receive updates"},
		}.render(msg)

	case errors.Is(err, install.ErrInstallConflict):
		return section{
			causes: []string{
				"The game is running and holds the addon file open",
				"Insufficient permissions on the game folder",
			},
			suggestions: []string{
				"Close the game and run the command again",
				"Check that you can write to the game's bin folder",
			},
		}.render(msg)

	case errors.Is(err, download.ErrInsecureURL):
		return section{
			causes:      []string{"The release points to a plain HTTP URL"},
			suggestions: []string{"Report the issue to the addon's maintainer"},
		}.render(msg)

	case errors.Is(err, download.ErrTransfer):
		return section{
			causes: []string{
				"Network connection dropped during the download",
				"The file was removed from the release host",
			},
			suggestions: []string{
				fmt.Sprintf("Run 'addonmgr update %s' again", ctx.addon()),
				"Raise ADDONMGR_DOWNLOAD_TIMEOUT on slow connections",
			},
		}.render(msg)
	}

	var resolverErr *release.ResolverError
	if errors.As(err, &resolverErr) {
		return formatResolverError(msg, resolverErr)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return formatNetworkError(msg, netErr)
	}

	if isPermissionError(msg) {
		return section{
			causes: []string{
				"Insufficient permissions on $ADDONMGR_HOME or the game folder",
				"File or directory owned by a different user",
			},
			suggestions: []string{"Check permissions on ~/.addonmgr and the game's bin folder"},
		}.render(msg)
	}

	// Return original error for unrecognized types
	return msg
}

// Fprint writes the formatted error to w, prefixed with "Error: ".
func Fprint(w io.Writer, err error, ctx *ErrorContext) {
	if err == nil {
		return
	}
	out := Format(err, ctx)
	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	fmt.Fprintf(w, "Error: %s", out)
}

func formatResolverError(msg string, err *release.ResolverError) string {
	s := section{}
	switch err.Type {
	case release.ErrTypeMalformed:
		s.causes = []string{
			"The upstream project has not published a release yet",
			"The release does not contain the expected file",
		}
		s.suggestions = []string{"Installed files were left untouched; try again later"}
	case release.ErrTypeRateLimit:
		s.causes = []string{
			"Too many requests to the GitHub API",
			"Unauthenticated requests have lower limits",
		}
		s.suggestions = []string{
			"Set GITHUB_TOKEN environment variable to increase rate limit",
			"Wait a few minutes before retrying",
		}
	default:
		s.causes = []string{
			"Network connectivity issue",
			"Release host temporarily unavailable",
		}
		s.suggestions = []string{"Installed files were left untouched; try again later"}
		if hint := err.Suggestion(); hint != "" {
			s.suggestions = append([]string{hint}, s.suggestions...)
		}
	}
	return s.render(msg)
}

func formatNetworkError(msg string, err net.Error) string {
	s := section{suggestions: []string{"Check your internet connection", "Try again in a few minutes"}}
	if err.Timeout() {
		s.causes = []string{"Request timed out", "Slow or unstable network connection"}
	} else {
		s.causes = []string{"Network connectivity issue", "DNS resolution failure"}
	}
	s.causes = append(s.causes, "Firewall or proxy blocking the connection")
	return s.render(msg)
}

// isPermissionError checks if the error message indicates a permission issue
func isPermissionError(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "permission denied") ||
		strings.Contains(lower, "access denied") ||
		strings.Contains(lower, "operation not permitted")
}
