package log

import (
	"io"
	"log/slog"
	"net/url"

	charmlog "github.com/charmbracelet/log"
)

// NewHandler returns the slog handler used by the CLI. Interactive sessions
// get charmbracelet/log's styled output; pipes and files get plain
// key=value text so logs stay grep-friendly.
func NewHandler(w io.Writer, level slog.Level, tty bool) slog.Handler {
	if !tty {
		return slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	}
	return charmlog.NewWithOptions(w, charmlog.Options{
		Level:           charmlog.Level(level),
		ReportTimestamp: false,
		Prefix:          "addonmgr",
	})
}

// SanitizeURL removes credentials, query and fragment from a URL before it is
// logged. Unparseable input is replaced rather than echoed.
func SanitizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<invalid-url>"
	}
	u.User = nil
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}
