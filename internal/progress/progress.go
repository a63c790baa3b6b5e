package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"
)

// IsTerminalFunc is the function used to check if a file descriptor is a terminal.
// It can be overridden for testing.
var IsTerminalFunc = term.IsTerminal

// Bar renders Events as a single-line progress display.
type Bar struct {
	output    io.Writer
	tty       bool
	startTime time.Time
	lastPrint time.Time
	subject   string
	mu        sync.Mutex
}

// NewBar creates a Bar writing to output. When tty is false only phase
// changes and terminal events are printed, one per line.
func NewBar(output io.Writer, tty bool) *Bar {
	return &Bar{
		output: output,
		tty:    tty,
	}
}

// Report implements Reporter.
func (b *Bar) Report(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ev.Subject != b.subject {
		b.subject = ev.Subject
		b.startTime = time.Now()
		b.lastPrint = time.Time{}
	}

	switch ev.Phase {
	case PhaseDownloading:
		if b.tty {
			b.printProgress(ev)
		}
	case PhaseCompleted, PhaseSkipped, PhaseFailed:
		b.clear()
		fmt.Fprintf(b.output, "%s\n", describe(ev))
	default:
		b.clear()
		if b.tty {
			fmt.Fprintf(b.output, "\r%s", pad(describe(ev)))
		} else {
			fmt.Fprintf(b.output, "%s\n", describe(ev))
		}
	}
}

// clear wipes the current line on terminals.
func (b *Bar) clear() {
	if b.tty {
		fmt.Fprintf(b.output, "\r%s\r", strings.Repeat(" ", 80))
	}
}

func describe(ev Event) string {
	if ev.Message != "" {
		return fmt.Sprintf("%s: %s", ev.Subject, ev.Message)
	}
	switch ev.Phase {
	case PhaseResolving:
		return fmt.Sprintf("Checking for updates to %s", ev.Subject)
	case PhaseDownloading:
		return fmt.Sprintf("Downloading %s", ev.Subject)
	case PhaseInstalling:
		return fmt.Sprintf("Installing %s", ev.Subject)
	case PhaseCompleted:
		return fmt.Sprintf("%s: done", ev.Subject)
	case PhaseSkipped:
		return fmt.Sprintf("%s: up to date", ev.Subject)
	case PhaseFailed:
		if ev.Err != nil {
			return fmt.Sprintf("%s: failed: %v", ev.Subject, ev.Err)
		}
		return fmt.Sprintf("%s: failed", ev.Subject)
	}
	return ev.Subject
}

// printProgress displays the current download progress
func (b *Bar) printProgress(ev Event) {
	// Rate limit updates to avoid flickering (max 10 updates per second)
	now := time.Now()
	if now.Sub(b.lastPrint) < 100*time.Millisecond {
		return
	}
	b.lastPrint = now

	elapsed := now.Sub(b.startTime).Seconds()
	if elapsed < 0.1 {
		return
	}
	speed := float64(ev.BytesDone) / elapsed

	var line string
	if ev.BytesTotal > 0 {
		var etaStr string
		if speed > 0 {
			remaining := float64(ev.BytesTotal-ev.BytesDone) / speed
			etaStr = formatDuration(remaining)
		} else {
			etaStr = "--:--"
		}

		barWidth := 30
		filled := ev.Percent * barWidth / 100
		if filled > barWidth {
			filled = barWidth
		}
		bar := strings.Repeat("=", filled)
		if filled < barWidth {
			bar += ">"
			bar += strings.Repeat(" ", barWidth-filled-1)
		}

		line = fmt.Sprintf("\r   %s [%s] %3d%% (%s/%s) ETA: %s",
			ev.Subject,
			bar,
			ev.Percent,
			formatBytes(ev.BytesDone),
			formatBytes(ev.BytesTotal),
			etaStr,
		)
	} else {
		line = fmt.Sprintf("\r   %s: %s (%s/s)",
			ev.Subject,
			formatBytes(ev.BytesDone),
			formatBytes(int64(speed)),
		)
	}

	_, _ = fmt.Fprint(b.output, pad(line))
}

// pad extends s to 80 columns to clear leftovers from a previous line.
func pad(s string) string {
	if len(s) < 80 {
		return s + strings.Repeat(" ", 80-len(s))
	}
	return s
}

// formatBytes formats bytes into human-readable format
func formatBytes(b int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case b >= GB:
		return fmt.Sprintf("%.1fGB", float64(b)/GB)
	case b >= MB:
		return fmt.Sprintf("%.1fMB", float64(b)/MB)
	case b >= KB:
		return fmt.Sprintf("%.1fKB", float64(b)/KB)
	default:
		return fmt.Sprintf("%dB", b)
	}
}

// formatDuration formats seconds into MM:SS or HH:MM:SS format
func formatDuration(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	s := int(seconds)
	if s >= 3600 {
		return fmt.Sprintf("%d:%02d:%02d", s/3600, (s%3600)/60, s%60)
	}
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}

// ShouldShowProgress returns true if progress should be displayed.
// Progress is shown when stdout is a terminal.
func ShouldShowProgress() bool {
	return IsTerminalFunc(int(os.Stdout.Fd()))
}
