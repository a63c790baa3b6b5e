package progress

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBarFormatting(t *testing.T) {
	sizes := map[int64]string{
		0:       "0B",
		1023:    "1023B",
		2048:    "2.0KB",
		1572864: "1.5MB",
		5 << 30: "5.0GB",
	}
	for in, want := range sizes {
		require.Equal(t, want, formatBytes(in), "formatBytes(%d)", in)
	}

	durations := map[float64]string{
		-1:   "0:00",
		59.9: "0:59",
		125:  "2:05",
		7322: "2:02:02",
	}
	for in, want := range durations {
		require.Equal(t, want, formatDuration(in), "formatDuration(%v)", in)
	}
}

func TestBarNonTTY(t *testing.T) {
	output := &bytes.Buffer{}
	bar := NewBar(output, false)

	bar.Report(Event{Subject: "arcdps", Phase: PhaseResolving})
	bar.Report(Event{Subject: "arcdps", Phase: PhaseDownloading, Percent: 40, BytesDone: 40, BytesTotal: 100})
	bar.Report(Event{Subject: "arcdps", Phase: PhaseCompleted})
	bar.Report(Event{Subject: "loader", Phase: PhaseFailed, Err: errors.New("boom")})

	out := output.String()
	if !strings.Contains(out, "Checking for updates to arcdps\n") {
		t.Errorf("missing resolving line: %q", out)
	}
	if strings.Contains(out, "40%") {
		t.Errorf("non-TTY output should not contain progress bars: %q", out)
	}
	if !strings.Contains(out, "arcdps: done\n") {
		t.Errorf("missing completion line: %q", out)
	}
	if !strings.Contains(out, "loader: failed: boom") {
		t.Errorf("missing failure line: %q", out)
	}
}

func TestBarTTYRendersProgress(t *testing.T) {
	output := &bytes.Buffer{}
	bar := NewBar(output, true)

	bar.Report(Event{Subject: "loader", Phase: PhaseDownloading, Percent: 10, BytesDone: 100, BytesTotal: 1000})
	time.Sleep(150 * time.Millisecond)
	bar.Report(Event{Subject: "loader", Phase: PhaseDownloading, Percent: 50, BytesDone: 500, BytesTotal: 1000})

	if !strings.Contains(output.String(), " 50%") {
		t.Errorf("expected rendered percentage, got %q", output.String())
	}
}

func TestShouldShowProgress(t *testing.T) {
	origFunc := IsTerminalFunc
	defer func() { IsTerminalFunc = origFunc }()

	IsTerminalFunc = func(fd int) bool { return true }
	if !ShouldShowProgress() {
		t.Error("ShouldShowProgress() = false when terminal, want true")
	}

	IsTerminalFunc = func(fd int) bool { return false }
	if ShouldShowProgress() {
		t.Error("ShouldShowProgress() = true when not terminal, want false")
	}
}
