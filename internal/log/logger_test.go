package log

import (
	"bytes"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func newBuffered(level slog.Level) (Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: level})), &buf
}

func TestLogger_LevelsAndAttributes(t *testing.T) {
	logger, buf := newBuffered(slog.LevelDebug)

	logger.Debug("comparing fingerprints", "installed", "abc123", "latest", "def456")
	logger.Info("addon up to date", "addon", "arcdps")
	logger.Warn("configuration unreadable", "path", "/home/u/.addonmgr/addonmgr.toml")
	logger.Error("install failed", "addon", "addon-loader", "attempt", 1)

	out := buf.String()
	for _, want := range []string{
		"level=DEBUG", "installed=abc123", "latest=def456",
		"level=INFO", "addon=arcdps",
		"level=WARN", "path=/home/u/.addonmgr/addonmgr.toml",
		"level=ERROR", "attempt=1",
	} {
		require.Contains(t, out, want)
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	logger, buf := newBuffered(slog.LevelWarn)

	logger.Debug("dropped debug")
	logger.Info("dropped info")
	logger.Warn("kept warn")

	require.NotContains(t, buf.String(), "dropped")
	require.Contains(t, buf.String(), "kept warn")
}

func TestLogger_WithChains(t *testing.T) {
	logger, buf := newBuffered(slog.LevelDebug)

	logger.With("addon", "arcdps").With("phase", "downloading").Info("progress")

	require.Contains(t, buf.String(), "addon=arcdps")
	require.Contains(t, buf.String(), "phase=downloading")
}

func TestNoop(t *testing.T) {
	logger := NewNoop()
	logger.Error("ignored")
	require.Equal(t, logger, logger.With("k", "v"))
}

func TestDefault(t *testing.T) {
	original := Default()
	t.Cleanup(func() { SetDefault(original) })

	SetDefault(nil)
	Default().Info("no output, no panic")

	logger, buf := newBuffered(slog.LevelInfo)
	SetDefault(logger)
	Default().Info("through default")
	require.Contains(t, buf.String(), "through default")
}

func TestDefault_ConcurrentAccess(t *testing.T) {
	original := Default()
	t.Cleanup(func() { SetDefault(original) })

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				Default().Debug("read")
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				SetDefault(NewNoop())
			}
		}()
	}
	wg.Wait()
}
