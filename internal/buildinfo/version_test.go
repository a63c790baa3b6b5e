package buildinfo

import (
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/require"
)

func withBuildInfo(t *testing.T, stamp string, info *debug.BuildInfo) {
	t.Helper()
	oldVersion, oldRead := version, readBuildInfo
	version = stamp
	readBuildInfo = func() (*debug.BuildInfo, bool) { return info, info != nil }
	t.Cleanup(func() {
		version, readBuildInfo = oldVersion, oldRead
	})
}

func TestDevVersion(t *testing.T) {
	tests := []struct {
		name     string
		settings []debug.BuildSetting
		expected string
	}{
		{"no vcs info", nil, "dev"},
		{"long revision truncated", []debug.BuildSetting{{Key: "vcs.revision", Value: "abc123def456789"}}, "dev-abc123def456"},
		{"short revision", []debug.BuildSetting{{Key: "vcs.revision", Value: "abc123"}}, "dev-abc123"},
		{"dirty", []debug.BuildSetting{
			{Key: "vcs.revision", Value: "abc123def456789"},
			{Key: "vcs.modified", Value: "true"},
		}, "dev-abc123def456-dirty"},
		{"clean", []debug.BuildSetting{
			{Key: "vcs.revision", Value: "abc123def456789"},
			{Key: "vcs.modified", Value: "false"},
		}, "dev-abc123def456"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, devVersion(&debug.BuildInfo{Settings: tt.settings}))
		})
	}
}

func TestVersion_Resolution(t *testing.T) {
	t.Run("ldflags stamp wins", func(t *testing.T) {
		withBuildInfo(t, "v1.4.0", &debug.BuildInfo{Main: debug.Module{Version: "v0.9.0"}})
		require.Equal(t, "v1.4.0", Version())
	})

	t.Run("module version", func(t *testing.T) {
		withBuildInfo(t, "", &debug.BuildInfo{Main: debug.Module{Version: "v0.9.0"}})
		require.Equal(t, "v0.9.0", Version())
	})

	t.Run("devel falls back to vcs", func(t *testing.T) {
		withBuildInfo(t, "", &debug.BuildInfo{
			Main:     debug.Module{Version: "(devel)"},
			Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "0123456789abcdef"}},
		})
		require.Equal(t, "dev-0123456789ab", Version())
	})

	t.Run("no build info", func(t *testing.T) {
		withBuildInfo(t, "", nil)
		require.Equal(t, "unknown", Version())
	})
}
