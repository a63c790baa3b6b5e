package store

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/addonmgr/addonmgr/internal/testutil"
)

const legacyYAML = `game_path: /games/host
bin_folder: bin64
loader_version: v1.2.0
installed:
  arcdps: d3d9.dll
  radial: ""
version:
  arcdps: 0123456789abcdef0123456789abcdef
  radial: v2.0.0
disabled:
  arcdps: true
`

func TestImportLegacy(t *testing.T) {
	cfg := testutil.NewTestConfig(t)
	testutil.WriteFile(t, cfg.LegacyConfigFile, legacyYAML)

	doc, err := ImportLegacy(cfg.LegacyConfigFile)
	require.NoError(t, err)
	require.Equal(t, "/games/host", doc.Settings.HostPath)
	require.Equal(t, "v1.2.0", doc.Settings.LoaderVersion)

	arc := doc.Record("arcdps")
	require.Equal(t, "d3d9.dll", arc.InstalledFile)
	require.Equal(t, KindHash, arc.VersionKind)
	require.True(t, arc.Disabled)

	// A version without an installed file is not a valid record.
	_, ok := doc.Addons["radial"]
	require.False(t, ok)

	loader := doc.Record(HostLoaderID)
	require.Equal(t, "v1.2.0", loader.InstalledVersion)
	require.Equal(t, KindTag, loader.VersionKind)
	require.Equal(t, HostLoaderFile, loader.InstalledFile)
	require.True(t, loader.Enabled())
}

func TestImportLegacyWithoutLoader(t *testing.T) {
	cfg := testutil.NewTestConfig(t)
	testutil.WriteFile(t, cfg.LegacyConfigFile, "game_path: /games/host\ninstalled:\n  arcdps: d3d9.dll\n")

	doc, err := ImportLegacy(cfg.LegacyConfigFile)
	require.NoError(t, err)
	require.False(t, doc.Record(HostLoaderID).Installed())
	require.Equal(t, "d3d9.dll", doc.Record("arcdps").InstalledFile)
}

func TestStore_LoadImportsLegacyOnce(t *testing.T) {
	cfg := testutil.NewTestConfig(t)
	testutil.WriteFile(t, cfg.LegacyConfigFile, legacyYAML)
	s := New(cfg)

	doc, err := s.Load()
	require.NoError(t, err)
	require.Equal(t, "/games/host", doc.Settings.HostPath)
	testutil.AssertFileExists(t, cfg.ConfigFile)

	// Once the TOML document exists, the legacy file is no longer consulted.
	testutil.WriteFile(t, cfg.LegacyConfigFile, "game_path: /elsewhere\n")
	doc, err = s.Load()
	require.NoError(t, err)
	require.Equal(t, "/games/host", doc.Settings.HostPath)
}

func TestStore_ConcurrentLegacyImport(t *testing.T) {
	cfg := testutil.NewTestConfig(t)
	testutil.WriteFile(t, cfg.LegacyConfigFile, legacyYAML)

	// Separate stores share only the file lock, like separate processes.
	var wg sync.WaitGroup
	docs := make([]*Document, 8)
	errs := make([]error, 8)
	for i := range docs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			docs[i], errs[i] = New(cfg).Load()
		}(i)
	}
	wg.Wait()

	for i := range docs {
		require.NoError(t, errs[i])
		require.Equal(t, "/games/host", docs[i].Settings.HostPath)
		require.Equal(t, "d3d9.dll", docs[i].Record("arcdps").InstalledFile)
	}
	testutil.AssertFileExists(t, cfg.ConfigFile)
	testutil.AssertFileNotExists(t, cfg.ConfigFile+".tmp")
	require.False(t, New(cfg).importPending())
}

func TestStore_ImportPending(t *testing.T) {
	cfg := testutil.NewTestConfig(t)
	s := New(cfg)
	require.False(t, s.importPending())

	testutil.WriteFile(t, cfg.LegacyConfigFile, legacyYAML)
	require.True(t, s.importPending())

	_, err := s.Load()
	require.NoError(t, err)
	require.False(t, s.importPending())
}

func TestImportLegacyCorrupt(t *testing.T) {
	cfg := testutil.NewTestConfig(t)
	testutil.WriteFile(t, cfg.LegacyConfigFile, "installed: [unterminated")

	_, err := ImportLegacy(cfg.LegacyConfigFile)
	require.ErrorIs(t, err, ErrConfigCorrupt)
}

func TestGuessKind(t *testing.T) {
	require.Equal(t, KindHash, guessKind("0123456789abcdef0123456789ABCDEF"))
	require.Equal(t, KindTag, guessKind("v1.0.0"))
	require.Equal(t, KindTag, guessKind("0123456789abcdef"))
}
