package selfupdate

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/addonmgr/addonmgr/internal/config"
	"github.com/addonmgr/addonmgr/internal/log"
	"github.com/addonmgr/addonmgr/internal/progress"
	"github.com/addonmgr/addonmgr/internal/release"
	"github.com/addonmgr/addonmgr/internal/store"
	"github.com/addonmgr/addonmgr/internal/testutil"
)

type stubResolver struct {
	version string
	err     error
}

func (r stubResolver) Latest(context.Context) (*release.ReleaseInfo, error) {
	if r.err != nil {
		return nil, r.err
	}
	return &release.ReleaseInfo{
		Version:     r.version,
		Kind:        store.KindTag,
		DownloadURL: "https://github.com/fmmmlee/GW2-Addon-Manager/releases/download/" + r.version + "/update.zip",
	}, nil
}

type stubFetcher struct {
	calls int
	err   error
}

func (f *stubFetcher) Fetch(ctx context.Context, subject, url, dest string, report progress.Reporter) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}
	return os.WriteFile(dest, []byte("zip"), 0644)
}

type launch struct {
	path string
	args []string
}

func newController(t *testing.T, current string, r release.Resolver, f Fetcher) (*Controller, *config.Config, *[]launch) {
	t.Helper()
	cfg := testutil.NewTestConfig(t)
	t.Setenv(config.EnvUpdater, "/opt/addonmgr/addonmgr-updater")
	var launched []launch
	c := NewController(cfg, r, f, current,
		WithLogger(log.NewNoop()),
		WithLauncher(func(path string, args ...string) error {
			launched = append(launched, launch{path, args})
			return nil
		}),
	)
	return c, cfg, &launched
}

func TestBegin_StagesNewerRelease(t *testing.T) {
	f := &stubFetcher{}
	c, cfg, launched := newController(t, "v1.2.0", stubResolver{version: "v1.3.0"}, f)

	check, err := c.Begin(context.Background(), nil)
	require.NoError(t, err)
	require.True(t, check.Staged)
	require.Equal(t, "v1.3.0", check.Latest)
	require.True(t, c.Pending())
	require.Equal(t, 1, f.calls)
	testutil.AssertFileExists(t, filepath.Join(cfg.StagingDir, "update.zip"))

	applied, err := c.ApplyIfPending()
	require.NoError(t, err)
	require.True(t, applied)
	require.Equal(t, []launch{{"/opt/addonmgr/addonmgr-updater", []string{cfg.StagingDir}}}, *launched)

	// The flag is consumed once.
	applied, err = c.ApplyIfPending()
	require.NoError(t, err)
	require.False(t, applied)
	require.Len(t, *launched, 1)
}

func TestBegin_UpToDate(t *testing.T) {
	for _, latest := range []string{"v1.2.0", "v1.1.9", "1.2.0"} {
		t.Run(latest, func(t *testing.T) {
			f := &stubFetcher{}
			c, _, launched := newController(t, "v1.2.0", stubResolver{version: latest}, f)

			check, err := c.Begin(context.Background(), nil)
			require.NoError(t, err)
			require.False(t, check.Staged)
			require.False(t, c.Pending())
			require.Zero(t, f.calls)

			applied, err := c.ApplyIfPending()
			require.NoError(t, err)
			require.False(t, applied)
			require.Empty(t, *launched)
		})
	}
}

func TestBegin_ClearsStaleStaging(t *testing.T) {
	c, cfg, _ := newController(t, "v1.2.0", stubResolver{version: "v1.2.0"}, &stubFetcher{})
	stale := filepath.Join(cfg.StagingDir, "update.zip")
	testutil.WriteFile(t, stale, "partial")

	_, err := c.Begin(context.Background(), nil)
	require.NoError(t, err)
	testutil.AssertFileNotExists(t, stale)
}

func TestBegin_DevBuild(t *testing.T) {
	f := &stubFetcher{}
	c, _, _ := newController(t, "dev-abc123", stubResolver{version: "v9.0.0"}, f)

	_, err := c.Begin(context.Background(), nil)
	require.ErrorIs(t, err, ErrDevBuild)
	require.False(t, c.Pending())
	require.Zero(t, f.calls)
}

func TestBegin_Failures(t *testing.T) {
	t.Run("resolver", func(t *testing.T) {
		rerr := &release.ResolverError{Type: release.ErrTypeNetwork, Source: "s", Message: "down"}
		c, _, _ := newController(t, "v1.0.0", stubResolver{err: rerr}, &stubFetcher{})
		_, err := c.Begin(context.Background(), nil)
		require.ErrorIs(t, err, release.ErrNetwork)
		require.False(t, c.Pending())
	})

	t.Run("non-semver tag", func(t *testing.T) {
		c, _, _ := newController(t, "v1.0.0", stubResolver{version: "latest"}, &stubFetcher{})
		_, err := c.Begin(context.Background(), nil)
		require.ErrorIs(t, err, release.ErrMalformedResponse)
	})

	t.Run("download", func(t *testing.T) {
		f := &stubFetcher{err: errors.New("reset")}
		c, _, _ := newController(t, "v1.0.0", stubResolver{version: "v1.1.0"}, f)
		_, err := c.Begin(context.Background(), nil)
		require.Error(t, err)
		require.False(t, c.Pending())
	})
}

func TestApplyIfPending_LaunchFailure(t *testing.T) {
	cfg := testutil.NewTestConfig(t)
	c := NewController(cfg, stubResolver{version: "v2.0.0"}, &stubFetcher{}, "v1.0.0",
		WithLogger(log.NewNoop()),
		WithLauncher(func(string, ...string) error { return errors.New("exec format error") }),
	)
	_, err := c.Begin(context.Background(), nil)
	require.NoError(t, err)

	applied, err := c.ApplyIfPending()
	require.Error(t, err)
	require.False(t, applied)
}

func TestNewResolver_VersionedAssetName(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		require.Equal(t, "/repos/"+Repo+"/releases/latest", req.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"tag_name":"v1.2.0","assets":[{"name":"GW2-Addon-Manager-v1.2.0.zip",` +
			`"browser_download_url":"https://downloads.example.com/GW2-Addon-Manager-v1.2.0.zip"}]}`))
	}))
	t.Cleanup(server.Close)

	gh, err := release.NewGitHubClient(server.Client(), server.URL)
	require.NoError(t, err)
	r, err := NewResolver(gh)
	require.NoError(t, err)

	f := &stubFetcher{}
	c, cfg, _ := newController(t, "1.0.0", r, f)
	check, err := c.Begin(context.Background(), nil)
	require.NoError(t, err)
	require.True(t, check.Staged)
	require.Equal(t, 1, f.calls)
	testutil.AssertFileExists(t, filepath.Join(cfg.StagingDir, PackageName))
}
