// Package release resolves the latest published release of an addon or of
// addonmgr itself. Two variants exist: GitHubResolver for components that
// publish tagged releases, and FingerprintResolver for components that only
// publish a content hash next to a fixed artifact URL.
package release

import (
	"context"
	"net/http"
	"time"

	"github.com/addonmgr/addonmgr/internal/config"
	"github.com/addonmgr/addonmgr/internal/httputil"
	"github.com/addonmgr/addonmgr/internal/store"
)

// ReleaseInfo describes the latest release of a component. It is produced per
// call and never cached across runs.
type ReleaseInfo struct {
	Version     string            // release tag or content hash
	Kind        store.VersionKind // how Version must be compared
	DownloadURL string            // primary artifact
	AssetName   string            // file name of the artifact as published
}

// Resolver returns the latest release of one component.
type Resolver interface {
	Latest(ctx context.Context) (*ReleaseInfo, error)
}

// NewHTTPClient creates the client used for release metadata requests.
// The timeout is configurable via ADDONMGR_API_TIMEOUT (default: 30s).
func NewHTTPClient() *http.Client {
	return httputil.NewSecureClient(httputil.ClientOptions{
		Timeout:      config.GetAPITimeout(),
		DialTimeout:  10 * time.Second,
		MaxRedirects: 5,
	})
}
