package release

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"

	"github.com/addonmgr/addonmgr/internal/store"
)

// NewGitHubClient creates a GitHub API client on top of httpClient. If the
// GITHUB_TOKEN environment variable is set it is used for authenticated
// requests. A non-empty baseURL replaces https://api.github.com/.
func NewGitHubClient(httpClient *http.Client, baseURL string) (*github.Client, error) {
	if httpClient == nil {
		httpClient = NewHTTPClient()
	}
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
		httpClient = oauth2.NewClient(ctx, ts)
	}

	client := github.NewClient(httpClient)
	if baseURL != "" {
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub API URL %q: %w", baseURL, err)
		}
		client.BaseURL = u
	}
	return client, nil
}

// GitHubResolver resolves the latest GitHub release of a repository and
// selects one of its assets.
type GitHubResolver struct {
	client *github.Client
	owner  string
	repo   string
	asset  string // glob; empty selects the first asset
}

// NewGitHubResolver creates a resolver for repo ("owner/name"). assetPattern
// is a path.Match glob selecting the release asset; when empty the first
// asset is used.
func NewGitHubResolver(client *github.Client, repo, assetPattern string) (*GitHubResolver, error) {
	owner, name, err := parseRepo(repo)
	if err != nil {
		return nil, err
	}
	if assetPattern != "" {
		if _, err := path.Match(assetPattern, ""); err != nil {
			return nil, fmt.Errorf("invalid asset pattern %q: %w", assetPattern, err)
		}
	}
	return &GitHubResolver{client: client, owner: owner, repo: name, asset: assetPattern}, nil
}

func (r *GitHubResolver) source() string {
	return "github:" + r.owner + "/" + r.repo
}

// Latest implements Resolver.
func (r *GitHubResolver) Latest(ctx context.Context) (*ReleaseInfo, error) {
	rel, resp, err := r.client.Repositories.GetLatestRelease(ctx, r.owner, r.repo)
	if err != nil {
		return nil, r.classify(err, resp)
	}

	tag := strings.TrimSpace(rel.GetTagName())
	if tag == "" {
		return nil, malformed(r.source(), "latest release has no tag")
	}
	if len(rel.Assets) == 0 {
		return nil, malformed(r.source(), fmt.Sprintf("release %s has no assets", tag))
	}

	asset := r.pick(rel.Assets)
	if asset == nil {
		return nil, malformed(r.source(), fmt.Sprintf("release %s has no asset matching %q", tag, r.asset))
	}
	if asset.GetBrowserDownloadURL() == "" {
		return nil, malformed(r.source(), fmt.Sprintf("asset %s has no download URL", asset.GetName()))
	}

	return &ReleaseInfo{
		Version:     tag,
		Kind:        store.KindTag,
		DownloadURL: asset.GetBrowserDownloadURL(),
		AssetName:   asset.GetName(),
	}, nil
}

func (r *GitHubResolver) pick(assets []*github.ReleaseAsset) *github.ReleaseAsset {
	if r.asset == "" {
		return assets[0]
	}
	for _, a := range assets {
		if ok, _ := path.Match(r.asset, a.GetName()); ok {
			return a
		}
	}
	return nil
}

// classify maps a go-github error onto the resolver taxonomy. A missing
// release (404) is a malformed response; everything else, including rate
// limits and server errors, counts as a network failure.
func (r *GitHubResolver) classify(err error, resp *github.Response) *ResolverError {
	var rateErr *github.RateLimitError
	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &rateErr) || errors.As(err, &abuseErr) {
		return &ResolverError{Type: ErrTypeRateLimit, Source: r.source(), Message: "GitHub API rate limit exceeded", Err: err}
	}

	if resp != nil && resp.Response != nil {
		switch {
		case resp.StatusCode < 300:
			return &ResolverError{Type: ErrTypeMalformed, Source: r.source(), Message: "unparseable release document", Err: err}
		case resp.StatusCode == http.StatusNotFound:
			return &ResolverError{Type: ErrTypeMalformed, Source: r.source(), Message: "no published release", Err: err}
		case resp.StatusCode >= 500:
			return &ResolverError{Type: ErrTypeNetwork, Source: r.source(), Message: fmt.Sprintf("server error (HTTP %d)", resp.StatusCode), Err: err}
		case resp.StatusCode >= 400:
			return &ResolverError{Type: ErrTypeMalformed, Source: r.source(), Message: fmt.Sprintf("unexpected HTTP %d", resp.StatusCode), Err: err}
		}
	}

	return wrapNetworkError(err, r.source(), "failed to get latest release")
}

// parseRepo splits "owner/name".
func parseRepo(repo string) (owner, name string, err error) {
	parts := strings.Split(repo, "/")
	if len(parts) != 2 {
		return "", "", fmt.Errorf("invalid repo format '%s': expected 'owner/repo'", repo)
	}

	owner = strings.TrimSpace(parts[0])
	name = strings.TrimSpace(parts[1])

	if owner == "" || name == "" {
		return "", "", fmt.Errorf("invalid repo format '%s': owner and name must not be empty", repo)
	}

	return owner, name, nil
}
