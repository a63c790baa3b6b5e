package release

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/addonmgr/addonmgr/internal/log"
	"github.com/addonmgr/addonmgr/internal/store"
)

// maxFingerprintSize bounds the checksum document; real ones are one line.
const maxFingerprintSize = 4096

// FingerprintResolver reports the latest release of a component that is
// always published at the same URL, identified by a content hash published
// alongside it (for example "d3d9.dll.md5sum").
type FingerprintResolver struct {
	client      *http.Client
	hashURL     string
	artifactURL string
}

// NewFingerprintResolver creates a resolver reading the hash at hashURL and
// reporting artifactURL as the download location. A nil client selects
// NewHTTPClient.
func NewFingerprintResolver(client *http.Client, hashURL, artifactURL string) *FingerprintResolver {
	if client == nil {
		client = NewHTTPClient()
	}
	return &FingerprintResolver{client: client, hashURL: hashURL, artifactURL: artifactURL}
}

func (r *FingerprintResolver) source() string {
	return "fingerprint:" + log.SanitizeURL(r.hashURL)
}

// Latest implements Resolver.
func (r *FingerprintResolver) Latest(ctx context.Context) (*ReleaseInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.hashURL, nil)
	if err != nil {
		return nil, &ResolverError{Type: ErrTypeMalformed, Source: r.source(), Message: "invalid checksum URL", Err: err}
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, wrapNetworkError(err, r.source(), "failed to fetch checksum")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500:
		return nil, &ResolverError{Type: ErrTypeNetwork, Source: r.source(), Message: fmt.Sprintf("server error (HTTP %d)", resp.StatusCode)}
	case resp.StatusCode != http.StatusOK:
		return nil, malformed(r.source(), fmt.Sprintf("unexpected HTTP %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFingerprintSize))
	if err != nil {
		return nil, wrapNetworkError(err, r.source(), "failed to read checksum")
	}

	hash, err := ParseFingerprint(string(body))
	if err != nil {
		return nil, &ResolverError{Type: ErrTypeMalformed, Source: r.source(), Message: "invalid checksum document", Err: err}
	}

	return &ReleaseInfo{
		Version:     hash,
		Kind:        store.KindHash,
		DownloadURL: r.artifactURL,
		AssetName:   path.Base(r.artifactURL),
	}, nil
}

// ParseFingerprint extracts the hash from checksum file content in the
// "<hash>  <filename>" or bare "<hash>" form. The hash is lower-cased.
func ParseFingerprint(content string) (string, error) {
	fields := strings.Fields(content)
	if len(fields) == 0 {
		return "", fmt.Errorf("empty checksum document")
	}
	hash := strings.ToLower(fields[0])
	if len(hash) < 6 {
		return "", fmt.Errorf("checksum %q too short", hash)
	}
	for _, c := range hash {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return "", fmt.Errorf("checksum %q is not hexadecimal", hash)
		}
	}
	return hash, nil
}
