package httputil

import (
	"net"
	"net/http"
	"time"
)

// DefaultUserAgent identifies addonmgr to release hosts. Some hosts reject
// requests without a User-Agent.
const DefaultUserAgent = "addonmgr"

// ClientOptions configures the HTTP client shared by release resolution and
// artifact downloads.
type ClientOptions struct {
	// Timeout is the overall request timeout. Default: 30s.
	// Artifact downloads pass a longer value.
	Timeout time.Duration

	// DialTimeout is the TCP dial timeout. Default: 30s.
	DialTimeout time.Duration

	// TLSHandshakeTimeout is the TLS handshake timeout. Default: 10s.
	TLSHandshakeTimeout time.Duration

	// ResponseHeaderTimeout is the time to wait for response headers. Default: 10s.
	ResponseHeaderTimeout time.Duration

	// MaxRedirects is the maximum redirect depth. Default: 10.
	MaxRedirects int

	// EnableCompression enables Accept-Encoding header. Default: false.
	// Artifacts are written verbatim, so transparent decompression stays off.
	EnableCompression bool

	// UserAgent is sent on every request. Default: DefaultUserAgent.
	UserAgent string
}

// DefaultOptions returns the default client options.
func DefaultOptions() ClientOptions {
	return ClientOptions{
		Timeout:               30 * time.Second,
		DialTimeout:           30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 10 * time.Second,
		MaxRedirects:          10,
		EnableCompression:     false,
		UserAgent:             DefaultUserAgent,
	}
}

// NewSecureClient creates an HTTP client with redirect hardening:
//   - HTTPS-only redirects
//   - redirect targets resolving to private, loopback or link-local IPs are refused
//   - configurable redirect chain limit
//
// Every request carries the configured User-Agent.
func NewSecureClient(opts ClientOptions) *http.Client {
	def := DefaultOptions()
	if opts.Timeout == 0 {
		opts.Timeout = def.Timeout
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = def.DialTimeout
	}
	if opts.TLSHandshakeTimeout == 0 {
		opts.TLSHandshakeTimeout = def.TLSHandshakeTimeout
	}
	if opts.ResponseHeaderTimeout == 0 {
		opts.ResponseHeaderTimeout = def.ResponseHeaderTimeout
	}
	if opts.MaxRedirects == 0 {
		opts.MaxRedirects = def.MaxRedirects
	}
	if opts.UserAgent == "" {
		opts.UserAgent = def.UserAgent
	}

	base := &http.Transport{
		Proxy:              http.ProxyFromEnvironment,
		DisableCompression: !opts.EnableCompression,
		DialContext: (&net.Dialer{
			Timeout:   opts.DialTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   opts.TLSHandshakeTimeout,
		ResponseHeaderTimeout: opts.ResponseHeaderTimeout,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
	}

	return &http.Client{
		Timeout:       opts.Timeout,
		Transport:     WithUserAgent(base, opts.UserAgent),
		CheckRedirect: makeRedirectChecker(opts.MaxRedirects),
	}
}

// WithUserAgent wraps rt so every request carries the given User-Agent
// unless one is already set.
func WithUserAgent(rt http.RoundTripper, ua string) http.RoundTripper {
	if rt == nil {
		rt = http.DefaultTransport
	}
	return &userAgentTransport{base: rt, ua: ua}
}

type userAgentTransport struct {
	base http.RoundTripper
	ua   string
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") != "" {
		return t.base.RoundTrip(req)
	}
	clone := req.Clone(req.Context())
	clone.Header.Set("User-Agent", t.ua)
	return t.base.RoundTrip(clone)
}
