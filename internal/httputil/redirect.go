package httputil

import (
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrBlockedAddress is matched by every BlockedAddressError.
var ErrBlockedAddress = errors.New("blocked redirect address")

// BlockedAddressError reports a redirect to an address that release hosts
// have no reason to send us to.
type BlockedAddressError struct {
	Host   string
	IP     net.IP
	Reason string // "private", "loopback", ...
}

func (e *BlockedAddressError) Error() string {
	return fmt.Sprintf("refusing redirect to %s IP: %s (%s)", e.Reason, e.Host, e.IP)
}

func (e *BlockedAddressError) Is(target error) bool {
	return target == ErrBlockedAddress
}

// blockedRanges is checked in order; the first match names the reason.
var blockedRanges = []struct {
	reason string
	match  func(net.IP) bool
}{
	{"private", net.IP.IsPrivate},
	{"loopback", net.IP.IsLoopback},
	{"link-local", net.IP.IsLinkLocalUnicast},
	{"link-local multicast", net.IP.IsLinkLocalMulticast},
	{"multicast", net.IP.IsMulticast},
	{"unspecified", net.IP.IsUnspecified},
}

// CheckRedirectIP returns a *BlockedAddressError when ip must not be
// followed as a redirect target. Private and link-local ranges cover the
// cloud metadata endpoints.
func CheckRedirectIP(ip net.IP, host string) error {
	for _, r := range blockedRanges {
		if r.match(ip) {
			return &BlockedAddressError{Host: host, IP: ip, Reason: r.reason}
		}
	}
	return nil
}

// makeRedirectChecker creates a redirect validation function.
func makeRedirectChecker(maxRedirects int) func(req *http.Request, via []*http.Request) error {
	return func(req *http.Request, via []*http.Request) error {
		if req.URL.Scheme != "https" {
			return fmt.Errorf("redirect to non-HTTPS URL is not allowed: %s", req.URL)
		}

		if len(via) >= maxRedirects {
			return fmt.Errorf("too many redirects")
		}

		host := req.URL.Hostname()
		if ip := net.ParseIP(host); ip != nil {
			return CheckRedirectIP(ip, host)
		}

		// Every resolved address is checked so a rebinding host cannot slip through.
		ips, err := net.LookupIP(host)
		if err != nil {
			return fmt.Errorf("failed to resolve redirect host %s: %w", host, err)
		}
		for _, ip := range ips {
			if err := CheckRedirectIP(ip, host); err != nil {
				return err
			}
		}
		return nil
	}
}
