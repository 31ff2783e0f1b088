// Package httputil builds the HTTP clients used for outbound page fetches.
// Those clients only ever connect to public unicast addresses, so a user
// supplied URL cannot reach the service's own network.
package httputil

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"syscall"
	"time"
)

// ErrBlockedAddress is returned when a fetch would connect to a loopback,
// private, link-local or otherwise non-public address.
var ErrBlockedAddress = errors.New("destination address is not public")

// ClientConfig holds outbound client settings.
type ClientConfig struct {
	Timeout             time.Duration // whole request, including redirects
	DialTimeout         time.Duration
	MaxIdleConnsPerHost int
	// AllowPrivate disables the address guard. Tests and local development
	// only.
	AllowPrivate bool
}

// DefaultClientConfig returns the settings used for metadata and link
// checks.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Timeout:             10 * time.Second,
		DialTimeout:         5 * time.Second,
		MaxIdleConnsPerHost: 4,
	}
}

// NewOutboundClient returns a client whose every connection, including
// those made while following redirects, is checked after DNS resolution.
func NewOutboundClient(cfg ClientConfig) *http.Client {
	dialer := &net.Dialer{
		Timeout:   cfg.DialTimeout,
		KeepAlive: 30 * time.Second,
	}
	if !cfg.AllowPrivate {
		dialer.Control = guard
	}

	transport := &http.Transport{
		Proxy:                 nil,
		DialContext:           dialer.DialContext,
		MaxIdleConnsPerHost:   cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   cfg.DialTimeout,
		ResponseHeaderTimeout: cfg.Timeout,
		ForceAttemptHTTP2:     true,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   cfg.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 5 {
				return errors.New("stopped after 5 redirects")
			}
			return nil
		},
	}
}

// guard is a net.Dialer Control hook. address is the resolved ip:port.
func guard(_, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrBlockedAddress, address)
	}
	ip, err := netip.ParseAddr(host)
	if err != nil || !IsPublicAddr(ip) {
		return fmt.Errorf("%w: %s", ErrBlockedAddress, host)
	}
	return nil
}

// IsPublicAddr reports whether ip is a globally routable unicast address.
func IsPublicAddr(ip netip.Addr) bool {
	ip = ip.Unmap()
	switch {
	case !ip.IsValid(),
		ip.IsUnspecified(),
		ip.IsLoopback(),
		ip.IsPrivate(),
		ip.IsLinkLocalUnicast(),
		ip.IsLinkLocalMulticast(),
		ip.IsInterfaceLocalMulticast(),
		ip.IsMulticast():
		return false
	}
	for _, p := range reserved {
		if p.Contains(ip) {
			return false
		}
	}
	return true
}

// Ranges not covered by the netip predicates.
var reserved = []netip.Prefix{
	netip.MustParsePrefix("0.0.0.0/8"),
	netip.MustParsePrefix("100.64.0.0/10"), // carrier-grade NAT
	netip.MustParsePrefix("192.0.0.0/24"),
	netip.MustParsePrefix("198.18.0.0/15"),
	netip.MustParsePrefix("240.0.0.0/4"),
	netip.MustParsePrefix("64:ff9b::/96"), // NAT64 can embed any IPv4 address
}

// IsPublicHost is a cheap pre-check on a URL host that needs no DNS:
// "localhost" names and non-public IP literals are rejected. Other names
// are accepted here and checked again when dialled.
func IsPublicHost(host string) bool {
	host = strings.TrimSuffix(strings.ToLower(strings.Trim(host, "[]")), ".")
	if host == "" || host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return false
	}
	if ip, err := netip.ParseAddr(host); err == nil {
		return IsPublicAddr(ip)
	}
	return true
}
