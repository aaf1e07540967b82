package middleware

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// ProxyTrust lists the reverse proxies whose forwarding headers are believed.
// A zero ProxyTrust trusts nobody and every forwarded header is ignored.
type ProxyTrust struct {
	prefixes []netip.Prefix
}

// NewProxyTrust parses IPs or CIDRs, e.g. "10.0.0.0/8" or "127.0.0.1".
func NewProxyTrust(entries []string) (*ProxyTrust, error) {
	pt := &ProxyTrust{}
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if !strings.Contains(entry, "/") {
			addr, err := netip.ParseAddr(entry)
			if err != nil {
				return nil, fmt.Errorf("invalid trusted proxy %q: %w", entry, err)
			}
			pt.prefixes = append(pt.prefixes, netip.PrefixFrom(addr.Unmap(), addr.Unmap().BitLen()))
			continue
		}
		prefix, err := netip.ParsePrefix(entry)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: %w", entry, err)
		}
		pt.prefixes = append(pt.prefixes, prefix.Masked())
	}
	return pt, nil
}

func (pt *ProxyTrust) trusts(ip string) bool {
	if pt == nil {
		return false
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range pt.prefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// TrustsPeer reports whether the direct peer of r is a trusted proxy.
func (pt *ProxyTrust) TrustsPeer(r *http.Request) bool {
	return pt.trusts(remoteIP(r))
}

// ClientIP returns the peer address, or, when the peer is a trusted proxy,
// the right-most X-Forwarded-For hop that is not itself a trusted proxy.
func (pt *ProxyTrust) ClientIP(r *http.Request) string {
	ip := remoteIP(r)
	if !pt.trusts(ip) {
		return ip
	}

	hops := strings.Split(strings.Join(r.Header.Values("X-Forwarded-For"), ","), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if hop == "" {
			continue
		}
		if _, err := netip.ParseAddr(hop); err != nil {
			return ip
		}
		if !pt.trusts(hop) {
			return hop
		}
		ip = hop
	}
	return ip
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
