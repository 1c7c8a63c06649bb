package utils

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// hostOnly strips an optional port from "ip:port", "[v6]:port" or "ip".
func hostOnly(s string) string {
	s = strings.TrimSpace(s)
	if h, _, err := net.SplitHostPort(s); err == nil {
		return h
	}
	return strings.Trim(s, "[]")
}

// firstForwarded returns the left-most address of an X-Forwarded-For list.
func firstForwarded(xff string) string {
	first, _, _ := strings.Cut(xff, ",")
	return strings.TrimSpace(first)
}

// ClientIP resolves the caller's address. Proxy headers are only honoured
// when trustProxy is set (CF-Connecting-IP, then X-Forwarded-For, then
// X-Real-IP); otherwise RemoteAddr is used. The zero Addr is returned when
// nothing parses.
func ClientIP(r *http.Request, trustProxy bool) netip.Addr {
	if trustProxy {
		for _, v := range []string{
			r.Header.Get("CF-Connecting-IP"),
			firstForwarded(r.Header.Get("X-Forwarded-For")),
			r.Header.Get("X-Real-IP"),
		} {
			if ip, err := netip.ParseAddr(hostOnly(v)); err == nil {
				return ip.Unmap()
			}
		}
	}
	ip, err := netip.ParseAddr(hostOnly(r.RemoteAddr))
	if err != nil {
		return netip.Addr{}
	}
	return ip.Unmap()
}

// IPMatcher matches addresses against a list of exact IPs and CIDRs.
type IPMatcher struct {
	prefixes []netip.Prefix
}

// NewIPMatcher parses list, skipping blank or unparsable entries. Bare IPs
// become single-address prefixes.
func NewIPMatcher(list []string) *IPMatcher {
	m := &IPMatcher{}
	for _, raw := range list {
		s := strings.TrimSpace(raw)
		if s == "" {
			continue
		}
		if p, err := netip.ParsePrefix(s); err == nil {
			m.prefixes = append(m.prefixes, p.Masked())
			continue
		}
		if ip, err := netip.ParseAddr(s); err == nil {
			ip = ip.Unmap()
			m.prefixes = append(m.prefixes, netip.PrefixFrom(ip, ip.BitLen()))
		}
	}
	return m
}

func (m *IPMatcher) IsEmpty() bool { return len(m.prefixes) == 0 }

func (m *IPMatcher) Allow(ip netip.Addr) bool {
	if !ip.IsValid() {
		return false
	}
	for _, p := range m.prefixes {
		if p.Contains(ip) {
			return true
		}
	}
	return false
}
