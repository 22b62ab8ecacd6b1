package middleware

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// RealIP rewrites r.RemoteAddr to the client address reported by a trusted
// reverse proxy. Forwarding headers are honored only when the connection
// peer lies in one of the trusted prefixes; X-Forwarded-For is walked from
// the right and the first hop outside the trusted set is taken, so entries
// a client prepends itself are ignored. With no trusted prefixes the
// middleware does nothing.
func RealIP(trusted []netip.Prefix) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if len(trusted) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if peer, ok := parseAddr(r.RemoteAddr); ok && isTrusted(trusted, peer) {
				if ip, ok := forwardedFor(trusted, r.Header); ok {
					r.RemoteAddr = ip.String()
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func forwardedFor(trusted []netip.Prefix, h http.Header) (netip.Addr, bool) {
	var hops []string
	for _, v := range h.Values("X-Forwarded-For") {
		hops = append(hops, strings.Split(v, ",")...)
	}
	for i := len(hops) - 1; i >= 0; i-- {
		ip, ok := parseAddr(strings.TrimSpace(hops[i]))
		if !ok {
			// A malformed hop means everything left of it is unverifiable.
			return netip.Addr{}, false
		}
		if !isTrusted(trusted, ip) {
			return ip, true
		}
	}

	if ip, ok := parseAddr(strings.TrimSpace(h.Get("X-Real-IP"))); ok {
		return ip, true
	}
	return netip.Addr{}, false
}

// parseAddr accepts "ip" or "ip:port" forms, IPv6 included.
func parseAddr(s string) (netip.Addr, bool) {
	if host, _, err := net.SplitHostPort(s); err == nil {
		s = host
	}
	ip, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Addr{}, false
	}
	return ip.Unmap(), true
}

func isTrusted(trusted []netip.Prefix, ip netip.Addr) bool {
	for _, p := range trusted {
		if p.Contains(ip) {
			return true
		}
	}
	return false
}
