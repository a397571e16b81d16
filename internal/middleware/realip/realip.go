// Package realip resolves the client address of a request, honouring
// X-Forwarded-For and X-Real-IP only when the peer is a trusted proxy.
package realip

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strings"

	"github.com/pendergraft/launchcache/internal/config"
)

type ctxKey struct{}

// Config holds the configuration for the real IP middleware
type Config struct {
	TrustProxy     bool
	TrustedProxies []string // CIDRs or bare addresses
}

// FromConfig adapts the server proxy settings
func FromConfig(cfg config.ProxyConfig) Config {
	return Config{TrustProxy: cfg.TrustProxy, TrustedProxies: cfg.TrustedProxies}
}

type resolver struct {
	trustProxy bool
	trusted    []netip.Prefix
}

// Middleware stores the resolved client address in the request context.
// Entries of TrustedProxies that do not parse are logged and skipped
func Middleware(cfg Config) func(http.Handler) http.Handler {
	res := resolver{trustProxy: cfg.TrustProxy}
	if cfg.TrustProxy {
		for _, raw := range cfg.TrustedProxies {
			p, err := parsePrefix(raw)
			if err != nil {
				slog.Warn("ignoring trusted proxy entry", "entry", raw, "error", err)
				continue
			}
			res.trusted = append(res.trusted, p)
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), ctxKey{}, res.clientIP(r))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func parsePrefix(raw string) (netip.Prefix, error) {
	raw = strings.TrimSpace(raw)
	if strings.Contains(raw, "/") {
		p, err := netip.ParsePrefix(raw)
		return p.Masked(), err
	}
	addr, err := netip.ParseAddr(raw)
	if err != nil {
		return netip.Prefix{}, err
	}
	return netip.PrefixFrom(addr.Unmap(), addr.Unmap().BitLen()), nil
}

func (res resolver) clientIP(r *http.Request) string {
	peer := hostOnly(r.RemoteAddr)
	if !res.trustProxy || !res.isTrusted(peer) {
		return peer
	}

	// walk right to left; the first hop we do not trust is the client
	hops := strings.Split(r.Header.Get("X-Forwarded-For"), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if hop == "" {
			continue
		}
		if _, err := netip.ParseAddr(hop); err != nil {
			return peer
		}
		if !res.isTrusted(hop) {
			return hop
		}
	}

	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		if _, err := netip.ParseAddr(xri); err == nil {
			return xri
		}
	}
	return peer
}

func (res resolver) isTrusted(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range res.trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

func hostOnly(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}

// GetClientIP returns the address stored by Middleware, or the peer address
// when the middleware did not run
func GetClientIP(r *http.Request) string {
	if ip, ok := r.Context().Value(ctxKey{}).(string); ok && ip != "" {
		return ip
	}
	return hostOnly(r.RemoteAddr)
}
