// Package middleware holds the HTTP middleware chain: client IP capture, authentication,
// tenant and role gates, request logging, tracing, auditing and request telemetry.
package middleware

import (
	"context"
	"net"
	"net/http"
)

type contextKey struct{ name string }

var clientIPKey = contextKey{"client_ip"}

// WithClientIP returns a context carrying the caller's IP.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey, ip)
}

// ClientIP returns the IP stored by the ClientIP middleware, or "unknown".
// Its signature matches audit.IPExtractor.
func ClientIP(ctx context.Context) string {
	if ip, ok := ctx.Value(clientIPKey).(string); ok && ip != "" {
		return ip
	}
	return "unknown"
}

// CaptureClientIP stores the host part of r.RemoteAddr in the request context.
// Mount it after chi's RealIP so proxy headers are honored.
func CaptureClientIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := r.RemoteAddr
		if host, _, err := net.SplitHostPort(ip); err == nil {
			ip = host
		}
		next.ServeHTTP(w, r.WithContext(WithClientIP(r.Context(), ip)))
	})
}
