package ratelimit

import (
	"net/http"
	"strings"
)

// Limiter decides whether one more request from the given client key fits
// inside its budget. Implementations: Memory (single instance) and Redis
// (shared budget across replicas).
type Limiter interface {
	Allow(key string) bool
}

// ClientKey derives the rate-limit identity from the forwarded client
// address. Requests without the header all share the "unknown" bucket;
// the header is spoofable, so this is abuse damping, not access control.
func ClientKey(r *http.Request) string {
	fwd := strings.TrimSpace(r.Header.Get("X-Forwarded-For"))
	if fwd == "" {
		return "unknown"
	}
	// first hop only; proxies append their own addresses after it
	if i := strings.IndexByte(fwd, ','); i >= 0 {
		fwd = strings.TrimSpace(fwd[:i])
	}
	return fwd
}
