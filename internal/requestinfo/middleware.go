// internal/requestinfo/middleware.go
//
// HTTP middleware that enriches each request with *RequestInfo.
//
/*
Context
--------
This handler sits ahead of the gate.  For every request it:

  1. Parses the User-Agent header and Accept-Language list.
  2. Extracts the left-most client IP from X-Forwarded-For or X-Real-IP,
     falling back to `r.RemoteAddr`.
  3. Performs a GeoLite2 lookup when a database is loaded.
  4. Stores a `*RequestInfo` in `request.Context` so the gate's decision
     log carries client attributes without reparsing.

Notes
-----
  • The geo reader is read-only and safe under concurrency.
  • Forwarded headers are trusted as-is.  Deploy behind a proxy that
    overwrites them.
*/
package requestinfo

import (
	"net"
	"net/http"
	"strings"
	"time"
)

// Enricher attaches *RequestInfo to requests.
type Enricher struct {
	geo GeoLookup
	now func() time.Time
}

// NewEnricher returns an Enricher.  geo may be nil.
func NewEnricher(geo GeoLookup) *Enricher {
	return &Enricher{geo: geo, now: time.Now}
}

// Middleware wraps next, attaches *RequestInfo, and forwards.
func (e *Enricher) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info := &RequestInfo{
			UA:        parseUA(r.UserAgent(), r.Header.Get("Accept-Language")),
			Geo:       lookupGeo(e.geo, clientIP(r)),
			Timestamp: e.now().UTC(),
		}
		next.ServeHTTP(w, r.WithContext(WithInfo(r.Context(), info)))
	})
}

// clientIP extracts the left-most parseable address from X-Forwarded-For
// or X-Real-IP, falling back to r.RemoteAddr ("ip:port").
func clientIP(r *http.Request) net.IP {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for _, part := range strings.Split(xff, ",") {
			if ip := net.ParseIP(strings.TrimSpace(part)); ip != nil {
				return ip
			}
		}
	}
	if xrip := r.Header.Get("X-Real-Ip"); xrip != "" {
		if ip := net.ParseIP(strings.TrimSpace(xrip)); ip != nil {
			return ip
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return net.ParseIP(host)
	}
	return net.ParseIP(r.RemoteAddr)
}
