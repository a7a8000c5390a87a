// internal/upstream/proxy.go
//
// Reverse proxy to the page server.
//
// Context
// -------
// Every request the gate allows (or rewrites) lands here.  The proxy:
//
//   • keeps the browser's Host header so the page server sees the tenant
//     subdomain,
//   • sets X-Forwarded-For, X-Forwarded-Host, and X-Forwarded-Proto,
//   • replaces any client-supplied tenant header with the gate's own
//     classification, so the page server can trust it,
//   • adds default security headers to responses that lack them.
//
// Notes
// -----
//   • A failed upstream yields 502.  That is the page server's outage, not
//     a gate decision.
//   • Oxford commas, two spaces after periods.
package upstream

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"

	"go.uber.org/zap"

	"github.com/yanizio/kalako-gate/internal/tenant"
)

// DefaultTenantHeader carries the tenant id to the page server.
const DefaultTenantHeader = "X-Tenant"

// securityHeaders are set on responses that do not already carry them.
var securityHeaders = [...][2]string{
	{"Strict-Transport-Security", "max-age=63072000; includeSubDomains; preload"},
	{"X-Frame-Options", "DENY"},
	{"X-Content-Type-Options", "nosniff"},
	{"Referrer-Policy", "strict-origin-when-cross-origin"},
	{"Permissions-Policy", "geolocation=(), microphone=(), camera=()"},
}

// New returns a proxy to target.  tenantHeader defaults to X-Tenant.
func New(target string, tenantHeader string, log *zap.Logger) (*httputil.ReverseProxy, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("upstream url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("upstream url %q: scheme and host required", target)
	}
	if tenantHeader == "" {
		tenantHeader = DefaultTenantHeader
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(u)
			pr.SetXForwarded()
			pr.Out.Host = pr.In.Host

			pr.Out.Header.Del(tenantHeader)
			if c, ok := tenant.FromContext(pr.In.Context()); ok && c.Kind == tenant.KindTenant {
				pr.Out.Header.Set(tenantHeader, c.TenantID)
			}
		},
		ModifyResponse: func(resp *http.Response) error {
			for _, h := range securityHeaders {
				if resp.Header.Get(h[0]) == "" {
					resp.Header.Set(h[0], h[1])
				}
			}
			return nil
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			log.Error("upstream request failed",
				zap.String("host", r.Host),
				zap.String("path", r.URL.Path),
				zap.Error(err))
			w.WriteHeader(http.StatusBadGateway)
		},
	}, nil
}
