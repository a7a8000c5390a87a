// internal/upstream/proxy_test.go
//
// Unit-tests for the upstream reverse proxy and its header rewriting.
//
// Run: go test ./internal/upstream -v

package upstream

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/yanizio/kalako-gate/internal/tenant"
)

type captured struct {
	host   string
	path   string
	query  string
	tenant string
	xfh    string
}

func pageServer(t *testing.T, got *captured, sameOrigin bool) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got = captured{
			host:   r.Host,
			path:   r.URL.Path,
			query:  r.URL.RawQuery,
			tenant: r.Header.Get("X-Tenant"),
			xfh:    r.Header.Get("X-Forwarded-Host"),
		}
		if sameOrigin {
			w.Header().Set("X-Frame-Options", "SAMEORIGIN")
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestProxyForwardsTenant(t *testing.T) {
	var got captured
	srv := pageServer(t, &got, false)
	p, err := New(srv.URL, "", nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	r := httptest.NewRequest(http.MethodGet, "/dashboard?tab=2", nil)
	r.Host = "acme.example.com"
	r.Header.Set("X-Tenant", "spoofed")
	r = r.WithContext(tenant.WithClassification(r.Context(), tenant.TenantOf("acme")))
	rec := httptest.NewRecorder()
	p.ServeHTTP(rec, r)

	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	if got.host != "acme.example.com" || got.xfh != "acme.example.com" {
		t.Errorf("host = %q, x-forwarded-host = %q", got.host, got.xfh)
	}
	if got.path != "/dashboard" || got.query != "tab=2" {
		t.Errorf("forwarded %q ? %q", got.path, got.query)
	}
	if got.tenant != "acme" {
		t.Errorf("X-Tenant = %q, want acme", got.tenant)
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers missing")
	}
}

func TestProxyStripsTenantHeaderOnRoot(t *testing.T) {
	var got captured
	srv := pageServer(t, &got, true)
	p, err := New(srv.URL, "X-Tenant", nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Host = "example.com"
	r.Header.Set("X-Tenant", "spoofed")
	r = r.WithContext(tenant.WithClassification(r.Context(), tenant.Root))
	rec := httptest.NewRecorder()
	p.ServeHTTP(rec, r)

	if got.tenant != "" {
		t.Errorf("X-Tenant = %q, want stripped", got.tenant)
	}
	if v := rec.Header().Get("X-Frame-Options"); v != "SAMEORIGIN" {
		t.Errorf("upstream header overwritten: %q", v)
	}
}

func TestProxyBadGateway(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	p, err := New(url, "", nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	rec := httptest.NewRecorder()
	p.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("code = %d, want 502", rec.Code)
	}
}

func TestNewRejectsBadURL(t *testing.T) {
	for _, u := range []string{"", "localhost:3000", "://x"} {
		if _, err := New(u, "", nil); err == nil {
			t.Errorf("New(%q) accepted", u)
		}
	}
}
