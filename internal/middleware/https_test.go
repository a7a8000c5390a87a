// internal/middleware/https_test.go
//
// Unit-tests for the ForceHTTPS middleware.
//
// Run: go test ./internal/middleware -v

package middleware

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/yanizio/kalako-gate/internal/tenant"
)

func TestForceHTTPS(t *testing.T) {
	c := tenant.NewClassifier("example.com")
	h := ForceHTTPS(c, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	cases := []struct {
		name     string
		host     string
		target   string
		proto    string
		tls      bool
		wantCode int
		wantLoc  string
	}{
		{name: "tenant over http", host: "acme.example.com", target: "/dashboard?x=1",
			wantCode: http.StatusPermanentRedirect, wantLoc: "https://acme.example.com/dashboard?x=1"},
		{name: "root over http", host: "example.com", target: "/",
			wantCode: http.StatusPermanentRedirect, wantLoc: "https://example.com/"},
		{name: "already tls", host: "acme.example.com", target: "/", tls: true, wantCode: http.StatusOK},
		{name: "forwarded https", host: "acme.example.com", target: "/", proto: "https", wantCode: http.StatusOK},
		{name: "forwarded http", host: "acme.example.com", target: "/", proto: "http",
			wantCode: http.StatusPermanentRedirect, wantLoc: "https://acme.example.com/"},
		{name: "localhost", host: "localhost:8080", target: "/", wantCode: http.StatusOK},
		{name: "unroutable", host: "other.test", target: "/", wantCode: http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, tc.target, nil)
			r.Host = tc.host
			if tc.proto != "" {
				r.Header.Set("X-Forwarded-Proto", tc.proto)
			}
			if tc.tls {
				r.TLS = &tls.ConnectionState{}
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, r)
			if rec.Code != tc.wantCode {
				t.Fatalf("code = %d, want %d", rec.Code, tc.wantCode)
			}
			if loc := rec.Header().Get("Location"); loc != tc.wantLoc {
				t.Fatalf("Location = %q, want %q", loc, tc.wantLoc)
			}
		})
	}
}
