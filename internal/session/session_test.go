// internal/session/session_test.go
//
// Unit-tests for session credential extraction.
//
// Run: go test ./internal/session -v

package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFromRequest(t *testing.T) {
	names := DefaultCookieNames()

	cases := []struct {
		name       string
		cookies    map[string]string
		authHeader string
		wantTenant bool
		wantAdmin  bool
		adminToken string
	}{
		{name: "nothing"},
		{name: "tenant cookie", cookies: map[string]string{"token": "abc"}, wantTenant: true},
		{name: "admin cookie", cookies: map[string]string{"admin_token": "adm"}, wantAdmin: true, adminToken: "adm"},
		{name: "admin via bearer", authHeader: "Bearer hdr", wantAdmin: true, adminToken: "hdr"},
		{name: "bearer lower-case scheme", authHeader: "bearer hdr", wantAdmin: true, adminToken: "hdr"},
		{name: "cookie wins over header", cookies: map[string]string{"admin_token": "adm"}, authHeader: "Bearer hdr", wantAdmin: true, adminToken: "adm"},
		{name: "basic auth ignored", authHeader: "Basic dXNlcjpwdw=="},
		{name: "empty bearer ignored", authHeader: "Bearer   "},
		{name: "blank tenant cookie", cookies: map[string]string{"token": " "}},
		{name: "bearer does not imply tenant", authHeader: "Bearer hdr", wantAdmin: true, adminToken: "hdr"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tc.cookies {
				r.AddCookie(&http.Cookie{Name: k, Value: v})
			}
			if tc.authHeader != "" {
				r.Header.Set("Authorization", tc.authHeader)
			}
			got := FromRequest(r, names)
			if got.HasTenant() != tc.wantTenant {
				t.Errorf("HasTenant = %v, want %v", got.HasTenant(), tc.wantTenant)
			}
			if got.HasAdmin() != tc.wantAdmin {
				t.Errorf("HasAdmin = %v, want %v", got.HasAdmin(), tc.wantAdmin)
			}
			if tc.adminToken != "" && got.AdminToken != tc.adminToken {
				t.Errorf("AdminToken = %q, want %q", got.AdminToken, tc.adminToken)
			}
		})
	}
}

func TestFromRequest_CustomNames(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: "sid", Value: "t"})
	got := FromRequest(r, CookieNames{Tenant: "sid"})
	if !got.HasTenant() || got.HasAdmin() {
		t.Fatalf("unexpected credentials %+v", got)
	}
}
