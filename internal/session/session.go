// internal/session/session.go
//
// Session credential extraction.
//
// Context
//   The login flow (outside the gate) stores two opaque bearer tokens as
//   cookies: the tenant session token and the admin session token.  The
//   gate only asks whether each one is present.  It never decodes, verifies,
//   or refreshes them; the backend checks signature and expiry on every
//   API call.  Routing on presence is the whole contract here, and it is
//   not authentication.
//
//   The admin token may also arrive as `Authorization: Bearer <token>`,
//   which is accepted as an equivalent source when the cookie is absent.
//
// Style
//   Two-space sentence spacing, Oxford comma, terse inline notes.
//
//------------------------------------------------------------------------------

package session

import (
	"net/http"
	"strings"
)

// Default cookie names written by the login flow.
const (
	DefaultTenantCookie = "token"
	DefaultAdminCookie  = "admin_token"
)

// CookieNames tells FromRequest where to look.
type CookieNames struct {
	Tenant string
	Admin  string
}

// DefaultCookieNames matches the login flow's defaults.
func DefaultCookieNames() CookieNames {
	return CookieNames{Tenant: DefaultTenantCookie, Admin: DefaultAdminCookie}
}

// Credentials holds the raw token values.  An empty string means absent.
type Credentials struct {
	TenantToken string
	AdminToken  string
}

// HasTenant reports whether a tenant session token is present.
func (c Credentials) HasTenant() bool { return c.TenantToken != "" }

// HasAdmin reports whether an admin session token is present.
func (c Credentials) HasAdmin() bool { return c.AdminToken != "" }

// FromRequest reads both tokens.  Blank or whitespace-only values count as
// absent.
func FromRequest(r *http.Request, names CookieNames) Credentials {
	creds := Credentials{
		TenantToken: cookieValue(r, names.Tenant),
		AdminToken:  cookieValue(r, names.Admin),
	}
	if creds.AdminToken == "" {
		creds.AdminToken = BearerToken(r.Header.Get("Authorization"))
	}
	return creds
}

// BearerToken extracts the token from an Authorization header value.  Any
// other scheme yields "".
func BearerToken(h string) string {
	scheme, tok, ok := strings.Cut(strings.TrimSpace(h), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(tok)
}

func cookieValue(r *http.Request, name string) string {
	if name == "" {
		return ""
	}
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(c.Value)
}
