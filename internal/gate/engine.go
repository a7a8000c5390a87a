// internal/gate/engine.go
//
// Access decision engine.
//
// Context
// -------
// The engine is an ordered table of guard/outcome pairs.  Decide walks the
// table top to bottom and the first guard that matches produces the
// Decision, so precedence is the table order and nothing else:
//
//	 1 bypass                       static prefixes             → allow
//	 2 root-admin                   root, /admin*               → admin sub-gate
//	 3 root-login                   root, /login                → /register
//	 4 root-pages                   root, / /register not-found → allow
//	 5 root-fallback                root, anything else         → not-found
//	 6 tenant-register              tenant, /register*          → /login
//	 7 tenant-index                 tenant, /                   → /dashboard or /login
//	 8 tenant-public                tenant, public prefix       → allow
//	 9 tenant-anonymous             tenant, no token            → /login
//	10 tenant-login-authenticated   tenant, token, /login       → /dashboard
//	11 tenant-status                tenant, token               → check status
//	12 unroutable                   anything left               → not-found
//
// Decide is pure.  It reads only its arguments and the Options captured at
// construction, so the same input always yields the same Decision.
//
// Notes
// -----
//   • Prefix guards use plain string prefixes, so "/api" also covers
//     "/apidocs".  The page server has no such pages.
//   • Rule 10 is shadowed by rule 8 while "/login" is a public prefix; it
//     takes effect when an operator drops "/login" from the public set.
//   • Rule 9 allows "/login" itself so a trimmed public set cannot create
//     a self-redirect.
package gate

import (
	"path"
	"strings"

	"github.com/yanizio/kalako-gate/internal/session"
	"github.com/yanizio/kalako-gate/internal/tenant"
)

// Fixed page paths served by the page server.
const (
	PathRoot       = "/"
	PathLogin      = "/login"
	PathRegister   = "/register"
	PathDashboard  = "/dashboard"
	PathSuspended  = "/suspended"
	PathPayments   = "/payments"
	PathAdmin      = "/admin"
	PathAdminLogin = "/admin/login"
)

// Options is the configurable surface of the engine.
type Options struct {
	BypassPrefixes       []string
	TenantPublicPrefixes []string
	NotFoundPath         string
	// AdminLoginRewrite, when set, serves that page's content at
	// /admin/login for visitors without an admin token.
	AdminLoginRewrite string
}

// DefaultOptions mirrors the page server's layout.
func DefaultOptions() Options {
	return Options{
		BypassPrefixes:       []string{"/_next", "/favicon.ico", "/assets", "/public", "/landingpage"},
		TenantPublicPrefixes: []string{PathLogin, PathSuspended, PathPayments, "/api"},
		NotFoundPath:         "/not",
	}
}

type input struct {
	class tenant.Classification
	path  string
	creds session.Credentials
}

type rule struct {
	name string
	when func(in input) bool
	then func(in input) Action
}

// Engine is immutable after NewEngine and safe for concurrent use.
type Engine struct {
	opts  Options
	rules []rule
}

// NewEngine builds the rule table for opts.
func NewEngine(opts Options) *Engine {
	if opts.NotFoundPath == "" {
		opts.NotFoundPath = DefaultOptions().NotFoundPath
	}
	e := &Engine{opts: opts}
	e.rules = e.table()
	return e
}

// RuleNames lists the table in evaluation order.
func (e *Engine) RuleNames() []string {
	names := make([]string, len(e.rules))
	for i, r := range e.rules {
		names[i] = r.name
	}
	return names
}

// Decide runs the table.  CheckStatus is returned for rule 11 and must be
// resolved with ResolveStatus.
func (e *Engine) Decide(c tenant.Classification, p string, creds session.Credentials) Decision {
	in := input{class: c, path: CleanPath(p), creds: creds}
	for _, r := range e.rules {
		if r.when(in) {
			return Decision{Action: r.then(in), Rule: r.name}
		}
	}
	// Unreachable: the last rule matches everything.
	return Decision{Action: redirect(e.opts.NotFoundPath), Rule: "unroutable"}
}

// ResolveStatus folds a status verdict into the final action for rule 11.
// Suspended tenants may still reach the suspension and payment pages.
func (e *Engine) ResolveStatus(p string, v tenant.Verdict) Decision {
	p = CleanPath(p)
	if v.Suspended() && !hasAnyPrefix(p, PathSuspended, PathPayments) {
		return Decision{Action: redirect(PathSuspended), Rule: "tenant-status"}
	}
	return Decision{Action: allow(), Rule: "tenant-status"}
}

func (e *Engine) table() []rule {
	o := e.opts
	isRoot := func(in input) bool { return in.class.Kind == tenant.KindRoot }
	isTenant := func(in input) bool { return in.class.Kind == tenant.KindTenant }

	return []rule{
		{
			name: "bypass",
			when: func(in input) bool { return hasAnyPrefix(in.path, o.BypassPrefixes...) },
			then: func(input) Action { return allow() },
		},
		{
			name: "root-admin",
			when: func(in input) bool { return isRoot(in) && strings.HasPrefix(in.path, PathAdmin) },
			then: e.adminGate,
		},
		{
			name: "root-login",
			when: func(in input) bool { return isRoot(in) && in.path == PathLogin },
			then: func(input) Action { return redirect(PathRegister) },
		},
		{
			name: "root-pages",
			when: func(in input) bool {
				return isRoot(in) && (in.path == PathRoot || in.path == PathRegister || in.path == o.NotFoundPath)
			},
			then: func(input) Action { return allow() },
		},
		{
			name: "root-fallback",
			when: isRoot,
			then: func(input) Action { return redirect(o.NotFoundPath) },
		},
		{
			name: "tenant-register",
			when: func(in input) bool { return isTenant(in) && strings.HasPrefix(in.path, PathRegister) },
			then: func(input) Action { return redirect(PathLogin) },
		},
		{
			name: "tenant-index",
			when: func(in input) bool { return isTenant(in) && in.path == PathRoot },
			then: func(in input) Action {
				if in.creds.HasTenant() {
					return redirect(PathDashboard)
				}
				return redirect(PathLogin)
			},
		},
		{
			name: "tenant-public",
			when: func(in input) bool { return isTenant(in) && hasAnyPrefix(in.path, o.TenantPublicPrefixes...) },
			then: func(input) Action { return allow() },
		},
		{
			name: "tenant-anonymous",
			when: func(in input) bool { return isTenant(in) && !in.creds.HasTenant() },
			then: func(in input) Action {
				if in.path == PathLogin {
					return allow()
				}
				return redirect(PathLogin)
			},
		},
		{
			name: "tenant-login-authenticated",
			when: func(in input) bool { return isTenant(in) && in.path == PathLogin },
			then: func(input) Action { return redirect(PathDashboard) },
		},
		{
			name: "tenant-status",
			when: isTenant,
			then: func(input) Action { return Action{Kind: CheckStatus} },
		},
		{
			name: "unroutable",
			when: func(input) bool { return true },
			then: func(in input) Action {
				if in.path == o.NotFoundPath {
					return allow()
				}
				return redirect(o.NotFoundPath)
			},
		},
	}
}

// adminGate checks both admin sub-branches independently: a missing token
// outside the login page always redirects, and a present token on the
// login page always redirects.
func (e *Engine) adminGate(in input) Action {
	onLogin := in.path == PathAdminLogin
	if !strings.HasPrefix(in.path, PathAdminLogin) && !in.creds.HasAdmin() {
		return redirect(PathAdminLogin)
	}
	if onLogin && in.creds.HasAdmin() {
		return redirect(PathAdmin)
	}
	if onLogin && e.opts.AdminLoginRewrite != "" {
		return rewrite(e.opts.AdminLoginRewrite)
	}
	return allow()
}

// CleanPath canonicalises a request path before matching: a leading slash
// is enforced and dot segments and trailing slashes are removed, so
// "/admin/../dashboard" is judged as "/dashboard".
func CleanPath(p string) string {
	if p == "" {
		return PathRoot
	}
	if p[0] != '/' {
		p = "/" + p
	}
	return path.Clean(p)
}

func hasAnyPrefix(p string, prefixes ...string) bool {
	for _, pre := range prefixes {
		if pre != "" && strings.HasPrefix(p, pre) {
			return true
		}
	}
	return false
}
