// internal/gate/middleware.go
//
// Gate: classifier, engine, and status check wired into one http.Handler
// wrapper.
//
// Context
// -------
// For every request the middleware:
//
//  1. Cleans the path and classifies the Host header.
//  2. Reads the two session tokens.
//  3. Runs the engine.  A CheckStatus outcome triggers exactly one status
//     lookup, whose verdict the engine folds into the final action.
//  4. Answers a Redirect with 307 and a relative Location, or forwards the
//     request with the Classification stored in request.Context for the
//     upstream proxy.  Allow forwards the path exactly as received; the
//     cleaned form is only used for matching.  Rewrite replaces it.
//
// Notes
// -----
//   • Every failure inside the status lookup folds to Allow.  The gate
//     never answers 5xx on its own account.
//   • The query string survives Allow and Rewrite, and is dropped on
//     Redirect, matching the page server's own redirects.
package gate

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/yanizio/kalako-gate/internal/metrics"
	"github.com/yanizio/kalako-gate/internal/requestinfo"
	"github.com/yanizio/kalako-gate/internal/session"
	"github.com/yanizio/kalako-gate/internal/tenant"
)

// Request is the transport-neutral input to Evaluate.
type Request struct {
	Host        string
	Path        string
	Credentials session.Credentials
}

// Gate is safe for concurrent use.
type Gate struct {
	classifier *tenant.Classifier
	engine     *Engine
	status     tenant.Checker
	cookies    session.CookieNames
	log        *zap.Logger
}

// Option customises a Gate.
type Option func(*Gate)

// WithCookieNames overrides the session cookie names.
func WithCookieNames(n session.CookieNames) Option {
	return func(g *Gate) { g.cookies = n }
}

// WithLogger sets the logger used for per-request debug lines.
func WithLogger(l *zap.Logger) Option {
	return func(g *Gate) {
		if l != nil {
			g.log = l
		}
	}
}

// New wires a Gate.  A nil status checker makes every tenant check fail
// open.
func New(c *tenant.Classifier, e *Engine, status tenant.Checker, opts ...Option) *Gate {
	g := &Gate{
		classifier: c,
		engine:     e,
		status:     status,
		cookies:    session.DefaultCookieNames(),
		log:        zap.NewNop(),
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Evaluate returns the final Decision for req.  It never returns
// CheckStatus.
func (g *Gate) Evaluate(ctx context.Context, req Request) Decision {
	return g.evaluate(ctx, g.classifier.Classify(req.Host), req.Path, req.Credentials)
}

// Classify exposes the gate's host classification.
func (g *Gate) Classify(host string) tenant.Classification {
	return g.classifier.Classify(host)
}

func (g *Gate) evaluate(ctx context.Context, c tenant.Classification, p string, creds session.Credentials) Decision {
	d := g.engine.Decide(c, p, creds)
	if d.Action.Kind != CheckStatus {
		return d
	}
	v := tenant.VerdictUnknown
	if g.status != nil {
		v = g.status.Check(ctx, c.TenantID)
	}
	return g.engine.ResolveStatus(p, v)
}

// Middleware wraps next with the gate.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cleaned := CleanPath(r.URL.Path)
		class := g.classifier.Classify(r.Host)
		d := g.evaluate(r.Context(), class, cleaned, session.FromRequest(r, g.cookies))

		metrics.GateDecisionsTotal.WithLabelValues(d.Rule, d.Action.Kind.String()).Inc()
		if ce := g.log.Check(zap.DebugLevel, "gate decision"); ce != nil {
			fields := []zap.Field{
				zap.String("host", r.Host),
				zap.String("path", cleaned),
				zap.Stringer("kind", class.Kind),
				zap.String("tenant", class.TenantID),
				zap.String("rule", d.Rule),
				zap.Stringer("action", d.Action),
			}
			if info := requestinfo.FromContext(r.Context()); info != nil {
				fields = append(fields,
					zap.String("ip", info.Geo.IP.String()),
					zap.String("country", info.Geo.CountryISO),
					zap.Bool("bot", info.UA.IsBot),
				)
			}
			ce.Write(fields...)
		}

		switch d.Action.Kind {
		case Redirect:
			http.Redirect(w, r, d.Action.Target, http.StatusTemporaryRedirect)
			return
		case Rewrite:
			r = withPath(r, d.Action.Target)
		}

		next.ServeHTTP(w, r.WithContext(tenant.WithClassification(r.Context(), class)))
	})
}

// withPath returns a shallow clone of r whose URL path is p.
func withPath(r *http.Request, p string) *http.Request {
	r2 := r.Clone(r.Context())
	r2.URL.Path = p
	r2.URL.RawPath = ""
	return r2
}
