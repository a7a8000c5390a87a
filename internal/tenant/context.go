// context.go carries the request's Classification through
// request.Context so the upstream proxy can forward the tenant id without
// classifying the host a second time.
package tenant

import "context"

type ctxKey struct{}

// WithClassification returns a child context carrying c.
func WithClassification(ctx context.Context, c Classification) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

// FromContext returns the Classification stored by the gate, if any.
func FromContext(ctx context.Context) (Classification, bool) {
	c, ok := ctx.Value(ctxKey{}).(Classification)
	return c, ok
}
