// internal/tenant/classify.go
//
// Host classification.
//
// Context
// -------
// Every request is classified once, from its Host header alone, into one
// of three kinds:
//
//   • KindRoot       – the base domain, `www.<base>`, or `localhost`.  The
//                      marketing, registration, and admin surface.
//   • KindTenant     – `<id>.<base>`.  TenantID carries `<id>` and is the
//                      correlation key for the status lookup.
//   • KindUnroutable – anything else, including empty or malformed hosts.
//
// The base domain is injected at construction so tests can classify
// arbitrary domains without touching the process environment.
//
// Notes
// -----
//   • The admin area is a path refinement of KindRoot, applied by the rule
//     engine, not a host class.
//   • Classify never panics and never returns an error.
package tenant

import (
	"net"
	"strings"
)

// Kind is the host class of one request.
type Kind int

const (
	KindUnroutable Kind = iota
	KindRoot
	KindTenant
)

func (k Kind) String() string {
	switch k {
	case KindRoot:
		return "root"
	case KindTenant:
		return "tenant"
	default:
		return "unroutable"
	}
}

// Classification is derived per request and never stored.
type Classification struct {
	Kind     Kind
	TenantID string // set only for KindTenant
}

// Root and Unroutable are the two id-less classifications.
var (
	Root       = Classification{Kind: KindRoot}
	Unroutable = Classification{Kind: KindUnroutable}
)

// TenantOf returns the classification of a tenant subdomain.
func TenantOf(id string) Classification {
	return Classification{Kind: KindTenant, TenantID: id}
}

// Classifier is immutable and safe for concurrent use.
type Classifier struct {
	base   string // "example.com"
	suffix string // ".example.com"
}

// NewClassifier binds a Classifier to baseDomain.  Case and a trailing
// dot are ignored.
func NewClassifier(baseDomain string) *Classifier {
	base := NormalizeHost(baseDomain)
	c := &Classifier{base: base}
	if base != "" {
		c.suffix = "." + base
	}
	return c
}

// BaseDomain returns the normalised base domain.
func (c *Classifier) BaseDomain() string { return c.base }

// Classify maps a raw Host header value to its Classification.
//
// A tenant id is the part before the base domain and must be one or more
// dot-separated labels of lower-case letters, digits, '-' or '_', each at
// most 63 characters after normalisation.  Any other prefix, such as one
// carrying '+' or '%' or an empty label, is Unroutable rather than a
// tenant.
func (c *Classifier) Classify(host string) Classification {
	h := NormalizeHost(host)
	switch {
	case h == "":
		return Unroutable
	case h == "localhost":
		return Root
	case c.base == "":
		return Unroutable
	case h == c.base || h == "www."+c.base:
		return Root
	}

	id, ok := strings.CutSuffix(h, c.suffix)
	if !ok || !validTenantID(id) {
		return Unroutable
	}
	return TenantOf(id)
}

// NormalizeHost strips any port and IPv6 brackets, lower-cases, and drops
// a trailing dot.  Hosts containing whitespace normalise to "".
func NormalizeHost(h string) string {
	h = strings.TrimSpace(h)
	if h == "" || strings.ContainsAny(h, " \t\r\n/\\@") {
		return ""
	}
	if strings.HasPrefix(h, "[") {
		if host, _, err := net.SplitHostPort(h); err == nil {
			h = host
		} else {
			h = strings.Trim(h, "[]")
		}
	} else if strings.Count(h, ":") == 1 {
		h, _, _ = strings.Cut(h, ":")
	}
	return strings.TrimSuffix(strings.ToLower(h), ".")
}

// validTenantID accepts one or more dot-separated DNS labels.
func validTenantID(id string) bool {
	if id == "" {
		return false
	}
	for _, label := range strings.Split(id, ".") {
		if label == "" || len(label) > 63 {
			return false
		}
		for _, r := range label {
			switch {
			case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			default:
				return false
			}
		}
	}
	return true
}
