// Package middleware holds small, composable HTTP wrappers.
package middleware

import (
	"net/http"
	"strings"

	"github.com/yanizio/kalako-gate/internal/tenant"
)

// HostClassifier is satisfied by *tenant.Classifier.
type HostClassifier interface {
	Classify(host string) tenant.Classification
}

// ForceHTTPS wraps h.  If the request arrived over plain HTTP, the host is
// not "localhost", and the classifier recognises the host as root or a
// tenant, the wrapper issues a 308 Permanent Redirect to the HTTPS version
// of the same URL.  Otherwise it calls the next handler unchanged.
//
// A TLS-terminating proxy in front reports the original scheme through
// X-Forwarded-Proto, which is honoured.
func ForceHTTPS(c HostClassifier, h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.TLS != nil || forwardedHTTPS(r) || tenant.NormalizeHost(r.Host) == "localhost" {
			h.ServeHTTP(w, r)
			return
		}

		// Unroutable hosts keep the normal flow; the gate answers them.
		if c.Classify(r.Host).Kind == tenant.KindUnroutable {
			h.ServeHTTP(w, r)
			return
		}

		target := "https://" + r.Host + r.URL.RequestURI()
		http.Redirect(w, r, target, http.StatusPermanentRedirect)
	})
}

func forwardedHTTPS(r *http.Request) bool {
	proto, _, _ := strings.Cut(r.Header.Get("X-Forwarded-Proto"), ",")
	return strings.EqualFold(strings.TrimSpace(proto), "https")
}
