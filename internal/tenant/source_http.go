// internal/tenant/source_http.go
//
// HTTP status source: one GET against the backend's status endpoint.
//
// Wire format
// -----------
//
//	GET {api_base}{endpoint_path}
//	X-Tenant: toko-a
//	Authorization: Bearer <api_token>        (only when configured)
//
//	200 {"status": "active", "trial_ends_at": "2026-01-31T00:00:00Z"}
//
// Any non-2xx, transport error, or body that is not exactly one JSON
// object comes back as an error; StatusGate turns it into VerdictUnknown.
// Keys are case-sensitive: only "status" and "trial_ends_at" are read.
package tenant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// maxStatusBody caps how much of the response is read.
const maxStatusBody = 64 << 10

// HTTPOptions configures an HTTPSource.
type HTTPOptions struct {
	APIBase      string // https://api.example.com
	EndpointPath string // /api/tenant/status
	TenantHeader string // X-Tenant
	Token        string // optional bearer for the backend
	Client       *http.Client
}

// HTTPSource is safe for concurrent use.
type HTTPSource struct {
	endpoint string
	header   string
	token    string
	client   *http.Client
}

// NewHTTPSource validates o and returns a source.  A nil Client falls back
// to a dedicated client without its own timeout; StatusGate bounds calls
// through the request context.
func NewHTTPSource(o HTTPOptions) (*HTTPSource, error) {
	base, err := url.Parse(strings.TrimRight(o.APIBase, "/"))
	if err != nil {
		return nil, fmt.Errorf("status api base: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("status api base %q: scheme must be http or https", o.APIBase)
	}
	if base.Host == "" {
		return nil, fmt.Errorf("status api base %q: missing host", o.APIBase)
	}
	if o.TenantHeader == "" {
		o.TenantHeader = "X-Tenant"
	}
	client := o.Client
	if client == nil {
		client = &http.Client{Transport: http.DefaultTransport.(*http.Transport).Clone()}
	}
	return &HTTPSource{
		endpoint: base.String() + "/" + strings.TrimLeft(o.EndpointPath, "/"),
		header:   o.TenantHeader,
		token:    o.Token,
		client:   client,
	}, nil
}

// Endpoint returns the full status URL.
func (s *HTTPSource) Endpoint() string { return s.endpoint }

// Fetch implements Source.
func (s *HTTPSource) Fetch(ctx context.Context, tenantID string) (Status, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint, nil)
	if err != nil {
		return Status{}, fmt.Errorf("build status request: %w", err)
	}
	req.Header.Set(s.header, tenantID)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-store")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return Status{}, fmt.Errorf("status request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxStatusBody))
		return Status{}, statusError(ErrStatusHTTP, "%s returned %d", s.endpoint, resp.StatusCode)
	}

	fields, err := decodeStatusBody(io.LimitReader(resp.Body, maxStatusBody))
	if err != nil {
		return Status{}, err
	}

	var st Status
	if raw, ok := fields["status"]; ok {
		if err := json.Unmarshal(raw, &st.Status); err != nil {
			return Status{}, statusError(ErrStatusBody, "status: %v", err)
		}
	}
	// A number or null trial end degrades to "absent".
	var trial string
	if raw, ok := fields["trial_ends_at"]; ok && json.Unmarshal(raw, &trial) == nil {
		if ends, ok := ParseTrialEnd(trial); ok {
			st.TrialEndsAt = &ends
		}
	}
	return st, nil
}

// decodeStatusBody reads exactly one JSON object.  Keys are matched
// exactly, so "STATUS" is not "status", and anything after the object
// makes the whole body unparsable.
func decodeStatusBody(r io.Reader) (map[string]json.RawMessage, error) {
	dec := json.NewDecoder(r)

	var fields map[string]json.RawMessage
	if err := dec.Decode(&fields); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, statusError(ErrStatusBody, "empty body")
		}
		return nil, statusError(ErrStatusBody, "%v", err)
	}
	var extra json.RawMessage
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return nil, statusError(ErrStatusBody, "trailing data after status object")
	}
	return fields, nil
}
