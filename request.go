package particle

import (
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Request describes a single API call. It is built fresh for every call and
// handed to Client.Do.
type Request struct {
	// Method is one of GET, POST, PUT or DELETE. Empty means GET.
	Method string

	// Path is relative to the versioned API base, e.g. "devices/abc123".
	Path string

	// Query holds parameters. For GET they are sent in the URL; for any other
	// method they are merged into the form-encoded body.
	Query url.Values

	// Body holds form fields for non-GET requests.
	Body url.Values

	// Timeout overrides the client default for this call when positive.
	Timeout time.Duration

	// Header entries replace the defaults key by key.
	Header http.Header

	// BasicAuth selects username/password authentication instead of the bearer token.
	BasicAuth bool
}

// method returns the normalized HTTP method.
func (r *Request) method() string {
	if r.Method == "" {
		return http.MethodGet
	}
	return strings.ToUpper(r.Method)
}

// validate rejects malformed requests before anything is sent.
func (r *Request) validate() error {
	if strings.Trim(r.Path, "/") == "" {
		return ErrEmptyPath
	}
	switch r.method() {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete:
		return nil
	default:
		return ErrInvalidMethod
	}
}

// form merges Query and Body into a single set of form values.
// Body wins when both set the same key.
func (r *Request) form() url.Values {
	if len(r.Query) == 0 && len(r.Body) == 0 {
		return nil
	}
	v := url.Values{}
	for k, vals := range r.Query {
		v[k] = append([]string(nil), vals...)
	}
	for k, vals := range r.Body {
		v[k] = append([]string(nil), vals...)
	}
	return v
}

// timeout returns the effective timeout for this request.
func (r *Request) timeout(fallback time.Duration) time.Duration {
	if r.Timeout > 0 {
		return r.Timeout
	}
	return fallback
}
