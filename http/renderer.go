// Package http provides an HTTP-based implementation of staticgen.Renderer
// that renders pages by requesting them from a running instance of the host
// application, e.g. a local development server.
package http

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fwojciec/staticgen"
)

// DefaultRenderTimeout is the default timeout for render requests.
const DefaultRenderTimeout = 30 * time.Second

// Ensure Renderer implements staticgen.Renderer at compile time.
var _ staticgen.Renderer = (*Renderer)(nil)

// Renderer renders URL paths by issuing GET requests against a base URL.
// Redirects are never followed by the client itself; the 3xx response is
// returned to the engine, which owns the redirect policy.
type Renderer struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithTimeout sets the timeout for render requests.
// Defaults to DefaultRenderTimeout (30s) if not specified.
func WithTimeout(d time.Duration) Option {
	return func(r *Renderer) {
		r.timeout = d
	}
}

// NewRenderer creates a Renderer requesting pages from baseURL.
func NewRenderer(baseURL string, opts ...Option) *Renderer {
	r := &Renderer{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		timeout: DefaultRenderTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}

	r.client = &http.Client{
		Timeout: r.timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	return r
}

// Render requests the URL path and returns the response status, content
// type, redirect location, and body. Render options are sent as request
// headers, letting route descriptors pass e.g. Accept-Language or cookies
// through to the application.
func (r *Renderer) Render(ctx context.Context, urlPath string, opts staticgen.RenderOptions) (*staticgen.RenderResult, error) {
	full := urlPath
	if !strings.Contains(urlPath, "://") {
		full = r.baseURL + urlPath
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, full, nil)
	if err != nil {
		return nil, staticgen.Errorf(staticgen.EINVALID, "invalid render URL %q: %v", urlPath, err)
	}
	for name, value := range opts {
		req.Header.Set(name, value)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return &staticgen.RenderResult{
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Location:    resolveLocation(full, resp.Header.Get("Location")),
		Body:        body,
	}, nil
}

// resolveLocation resolves a possibly-relative Location header against the
// request URL.
func resolveLocation(requestURL, location string) string {
	if location == "" {
		return ""
	}
	base, err := url.Parse(requestURL)
	if err != nil {
		return location
	}
	ref, err := url.Parse(location)
	if err != nil {
		return location
	}
	return base.ResolveReference(ref).String()
}
