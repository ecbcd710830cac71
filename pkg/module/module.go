// Package module mounts self-contained HTTP handlers under a path prefix.
// A module strips its prefix before dispatching so its handlers register
// routes relative to "/".
package module

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/JaimeStill/image-lab/pkg/middleware"
)

// Module is a handler mounted under a prefix with its own middleware.
type Module struct {
	prefix     string
	handler    http.Handler
	middleware middleware.System
}

// New creates a module. prefix is either empty, which mounts the module at
// the root, or a slash-led path without a trailing slash such as "/api" or
// "/api/v1". Any other prefix panics.
func New(prefix string, handler http.Handler) *Module {
	if err := validatePrefix(prefix); err != nil {
		panic(err)
	}
	return &Module{
		prefix:     prefix,
		handler:    handler,
		middleware: middleware.New(),
	}
}

func (m *Module) Prefix() string {
	return m.prefix
}

// Use appends middleware. The first registered middleware runs outermost.
func (m *Module) Use(mw func(http.Handler) http.Handler) {
	m.middleware.Use(mw)
}

// Handler returns the wrapped handler without prefix handling.
func (m *Module) Handler() http.Handler {
	return m.middleware.Apply(m.handler)
}

// Serve strips the prefix and dispatches to the wrapped handler. A request
// for the bare prefix is served as "/".
func (m *Module) Serve(w http.ResponseWriter, r *http.Request) {
	h := m.Handler()
	if m.prefix == "" {
		h.ServeHTTP(w, r)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, m.prefix)
	if path == "" {
		path = "/"
	}

	r2 := r.Clone(r.Context())
	r2.URL.Path = path
	if r.URL.RawPath != "" {
		raw := strings.TrimPrefix(r.URL.RawPath, m.prefix)
		if raw == "" {
			raw = "/"
		}
		r2.URL.RawPath = raw
	}

	h.ServeHTTP(w, r2)
}

func validatePrefix(prefix string) error {
	if prefix == "" {
		return nil
	}
	if !strings.HasPrefix(prefix, "/") {
		return fmt.Errorf("module prefix must start with /: %q", prefix)
	}
	if strings.HasSuffix(prefix, "/") {
		return fmt.Errorf("module prefix must not end with /: %q", prefix)
	}
	if strings.Contains(prefix, "//") {
		return fmt.Errorf("module prefix contains an empty segment: %q", prefix)
	}
	return nil
}
