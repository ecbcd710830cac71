// Package docs serves the interactive API reference rendered by Scalar.
// The page is built once from an embedded template and points the viewer
// at the module's OpenAPI document.
package docs

import (
	"bytes"
	_ "embed"
	"html/template"
	"net/http"

	"github.com/JaimeStill/image-lab/pkg/routes"
)

// DefaultScriptURL loads the Scalar viewer from its public CDN.
const DefaultScriptURL = "https://cdn.jsdelivr.net/npm/@scalar/api-reference"

//go:embed index.html
var indexHTML string

var indexTmpl = template.Must(template.New("index").Parse(indexHTML))

type page struct {
	Title     string
	SpecURL   string
	ScriptURL string
}

// Handler serves the Scalar API documentation interface.
type Handler struct {
	index []byte
}

// NewHandler renders the documentation page for the spec served at specURL.
func NewHandler(title, specURL, scriptURL string) (*Handler, error) {
	if scriptURL == "" {
		scriptURL = DefaultScriptURL
	}

	var buf bytes.Buffer
	err := indexTmpl.Execute(&buf, page{Title: title, SpecURL: specURL, ScriptURL: scriptURL})
	if err != nil {
		return nil, err
	}

	return &Handler{index: buf.Bytes()}, nil
}

// Routes returns the route group for documentation endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/docs",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.serveIndex},
		},
	}
}

func (h *Handler) serveIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(h.index)
}
