// Package routes describes HTTP endpoints together with their OpenAPI
// metadata so one declaration drives both the mux and the document.
package routes

import (
	"net/http"

	"github.com/JaimeStill/image-lab/pkg/openapi"
)

// Route is a single endpoint relative to its group prefix.
type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
	OpenAPI *openapi.Operation
}

// Group represents a collection of routes under a common URL prefix.
// Groups can contain child groups for hierarchical route organization.
type Group struct {
	Prefix      string
	Tags        []string
	Description string
	Routes      []Route
	Children    []Group
	Schemas     map[string]*openapi.Schema
}

// AddToSpec documents every route of the group and its children under
// basePath. Routes without OpenAPI metadata are skipped. Operations
// without tags inherit the group tags.
func (g Group) AddToSpec(basePath string, spec *openapi.Spec) {
	g.addToSpec(basePath+g.Prefix, spec)
}

func (g Group) addToSpec(prefix string, spec *openapi.Spec) {
	if len(g.Schemas) > 0 {
		spec.Components.AddSchemas(g.Schemas)
	}

	for _, route := range g.Routes {
		if route.OpenAPI == nil {
			continue
		}

		op := route.OpenAPI
		if len(op.Tags) == 0 && len(g.Tags) > 0 {
			op.Tags = g.Tags
		}

		spec.Path(prefix+route.Pattern).SetOperation(route.Method, op)
	}

	for _, child := range g.Children {
		child.addToSpec(prefix+child.Prefix, spec)
	}
}

func (g Group) register(mux *http.ServeMux, prefix string) {
	for _, route := range g.Routes {
		mux.HandleFunc(route.Method+" "+prefix+route.Pattern, route.Handler)
	}
	for _, child := range g.Children {
		child.register(mux, prefix+child.Prefix)
	}
}
