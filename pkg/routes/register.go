package routes

import (
	"net/http"

	"github.com/JaimeStill/image-lab/pkg/openapi"
)

// Register mounts each group on mux and documents it in spec.
// Handlers are registered relative to the mux; basePath only prefixes the
// documented paths, since the caller mounts the mux under it.
func Register(mux *http.ServeMux, basePath string, spec *openapi.Spec, groups ...Group) {
	for _, group := range groups {
		group.register(mux, group.Prefix)
		group.AddToSpec(basePath, spec)
	}
}
