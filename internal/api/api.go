// Package api assembles the HTTP API module: domain systems, routes, the
// OpenAPI document with its reference page, and the module middleware stack.
package api

import (
	"net/http"

	"github.com/JaimeStill/image-lab/internal/config"
	"github.com/JaimeStill/image-lab/internal/infrastructure"
	"github.com/JaimeStill/image-lab/pkg/middleware"
	"github.com/JaimeStill/image-lab/pkg/module"
	"github.com/JaimeStill/image-lab/pkg/openapi"
	"github.com/JaimeStill/image-lab/pkg/routes"
	"github.com/JaimeStill/image-lab/web/docs"
)

// NewModule builds the API module mounted at cfg.API.BasePath.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	runtime := NewRuntime(infra)

	domain, err := NewDomain(runtime, cfg)
	if err != nil {
		return nil, err
	}

	spec := openapi.NewSpec(cfg.API.OpenAPI.Title, cfg.Version)
	spec.SetDescription(cfg.API.OpenAPI.Description)
	spec.AddServer(cfg.Domain)

	mux := http.NewServeMux()
	registerRoutes(mux, spec, runtime, domain, cfg)

	specBytes, err := openapi.MarshalJSON(spec)
	if err != nil {
		return nil, err
	}
	mux.HandleFunc("GET /openapi.json", openapi.ServeSpec(specBytes))

	docsHandler, err := docs.NewHandler(cfg.API.OpenAPI.Title, cfg.API.BasePath+"/openapi.json", "")
	if err != nil {
		return nil, err
	}
	routes.Register(mux, cfg.API.BasePath, spec, docsHandler.Routes())

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.Logger(runtime.Logger))

	return m, nil
}
