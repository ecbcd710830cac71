package api

import (
	"context"
	"net/http"
	"time"

	"github.com/JaimeStill/image-lab/internal/config"
	"github.com/JaimeStill/image-lab/internal/images"
	"github.com/JaimeStill/image-lab/pkg/handlers"
	"github.com/JaimeStill/image-lab/pkg/openapi"
	"github.com/JaimeStill/image-lab/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	spec *openapi.Spec,
	runtime *Runtime,
	domain *Domain,
	cfg *config.Config,
) {
	imagesHandler := images.NewHandler(domain.Images, runtime.Logger, cfg.Storage.MaxUploadSizeBytes())

	routes.Register(
		mux,
		cfg.API.BasePath,
		spec,
		imagesHandler.Routes(),
		healthRoutes(runtime),
	)
}

func healthRoutes(runtime *Runtime) routes.Group {
	return routes.Group{
		Tags: []string{"Infrastructure"},
		Routes: []routes.Route{
			{
				Method:  "GET",
				Pattern: "/healthz",
				Handler: handleHealth,
				OpenAPI: &openapi.Operation{
					Summary: "Liveness probe",
					Responses: map[int]*openapi.Response{
						200: {Description: "Process is alive"},
					},
				},
			},
			{
				Method:  "GET",
				Pattern: "/readyz",
				Handler: handleReady(runtime),
				OpenAPI: &openapi.Operation{
					Summary: "Readiness probe",
					Responses: map[int]*openapi.Response{
						200: {Description: "All subsystems started"},
						503: {Description: "Starting, stopping or database unreachable"},
					},
				},
			},
		},
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	handlers.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func handleReady(runtime *Runtime) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !runtime.Lifecycle.Ready() {
			handlers.RespondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "starting"})
			return
		}

		if runtime.Database != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := runtime.Database.Ping(ctx); err != nil {
				handlers.RespondJSON(w, http.StatusServiceUnavailable, map[string]string{
					"status": "database unavailable",
				})
				return
			}
		}

		handlers.RespondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}
