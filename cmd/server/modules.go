package main

import (
	"net/http"

	"github.com/JaimeStill/image-lab/internal/api"
	"github.com/JaimeStill/image-lab/internal/config"
	"github.com/JaimeStill/image-lab/internal/infrastructure"
	"github.com/JaimeStill/image-lab/pkg/middleware"
	"github.com/JaimeStill/image-lab/pkg/module"
)

// Modules holds every mounted module.
type Modules struct {
	API *module.Module
}

func NewModules(infra *infrastructure.Infrastructure, cfg *config.Config) (*Modules, error) {
	apiModule, err := api.NewModule(cfg, infra)
	if err != nil {
		return nil, err
	}
	return &Modules{API: apiModule}, nil
}

func (m *Modules) Mount(router *module.Router) {
	router.Mount(m.API)
}

// buildHandler mounts the modules and applies router-wide middleware.
// Slash trimming runs before prefix stripping so redirects keep the
// full path.
func buildHandler(modules *Modules) http.Handler {
	router := module.NewRouter()
	modules.Mount(router)

	mw := middleware.New()
	mw.Use(middleware.TrimSlash())
	return mw.Apply(router)
}
