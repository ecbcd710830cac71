package api

import (
	"github.com/JaimeStill/image-lab/internal/infrastructure"
)

// Runtime is the infrastructure view handed to API systems, with a
// module-scoped logger.
type Runtime struct {
	*infrastructure.Infrastructure
}

// NewRuntime scopes infra for the API module.
func NewRuntime(infra *infrastructure.Infrastructure) *Runtime {
	return &Runtime{
		Infrastructure: &infrastructure.Infrastructure{
			Lifecycle: infra.Lifecycle,
			Logger:    infra.Logger.With("module", "api"),
			Storage:   infra.Storage,
			Database:  infra.Database,
		},
	}
}
