package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/JaimeStill/image-lab/pkg/middleware"
	"github.com/JaimeStill/image-lab/pkg/openapi"
)

// EnvAPIBasePath overrides the API base path.
const EnvAPIBasePath = "API_BASE_PATH"

// APIConfig configures the HTTP API surface.
type APIConfig struct {
	// BasePath is prepended to every API route. Empty mounts at the root.
	BasePath string                `toml:"base_path"`
	CORS     middleware.CORSConfig `toml:"cors"`
	OpenAPI  openapi.Config        `toml:"openapi"`
}

func (c *APIConfig) Finalize() error {
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	if err := c.OpenAPI.Finalize(openAPIEnv); err != nil {
		return fmt.Errorf("openapi: %w", err)
	}
	return nil
}

func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	c.CORS.Merge(&overlay.CORS)
	c.OpenAPI.Merge(&overlay.OpenAPI)
}

func (c *APIConfig) loadEnv() {
	if v, ok := os.LookupEnv(EnvAPIBasePath); ok {
		c.BasePath = v
	}
	c.BasePath = strings.TrimSuffix(c.BasePath, "/")
}

func (c *APIConfig) validate() error {
	if c.BasePath != "" && !strings.HasPrefix(c.BasePath, "/") {
		return fmt.Errorf("base_path must start with /: %q", c.BasePath)
	}
	return nil
}
