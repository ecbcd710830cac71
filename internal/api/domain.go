package api

import (
	"fmt"

	"github.com/JaimeStill/image-lab/internal/config"
	"github.com/JaimeStill/image-lab/internal/images"
)

// Domain holds the domain systems that comprise the API.
type Domain struct {
	Images images.System
}

// NewDomain builds the domain systems. With postgres metadata the schema
// migrations are applied before the system is returned.
func NewDomain(runtime *Runtime, cfg *config.Config) (*Domain, error) {
	meta, err := newMetadataStore(runtime, cfg)
	if err != nil {
		return nil, err
	}

	imagesSys := images.New(
		runtime.Storage,
		meta,
		runtime.Logger,
		images.Options{
			BaseURL:      cfg.BaseURL(),
			JPEGQuality:  cfg.Images.JPEGQuality,
			MaxDimension: cfg.Images.MaxDimension,
		},
	)

	return &Domain{Images: imagesSys}, nil
}

func newMetadataStore(runtime *Runtime, cfg *config.Config) (images.MetadataStore, error) {
	switch cfg.Images.Metadata {
	case config.MetadataPostgres:
		if runtime.Database == nil {
			return nil, fmt.Errorf("postgres metadata requires a database")
		}
		db := runtime.Database.Connection()
		if err := images.MigratePostgres(db); err != nil {
			return nil, fmt.Errorf("migrate images: %w", err)
		}
		runtime.Logger.Info("image metadata in postgres")
		return images.NewPostgresMetadata(db), nil
	default:
		runtime.Logger.Info("image metadata on filesystem")
		return images.NewFileMetadata(runtime.Storage), nil
	}
}
