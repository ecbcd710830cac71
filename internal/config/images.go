package config

import (
	"fmt"
	"os"
	"strconv"
)

const (
	EnvImagesJPEGQuality  = "IMAGES_JPEG_QUALITY"
	EnvImagesMaxDimension = "IMAGES_MAX_DIMENSION"
	EnvImagesMetadata     = "IMAGES_METADATA"
)

// Metadata selects where image records are kept.
type Metadata string

const (
	// MetadataFilesystem writes meta.json beside each blob.
	MetadataFilesystem Metadata = "filesystem"

	// MetadataPostgres keeps records in the images table.
	MetadataPostgres Metadata = "postgres"
)

// ImagesConfig tunes the image domain.
type ImagesConfig struct {
	JPEGQuality int `toml:"jpeg_quality"`

	// MaxDimension bounds each side of a resized image in pixels.
	MaxDimension int      `toml:"max_dimension"`
	Metadata     Metadata `toml:"metadata"`
}

func (c *ImagesConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

func (c *ImagesConfig) Merge(overlay *ImagesConfig) {
	if overlay.JPEGQuality != 0 {
		c.JPEGQuality = overlay.JPEGQuality
	}
	if overlay.MaxDimension != 0 {
		c.MaxDimension = overlay.MaxDimension
	}
	if overlay.Metadata != "" {
		c.Metadata = overlay.Metadata
	}
}

func (c *ImagesConfig) loadDefaults() {
	if c.JPEGQuality == 0 {
		c.JPEGQuality = 90
	}
	if c.MaxDimension == 0 {
		c.MaxDimension = 10000
	}
	if c.Metadata == "" {
		c.Metadata = MetadataFilesystem
	}
}

func (c *ImagesConfig) loadEnv() {
	if v := os.Getenv(EnvImagesJPEGQuality); v != "" {
		if q, err := strconv.Atoi(v); err == nil {
			c.JPEGQuality = q
		}
	}
	if v := os.Getenv(EnvImagesMaxDimension); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxDimension = n
		}
	}
	if v := os.Getenv(EnvImagesMetadata); v != "" {
		c.Metadata = Metadata(v)
	}
}

func (c *ImagesConfig) validate() error {
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return fmt.Errorf("jpeg_quality must be between 1 and 100, got %d", c.JPEGQuality)
	}
	if c.MaxDimension < 1 {
		return fmt.Errorf("max_dimension must be positive, got %d", c.MaxDimension)
	}
	switch c.Metadata {
	case MetadataFilesystem, MetadataPostgres:
		return nil
	default:
		return fmt.Errorf("invalid metadata backend %q (must be filesystem or postgres)", c.Metadata)
	}
}
