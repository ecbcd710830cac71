package storage

import (
	"context"

	"github.com/JaimeStill/image-lab/pkg/lifecycle"
)

// System defines the storage operations interface for blob storage.
// Keys are slash-separated relative paths; the first segment groups
// related blobs so a whole group can be listed or removed at once.
type System interface {
	// Store saves data at the specified key. If the key already exists,
	// its contents are overwritten. Parent directories are created as needed.
	// Returns ErrInvalidKey if the key is empty or contains path traversal.
	Store(ctx context.Context, key string, data []byte) error

	// Retrieve returns the data stored at the specified key.
	// Returns ErrNotFound if the key does not exist.
	Retrieve(ctx context.Context, key string) ([]byte, error)

	// Delete deletes the data at the specified key.
	// Returns nil if the key does not exist (idempotent).
	Delete(ctx context.Context, key string) error

	// DeletePrefix removes every blob stored under prefix, including the
	// prefix itself. Returns nil if nothing is stored there.
	DeletePrefix(ctx context.Context, prefix string) error

	// List returns the names of the groups stored directly under prefix.
	// An empty prefix lists the top level.
	List(ctx context.Context, prefix string) ([]string, error)

	// Validate checks if a key exists and is accessible.
	// Returns (true, nil) if the key exists and is readable.
	// Returns (false, nil) if the key does not exist.
	Validate(ctx context.Context, key string) (bool, error)

	// Start registers lifecycle hooks with the coordinator.
	// For filesystem storage, this creates the base directory.
	Start(lc *lifecycle.Coordinator) error
}
