package images

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/JaimeStill/image-lab/pkg/storage"
	"github.com/google/uuid"
)

// MetadataStore persists Image records keyed by id.
type MetadataStore interface {
	// List returns every record ordered by creation time.
	List(ctx context.Context) ([]Image, error)

	// Find returns ErrNotFound when no record exists for id.
	Find(ctx context.Context, id uuid.UUID) (*Image, error)

	// Save creates or overwrites the record for img.ID.
	Save(ctx context.Context, img *Image) error

	// Delete removes the record. Removing a missing record is not an error.
	Delete(ctx context.Context, id uuid.UUID) error
}

// fileMetadata keeps each record as a pretty-printed meta.json inside the
// image's storage directory.
type fileMetadata struct {
	blobs storage.System
}

// NewFileMetadata returns a MetadataStore that lives beside the blobs.
func NewFileMetadata(blobs storage.System) MetadataStore {
	return &fileMetadata{blobs: blobs}
}

func (m *fileMetadata) List(ctx context.Context) ([]Image, error) {
	dirs, err := m.blobs.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("%w: list images: %v", ErrStorage, err)
	}

	images := make([]Image, 0, len(dirs))
	for _, dir := range dirs {
		id, err := uuid.Parse(dir)
		if err != nil {
			continue
		}

		img, err := m.Find(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		images = append(images, *img)
	}

	sortImages(images)
	return images, nil
}

func (m *fileMetadata) Find(ctx context.Context, id uuid.UUID) (*Image, error) {
	data, err := m.blobs.Retrieve(ctx, Key(id, RoleMeta, ""))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: read metadata: %v", ErrStorage, err)
	}

	var img Image
	if err := json.Unmarshal(data, &img); err != nil {
		return nil, fmt.Errorf("%w: decode metadata %s: %v", ErrStorage, id, err)
	}

	return &img, nil
}

func (m *fileMetadata) Save(ctx context.Context, img *Image) error {
	record := *img
	record.URL = ""

	data, err := json.MarshalIndent(record, "", "    ")
	if err != nil {
		return fmt.Errorf("%w: encode metadata: %v", ErrStorage, err)
	}

	if err := m.blobs.Store(ctx, Key(img.ID, RoleMeta, ""), data); err != nil {
		return fmt.Errorf("%w: write metadata: %v", ErrStorage, err)
	}

	return nil
}

func (m *fileMetadata) Delete(ctx context.Context, id uuid.UUID) error {
	if err := m.blobs.Delete(ctx, Key(id, RoleMeta, "")); err != nil {
		return fmt.Errorf("%w: delete metadata: %v", ErrStorage, err)
	}
	return nil
}

func sortImages(images []Image) {
	slices.SortStableFunc(images, func(a, b Image) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID.String(), b.ID.String())
	})
}
