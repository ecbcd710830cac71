package images

import (
	"context"

	"github.com/JaimeStill/image-lab/internal/processor"
	"github.com/google/uuid"
)

// System defines the interface for image management operations.
type System interface {
	// List returns the metadata of every stored image.
	List(ctx context.Context) ([]Image, error)

	// Find retrieves an image record by its ID.
	Find(ctx context.Context, id uuid.UUID) (*Image, error)

	// Show renders at most one selected transformation without
	// modifying storage.
	Show(ctx context.Context, id uuid.UUID, params ShowParams, accept string) (*Rendered, error)

	// Download returns the stored bytes unchanged.
	Download(ctx context.Context, id uuid.UUID) (*Rendered, error)

	// Create stores a new upload under a freshly minted id.
	Create(ctx context.Context, upload Upload) (*Image, error)

	// Replace swaps the stored bytes of an existing image, keeping its id.
	Replace(ctx context.Context, id uuid.UUID, upload Upload) (*Image, error)

	// The persisted transforms each replace the stored blob with the result
	// of one operation and refresh the metadata.
	Resize(ctx context.Context, id uuid.UUID, params ResizeParams) (*Rendered, error)
	Crop(ctx context.Context, id uuid.UUID, params CropParams) (*Rendered, error)
	Greyscale(ctx context.Context, id uuid.UUID) (*Rendered, error)
	Opacity(ctx context.Context, id uuid.UUID, percent int) (*Rendered, error)
	Brightness(ctx context.Context, id uuid.UUID, delta int) (*Rendered, error)
	Rotate(ctx context.Context, id uuid.UUID, degrees float64) (*Rendered, error)
	Insert(ctx context.Context, id uuid.UUID, overlay []byte, position processor.Position) (*Rendered, error)
	Encode(ctx context.Context, id uuid.UUID, format processor.Format) (*Rendered, error)

	// Delete removes the image directory and its metadata. Any failure is
	// reported as ErrDeleteFailed.
	Delete(ctx context.Context, id uuid.UUID) error
}

// Upload is a client-supplied file.
type Upload struct {
	Name string
	Data []byte
}

// Rendered is an encoded image ready to be written to a response.
// Image is the refreshed record for persisted operations and nil otherwise.
type Rendered struct {
	Data        []byte
	ContentType string
	Filename    string
	Op          Operation
	Image       *Image
}
