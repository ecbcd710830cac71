package images

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Image is the metadata record kept beside each stored blob.
// URL is derived on read and never persisted.
type Image struct {
	ID           uuid.UUID `json:"id"`
	OriginalName string    `json:"original_name"`
	Extension    string    `json:"extension"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	URL          string    `json:"url,omitempty"`
}

// Patch lists the only metadata fields a mutation may change.
// Nil fields are left as they are.
type Patch struct {
	OriginalName *string
	Extension    *string
}

// Fill applies p and stamps the record as updated at the given time.
func (i *Image) Fill(p Patch, at time.Time) {
	if p.OriginalName != nil {
		i.OriginalName = *p.OriginalName
	}
	if p.Extension != nil {
		i.Extension = *p.Extension
	}
	i.UpdatedAt = at.UTC()
}

// StorageKey returns the blob key for the record's current extension.
func (i *Image) StorageKey() string {
	return Key(i.ID, RoleImage, i.Extension)
}

func newImage(id uuid.UUID, name, ext string, at time.Time) *Image {
	at = at.UTC()
	return &Image{
		ID:           id,
		OriginalName: name,
		Extension:    ext,
		CreatedAt:    at,
		UpdatedAt:    at,
	}
}

// renameExtension keeps the part of name before its first dot and appends
// ext. Anything after the first dot is dropped.
func renameExtension(name, ext string) string {
	stem, _, _ := strings.Cut(name, ".")
	return stem + "." + ext
}
