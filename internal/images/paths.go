package images

import (
	"path"

	"github.com/google/uuid"
)

// Role names a file kept in an image's storage directory.
type Role string

const (
	RoleImage Role = "image"
	RoleMeta  Role = "meta"
)

// Key resolves the storage key for a role inside the image's directory.
// The extension applies to RoleImage only.
//
//	Key(id, RoleImage, "png") == "<id>/image.png"
//	Key(id, RoleMeta, "")     == "<id>/meta.json"
func Key(id uuid.UUID, role Role, ext string) string {
	switch role {
	case RoleMeta:
		return path.Join(Dir(id), "meta.json")
	default:
		return path.Join(Dir(id), string(RoleImage)+"."+ext)
	}
}

// Dir is the storage prefix holding every file of one image.
func Dir(id uuid.UUID) string {
	return id.String()
}
