// Package processor wraps decode, transform, and encode of a single bitmap.
// A Pipeline is an immutable value: every operation returns a new Pipeline,
// so operations compose left to right in the order they are invoked.
package processor

import (
	"errors"
	"fmt"
	"strings"

	"github.com/disintegration/imaging"
)

// Processing errors.
var (
	ErrDecode            = errors.New("image could not be decoded")
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrInvalidPosition   = errors.New("invalid insert position")
	ErrEmptyRegion       = errors.New("crop region lies outside the image")
	ErrInvalidDimensions = errors.New("invalid dimensions")
	ErrTooLarge          = errors.New("dimensions exceed the maximum")
)

// Format identifies an encoded image format by its MIME subtype.
type Format string

// Supported formats. JPEG, PNG and GIF are accepted as explicit encode
// targets; BMP and TIFF are carried through for stored images.
const (
	JPEG Format = "jpeg"
	PNG  Format = "png"
	GIF  Format = "gif"
	BMP  Format = "bmp"
	TIFF Format = "tiff"
)

// EncodeTargets lists the format names clients may request explicitly.
var EncodeTargets = []string{"jpg", "png", "gif"}

// ParseFormat resolves a format name, extension, or MIME subtype.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(name, ".")) {
	case "jpg", "jpeg":
		return JPEG, nil
	case "png":
		return PNG, nil
	case "gif":
		return GIF, nil
	case "bmp":
		return BMP, nil
	case "tif", "tiff":
		return TIFF, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
	}
}

// MIME returns the media type of the format.
func (f Format) MIME() string {
	return "image/" + string(f)
}

// Extension returns the file extension for the format, which is the
// subtype portion of its MIME type.
func (f Format) Extension() string {
	return string(f)
}

func (f Format) imaging() (imaging.Format, error) {
	switch f {
	case JPEG:
		return imaging.JPEG, nil
	case PNG:
		return imaging.PNG, nil
	case GIF:
		return imaging.GIF, nil
	case BMP:
		return imaging.BMP, nil
	case TIFF:
		return imaging.TIFF, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, string(f))
	}
}
