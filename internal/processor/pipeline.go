package processor

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

// DefaultJPEGQuality is used when no quality option is supplied.
const DefaultJPEGQuality = 90

// DefaultMaxDimension caps the width and height a resize may produce.
const DefaultMaxDimension = 10000

// Option configures a Pipeline at decode time.
type Option func(*Pipeline)

// WithJPEGQuality sets the quality (1-100) used when rendering JPEG output.
func WithJPEGQuality(quality int) Option {
	return func(p *Pipeline) {
		if quality >= 1 && quality <= 100 {
			p.quality = quality
		}
	}
}

// WithMaxDimension sets the largest width or height a resize may produce.
// Values below 1 keep the default.
func WithMaxDimension(n int) Option {
	return func(p *Pipeline) {
		if n >= 1 {
			p.maxDim = n
		}
	}
}

// Pipeline holds a decoded bitmap and the format it will be rendered in.
type Pipeline struct {
	img     image.Image
	format  Format
	quality int
	maxDim  int
}

// Decode reads encoded image bytes into a Pipeline whose target format is
// the source format. JPEG orientation metadata is applied during decode.
func Decode(data []byte, opts ...Option) (Pipeline, error) {
	_, name, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Pipeline{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	format, err := ParseFormat(name)
	if err != nil {
		return Pipeline{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return Pipeline{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	p := Pipeline{
		img:     img,
		format:  format,
		quality: DefaultJPEGQuality,
		maxDim:  DefaultMaxDimension,
	}
	for _, opt := range opts {
		opt(&p)
	}

	return p, nil
}

// Format returns the format the pipeline renders to.
func (p Pipeline) Format() Format {
	return p.format
}

// MIME returns the media type of the rendered output.
func (p Pipeline) MIME() string {
	return p.format.MIME()
}

// Extension returns the file extension of the rendered output.
func (p Pipeline) Extension() string {
	return p.format.Extension()
}

// Bounds returns the current bitmap bounds.
func (p Pipeline) Bounds() image.Rectangle {
	return p.img.Bounds()
}

// Image exposes the current bitmap.
func (p Pipeline) Image() image.Image {
	return p.img
}

func (p Pipeline) with(img image.Image) Pipeline {
	p.img = img
	return p
}

// Crop extracts the width x height rectangle whose top-left corner is (x, y).
// A rectangle extending past the source is clamped to the available pixels.
func (p Pipeline) Crop(width, height, x, y int) (Pipeline, error) {
	if width < 0 || height < 0 {
		return p, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}

	b := p.img.Bounds()
	if x < 0 || y < 0 || x >= b.Dx() || y >= b.Dy() {
		return p, fmt.Errorf("%w: %dx%d at (%d,%d)", ErrEmptyRegion, width, height, x, y)
	}

	// Clamp before adding so the far corner cannot overflow.
	width = min(width, b.Dx()-x)
	height = min(height, b.Dy()-y)

	rect := image.Rect(x, y, x+width, y+height).Add(b.Min)

	out := imaging.Crop(p.img, rect)
	if out.Bounds().Empty() {
		return p, fmt.Errorf("%w: %dx%d at (%d,%d)", ErrEmptyRegion, width, height, x, y)
	}

	return p.with(out), nil
}

// Resize scales the bitmap to width x height. A zero dimension is derived
// from the other to preserve the aspect ratio. Output larger than the
// pipeline's maximum dimension on either side fails with ErrTooLarge.
func (p Pipeline) Resize(width, height int) (Pipeline, error) {
	if width < 0 || height < 0 || (width == 0 && height == 0) {
		return p, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}

	b := p.img.Bounds()
	outW, outH := float64(width), float64(height)
	if width == 0 {
		outW = math.Round(float64(b.Dx()) * outH / float64(b.Dy()))
	}
	if height == 0 {
		outH = math.Round(float64(b.Dy()) * outW / float64(b.Dx()))
	}

	limit := float64(p.maxDim)
	if outW > limit || outH > limit {
		return p, fmt.Errorf("%w: %w: %.0fx%.0f exceeds %d", ErrInvalidDimensions, ErrTooLarge, outW, outH, p.maxDim)
	}

	return p.with(imaging.Resize(p.img, width, height, imaging.Lanczos)), nil
}

// Greyscale desaturates every pixel.
func (p Pipeline) Greyscale() Pipeline {
	return p.with(imaging.Grayscale(p.img))
}

// Opacity scales alpha so that a fully opaque pixel ends at percent of full
// opacity. 0 is fully transparent; 100 leaves the bitmap unchanged.
func (p Pipeline) Opacity(percent int) Pipeline {
	percent = max(0, min(percent, 100))

	return p.with(imaging.AdjustFunc(p.img, func(c color.NRGBA) color.NRGBA {
		c.A = uint8(int(c.A) * percent / 100)
		return c
	}))
}

// Brightness shifts every channel by delta percent of the full channel
// range (-100 to 100), clamping at the channel limits.
func (p Pipeline) Brightness(delta int) Pipeline {
	return p.with(imaging.AdjustBrightness(p.img, float64(delta)))
}

// Rotate turns the bitmap clockwise by degrees. The canvas grows to fit
// the rotated corners and uncovered background is transparent.
func (p Pipeline) Rotate(degrees float64) Pipeline {
	return p.with(imaging.Rotate(p.img, -degrees, color.Transparent))
}

// Insert draws the encoded overlay at the given anchor without scaling it.
func (p Pipeline) Insert(overlay []byte, position Position) (Pipeline, error) {
	over, err := Decode(overlay)
	if err != nil {
		return p, err
	}

	pt, err := position.anchor(p.img.Bounds(), over.img.Bounds())
	if err != nil {
		return p, err
	}

	return p.with(imaging.Overlay(p.img, over.img, pt, 1.0)), nil
}

// Encode sets the format used by Render.
func (p Pipeline) Encode(format Format) Pipeline {
	p.format = format
	return p
}

// Render serializes the bitmap in the pipeline format.
func (p Pipeline) Render() ([]byte, error) {
	target, err := p.format.imaging()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, p.img, target, imaging.JPEGQuality(p.quality)); err != nil {
		return nil, fmt.Errorf("encode %s: %w", p.format, err)
	}

	return buf.Bytes(), nil
}
