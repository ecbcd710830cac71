package processor_test

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"testing"

	"github.com/JaimeStill/image-lab/internal/processor"
)

func solid(w, h int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: c}, image.Point{}, draw.Src)
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode() failed: %v", err)
	}
	return buf.Bytes()
}

func decode(t *testing.T, data []byte) processor.Pipeline {
	t.Helper()
	p, err := processor.Decode(data)
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}
	return p
}

func nrgbaAt(img image.Image, x, y int) color.NRGBA {
	return color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
}

func TestDecode_DetectsFormat(t *testing.T) {
	p := decode(t, encodePNG(t, solid(4, 4, color.White)))

	if p.Format() != processor.PNG {
		t.Errorf("Format() = %q, want %q", p.Format(), processor.PNG)
	}
	if p.MIME() != "image/png" {
		t.Errorf("MIME() = %q, want image/png", p.MIME())
	}
	if p.Extension() != "png" {
		t.Errorf("Extension() = %q, want png", p.Extension())
	}
}

func TestDecode_Invalid(t *testing.T) {
	_, err := processor.Decode([]byte("not an image"))
	if !errors.Is(err, processor.ErrDecode) {
		t.Errorf("Decode() error = %v, want %v", err, processor.ErrDecode)
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name    string
		want    processor.Format
		wantErr bool
	}{
		{"jpg", processor.JPEG, false},
		{"JPEG", processor.JPEG, false},
		{".png", processor.PNG, false},
		{"gif", processor.GIF, false},
		{"tif", processor.TIFF, false},
		{"webp", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := processor.ParseFormat(tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFormat() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseFormat() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCrop(t *testing.T) {
	p := decode(t, encodePNG(t, solid(200, 200, color.White)))

	tests := []struct {
		name         string
		w, h, x, y   int
		wantW, wantH int
		wantErr      error
	}{
		{"inside", 100, 100, 50, 50, 100, 100, nil},
		{"clamped", 100, 100, 150, 150, 50, 50, nil},
		{"outside", 10, 10, 500, 500, 0, 0, processor.ErrEmptyRegion},
		{"max origin", 1, 1, math.MaxInt, 0, 0, 0, processor.ErrEmptyRegion},
		{"max extent", math.MaxInt, math.MaxInt, 10, 10, 190, 190, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := p.Crop(tt.w, tt.h, tt.x, tt.y)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Crop() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Crop() failed: %v", err)
			}

			b := out.Bounds()
			if b.Dx() != tt.wantW || b.Dy() != tt.wantH {
				t.Errorf("Crop() size = %dx%d, want %dx%d", b.Dx(), b.Dy(), tt.wantW, tt.wantH)
			}
		})
	}
}

func TestCrop_Immutable(t *testing.T) {
	p := decode(t, encodePNG(t, solid(200, 200, color.White)))

	if _, err := p.Crop(10, 10, 0, 0); err != nil {
		t.Fatalf("Crop() failed: %v", err)
	}

	if p.Bounds().Dx() != 200 {
		t.Errorf("source mutated: width = %d, want 200", p.Bounds().Dx())
	}
}

func TestResize(t *testing.T) {
	p := decode(t, encodePNG(t, solid(200, 100, color.White)))

	tests := []struct {
		name         string
		w, h         int
		wantW, wantH int
		wantErr      bool
	}{
		{"both", 50, 50, 50, 50, false},
		{"width only", 100, 0, 100, 50, false},
		{"height only", 0, 25, 50, 25, false},
		{"neither", 0, 0, 0, 0, true},
		{"negative", -1, 10, 0, 0, true},
		{"max width", math.MaxInt, 1, 0, 0, true},
		{"max both", math.MaxInt, math.MaxInt, 0, 0, true},
		{"derived too large", 0, 10000, 0, 0, true},
		{"at limit", processor.DefaultMaxDimension, 1, processor.DefaultMaxDimension, 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := p.Resize(tt.w, tt.h)
			if tt.wantErr {
				if !errors.Is(err, processor.ErrInvalidDimensions) {
					t.Fatalf("Resize() error = %v, want %v", err, processor.ErrInvalidDimensions)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resize() failed: %v", err)
			}

			b := out.Bounds()
			if b.Dx() != tt.wantW || b.Dy() != tt.wantH {
				t.Errorf("Resize() size = %dx%d, want %dx%d", b.Dx(), b.Dy(), tt.wantW, tt.wantH)
			}
		})
	}
}

func TestWithMaxDimension(t *testing.T) {
	p, err := processor.Decode(encodePNG(t, solid(20, 10, color.White)), processor.WithMaxDimension(30))
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}

	if _, err := p.Resize(30, 30); err != nil {
		t.Errorf("Resize(30, 30) failed: %v", err)
	}

	_, err = p.Resize(0, 20)
	if !errors.Is(err, processor.ErrTooLarge) {
		t.Errorf("Resize(0, 20) error = %v, want %v", err, processor.ErrTooLarge)
	}
	if !errors.Is(err, processor.ErrInvalidDimensions) {
		t.Errorf("Resize(0, 20) error = %v, want %v", err, processor.ErrInvalidDimensions)
	}
}

func TestGreyscale(t *testing.T) {
	p := decode(t, encodePNG(t, solid(4, 4, color.NRGBA{R: 200, G: 40, B: 10, A: 255})))

	c := nrgbaAt(p.Greyscale().Image(), 1, 1)
	if c.R != c.G || c.G != c.B {
		t.Errorf("Greyscale() pixel = %v, want equal channels", c)
	}
}

func TestOpacity(t *testing.T) {
	p := decode(t, encodePNG(t, solid(4, 4, color.NRGBA{R: 10, G: 20, B: 30, A: 255})))

	tests := []struct {
		percent int
		want    uint8
	}{
		{100, 255},
		{50, 127},
		{0, 0},
	}

	for _, tt := range tests {
		c := nrgbaAt(p.Opacity(tt.percent).Image(), 0, 0)
		if c.A != tt.want {
			t.Errorf("Opacity(%d) alpha = %d, want %d", tt.percent, c.A, tt.want)
		}
	}
}

func TestBrightness(t *testing.T) {
	p := decode(t, encodePNG(t, solid(4, 4, color.NRGBA{R: 100, G: 100, B: 100, A: 255})))

	brighter := nrgbaAt(p.Brightness(50).Image(), 0, 0)
	if brighter.R <= 100 {
		t.Errorf("Brightness(50) red = %d, want > 100", brighter.R)
	}

	darker := nrgbaAt(p.Brightness(-50).Image(), 0, 0)
	if darker.R >= 100 {
		t.Errorf("Brightness(-50) red = %d, want < 100", darker.R)
	}

	white := nrgbaAt(p.Brightness(100).Image(), 0, 0)
	if white.R != 255 {
		t.Errorf("Brightness(100) red = %d, want 255", white.R)
	}
}

func TestRotate_Clockwise(t *testing.T) {
	src := solid(20, 10, color.White)
	src.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})

	out := decode(t, encodePNG(t, src)).Rotate(90)

	b := out.Bounds()
	if b.Dx() != 10 || b.Dy() != 20 {
		t.Fatalf("Rotate(90) size = %dx%d, want 10x20", b.Dx(), b.Dy())
	}

	if c := nrgbaAt(out.Image(), b.Max.X-1, b.Min.Y); c.R != 255 || c.G != 0 {
		t.Errorf("Rotate(90) top-right = %v, want red", c)
	}
}

func TestInsert_Positions(t *testing.T) {
	base := decode(t, encodePNG(t, solid(100, 100, color.White)))
	overlay := encodePNG(t, solid(10, 10, color.NRGBA{R: 255, A: 255}))

	tests := []struct {
		position processor.Position
		x, y     int
	}{
		{processor.TopLeft, 0, 0},
		{processor.Top, 45, 0},
		{processor.TopRight, 90, 0},
		{processor.Left, 0, 45},
		{processor.Center, 45, 45},
		{processor.Right, 90, 45},
		{processor.BottomLeft, 0, 90},
		{processor.Bottom, 45, 90},
		{processor.BottomRight, 90, 90},
	}

	for _, tt := range tests {
		t.Run(string(tt.position), func(t *testing.T) {
			out, err := base.Insert(overlay, tt.position)
			if err != nil {
				t.Fatalf("Insert() failed: %v", err)
			}

			if c := nrgbaAt(out.Image(), tt.x+5, tt.y+5); c.G != 0 {
				t.Errorf("overlay pixel = %v, want red", c)
			}
			if out.Bounds() != base.Bounds() {
				t.Errorf("Insert() bounds = %v, want %v", out.Bounds(), base.Bounds())
			}
		})
	}
}

func TestInsert_InvalidOverlay(t *testing.T) {
	base := decode(t, encodePNG(t, solid(10, 10, color.White)))

	if _, err := base.Insert([]byte("junk"), processor.Center); !errors.Is(err, processor.ErrDecode) {
		t.Errorf("Insert() error = %v, want %v", err, processor.ErrDecode)
	}
}

func TestParsePosition(t *testing.T) {
	if _, err := processor.ParsePosition("middle"); !errors.Is(err, processor.ErrInvalidPosition) {
		t.Errorf("ParsePosition(middle) error = %v, want %v", err, processor.ErrInvalidPosition)
	}

	for _, p := range processor.Positions {
		if got, err := processor.ParsePosition(string(p)); err != nil || got != p {
			t.Errorf("ParsePosition(%q) = %q, %v", p, got, err)
		}
	}
}

func TestEncode_RoundTrip(t *testing.T) {
	p := decode(t, encodePNG(t, solid(30, 20, color.White)))

	for _, f := range []processor.Format{processor.JPEG, processor.GIF, processor.PNG} {
		t.Run(string(f), func(t *testing.T) {
			data, err := p.Encode(f).Render()
			if err != nil {
				t.Fatalf("Render() failed: %v", err)
			}

			cfg, name, err := image.DecodeConfig(bytes.NewReader(data))
			if err != nil {
				t.Fatalf("DecodeConfig() failed: %v", err)
			}
			if name != string(f) {
				t.Errorf("rendered format = %q, want %q", name, f)
			}
			if cfg.Width != 30 || cfg.Height != 20 {
				t.Errorf("rendered size = %dx%d, want 30x20", cfg.Width, cfg.Height)
			}
		})
	}
}

func TestWithJPEGQuality(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 64, 64))
	for x := range 64 {
		for y := range 64 {
			src.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 4), G: uint8(y * 4), B: uint8(x ^ y), A: 255})
		}
	}
	data := encodePNG(t, src)

	low, err := processor.Decode(data, processor.WithJPEGQuality(5))
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}
	high, _ := processor.Decode(data, processor.WithJPEGQuality(100))

	lowBytes, _ := low.Encode(processor.JPEG).Render()
	highBytes, _ := high.Encode(processor.JPEG).Render()

	if len(lowBytes) >= len(highBytes) {
		t.Errorf("quality 5 size %d >= quality 100 size %d", len(lowBytes), len(highBytes))
	}
}
