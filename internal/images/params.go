package images

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/JaimeStill/image-lab/internal/processor"
)

// Request field names.
const (
	FieldWidth        = "width"
	FieldHeight       = "height"
	FieldX            = "x_coordinate"
	FieldY            = "y_coordinate"
	FieldGreyscale    = "greyscale"
	FieldTransparency = "transparency"
	FieldBrightness   = "brightness"
	FieldAngle        = "angle"
	FieldFormat       = "format"
	FieldPosition     = "position"
	FieldFile         = "file"
)

// ShowParams holds the optional transform parameters of a show request.
// A nil field was absent from the request.
type ShowParams struct {
	Width        *int
	Height       *int
	X            *int
	Y            *int
	Greyscale    *bool
	Transparency *int
	Brightness   *int
	Angle        *float64
}

// ParseShowParams validates every declared parameter that is present,
// regardless of which transform will be selected.
func ParseShowParams(values url.Values) (ShowParams, error) {
	f := fields{values: values}

	params := ShowParams{
		Width:        f.optInt(FieldWidth, 0, math.MaxInt),
		Height:       f.optInt(FieldHeight, 0, math.MaxInt),
		X:            f.optInt(FieldX, 0, math.MaxInt),
		Y:            f.optInt(FieldY, 0, math.MaxInt),
		Greyscale:    f.optBool(FieldGreyscale),
		Transparency: f.optInt(FieldTransparency, 0, 100),
		Brightness:   f.optInt(FieldBrightness, -100, 100),
		Angle:        f.optFloat(FieldAngle, -360, 360),
	}

	return params, f.errs.err()
}

// ResizeParams are the required parameters of a persisted resize.
type ResizeParams struct {
	Width  int
	Height int
}

func ParseResizeParams(values url.Values) (ResizeParams, error) {
	f := fields{values: values}
	params := ResizeParams{
		Width:  f.reqInt(FieldWidth, 0, math.MaxInt),
		Height: f.reqInt(FieldHeight, 0, math.MaxInt),
	}
	return params, f.errs.err()
}

// CropParams are the required parameters of a persisted crop.
type CropParams struct {
	Width  int
	Height int
	X      int
	Y      int
}

func ParseCropParams(values url.Values) (CropParams, error) {
	f := fields{values: values}
	params := CropParams{
		Width:  f.reqInt(FieldWidth, 0, math.MaxInt),
		Height: f.reqInt(FieldHeight, 0, math.MaxInt),
		X:      f.reqInt(FieldX, 0, math.MaxInt),
		Y:      f.reqInt(FieldY, 0, math.MaxInt),
	}
	return params, f.errs.err()
}

func ParseOpacityParams(values url.Values) (int, error) {
	f := fields{values: values}
	pct := f.reqInt(FieldTransparency, 0, 100)
	return pct, f.errs.err()
}

func ParseBrightnessParams(values url.Values) (int, error) {
	f := fields{values: values}
	delta := f.reqInt(FieldBrightness, -100, 100)
	return delta, f.errs.err()
}

func ParseRotateParams(values url.Values) (float64, error) {
	f := fields{values: values}
	angle := f.reqFloat(FieldAngle, -360, 360)
	return angle, f.errs.err()
}

// ParseEncodeParams accepts only the explicit encode targets.
func ParseEncodeParams(values url.Values) (processor.Format, error) {
	f := fields{values: values}
	name := f.reqEnum(FieldFormat, processor.EncodeTargets)
	if err := f.errs.err(); err != nil {
		return "", err
	}
	return processor.ParseFormat(name)
}

func ParseInsertParams(values url.Values) (processor.Position, error) {
	names := make([]string, len(processor.Positions))
	for i, p := range processor.Positions {
		names[i] = string(p)
	}

	f := fields{values: values}
	name := f.reqEnum(FieldPosition, names)
	if err := f.errs.err(); err != nil {
		return "", err
	}
	return processor.ParsePosition(name)
}

// fields reads request values and records one message per rejected field.
// A field counts as present only when its trimmed value is non-empty.
type fields struct {
	values url.Values
	errs   ValidationError
}

func (f *fields) lookup(name string) (string, bool) {
	v := strings.TrimSpace(f.values.Get(name))
	return v, v != ""
}

func (f *fields) optInt(name string, lo, hi int) *int {
	raw, ok := f.lookup(name)
	if !ok {
		return nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		f.errs.add(name, "must be an integer")
		return nil
	}
	if n < lo || n > hi {
		f.errs.add(name, rangeMessage(float64(lo), float64(hi)))
		return nil
	}
	return &n
}

func (f *fields) reqInt(name string, lo, hi int) int {
	if _, ok := f.lookup(name); !ok {
		f.errs.add(name, "is required")
		return 0
	}
	if n := f.optInt(name, lo, hi); n != nil {
		return *n
	}
	return 0
}

func (f *fields) optFloat(name string, lo, hi float64) *float64 {
	raw, ok := f.lookup(name)
	if !ok {
		return nil
	}

	n, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		f.errs.add(name, "must be a number")
		return nil
	}
	if n < lo || n > hi {
		f.errs.add(name, rangeMessage(lo, hi))
		return nil
	}
	return &n
}

func (f *fields) reqFloat(name string, lo, hi float64) float64 {
	if _, ok := f.lookup(name); !ok {
		f.errs.add(name, "is required")
		return 0
	}
	if n := f.optFloat(name, lo, hi); n != nil {
		return *n
	}
	return 0
}

func (f *fields) optBool(name string) *bool {
	raw, ok := f.lookup(name)
	if !ok {
		return nil
	}

	var b bool
	switch strings.ToLower(raw) {
	case "1", "true":
		b = true
	case "0", "false":
		b = false
	default:
		f.errs.add(name, "must be a boolean")
		return nil
	}
	return &b
}

func (f *fields) reqEnum(name string, allowed []string) string {
	raw, ok := f.lookup(name)
	if !ok {
		f.errs.add(name, "is required")
		return ""
	}

	for _, a := range allowed {
		if raw == a {
			return raw
		}
	}

	f.errs.add(name, "must be one of: "+strings.Join(allowed, ", "))
	return ""
}

func rangeMessage(lo, hi float64) string {
	if hi == math.MaxInt {
		return fmt.Sprintf("must be at least %g", lo)
	}
	return fmt.Sprintf("must be between %g and %g", lo, hi)
}
