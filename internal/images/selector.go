package images

import (
	"strings"

	"github.com/JaimeStill/image-lab/internal/processor"
)

// Operation names the single transformation chosen for a show request.
type Operation string

const (
	OpCrop        Operation = "crop"
	OpResize      Operation = "resize"
	OpGreyscale   Operation = "greyscale"
	OpOpacity     Operation = "opacity"
	OpBrightness  Operation = "brightness"
	OpRotate      Operation = "rotate"
	OpEncode      Operation = "encode"
	OpPassthrough Operation = "passthrough"

	// OpInsert is only available as a persisted transform.
	OpInsert Operation = "insert"
)

// negotiable maps the Accept values that trigger a re-encode.
var negotiable = map[string]processor.Format{
	"image/gif":  processor.GIF,
	"image/jpeg": processor.JPEG,
	"image/png":  processor.PNG,
}

// Selection is the outcome of Select. Apply runs it against a pipeline.
type Selection struct {
	Op     Operation
	params ShowParams
	format processor.Format
}

// Select picks at most one transformation. The first matching rule wins
// and every later parameter is ignored:
//
//  1. width, height, x_coordinate and y_coordinate: crop
//  2. width and height: resize
//  3. greyscale
//  4. transparency
//  5. brightness
//  6. angle
//  7. Accept exactly image/gif, image/jpeg or image/png: encode
//  8. passthrough in the source format
func Select(params ShowParams, accept string) Selection {
	s := Selection{params: params}

	switch {
	case params.Width != nil && params.Height != nil && params.X != nil && params.Y != nil:
		s.Op = OpCrop
	case params.Width != nil && params.Height != nil:
		s.Op = OpResize
	case params.Greyscale != nil:
		s.Op = OpGreyscale
	case params.Transparency != nil:
		s.Op = OpOpacity
	case params.Brightness != nil:
		s.Op = OpBrightness
	case params.Angle != nil:
		s.Op = OpRotate
	default:
		if f, ok := negotiable[strings.TrimSpace(accept)]; ok {
			s.Op = OpEncode
			s.format = f
		} else {
			s.Op = OpPassthrough
		}
	}

	return s
}

// Apply runs the selected operation.
func (s Selection) Apply(p processor.Pipeline) (processor.Pipeline, error) {
	switch s.Op {
	case OpCrop:
		return p.Crop(*s.params.Width, *s.params.Height, *s.params.X, *s.params.Y)
	case OpResize:
		return p.Resize(*s.params.Width, *s.params.Height)
	case OpGreyscale:
		return p.Greyscale(), nil
	case OpOpacity:
		return p.Opacity(*s.params.Transparency), nil
	case OpBrightness:
		return p.Brightness(*s.params.Brightness), nil
	case OpRotate:
		return p.Rotate(*s.params.Angle), nil
	case OpEncode:
		return p.Encode(s.format), nil
	default:
		return p, nil
	}
}
