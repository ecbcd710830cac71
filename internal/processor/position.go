package processor

import (
	"fmt"
	"image"
)

// Position anchors an overlay inside the base image.
type Position string

// Anchor positions accepted by Insert.
const (
	TopLeft     Position = "top-left"
	Top         Position = "top"
	TopRight    Position = "top-right"
	Left        Position = "left"
	Center      Position = "center"
	Right       Position = "right"
	BottomLeft  Position = "bottom-left"
	Bottom      Position = "bottom"
	BottomRight Position = "bottom-right"
)

// Positions lists every valid anchor in reading order.
var Positions = []Position{
	TopLeft, Top, TopRight,
	Left, Center, Right,
	BottomLeft, Bottom, BottomRight,
}

// ParsePosition validates an anchor name.
func ParsePosition(name string) (Position, error) {
	for _, p := range Positions {
		if string(p) == name {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPosition, name)
}

// anchor returns the top-left point, in base coordinates, at which an
// overlay of the given bounds is drawn.
func (p Position) anchor(base, overlay image.Rectangle) (image.Point, error) {
	dx := base.Dx() - overlay.Dx()
	dy := base.Dy() - overlay.Dy()

	var pt image.Point
	switch p {
	case TopLeft:
		pt = image.Pt(0, 0)
	case Top:
		pt = image.Pt(dx/2, 0)
	case TopRight:
		pt = image.Pt(dx, 0)
	case Left:
		pt = image.Pt(0, dy/2)
	case Center:
		pt = image.Pt(dx/2, dy/2)
	case Right:
		pt = image.Pt(dx, dy/2)
	case BottomLeft:
		pt = image.Pt(0, dy)
	case Bottom:
		pt = image.Pt(dx/2, dy)
	case BottomRight:
		pt = image.Pt(dx, dy)
	default:
		return image.Point{}, fmt.Errorf("%w: %q", ErrInvalidPosition, string(p))
	}

	return base.Min.Add(pt), nil
}
