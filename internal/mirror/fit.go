package mirror

import (
	"fmt"
	"image"

	"github.com/coreman2200/marquee/internal/layout"
)

// Fit places the badge on a larger display: every LED becomes a Scale x Scale
// block, the whole panel centered.
type Fit struct {
	Scale  int
	Origin image.Point
}

// FitTo picks the largest integer scale the bounds allow.
func FitTo(b image.Rectangle) (Fit, error) {
	s := min(b.Dx()/layout.Width, b.Dy()/layout.Height)
	if s < 1 {
		return Fit{}, fmt.Errorf("%w: %v", ErrTooSmall, b.Size())
	}
	return Fit{
		Scale: s,
		Origin: image.Point{
			X: b.Min.X + (b.Dx()-s*layout.Width)/2,
			Y: b.Min.Y + (b.Dy()-s*layout.Height)/2,
		},
	}, nil
}

// Cell is the block of display pixels showing LED x,y.
func (f Fit) Cell(x, y int) image.Rectangle {
	p := f.Origin.Add(image.Pt(x*f.Scale, y*f.Scale))
	return image.Rectangle{Min: p, Max: p.Add(image.Pt(f.Scale, f.Scale))}
}
