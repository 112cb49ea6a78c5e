package bank

import (
	"strings"

	"github.com/coreman2200/marquee/internal/layout"
)

const (
	MinSpeed     = 1
	MaxSpeed     = 8
	DefaultSpeed = 7

	// BlankWidth is the canvas width of a freshly cleared bank, two screens
	// so there is room to draw something that scrolls.
	BlankWidth = 2 * layout.Width
)

// Bank is one of the eight message slots stored on the badge.
type Bank struct {
	Mode         Mode   `json:"mode"`
	Text         string `json:"text"`
	Pixels       Matrix `json:"pixels"`
	CurrentFrame int    `json:"currentFrame"`
	Viewport     int    `json:"viewport"`
	Speed        int    `json:"speed"`
	Blink        bool   `json:"blink"`
	Ants         bool   `json:"ants"`
	Font         string `json:"font,omitempty"`
}

// New returns an empty bank: static, blank 44x11, speed 7.
func New() Bank {
	return Bank{
		Mode:   Static,
		Pixels: NewMatrix(layout.Width),
		Speed:  DefaultSpeed,
	}
}

func (b Bank) Clone() Bank {
	b.Pixels = b.Pixels.Clone()
	return b
}

func (b Bank) Width() int { return b.Pixels.Width() }

// HasPixels reports whether the bank carries any lit pixel. This is what
// decides whether a bank is uploaded.
func (b Bank) HasPixels() bool { return b.Pixels.Any() }

// HasData reports whether the bank has lit pixels or non-blank text. This is
// what playback cycling considers non-empty.
func (b Bank) HasData() bool {
	return b.HasPixels() || strings.TrimSpace(b.Text) != ""
}

// FrameCount is the number of 44px frames for animation banks and 1 otherwise.
func (b Bank) FrameCount() int {
	if b.Mode != Animation {
		return 1
	}
	return layout.Frames(b.Width())
}

// Validate checks the pixel invariants and the mode code.
func (b Bank) Validate() error {
	if err := b.Pixels.Validate(); err != nil {
		return err
	}
	if !b.Mode.Valid() {
		return ErrInvalidMode
	}
	return nil
}

// ClampSpeed limits s to the device's 1..8 range.
func ClampSpeed(s int) int {
	if s < MinSpeed {
		return MinSpeed
	}
	if s > MaxSpeed {
		return MaxSpeed
	}
	return s
}
