package bitmap

import (
	"errors"
	"image"
	"image/color"
	"image/gif"
	"io"
	"time"

	"github.com/go-playground/colors"

	"github.com/coreman2200/marquee/internal/layout"
	"github.com/coreman2200/marquee/internal/render"
)

const DefaultLEDColor = "#ff6a00"

var ErrNoFrames = errors.New("no frames to encode")

// ParseLEDColor parses a hex colour such as "#ff6a00" or "#f60".
func ParseLEDColor(s string) (color.RGBA, error) {
	hex, err := colors.ParseHEX(s)
	if err != nil {
		return color.RGBA{}, err
	}
	c := hex.ToRGB()
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff}, nil
}

type GIFOptions struct {
	// Scale is the size of one LED in output pixels, including a 1px gap.
	Scale int
	LED   color.RGBA
	Off   color.RGBA
}

func (o GIFOptions) withDefaults() GIFOptions {
	if o.Scale < 2 {
		o.Scale = 6
	}
	if o.LED == (color.RGBA{}) {
		o.LED, _ = ParseLEDColor(DefaultLEDColor)
	}
	if o.Off == (color.RGBA{}) {
		o.Off = color.RGBA{R: 0x1c, G: 0x1c, B: 0x1c, A: 0xff}
	}
	return o
}

// Recording is a frame sequence with per-frame display durations.
type Recording struct {
	Frames []render.Frame
	Delays []time.Duration
}

// Add appends f, extending the previous frame instead when they are equal.
func (r *Recording) Add(f render.Frame, d time.Duration) {
	if n := len(r.Frames); n > 0 && r.Frames[n-1] == f {
		r.Delays[n-1] += d
		return
	}
	r.Frames = append(r.Frames, f)
	r.Delays = append(r.Delays, d)
}

// EncodeGIF writes rec as a looping animated GIF.
func EncodeGIF(w io.Writer, rec Recording, opts GIFOptions) error {
	if len(rec.Frames) == 0 {
		return ErrNoFrames
	}
	opts = opts.withDefaults()
	palette := color.Palette{color.Black, opts.Off, opts.LED}
	bounds := image.Rect(0, 0, layout.Width*opts.Scale, layout.Height*opts.Scale)

	out := &gif.GIF{}
	for i, f := range rec.Frames {
		img := image.NewPaletted(bounds, palette)
		for y := 0; y < layout.Height; y++ {
			for x := 0; x < layout.Width; x++ {
				idx := uint8(1)
				if f[y][x] {
					idx = 2
				}
				fillDot(img, x, y, opts.Scale, idx)
			}
		}
		delay := 10
		if i < len(rec.Delays) {
			// gif delays are in hundredths of a second.
			delay = max(int(rec.Delays[i]/(10*time.Millisecond)), 2)
		}
		out.Image = append(out.Image, img)
		out.Delay = append(out.Delay, delay)
	}
	return gif.EncodeAll(w, out)
}

func fillDot(img *image.Paletted, x, y, scale int, idx uint8) {
	for dy := 0; dy < scale-1; dy++ {
		for dx := 0; dx < scale-1; dx++ {
			img.SetColorIndex(x*scale+dx, y*scale+dy, idx)
		}
	}
}
