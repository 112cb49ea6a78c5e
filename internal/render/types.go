package render

import (
	"errors"
	"image"
	"image/color"
	"strings"

	"github.com/coreman2200/marquee/internal/layout"
)

// Frame is one 44x11 picture of the panel, Frame[y][x].
type Frame [layout.Height][layout.Width]bool

// Frame is an image so it can be scaled, drawn onto displays or encoded.
var _ image.Image = (*Frame)(nil)

func (f *Frame) ColorModel() color.Model { return color.GrayModel }

func (f *Frame) Bounds() image.Rectangle { return image.Rect(0, 0, layout.Width, layout.Height) }

func (f *Frame) At(x, y int) color.Color {
	if layout.Screen.Contains(x, y) && f[y][x] {
		return color.White
	}
	return color.Black
}

// Lit counts the pixels that are on.
func (f *Frame) Lit() int {
	n := 0
	for y := range f {
		for _, v := range f[y] {
			if v {
				n++
			}
		}
	}
	return n
}

// Bytes returns the frame row-major, one byte per LED (0 or 255).
func (f *Frame) Bytes() []byte {
	out := make([]byte, layout.Screen.Count())
	for y := range f {
		for x, v := range f[y] {
			if v {
				out[layout.Screen.Index(x, y)] = 255
			}
		}
	}
	return out
}

func (f *Frame) String() string {
	var sb strings.Builder
	for y := range f {
		if y > 0 {
			sb.WriteByte('\n')
		}
		for _, v := range f[y] {
			if v {
				sb.WriteByte('#')
			} else {
				sb.WriteByte('.')
			}
		}
	}
	return sb.String()
}

// Driver is anything frames are shown on: a socket, a terminal, an OLED.
type Driver interface {
	Write(Frame) error
}

// DriverFunc adapts a function to Driver.
type DriverFunc func(Frame) error

func (fn DriverFunc) Write(f Frame) error { return fn(f) }

// Drivers writes each frame to every driver, joining their errors.
type Drivers []Driver

func (ds Drivers) Write(f Frame) error {
	var errs []error
	for _, d := range ds {
		if d == nil {
			continue
		}
		if err := d.Write(f); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
