package font

import (
	"fmt"
	"image"

	"github.com/mattn/go-runewidth"
	"golang.org/x/image/font"

	"github.com/coreman2200/marquee/internal/bank"
	"github.com/coreman2200/marquee/internal/layout"
)

// Glyphs are separated by one dark column.
const spacing = 1

// Rasterizer turns text into a badge bitmap.
type Rasterizer interface {
	Rasterize(text, fontID string, center bool) (bank.Matrix, error)
}

var _ Rasterizer = (*Registry)(nil)

// Rasterize renders text with the named face (the default when empty).
// Empty text yields a single dark column. Anything else is at least one
// panel wide, centered when center is set and left aligned otherwise.
func (r *Registry) Rasterize(text, fontID string, center bool) (bank.Matrix, error) {
	if text == "" {
		return bank.NewMatrix(1), nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if fontID == "" {
		fontID = r.def
	}
	f, ok := r.faces[fontID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFont, fontID)
	}

	var glyphs []bank.Matrix
	width := 0
	for _, c := range text {
		if runewidth.RuneWidth(c) == 0 {
			continue
		}
		g := f.glyph(c)
		if len(glyphs) > 0 {
			width += spacing
		}
		glyphs = append(glyphs, g)
		width += g.Width()
	}

	left := 0
	total := max(width, layout.Width)
	if center && width < layout.Width {
		left = (layout.Width - width) / 2
	}
	out := bank.NewMatrix(total)
	x := left
	for _, g := range glyphs {
		for y := range g {
			copy(out[y][x:], g[y])
		}
		x += g.Width() + spacing
	}
	return out, nil
}

// glyph renders one rune and trims it to its inked columns. Blank glyphs such
// as space keep their advance width.
func (f *Face) glyph(c rune) bank.Matrix {
	adv, ok := f.Face.GlyphAdvance(c)
	if !ok {
		c = '?'
		adv, _ = f.Face.GlyphAdvance(c)
	}
	dst, dot := glyphCanvas(f, adv)
	d := font.Drawer{Dst: dst, Src: image.Opaque, Face: f.Face, Dot: dot}
	d.DrawString(string(c))

	w := dst.Bounds().Dx()
	minX, maxX := w, -1
	for x := 0; x < w; x++ {
		for y := 0; y < layout.Height; y++ {
			if dst.AlphaAt(x, y).A > 127 {
				minX = min(minX, x)
				maxX = max(maxX, x)
			}
		}
	}
	if maxX < 0 {
		return bank.NewMatrix(max(1, adv.Round()))
	}
	m := bank.NewMatrix(maxX - minX + 1)
	for y := range m {
		for x := range m[y] {
			m[y][x] = dst.AlphaAt(minX+x, y).A > 127
		}
	}
	return m
}
