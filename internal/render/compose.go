package render

import (
	"math"

	"github.com/coreman2200/marquee/internal/bank"
	"github.com/coreman2200/marquee/internal/layout"
	"github.com/coreman2200/marquee/internal/sequence"
)

const (
	W = layout.Width
	H = layout.Height
)

// Compose renders what the panel shows for b. A nil preview gives the editor
// view of the bank; otherwise the frame follows the running preview. Blink
// and ants are applied last.
func Compose(b bank.Bank, st *sequence.State) Frame {
	f := Content(b, st)
	DefaultPost.Apply(&f, EffectsOf(b, st))
	return f
}

// Content renders the frame before post effects.
func Content(b bank.Bank, st *sequence.State) Frame {
	var f Frame
	if st == nil {
		off := b.Viewport
		if b.Mode == bank.Animation {
			off = b.CurrentFrame * W
		}
		windowH(&f, b.Pixels, off)
		return f
	}
	switch v := st.Variant.(type) {
	case sequence.VScroll:
		windowV(&f, st.Pixels, st.Viewport)
	case sequence.Animation:
		windowH(&f, st.Pixels, st.CurrentFrame*W)
	case sequence.Laser:
		drawLaser(&f, st.Pixels, v)
	case sequence.Curtain:
		drawCurtain(&f, st.Pixels, v)
	case sequence.Snow:
		drawSnow(&f, st.Pixels, v)
	default:
		windowH(&f, st.Pixels, st.Viewport)
	}
	return f
}

// windowH shows columns [off, off+W); anything outside the bitmap is dark.
func windowH(f *Frame, m bank.Matrix, off int) {
	for y := 0; y < H; y++ {
		for x := 0; x < W; x++ {
			f[y][x] = m.At(off+x, y)
		}
	}
}

// windowV shows rows [off, off+H) of a padded bitmap.
func windowV(f *Frame, m bank.Matrix, off int) {
	for y := 0; y < H; y++ {
		for x := 0; x < W; x++ {
			f[y][x] = m.At(x, off+y)
		}
	}
}

// drawLaser shows the etched part of the bitmap and a beam from every lit
// pixel of the target column: to the right edge while etching, to the left
// edge while cleaning up.
func drawLaser(f *Frame, m bank.Matrix, l sequence.Laser) {
	w := m.Width()
	end := min(w, W)
	for y := 0; y < H; y++ {
		for x := 0; x < end; x++ {
			if l.Cleanup {
				f[y][x] = x > l.TargetX && m.At(x, y)
			} else {
				f[y][x] = x < l.TargetX && m.At(x, y)
			}
		}
	}
	if l.TargetX >= w {
		return
	}
	for y := 0; y < H; y++ {
		if !m.At(l.TargetX, y) {
			continue
		}
		from, to := l.TargetX, end-1
		if l.Cleanup {
			from, to = 0, min(l.TargetX, W-1)
		}
		for x := from; x <= to; x++ {
			f[y][x] = true
		}
	}
}

// CurtainLines returns the columns of the two curtain lines.
func CurtainLines(pos float64) (left, right int) {
	const center = W / 2
	return int(math.Floor(center - pos)), int(math.Floor(center + pos))
}

func drawCurtain(f *Frame, m bank.Matrix, c sequence.Curtain) {
	if c.Phase == sequence.Showing {
		windowH(f, m, 0)
		return
	}
	left, right := CurtainLines(c.Pos)
	for y := 0; y < H; y++ {
		for x := 0; x < W; x++ {
			between := x > left && x < right
			if c.Phase == sequence.Closing {
				f[y][x] = !between && m.At(x, y)
			} else {
				f[y][x] = between && m.At(x, y)
			}
		}
		if left >= 0 && left < W {
			f[y][left] = true
		}
		if right >= 0 && right < W {
			f[y][right] = true
		}
	}
}

func drawSnow(f *Frame, m bank.Matrix, sn sequence.Snow) {
	end := min(m.Width(), W)
	for x := 0; x < end; x++ {
		for y := 0; y < H; y++ {
			if !m.At(x, y) {
				continue
			}
			if r := sn.Row(x, y); r >= 0 {
				f[r][x] = true
			}
		}
	}
}
