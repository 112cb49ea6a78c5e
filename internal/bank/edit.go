package bank

import "github.com/coreman2200/marquee/internal/layout"

// The edit methods below mutate a bank in place and report whether anything
// changed. They keep Viewport and CurrentFrame consistent with the pixel width.

// ApplyText installs freshly rasterized text. Horizontal scroll modes keep
// the viewport near the end of the text being typed; other modes reset it.
func (b *Bank) ApplyText(text string, m Matrix) {
	oldWidth := b.Width()
	b.Text = text
	b.Pixels = m
	w := m.Width()
	if b.Mode.Horizontal() && w > layout.Width {
		if w > oldWidth {
			b.Viewport = w - layout.Width
		} else {
			b.Viewport = min(b.Viewport, w-layout.Width)
		}
	} else {
		b.Viewport = 0
	}
	b.CurrentFrame = min(b.CurrentFrame, b.FrameCount()-1)
}

func (b *Bank) SetMode(m Mode) bool {
	if !m.Valid() {
		return false
	}
	b.Mode = m
	b.CurrentFrame = 0
	b.Viewport = 0
	return true
}

func (b *Bank) SetSpeed(s int) bool {
	s = ClampSpeed(s)
	if s == b.Speed {
		return false
	}
	b.Speed = s
	return true
}

// offset is the column of the bitmap shown at the left edge of the editor.
func (b *Bank) offset() int {
	if b.Mode == Animation {
		return b.CurrentFrame * layout.Width
	}
	return b.Viewport
}

// editRange is the column span that image operations touch: the current
// frame for animations, the whole bitmap otherwise.
func (b *Bank) editRange() (from, to int) {
	w := b.Width()
	if b.Mode != Animation {
		return 0, w
	}
	from = b.CurrentFrame * layout.Width
	return min(from, w), min(from+layout.Width, w)
}

// TogglePixel flips the pixel at editor coordinates x,y. The bitmap grows
// when the pixel lies past its right edge.
func (b *Bank) TogglePixel(x, y int) bool {
	if y < 0 || y >= layout.Height {
		return false
	}
	ax := x + b.offset()
	if ax < 0 {
		return false
	}
	if ax >= b.Width() {
		w := ax + 1
		if b.Mode == Animation {
			w = layout.Frames(w) * layout.Width
		}
		b.Pixels = b.Pixels.Resize(w)
	}
	b.Pixels[y][ax] = !b.Pixels[y][ax]
	return true
}

// Clear drops the text and blanks the bitmap, or only the current frame of an
// animation.
func (b *Bank) Clear() bool {
	b.Text = ""
	if b.Mode == Animation {
		from, to := b.editRange()
		for y := range b.Pixels {
			for x := from; x < to; x++ {
				b.Pixels[y][x] = false
			}
		}
		return true
	}
	b.Pixels = NewMatrix(BlankWidth)
	b.Viewport = 0
	b.CurrentFrame = 0
	return true
}

func (b *Bank) Invert() bool {
	from, to := b.editRange()
	if from >= to {
		return false
	}
	for y := range b.Pixels {
		for x := from; x < to; x++ {
			b.Pixels[y][x] = !b.Pixels[y][x]
		}
	}
	return true
}

// Translate shifts the image one pixel in dir, filling the vacated edge with
// dark pixels.
func (b *Bank) Translate(dir Direction) bool {
	from, to := b.editRange()
	if from >= to {
		return false
	}
	p := b.Pixels
	last := layout.Height - 1
	switch dir {
	case Up:
		for x := from; x < to; x++ {
			for y := 0; y < last; y++ {
				p[y][x] = p[y+1][x]
			}
			p[last][x] = false
		}
	case Down:
		for x := from; x < to; x++ {
			for y := last; y > 0; y-- {
				p[y][x] = p[y-1][x]
			}
			p[0][x] = false
		}
	case Left:
		for y := range p {
			copy(p[y][from:to-1], p[y][from+1:to])
			p[y][to-1] = false
		}
	case Right:
		for y := range p {
			copy(p[y][from+1:to], p[y][from:to-1])
			p[y][from] = false
		}
	default:
		return false
	}
	return true
}

// ScrollView pans the editor window over a wide bitmap.
func (b *Bank) ScrollView(dir Direction) bool {
	if b.Mode == Animation {
		return false
	}
	switch dir {
	case Left:
		if b.Viewport > 0 {
			b.Viewport--
			return true
		}
	case Right:
		if b.Viewport < max(0, b.Width()-layout.Width) {
			b.Viewport++
			return true
		}
	}
	return false
}

// AddFrame duplicates the current animation frame right after itself and
// selects the copy.
func (b *Bank) AddFrame() bool {
	if b.Mode != Animation {
		return false
	}
	const w = layout.Width
	n := b.FrameCount()
	src := b.Pixels.Resize(n * w)
	at := (b.CurrentFrame + 1) * w
	out := NewMatrix((n + 1) * w)
	for y := range out {
		copy(out[y][:at], src[y][:at])
		copy(out[y][at:at+w], src[y][at-w:at])
		copy(out[y][at+w:], src[y][at:])
	}
	b.Pixels = out
	b.CurrentFrame++
	return true
}

// DeleteFrame removes the current animation frame. The last remaining frame
// is never deleted.
func (b *Bank) DeleteFrame() bool {
	n := b.FrameCount()
	if b.Mode != Animation || n <= 1 {
		return false
	}
	const w = layout.Width
	src := b.Pixels.Resize(n * w)
	from := b.CurrentFrame * w
	out := NewMatrix((n - 1) * w)
	for y := range out {
		copy(out[y][:from], src[y][:from])
		copy(out[y][from:], src[y][from+w:])
	}
	b.Pixels = out
	if b.CurrentFrame >= n-1 {
		b.CurrentFrame = n - 2
	}
	return true
}

func (b *Bank) NextFrame() bool {
	if b.Mode != Animation {
		return false
	}
	b.CurrentFrame = (b.CurrentFrame + 1) % b.FrameCount()
	return true
}

func (b *Bank) PrevFrame() bool {
	if b.Mode != Animation {
		return false
	}
	n := b.FrameCount()
	b.CurrentFrame = (b.CurrentFrame - 1 + n) % n
	return true
}
