package protocol

import (
	"errors"
	"fmt"

	"github.com/coreman2200/marquee/internal/bank"
	"github.com/coreman2200/marquee/internal/layout"
)

// MaxColumns is the largest byte-column count the 16-bit length field holds.
const MaxColumns = 0xffff

var (
	ErrBankTooWide  = errors.New("bank exceeds 65535 byte-columns")
	ErrShortPayload = errors.New("payload shorter than header lengths")
)

// Columns returns the byte-column count bank b packs to.
func Columns(b bank.Bank) int {
	w := b.Width()
	if b.Mode == bank.Animation {
		return layout.Frames(w) * layout.FrameColumns
	}
	return layout.ByteColumns(w)
}

// PackBank bit-packs the pixels of b column-major: each byte-column is 11
// bytes, one per row, with the leftmost pixel in the most significant bit.
// Animation banks pack every 44px frame on its own into 6 byte-columns.
// Banks without lit pixels pack to nothing.
func PackBank(b bank.Bank) ([]byte, error) {
	if err := b.Pixels.Validate(); err != nil {
		return nil, err
	}
	if !b.HasPixels() {
		return nil, nil
	}
	cols := Columns(b)
	if cols > MaxColumns {
		return nil, fmt.Errorf("%w: %d", ErrBankTooWide, cols)
	}
	out := make([]byte, 0, cols*layout.Height)
	if b.Mode != bank.Animation {
		return packColumns(out, b.Pixels, 0, b.Width()), nil
	}
	for f := 0; f < layout.Frames(b.Width()); f++ {
		start := f * layout.Width
		out = packColumns(out, b.Pixels, start, start+layout.Width)
	}
	return out, nil
}

// packColumns appends the byte-columns covering pixels [from, to). Pixels at
// or past to are never packed.
func packColumns(out []byte, m bank.Matrix, from, to int) []byte {
	cols := layout.ByteColumns(to - from)
	for c := 0; c < cols; c++ {
		for y := 0; y < layout.Height; y++ {
			var v byte
			for bit := 0; bit < layout.ColumnBits; bit++ {
				x := from + c*layout.ColumnBits + bit
				if x < to && m.At(x, y) {
					v |= 1 << (7 - bit)
				}
			}
			out = append(out, v)
		}
	}
	return out
}

// Unpack reverses PackBank for a payload of the given pixel width.
func Unpack(data []byte, width int, animation bool) bank.Matrix {
	m := bank.NewMatrix(width)
	set := func(x, y int) {
		if x < width {
			m[y][x] = true
		}
	}
	for i, v := range data {
		c, y := i/layout.Height, i%layout.Height
		for bit := 0; bit < layout.ColumnBits; bit++ {
			if v&(1<<(7-bit)) == 0 {
				continue
			}
			if animation {
				f, fc := c/layout.FrameColumns, c%layout.FrameColumns
				set(f*layout.Width+fc*layout.ColumnBits+bit, y)
			} else {
				set(c*layout.ColumnBits+bit, y)
			}
		}
	}
	return m
}

// Split cuts a combined payload into per-bank slices using the header lengths.
func Split(h Header, payload []byte) ([][]byte, error) {
	out := make([][]byte, layout.Banks)
	off := 0
	for i := range out {
		n := h.Length(i) * layout.Height
		if off+n > len(payload) {
			return nil, fmt.Errorf("%w: bank %d needs %d bytes at %d, have %d", ErrShortPayload, i, n, off, len(payload))
		}
		out[i] = payload[off : off+n]
		off += n
	}
	return out, nil
}
