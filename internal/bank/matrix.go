package bank

import (
	"errors"
	"strings"

	"github.com/coreman2200/marquee/internal/layout"
)

var (
	ErrInvalidHeight = errors.New("pixel matrix must have 11 rows")
	ErrRaggedRows    = errors.New("pixel matrix rows differ in width")
	ErrEmptyMatrix   = errors.New("pixel matrix has zero width")
	ErrInvalidMode   = errors.New("invalid display mode")
)

// Matrix is a row-major monochrome bitmap, Matrix[y][x]. A valid matrix has
// exactly layout.Height rows of equal, non-zero width.
type Matrix [][]bool

// NewMatrix returns a blank matrix of the given width.
func NewMatrix(width int) Matrix {
	if width < 1 {
		width = 1
	}
	m := make(Matrix, layout.Height)
	for y := range m {
		m[y] = make([]bool, width)
	}
	return m
}

// Validate checks the height and row-width invariants.
func (m Matrix) Validate() error {
	if len(m) != layout.Height {
		return ErrInvalidHeight
	}
	w := len(m[0])
	if w == 0 {
		return ErrEmptyMatrix
	}
	for _, row := range m[1:] {
		if len(row) != w {
			return ErrRaggedRows
		}
	}
	return nil
}

func (m Matrix) Width() int {
	if len(m) == 0 {
		return 0
	}
	return len(m[0])
}

func (m Matrix) Height() int { return len(m) }

// At returns the pixel at x,y; anything outside the matrix is off.
func (m Matrix) At(x, y int) bool {
	if y < 0 || y >= len(m) || x < 0 || x >= len(m[y]) {
		return false
	}
	return m[y][x]
}

func (m Matrix) Clone() Matrix {
	out := make(Matrix, len(m))
	for y, row := range m {
		out[y] = append([]bool(nil), row...)
	}
	return out
}

// Any reports whether at least one pixel is lit.
func (m Matrix) Any() bool {
	for _, row := range m {
		for _, v := range row {
			if v {
				return true
			}
		}
	}
	return false
}

// ColumnLit reports whether column x has at least one lit pixel.
func (m Matrix) ColumnLit(x int) bool {
	for y := range m {
		if m.At(x, y) {
			return true
		}
	}
	return false
}

// NextLitColumn returns the first column >= from with a lit pixel, or the
// matrix width when there is none.
func (m Matrix) NextLitColumn(from int) int {
	if from < 0 {
		from = 0
	}
	w := m.Width()
	for x := from; x < w; x++ {
		if m.ColumnLit(x) {
			return x
		}
	}
	return w
}

// Resize returns a copy padded with blank columns or truncated to width.
func (m Matrix) Resize(width int) Matrix {
	out := NewMatrix(width)
	for y := range out {
		if y < len(m) {
			copy(out[y], m[y])
		}
	}
	return out
}

// Columns returns a copy of columns [from, to), padding past either edge with
// blank pixels.
func (m Matrix) Columns(from, to int) Matrix {
	out := NewMatrix(to - from)
	for y := range out {
		for x := range out[y] {
			out[y][x] = m.At(from+x, y)
		}
	}
	return out
}

// String renders the matrix with '#' for lit and '.' for dark pixels.
func (m Matrix) String() string {
	var sb strings.Builder
	for y, row := range m {
		if y > 0 {
			sb.WriteByte('\n')
		}
		for _, v := range row {
			if v {
				sb.WriteByte('#')
			} else {
				sb.WriteByte('.')
			}
		}
	}
	return sb.String()
}

// ParseMatrix builds a matrix from rows of '#'/'.' characters; other
// non-space characters also count as lit. Short rows are padded.
func ParseMatrix(rows ...string) Matrix {
	w := 1
	for _, r := range rows {
		if len(r) > w {
			w = len(r)
		}
	}
	m := NewMatrix(w)
	for y, r := range rows {
		if y >= len(m) {
			break
		}
		for x, c := range r {
			m[y][x] = c != '.' && c != ' '
		}
	}
	return m
}
