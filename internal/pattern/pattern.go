package pattern

import (
	"errors"
	"fmt"

	"github.com/coreman2200/marquee/internal/bank"
	"github.com/coreman2200/marquee/internal/layout"
)

// Kind names a built-in calibration bitmap.
type Kind string

const (
	ColumnSweep Kind = "column_sweep"
	RowSweep    Kind = "row_sweep"
	Checker     Kind = "checker"
	Border      Kind = "border"
	Full        Kind = "full"
)

var ErrUnknownPattern = errors.New("unknown pattern")

func Kinds() []Kind { return []Kind{ColumnSweep, RowSweep, Checker, Border, Full} }

// Build returns the pattern bitmap and the mode it is meant to play in.
// Sweeps are animations with one frame per column or row.
func Build(k Kind) (bank.Matrix, bank.Mode, error) {
	w, h := layout.Width, layout.Height
	switch k {
	case ColumnSweep:
		m := bank.NewMatrix(w * w)
		for f := 0; f < w; f++ {
			for y := 0; y < h; y++ {
				m[y][f*w+f] = true
			}
		}
		return m, bank.Animation, nil
	case RowSweep:
		m := bank.NewMatrix(w * h)
		for f := 0; f < h; f++ {
			for x := 0; x < w; x++ {
				m[f][f*w+x] = true
			}
		}
		return m, bank.Animation, nil
	case Checker:
		m := bank.NewMatrix(w)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				m[y][x] = (x+y)%2 == 0
			}
		}
		return m, bank.Static, nil
	case Border:
		m := bank.NewMatrix(w)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				m[y][x] = x == 0 || y == 0 || x == w-1 || y == h-1
			}
		}
		return m, bank.Static, nil
	case Full:
		m := bank.NewMatrix(w)
		for y := range m {
			for x := range m[y] {
				m[y][x] = true
			}
		}
		return m, bank.Static, nil
	}
	return nil, 0, fmt.Errorf("%w: %q", ErrUnknownPattern, k)
}
