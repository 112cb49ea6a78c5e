package layout

// Badge geometry. The display is a single panel of Width x Height LEDs and the
// firmware stores up to Banks independent messages.
const (
	Width  = 44
	Height = 11
	Banks  = 8

	// ColumnBits is the number of horizontal pixels packed into one byte-column.
	ColumnBits = 8
	// FrameColumns is the byte-column count of one packed animation frame.
	FrameColumns = (Width + ColumnBits - 1) / ColumnBits
)

type Dim struct{ X, Y int }

// Screen is the fixed display area.
var Screen = Dim{X: Width, Y: Height}

// Index maps x,y -> linear LED index (0..N-1), row-major.
func (d Dim) Index(x, y int) int {
	return y*d.X + x
}

func (d Dim) Count() int {
	return d.X * d.Y
}

// Contains reports whether x,y falls on the panel.
func (d Dim) Contains(x, y int) bool {
	return x >= 0 && y >= 0 && x < d.X && y < d.Y
}

// ByteColumns returns how many 8-pixel byte-columns a bitmap of the given width
// occupies on the device.
func ByteColumns(width int) int {
	if width <= 0 {
		return 0
	}
	return (width + ColumnBits - 1) / ColumnBits
}

// Frames returns the number of Width-wide animation frames in a bitmap,
// never less than one.
func Frames(width int) int {
	n := (width + Width - 1) / Width
	if n < 1 {
		return 1
	}
	return n
}
