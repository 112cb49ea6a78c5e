package protocol

import (
	"encoding/binary"

	"github.com/coreman2200/marquee/internal/bank"
	"github.com/coreman2200/marquee/internal/layout"
)

const (
	HeaderSize = 64
	PacketSize = 64

	DefaultSpeed = 4
)

// Header field offsets.
const (
	offBrightness = 5
	offBlink      = 6
	offAnts       = 7
	offModes      = 8
	offLengths    = 16
)

// Magic opens every header: "wang".
var Magic = [4]byte{0x77, 0x61, 0x6e, 0x67}

// Header is the 64-byte upload header.
type Header [HeaderSize]byte

// Params describes the header contents. Slices shorter than eight entries are
// extended by repeating their last value, or a default when empty.
type Params struct {
	Brightness int
	Modes      []bank.Mode
	Speeds     []int
	Lengths    []int
	Blinks     []bool
	Ants       []bool
}

// BrightnessCode maps a brightness percentage onto the firmware levels.
func BrightnessCode(pct int) byte {
	switch {
	case pct <= 25:
		return 0x40
	case pct <= 50:
		return 0x20
	case pct <= 75:
		return 0x10
	}
	return 0x00
}

func fill[T any](in []T, def T) [layout.Banks]T {
	var out [layout.Banks]T
	for i := range out {
		switch {
		case i < len(in):
			out[i] = in[i]
		case len(in) > 0:
			out[i] = in[len(in)-1]
		default:
			out[i] = def
		}
	}
	return out
}

// NewHeader builds a header. It never fails: speeds are clamped to 1..8,
// modes masked to a nibble and lengths to 16 bits.
func NewHeader(p Params) Header {
	var h Header
	copy(h[:4], Magic[:])
	h[offBrightness] = BrightnessCode(p.Brightness)

	modes := fill(p.Modes, bank.ScrollLeft)
	speeds := fill(p.Speeds, DefaultSpeed)
	lengths := fill(p.Lengths, 0)
	blinks := fill(p.Blinks, false)
	ants := fill(p.Ants, false)
	for i := 0; i < layout.Banks; i++ {
		if blinks[i] {
			h[offBlink] |= 1 << i
		}
		if ants[i] {
			h[offAnts] |= 1 << i
		}
		speed := min(max(speeds[i]-1, 0), 7)
		h[offModes+i] = byte(speed)<<4 | byte(modes[i])&0x0f
		n := min(max(lengths[i], 0), MaxColumns)
		binary.BigEndian.PutUint16(h[offLengths+2*i:], uint16(n))
	}
	return h
}

// Valid reports whether the header starts with the magic bytes.
func (h Header) Valid() bool { return [4]byte(h[:4]) == Magic }

func (h Header) Brightness() byte { return h[offBrightness] }

func (h Header) Blink(i int) bool { return h[offBlink]&(1<<i) != 0 }

func (h Header) Ants(i int) bool { return h[offAnts]&(1<<i) != 0 }

func (h Header) Mode(i int) bank.Mode { return bank.Mode(h[offModes+i] & 0x0f) }

// Speed returns the 1..8 speed of bank i.
func (h Header) Speed(i int) int { return int(h[offModes+i]>>4) + 1 }

// Length is the byte-column count of bank i.
func (h Header) Length(i int) int {
	return int(binary.BigEndian.Uint16(h[offLengths+2*i:]))
}
