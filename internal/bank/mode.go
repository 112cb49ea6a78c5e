package bank

import (
	"fmt"
	"strings"
)

// Mode is a device display mode. The numeric values are the firmware codes
// written into the header's low nibble.
type Mode int

const (
	ScrollLeft  Mode = 0
	ScrollRight Mode = 1
	ScrollUp    Mode = 2
	ScrollDown  Mode = 3
	Static      Mode = 4
	Animation   Mode = 5
	Snow        Mode = 6
	Curtain     Mode = 7
	Laser       Mode = 8
)

var modeNames = [...]string{
	ScrollLeft:  "scroll-left",
	ScrollRight: "scroll-right",
	ScrollUp:    "scroll-up",
	ScrollDown:  "scroll-down",
	Static:      "static",
	Animation:   "animation",
	Snow:        "snow",
	Curtain:     "curtain",
	Laser:       "laser",
}

// Modes lists every mode in firmware order.
func Modes() []Mode {
	out := make([]Mode, len(modeNames))
	for i := range modeNames {
		out[i] = Mode(i)
	}
	return out
}

func (m Mode) Valid() bool { return m >= ScrollLeft && m <= Laser }

func (m Mode) String() string {
	if !m.Valid() {
		return fmt.Sprintf("mode(%d)", int(m))
	}
	return modeNames[m]
}

// Horizontal reports whether the mode scrolls content sideways.
func (m Mode) Horizontal() bool { return m == ScrollLeft || m == ScrollRight }

// Vertical reports whether the mode scrolls content up or down.
func (m Mode) Vertical() bool { return m == ScrollUp || m == ScrollDown }

// Centered reports whether rasterized text is centered on the panel in this mode.
func (m Mode) Centered() bool { return !m.Horizontal() }

// Next returns the following mode, wrapping around.
func (m Mode) Next() Mode {
	return Mode((int(m) + 1) % len(modeNames))
}

// ParseMode accepts a mode name ("scroll-left", "laser") or its numeric code.
func ParseMode(s string) (Mode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "_", "-")
	for i, name := range modeNames {
		if name == s || fmt.Sprint(i) == s {
			return Mode(i), nil
		}
	}
	return 0, fmt.Errorf("unknown mode %q", s)
}

// Direction is used by image translation and editor panning.
type Direction int

const (
	Up Direction = iota
	Down
	Left
	Right
)

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	}
	return fmt.Sprintf("direction(%d)", int(d))
}

func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up":
		return Up, nil
	case "down":
		return Down, nil
	case "left":
		return Left, nil
	case "right":
		return Right, nil
	}
	return 0, fmt.Errorf("unknown direction %q", s)
}
