package sequence

import (
	"time"

	"github.com/coreman2200/marquee/internal/bank"
	"github.com/coreman2200/marquee/internal/layout"
)

// Timing constants shared by the mode state machines.
const (
	EndPause     = 1000 * time.Millisecond
	LaserStep    = 100 * time.Millisecond
	LaserEtched  = 4000 * time.Millisecond
	LaserCleaned = 3000 * time.Millisecond
	CurtainMove  = 2000 * time.Millisecond
	CurtainShow  = 3000 * time.Millisecond
	SnowSettled  = 2000 * time.Millisecond
	BlinkPeriod  = 500 * time.Millisecond
	AntsPeriod   = 200 * time.Millisecond
)

// Curtain lines move CurtainSpeed pixels per millisecond and stop CurtainMax
// pixels from the panel center.
const (
	CurtainSpeed = 0.011
	CurtainMax   = float64(layout.Width/2 + 1)
)

// ModeState is the per-mode part of a preview. Each mode has its own variant
// carrying only what that mode needs.
type ModeState interface{ modeState() }

type Static struct{}

// HScroll is used by scroll-left and scroll-right; the viewport lives on State.
type HScroll struct{}

// VScroll is used by scroll-up and scroll-down. State.Pixels holds the
// bitmap with a blank panel height above and below.
type VScroll struct{}

type Animation struct{}

// Laser etches columns left to right, then wipes them in a second pass.
type Laser struct {
	TargetX int
	Cleanup bool
}

type CurtainPhase int

const (
	Opening CurtainPhase = iota
	Showing
	Closing
)

func (p CurtainPhase) String() string {
	switch p {
	case Opening:
		return "opening"
	case Showing:
		return "show"
	case Closing:
		return "closing"
	}
	return "unknown"
}

type Curtain struct {
	Phase CurtainPhase
	Pos   float64
}

// Snow drops every column into place as a rigid stack, each column starting
// after its own delay.
type Snow struct {
	Step    int
	Settled bool
}

func (Static) modeState()    {}
func (HScroll) modeState()   {}
func (VScroll) modeState()   {}
func (Animation) modeState() {}
func (Laser) modeState()     {}
func (Curtain) modeState()   {}
func (Snow) modeState()      {}

// Blink toggles content visibility.
type Blink struct {
	Enabled bool
	On      bool
	Last    time.Duration
}

// Ants is the marching border offset.
type Ants struct {
	Enabled bool
	Offset  int
	Last    time.Duration
}

// State is the live preview of one bank. It owns a private copy of the
// pixels so edits to the bank never disturb a running preview.
type State struct {
	Mode            bank.Mode
	Speed           int
	Pixels          bank.Matrix
	Viewport        int
	CurrentFrame    int
	LastPhaseChange time.Duration
	Blink           Blink
	Ants            Ants
	Variant         ModeState
}

// Width is the content width of the preview.
func (s *State) Width() int { return s.Pixels.Width() }

// Result tells the player what a step wants next. PauseUntil is zero when no
// pause is requested.
type Result struct {
	Stop       bool
	PauseUntil time.Duration
}

// PlayerState enumerates playback states.
type PlayerState string

const (
	Idle    PlayerState = "idle"
	Running PlayerState = "running"
)

// Hooks are dependency-injected callbacks into the host.
type Hooks struct {
	// BankChanged fires when cycling moves playback to another bank.
	BankChanged func(index int)
	// Stopped fires when playback ends, whether requested or not.
	Stopped func()
}

// Source is where the player reads banks from; *bank.Store satisfies it.
type Source interface {
	Bank(i int) (bank.Bank, error)
	Active() int
	SetActive(i int) error
	Cycling() bool
}

// Player owns playback of the active bank and bank cycling.
type Player struct {
	State PlayerState

	src   Source
	hooks Hooks

	preview    *State
	bankIdx    int
	startBank  int
	lastStep   time.Duration
	pauseUntil time.Duration
}
