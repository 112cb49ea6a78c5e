package sequence

import (
	"fmt"
	"math"
	"time"

	"github.com/coreman2200/marquee/internal/bank"
	"github.com/coreman2200/marquee/internal/layout"
)

// NewState builds the preview of b starting at now. It panics when the bank
// breaks the pixel invariants; the store never hands out such a bank.
func NewState(b bank.Bank, now time.Duration) State {
	if err := b.Pixels.Validate(); err != nil {
		panic(fmt.Sprintf("sequence: invalid bank: %v", err))
	}
	s := State{
		Mode:            b.Mode,
		Speed:           bank.ClampSpeed(b.Speed),
		Pixels:          b.Pixels.Clone(),
		CurrentFrame:    b.CurrentFrame,
		LastPhaseChange: now,
		Blink:           Blink{Enabled: b.Blink, On: true, Last: now},
		Ants:            Ants{Enabled: b.Ants, Last: now},
	}
	w := s.Width()
	switch b.Mode {
	case bank.ScrollLeft:
		s.Viewport = -(layout.Width + 1)
		s.Variant = HScroll{}
	case bank.ScrollRight:
		s.Viewport = w + 1
		s.Variant = HScroll{}
	case bank.ScrollUp, bank.ScrollDown:
		s.Pixels = padRows(s.Pixels)
		if b.Mode == bank.ScrollUp {
			s.Viewport = -1
		} else {
			s.Viewport = len(s.Pixels) - layout.Height
		}
		s.Variant = VScroll{}
	case bank.Animation:
		n := layout.Frames(w)
		s.CurrentFrame = (b.CurrentFrame%n + n) % n
		s.Variant = Animation{}
	case bank.Laser:
		s.Variant = Laser{TargetX: s.Pixels.NextLitColumn(0)}
	case bank.Curtain:
		s.Variant = Curtain{Phase: Opening}
	case bank.Snow:
		s.Variant = Snow{}
	default:
		s.Variant = Static{}
	}
	if b.Mode != bank.Animation {
		s.CurrentFrame = 0
	}
	return s
}

// padRows surrounds m with a blank panel height above and below.
func padRows(m bank.Matrix) bank.Matrix {
	w := m.Width()
	out := make(bank.Matrix, 0, 3*layout.Height)
	for i := 0; i < layout.Height; i++ {
		out = append(out, make([]bool, w))
	}
	out = append(out, m...)
	for i := 0; i < layout.Height; i++ {
		out = append(out, make([]bool, w))
	}
	return out
}

// TimeDriven reports whether a mode runs on its own clock instead of the
// speed interval.
func TimeDriven(m bank.Mode) bool {
	return m == bank.Laser || m == bank.Curtain
}

// AdvanceEffects runs the blink and ants timers. They keep running while a
// mode is paused.
func AdvanceEffects(s State, now time.Duration) State {
	if s.Blink.Enabled && now-s.Blink.Last >= BlinkPeriod {
		s.Blink.On = !s.Blink.On
		s.Blink.Last = now
	}
	if s.Ants.Enabled && now-s.Ants.Last >= AntsPeriod {
		s.Ants.Offset = (s.Ants.Offset + 1) % 4
		s.Ants.Last = now
	}
	return s
}

// Step advances the mode state machine once. It is pure given now: the
// caller decides when to call it and honours the returned pause.
func Step(s State, now time.Duration, cycling bool) (State, Result) {
	switch v := s.Variant.(type) {
	case Static:
		return s, Result{}
	case HScroll:
		return stepHScroll(s, now, cycling)
	case VScroll:
		return stepVScroll(s, now, cycling)
	case Animation:
		n := layout.Frames(s.Width())
		s.CurrentFrame = (s.CurrentFrame + 1) % n
		return s, Result{}
	case Laser:
		return stepLaser(s, v, now, cycling)
	case Curtain:
		return stepCurtain(s, v, now, cycling)
	case Snow:
		return stepSnow(s, v, now, cycling)
	default:
		panic(fmt.Sprintf("sequence: unhandled mode state %T", v))
	}
}

func stepHScroll(s State, now time.Duration, cycling bool) (State, Result) {
	w := s.Width()
	if s.Mode == bank.ScrollRight {
		if s.Viewport > -layout.Width {
			s.Viewport--
			return s, Result{}
		}
		if cycling {
			return s, Result{Stop: true}
		}
		s.Viewport = w + 1
		return s, Result{PauseUntil: now + EndPause}
	}
	if s.Viewport < w {
		s.Viewport++
		return s, Result{}
	}
	if cycling {
		return s, Result{Stop: true}
	}
	s.Viewport = -(layout.Width + 1)
	return s, Result{PauseUntil: now + EndPause}
}

func stepVScroll(s State, now time.Duration, cycling bool) (State, Result) {
	var res Result
	last := len(s.Pixels) - layout.Height
	if s.Mode == bank.ScrollUp {
		if s.Viewport == layout.Height-1 {
			res.PauseUntil = now + EndPause
		}
		if s.Viewport < last {
			s.Viewport++
			return s, res
		}
		if cycling {
			return s, Result{Stop: true}
		}
		s.Viewport = -1
		return s, Result{PauseUntil: now + EndPause}
	}
	if s.Viewport == layout.Height+1 {
		res.PauseUntil = now + EndPause
	}
	if s.Viewport > 0 {
		s.Viewport--
		return s, res
	}
	if cycling {
		return s, Result{Stop: true}
	}
	s.Viewport = last
	return s, Result{PauseUntil: now + EndPause}
}

// stepLaser moves the laser to the next lit column every LaserStep. TargetX
// at the bitmap width means the current pass is complete.
func stepLaser(s State, l Laser, now time.Duration, cycling bool) (State, Result) {
	if now-s.LastPhaseChange < LaserStep {
		return s, Result{}
	}
	var res Result
	w := s.Width()
	switch {
	case l.TargetX >= w && !l.Cleanup:
		l = Laser{TargetX: s.Pixels.NextLitColumn(0), Cleanup: true}
	case l.TargetX >= w:
		if cycling {
			return s, Result{Stop: true}
		}
		l = Laser{TargetX: s.Pixels.NextLitColumn(0)}
	default:
		l.TargetX = s.Pixels.NextLitColumn(l.TargetX + 1)
		if l.TargetX >= w {
			switch {
			case !l.Cleanup:
				res.PauseUntil = now + LaserEtched
			case cycling:
				res.Stop = true
			default:
				res.PauseUntil = now + LaserCleaned
			}
		}
	}
	s.LastPhaseChange = now
	s.Variant = l
	return s, res
}

// CurtainPos is how far the curtain lines are from the center t into an
// opening or closing phase.
func CurtainPos(t time.Duration) float64 {
	return math.Min(CurtainMax, float64(t)/float64(time.Millisecond)*CurtainSpeed)
}

func stepCurtain(s State, c Curtain, now time.Duration, cycling bool) (State, Result) {
	t := now - s.LastPhaseChange
	var res Result
	switch c.Phase {
	case Opening:
		c.Pos = CurtainPos(t)
		if t >= CurtainMove {
			c.Phase = Showing
			s.LastPhaseChange = now
		}
	case Showing:
		if t >= CurtainShow {
			c = Curtain{Phase: Closing}
			s.LastPhaseChange = now
		}
	case Closing:
		c.Pos = CurtainPos(t)
		if t >= CurtainMove {
			if cycling {
				res.Stop = true
			} else {
				c = Curtain{Phase: Opening}
				s.LastPhaseChange = now
			}
		}
	}
	s.Variant = c
	return s, res
}

// SnowDelay is the number of steps column x waits before it starts falling.
func SnowDelay(x int) int {
	return (x*37 + 11) % 16
}

// Row returns where the content pixel at x,y is drawn at this step, or a
// negative row while it is still above the panel.
func (sn Snow) Row(x, y int) int {
	return min(y, sn.Step-SnowDelay(x)-(layout.Height-y))
}

// snowSteps is the step at which every lit pixel has landed.
func snowSteps(m bank.Matrix) int {
	n := 0
	for x := 0; x < m.Width(); x++ {
		if m.ColumnLit(x) {
			n = max(n, SnowDelay(x)+layout.Height)
		}
	}
	return n
}

func stepSnow(s State, sn Snow, now time.Duration, cycling bool) (State, Result) {
	var res Result
	switch {
	case sn.Settled && cycling:
		return s, Result{Stop: true}
	case sn.Settled:
		sn = Snow{}
	default:
		sn.Step++
		if sn.Step >= snowSteps(s.Pixels) {
			sn.Settled = true
			res.PauseUntil = now + SnowSettled
		}
	}
	s.Variant = sn
	return s, res
}
