package sequence

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/coreman2200/marquee/internal/layout"
)

// NewPlayer constructs a Player reading banks from src.
func NewPlayer(src Source, h Hooks) *Player {
	return &Player{State: Idle, src: src, hooks: h}
}

func (p *Player) Running() bool { return p.State == Running }

// Start begins playback of the active bank at now. Starting while already
// running does nothing.
func (p *Player) Start(now time.Duration) {
	if p.State == Running {
		return
	}
	idx := p.src.Active()
	b, err := p.src.Bank(idx)
	if err != nil {
		log.Error().Err(err).Int("bank", idx).Msg("playback start")
		return
	}
	st := NewState(b, now)
	p.State = Running
	p.preview = &st
	p.bankIdx = idx
	p.startBank = idx
	p.lastStep = now
	p.pauseUntil = 0
}

// Stop ends playback and drops the preview state. The next Tick is a no-op.
func (p *Player) Stop() {
	if p.State == Idle {
		return
	}
	p.State = Idle
	p.preview = nil
	p.pauseUntil = 0
	if p.hooks.Stopped != nil {
		p.hooks.Stopped()
	}
}

// Toggle starts or stops playback.
func (p *Player) Toggle(now time.Duration) {
	if p.State == Running {
		p.Stop()
		return
	}
	p.Start(now)
}

// Restart reloads the active bank if playback is running.
func (p *Player) Restart(now time.Duration) {
	if p.State != Running {
		return
	}
	p.Stop()
	p.Start(now)
}

// Preview returns the bank being played and a copy of its preview state, or
// nil when idle.
func (p *Player) Preview() (int, *State) {
	if p.State != Running || p.preview == nil {
		return p.src.Active(), nil
	}
	st := *p.preview
	return p.bankIdx, &st
}

// Tick advances playback to now. Effects run on every tick; the mode steps
// once per speed interval unless it keeps its own clock, and never while a
// pause is pending.
func (p *Player) Tick(now time.Duration) {
	if p.State != Running || p.preview == nil {
		return
	}
	s := AdvanceEffects(*p.preview, now)
	p.preview = &s
	if now < p.pauseUntil {
		return
	}
	if !TimeDriven(s.Mode) && now-p.lastStep < Interval(s.Speed) {
		return
	}
	s, res := Step(s, now, p.src.Cycling())
	p.preview = &s
	p.lastStep = now
	p.pauseUntil = res.PauseUntil
	if res.Stop {
		p.advance(now)
	}
}

// advance moves to the next non-empty bank when cycling, or stops.
func (p *Player) advance(now time.Duration) {
	if !p.src.Cycling() {
		p.Stop()
		return
	}
	next := p.nextBank()
	b, err := p.src.Bank(next)
	if err != nil {
		log.Error().Err(err).Int("bank", next).Msg("bank cycle")
		p.Stop()
		return
	}
	st := NewState(b, now)
	p.preview = &st
	p.bankIdx = next
	p.lastStep = now
	p.pauseUntil = now + EndPause
	log.Debug().Int("bank", next).Msg("cycling to bank")
	if err := p.src.SetActive(next); err != nil {
		log.Warn().Err(err).Int("bank", next).Msg("set active bank")
	}
	if p.hooks.BankChanged != nil {
		p.hooks.BankChanged(next)
	}
}

// nextBank scans forward from the current bank for the first bank with data,
// stopping at the bank the cycle started from.
func (p *Player) nextBank() int {
	for i := 1; i < layout.Banks; i++ {
		c := (p.bankIdx + i) % layout.Banks
		if c == p.startBank {
			break
		}
		if b, err := p.src.Bank(c); err == nil && b.HasData() {
			return c
		}
	}
	return p.startBank
}
