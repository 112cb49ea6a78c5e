package app

import (
	"time"

	"github.com/coreman2200/marquee/internal/bank"
	"github.com/coreman2200/marquee/internal/bitmap"
	"github.com/coreman2200/marquee/internal/layout"
	"github.com/coreman2200/marquee/internal/render"
	"github.com/coreman2200/marquee/internal/sequence"
)

// frozen is a read-only copy of the banks for offline playback. Bank switches
// made while cycling stay local to it.
type frozen struct {
	banks   [layout.Banks]bank.Bank
	active  int
	cycling bool
}

func (f *frozen) Bank(i int) (bank.Bank, error) {
	if i < 0 || i >= layout.Banks {
		return bank.Bank{}, bank.ErrBankIndex
	}
	return f.banks[i], nil
}

func (f *frozen) Active() int { return f.active }

func (f *frozen) SetActive(i int) error {
	if i < 0 || i >= layout.Banks {
		return bank.ErrBankIndex
	}
	f.active = i
	return nil
}

func (f *frozen) Cycling() bool { return f.cycling }

// Record plays the active bank on a synthetic clock and captures every step
// frame until length is reached.
func (s *Session) Record(length, step time.Duration) bitmap.Recording {
	if step <= 0 {
		step = 10 * time.Millisecond
	}
	s.mu.Lock()
	src := &frozen{banks: s.store.Banks(), active: s.store.Active(), cycling: s.store.Cycling()}
	s.mu.Unlock()

	p := sequence.NewPlayer(src, sequence.Hooks{})
	p.Start(0)
	var rec bitmap.Recording
	for t := time.Duration(0); t < length && p.Running(); t += step {
		p.Tick(t)
		idx, st := p.Preview()
		rec.Add(render.Compose(src.banks[idx], st), step)
	}
	return rec
}
