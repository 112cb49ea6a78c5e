package bank

import (
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/coreman2200/marquee/internal/layout"
)

var ErrBankIndex = errors.New("bank index out of range")

// EventKind says what changed in the store.
type EventKind string

const (
	BankChanged    EventKind = "bank"
	ActiveChanged  EventKind = "active"
	CyclingChanged EventKind = "cycling"
	Restored       EventKind = "restored"
)

// Event is delivered to subscribers after every committed change.
type Event struct {
	Kind EventKind
	Bank int
}

// Store holds the eight banks, the active index and the cycling flag. It is
// safe for concurrent use; subscribers run after the lock is released.
type Store struct {
	mu      sync.RWMutex
	banks   [layout.Banks]Bank
	active  int
	cycling bool

	subMu  sync.Mutex
	subs   map[int]func(Event)
	nextID int
}

func NewStore() *Store {
	s := &Store{subs: map[int]func(Event){}}
	for i := range s.banks {
		s.banks[i] = New()
	}
	return s
}

// Subscribe registers fn for change events and returns a func that removes it.
func (s *Store) Subscribe(fn func(Event)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) notify(ev Event) {
	s.subMu.Lock()
	fns := make([]func(Event), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}

func (s *Store) Active() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

func (s *Store) SetActive(i int) error {
	if i < 0 || i >= layout.Banks {
		return ErrBankIndex
	}
	s.mu.Lock()
	changed := s.active != i
	s.active = i
	s.mu.Unlock()
	if changed {
		s.notify(Event{Kind: ActiveChanged, Bank: i})
	}
	return nil
}

// Bank returns a deep copy of bank i.
func (s *Store) Bank(i int) (Bank, error) {
	if i < 0 || i >= layout.Banks {
		return Bank{}, ErrBankIndex
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.banks[i].Clone(), nil
}

// ActiveBank returns the active index and a deep copy of that bank.
func (s *Store) ActiveBank() (int, Bank) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active, s.banks[s.active].Clone()
}

// Banks returns a deep copy of every bank, suitable for encoding.
func (s *Store) Banks() [layout.Banks]Bank {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out [layout.Banks]Bank
	for i, b := range s.banks {
		out[i] = b.Clone()
	}
	return out
}

// Update runs fn on a copy of bank i and commits it when fn reports a change.
func (s *Store) Update(i int, fn func(b *Bank) bool) (bool, error) {
	if i < 0 || i >= layout.Banks {
		return false, ErrBankIndex
	}
	s.mu.Lock()
	b := s.banks[i].Clone()
	changed := fn(&b)
	if changed {
		s.banks[i] = b
	}
	s.mu.Unlock()
	if changed {
		s.notify(Event{Kind: BankChanged, Bank: i})
	}
	return changed, nil
}

// Reset returns bank i to the empty state.
func (s *Store) Reset(i int) error {
	_, err := s.Update(i, func(b *Bank) bool {
		*b = New()
		return true
	})
	return err
}

func (s *Store) Cycling() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cycling
}

func (s *Store) SetCycling(on bool) {
	s.mu.Lock()
	changed := s.cycling != on
	s.cycling = on
	s.mu.Unlock()
	if changed {
		s.notify(Event{Kind: CyclingChanged})
	}
}

// Snapshot captures the whole store for persistence.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{CurrentBank: s.active, IsCycling: s.cycling, Banks: make([]Bank, len(s.banks))}
	for i, b := range s.banks {
		snap.Banks[i] = b.Clone()
	}
	return snap
}

// Restore replaces the store contents. Invalid banks are reset and reported
// through the returned error; the store is always left usable.
func (s *Store) Restore(snap Snapshot) error {
	snap, err := snap.Normalize()
	s.mu.Lock()
	copy(s.banks[:], snap.Banks)
	s.active = snap.CurrentBank
	s.cycling = snap.IsCycling
	s.mu.Unlock()
	s.notify(Event{Kind: Restored, Bank: snap.CurrentBank})
	return err
}

// Autosave writes a snapshot to path after every change until the returned
// func is called.
func (s *Store) Autosave(path string) func() {
	return s.Subscribe(func(Event) {
		if err := SaveSnapshot(path, s.Snapshot()); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("state save failed")
		}
	})
}
