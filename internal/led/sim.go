package led

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Sim records packets instead of sending them.
type Sim struct {
	mu      sync.Mutex
	packets [][]byte
}

func NewSim() *Sim { return &Sim{} }

func (s *Sim) Write(pkt []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.packets = append(s.packets, append([]byte(nil), pkt...))
	log.Debug().Int("n", len(s.packets)).Int("len", len(pkt)).Msg("sim packet")
	return nil
}

// Packets returns a copy of every packet written so far.
func (s *Sim) Packets() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]byte(nil), s.packets...)
}

// Reset drops the packet log.
func (s *Sim) Reset() {
	s.mu.Lock()
	s.packets = nil
	s.mu.Unlock()
}

func (s *Sim) Close() error { return nil }
