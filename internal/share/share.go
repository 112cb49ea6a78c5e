package share

import (
	"crypto/rand"
	"errors"
	"math/big"
	"sync"
	"time"

	"github.com/coreman2200/marquee/internal/bank"
)

const (
	IDLength = 8
	TTL      = 30 * 24 * time.Hour

	alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"
)

var (
	ErrNotFound     = errors.New("share not found")
	ErrInvalidState = errors.New("invalid state format")
)

// Prepare keeps only the banks with pixels or text.
func Prepare(snap bank.Snapshot) bank.Snapshot {
	out := bank.Snapshot{CurrentBank: snap.CurrentBank, IsCycling: snap.IsCycling, Banks: []bank.Bank{}}
	for _, b := range snap.Banks {
		if b.HasData() {
			out.Banks = append(out.Banks, b.Clone())
		}
	}
	return out
}

// NewID returns a random base58 id.
func NewID() (string, error) {
	n := big.NewInt(int64(len(alphabet)))
	b := make([]byte, IDLength)
	for i := range b {
		v, err := rand.Int(rand.Reader, n)
		if err != nil {
			return "", err
		}
		b[i] = alphabet[v.Int64()]
	}
	return string(b), nil
}

type entry struct {
	data    []byte
	expires time.Time
}

// MemStore keeps shared states in memory until they expire.
type MemStore struct {
	mu  sync.Mutex
	m   map[string]entry
	ttl time.Duration
	now func() time.Time
}

func NewMemStore(ttl time.Duration) *MemStore {
	if ttl <= 0 {
		ttl = TTL
	}
	return &MemStore{m: map[string]entry{}, ttl: ttl, now: time.Now}
}

// Put stores data under a fresh id.
func (s *MemStore) Put(data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep()
	for {
		id, err := NewID()
		if err != nil {
			return "", err
		}
		if _, taken := s.m[id]; taken {
			continue
		}
		s.m[id] = entry{data: append([]byte(nil), data...), expires: s.now().Add(s.ttl)}
		return id, nil
	}
}

func (s *MemStore) Get(id string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.m[id]
	if !ok || !s.now().Before(e.expires) {
		delete(s.m, id)
		return nil, ErrNotFound
	}
	return e.data, nil
}

func (s *MemStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.m)
}

func (s *MemStore) sweep() {
	now := s.now()
	for id, e := range s.m {
		if !now.Before(e.expires) {
			delete(s.m, id)
		}
	}
}
