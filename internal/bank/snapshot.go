package bank

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/coreman2200/marquee/internal/layout"
)

// SnapshotKey names the persisted state, both as a storage key and as the
// base name of the state file.
const SnapshotKey = "lednametags-state"

var (
	ErrSnapshotMissing   = errors.New("no saved state")
	ErrSnapshotMalformed = errors.New("saved state is malformed")
)

// Snapshot is the persisted form of the store.
type Snapshot struct {
	CurrentBank int    `json:"currentBank"`
	Banks       []Bank `json:"banks"`
	IsCycling   bool   `json:"isCycling"`
}

// EmptySnapshot is eight fresh banks with bank 0 active.
func EmptySnapshot() Snapshot {
	snap := Snapshot{Banks: make([]Bank, layout.Banks)}
	for i := range snap.Banks {
		snap.Banks[i] = New()
	}
	return snap
}

// SnapshotPath returns the state file location inside dir.
func SnapshotPath(dir string) string {
	return filepath.Join(dir, SnapshotKey+".json")
}

// Normalize pads or truncates to eight banks, resets banks that break the
// pixel invariants and clamps the active index. The returned snapshot is
// always usable; err wraps ErrSnapshotMalformed when anything was repaired.
func (s Snapshot) Normalize() (Snapshot, error) {
	var errs []error
	out := Snapshot{IsCycling: s.IsCycling, Banks: make([]Bank, layout.Banks)}
	if len(s.Banks) > layout.Banks {
		errs = append(errs, fmt.Errorf("%d banks, want %d", len(s.Banks), layout.Banks))
	}
	for i := range out.Banks {
		if i >= len(s.Banks) {
			out.Banks[i] = New()
			continue
		}
		b := s.Banks[i].Clone()
		if err := b.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("bank %d: %w", i, err))
			b = New()
		}
		b.Speed = ClampSpeed(b.Speed)
		b.CurrentFrame = max(0, min(b.CurrentFrame, b.FrameCount()-1))
		out.Banks[i] = b
	}
	out.CurrentBank = s.CurrentBank
	if out.CurrentBank < 0 || out.CurrentBank >= layout.Banks {
		errs = append(errs, fmt.Errorf("current bank %d: %w", s.CurrentBank, ErrBankIndex))
		out.CurrentBank = 0
	}
	if len(errs) > 0 {
		return out, fmt.Errorf("%w: %w", ErrSnapshotMalformed, errors.Join(errs...))
	}
	return out, nil
}

// DecodeSnapshot parses and normalizes a JSON snapshot. On error the returned
// snapshot is still usable.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	var raw struct {
		CurrentBank int             `json:"currentBank"`
		Banks       json.RawMessage `json:"banks"`
		IsCycling   bool            `json:"isCycling"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return EmptySnapshot(), fmt.Errorf("%w: %w", ErrSnapshotMalformed, err)
	}
	var banks []Bank
	if err := json.Unmarshal(raw.Banks, &banks); err != nil {
		return EmptySnapshot(), fmt.Errorf("%w: banks: %w", ErrSnapshotMalformed, err)
	}
	return Snapshot{CurrentBank: raw.CurrentBank, Banks: banks, IsCycling: raw.IsCycling}.Normalize()
}

// LoadSnapshot reads the state file at path. A missing or malformed file
// yields EmptySnapshot (or the repaired parts) with a tagged error.
func LoadSnapshot(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return EmptySnapshot(), fmt.Errorf("%w: %s", ErrSnapshotMissing, path)
	}
	if err != nil {
		return EmptySnapshot(), err
	}
	return DecodeSnapshot(data)
}

// SaveSnapshot writes the snapshot atomically by way of a temp file.
func SaveSnapshot(path string, snap Snapshot) error {
	b, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
