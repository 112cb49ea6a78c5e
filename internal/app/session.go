package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/coreman2200/marquee/internal/bank"
	diag "github.com/coreman2200/marquee/internal/diagnostics"
	"github.com/coreman2200/marquee/internal/font"
	"github.com/coreman2200/marquee/internal/layout"
	"github.com/coreman2200/marquee/internal/led"
	"github.com/coreman2200/marquee/internal/pattern"
	"github.com/coreman2200/marquee/internal/protocol"
	"github.com/coreman2200/marquee/internal/render"
	"github.com/coreman2200/marquee/internal/sequence"
)

var (
	ErrPlaybackActive = errors.New("bank is read-only during playback")
	ErrNoUploader     = errors.New("no uploader configured")
)

// Options wires a Session to its collaborators. Zero values get defaults.
type Options struct {
	Fonts      font.Rasterizer
	Driver     render.Driver
	Uploader   *led.Uploader
	Hub        *diag.Hub
	Brightness int
	// Clock returns the playback time base; it defaults to time since creation.
	Clock func() time.Duration
}

// Session is the single per-process container tying the bank store, the
// playback engine, the rasterizer and the frame renderer together. All entry
// points are serialized.
type Session struct {
	mu sync.Mutex

	store  *bank.Store
	player *sequence.Player
	fonts  font.Rasterizer
	eng    *render.Engine
	up     *led.Uploader
	hub    *diag.Hub
	clock  func() time.Duration

	brightness int
}

func NewSession(store *bank.Store, opts Options) *Session {
	if opts.Fonts == nil {
		opts.Fonts = font.NewRegistry()
	}
	if opts.Brightness <= 0 {
		opts.Brightness = 100
	}
	if opts.Clock == nil {
		start := time.Now()
		opts.Clock = func() time.Duration { return time.Since(start) }
	}
	s := &Session{
		store:      store,
		fonts:      opts.Fonts,
		eng:        render.NewEngine(opts.Driver),
		up:         opts.Uploader,
		hub:        opts.Hub,
		clock:      opts.Clock,
		brightness: min(opts.Brightness, 100),
	}
	s.player = sequence.NewPlayer(store, sequence.Hooks{
		BankChanged: func(i int) { log.Debug().Int("bank", i).Msg("playback moved to bank") },
		Stopped:     func() { log.Debug().Msg("playback stopped") },
	})
	return s
}

func (s *Session) Store() *bank.Store { return s.store }

func (s *Session) Hub() *diag.Hub { return s.hub }

// edit applies fn to the active bank unless playback is running.
func (s *Session) edit(fn func(b *bank.Bank) bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.player.Running() {
		return ErrPlaybackActive
	}
	_, err := s.store.Update(s.store.Active(), fn)
	return err
}

// rasterize renders the text of b with its own font.
func (s *Session) rasterize(b *bank.Bank, text string) (bank.Matrix, error) {
	return s.fonts.Rasterize(text, b.Font, b.Mode.Centered())
}

func (s *Session) SetText(text string) error {
	var rerr error
	err := s.edit(func(b *bank.Bank) bool {
		m, err := s.rasterize(b, text)
		if err != nil {
			rerr = err
			return false
		}
		b.ApplyText(text, m)
		return true
	})
	if err != nil {
		return err
	}
	return rerr
}

// SetFont selects the face for the active bank and re-renders its text.
func (s *Session) SetFont(id string) error {
	if _, err := s.fonts.Rasterize("X", id, false); err != nil {
		return err
	}
	var rerr error
	err := s.edit(func(b *bank.Bank) bool {
		b.Font = id
		if b.Text == "" {
			return true
		}
		m, err := s.rasterize(b, b.Text)
		if err != nil {
			rerr = err
			return true
		}
		b.ApplyText(b.Text, m)
		return true
	})
	if err != nil {
		return err
	}
	return rerr
}

// SetMode changes the mode of the active bank, re-centering its text, and
// restarts playback when it is running.
func (s *Session) SetMode(m bank.Mode) error {
	if !m.Valid() {
		return fmt.Errorf("%w: %d", bank.ErrInvalidMode, m)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.store.Update(s.store.Active(), func(b *bank.Bank) bool {
		b.SetMode(m)
		if b.Text != "" {
			if px, err := s.rasterize(b, b.Text); err == nil {
				b.Pixels = px
			} else {
				log.Warn().Err(err).Str("font", b.Font).Msg("re-render text")
			}
		}
		return true
	})
	if err != nil {
		return err
	}
	s.player.Restart(s.clock())
	return nil
}

// SetSpeed changes the speed of the active bank and restarts playback when it
// is running.
func (s *Session) SetSpeed(speed int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.store.Update(s.store.Active(), func(b *bank.Bank) bool { return b.SetSpeed(speed) }); err != nil {
		return err
	}
	s.player.Restart(s.clock())
	return nil
}

func (s *Session) TogglePixel(x, y int) error {
	return s.edit(func(b *bank.Bank) bool { return b.TogglePixel(x, y) })
}

func (s *Session) ClearImage() error { return s.edit((*bank.Bank).Clear) }

func (s *Session) InvertImage() error { return s.edit((*bank.Bank).Invert) }

func (s *Session) TranslateImage(dir bank.Direction) error {
	return s.edit(func(b *bank.Bank) bool { return b.Translate(dir) })
}

func (s *Session) ScrollView(dir bank.Direction) error {
	return s.edit(func(b *bank.Bank) bool { return b.ScrollView(dir) })
}

func (s *Session) AddFrame() error { return s.edit((*bank.Bank).AddFrame) }

func (s *Session) DeleteFrame() error { return s.edit((*bank.Bank).DeleteFrame) }

func (s *Session) NextFrame() error { return s.edit((*bank.Bank).NextFrame) }

func (s *Session) PrevFrame() error { return s.edit((*bank.Bank).PrevFrame) }

func (s *Session) SetBlink(on bool) error {
	return s.edit(func(b *bank.Bank) bool {
		changed := b.Blink != on
		b.Blink = on
		return changed
	})
}

func (s *Session) SetAnts(on bool) error {
	return s.edit(func(b *bank.Bank) bool {
		changed := b.Ants != on
		b.Ants = on
		return changed
	})
}

// ImportImage replaces the active bank's bitmap and drops its text.
func (s *Session) ImportImage(m bank.Matrix) error {
	if err := m.Validate(); err != nil {
		return err
	}
	return s.edit(func(b *bank.Bank) bool {
		b.Text = ""
		b.Pixels = m.Clone()
		b.Viewport = 0
		b.CurrentFrame = 0
		return true
	})
}

// LoadPattern installs a calibration pattern with its preferred mode.
func (s *Session) LoadPattern(k pattern.Kind) error {
	m, mode, err := pattern.Build(k)
	if err != nil {
		return err
	}
	return s.edit(func(b *bank.Bank) bool {
		b.SetMode(mode)
		b.Text = ""
		b.Pixels = m
		return true
	})
}

func (s *Session) SelectBank(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.player.Running() {
		return ErrPlaybackActive
	}
	return s.store.SetActive(i)
}

// LoadState replaces every bank, stopping playback first.
func (s *Session) LoadState(snap bank.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.player.Stop()
	return s.store.Restore(snap)
}

func (s *Session) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.player.Running()
}

func (s *Session) TogglePlayback() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.player.Toggle(s.clock())
}

func (s *Session) StartPlayback() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.player.Start(s.clock())
}

func (s *Session) StopPlayback() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.player.Stop()
}

func (s *Session) SetCycling(on bool) { s.store.SetCycling(on) }

func (s *Session) SetBrightness(pct int) {
	s.mu.Lock()
	s.brightness = max(0, min(pct, 100))
	s.mu.Unlock()
}

// Tick advances playback to the session clock and renders one frame.
func (s *Session) Tick() (render.Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.player.Tick(s.clock())
	idx, st := s.player.Preview()
	b, err := s.store.Bank(idx)
	if err != nil {
		return render.Frame{}, err
	}
	return s.eng.RenderOnce(b, st)
}

// Frame returns the most recent frame and its sequence number.
func (s *Session) Frame() (render.Frame, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eng.Frame()
}

// Status is a point-in-time summary for UIs.
type Status struct {
	Active     int            `json:"active"`
	Playing    bool           `json:"playing"`
	Cycling    bool           `json:"cycling"`
	Mode       string         `json:"mode"`
	Speed      int            `json:"speed"`
	Blink      bool           `json:"blink"`
	Ants       bool           `json:"ants"`
	Frame      int            `json:"frame"`
	Frames     int            `json:"frames"`
	Width      int            `json:"width"`
	Brightness int            `json:"brightness"`
	Memory     protocol.Usage `json:"memory"`
	Uploading  bool           `json:"uploading"`
}

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, b := s.store.ActiveBank()
	st := Status{
		Active:     idx,
		Playing:    s.player.Running(),
		Cycling:    s.store.Cycling(),
		Mode:       b.Mode.String(),
		Speed:      b.Speed,
		Blink:      b.Blink,
		Ants:       b.Ants,
		Frame:      b.CurrentFrame,
		Frames:     b.FrameCount(),
		Width:      b.Width(),
		Brightness: s.brightness,
		Memory:     protocol.MemoryUsage(s.store.Banks()),
	}
	if s.up != nil {
		st.Uploading = s.up.Busy()
	}
	if pidx, _ := s.player.Preview(); st.Playing {
		st.Active = pidx
	}
	return st
}

// Encode serializes a copy of all banks.
func (s *Session) Encode() (protocol.Header, []byte, error) {
	s.mu.Lock()
	banks := s.store.Banks()
	brightness := s.brightness
	s.mu.Unlock()
	return protocol.Encode(banks, brightness)
}

// Packets encodes the banks into transport packets, header first.
func (s *Session) Packets(size int) ([][]byte, error) {
	h, payload, err := s.Encode()
	if err != nil {
		return nil, err
	}
	return protocol.Packets(h, payload, size), nil
}

// Upload encodes the banks and sends them to the badge. Nothing is sent when
// no bank has lit pixels. Editing and playback continue while the upload runs.
func (s *Session) Upload(ctx context.Context) error {
	if s.up == nil {
		return ErrNoUploader
	}
	s.mu.Lock()
	banks := s.store.Banks()
	brightness := s.brightness
	s.mu.Unlock()

	if u := protocol.MemoryUsage(banks); u.Over() {
		log.Warn().Int("used", u.Used).Int("capacity", u.Capacity).Msg("banks exceed device memory")
		s.hub.Publish(diag.Diagnostic{
			Severity:       diag.Warn,
			Code:           diag.MemoryOver,
			Summary:        "Messages may not fit on the badge",
			Evidence:       map[string]any{"used": u.Used, "capacity": u.Capacity, "percent": u.Percent},
			SuggestedFixes: []string{"shorten long scrolling texts", "delete unused animation frames"},
		})
	}
	h, payload, err := protocol.Encode(banks, brightness)
	if err != nil {
		s.hub.Publish(diag.Diagnostic{Severity: diag.Err, Code: diag.UploadFailed, Summary: "Encoding failed", Detail: err.Error()})
		return err
	}
	if len(payload) == 0 {
		s.hub.Publish(diag.Diagnostic{
			Severity:       diag.Warn,
			Code:           diag.UploadEmpty,
			Summary:        "Nothing to upload",
			SuggestedFixes: []string{"type a message or draw in at least one bank"},
		})
		return led.ErrNothingToUpload
	}
	_, err = s.up.Upload(ctx, protocol.Packets(h, payload, protocol.PacketSize))
	return err
}

// Banks returns copies of all banks.
func (s *Session) Banks() [layout.Banks]bank.Bank { return s.store.Banks() }
