package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/marquee/internal/bank"
	"github.com/coreman2200/marquee/internal/config"
	diag "github.com/coreman2200/marquee/internal/diagnostics"
	"github.com/coreman2200/marquee/internal/font"
	"github.com/coreman2200/marquee/internal/led"
	"github.com/coreman2200/marquee/internal/render"
)

// Core is everything a front-end needs: the session plus the pieces it was
// built from.
type Core struct {
	Session *Session
	Store   *bank.Store
	Fonts   *font.Registry
	Hub     *diag.Hub
	Open    func() (led.Driver, error)

	// ReadOnly is set when another process owns the state directory; the
	// state is loaded but never saved.
	ReadOnly bool

	stopSave func()
	lock     *flock.Flock
}

// Close stops autosaving and releases the state lock.
func (c *Core) Close() {
	if c.stopSave != nil {
		c.stopSave()
		c.stopSave = nil
	}
	if c.lock != nil {
		if err := c.lock.Unlock(); err != nil {
			log.Warn().Err(err).Msg("state unlock")
		}
		c.lock = nil
	}
}

// InitCore builds a session from cfg: fonts, restored state with autosave,
// the transport and the uploader. drv receives rendered frames and may be nil.
func InitCore(cfg *config.Config, drv render.Driver) (*Core, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	hub := diag.NewHub(64)

	// 1) Fonts
	fonts := font.NewRegistry()
	if cfg.Font.Dir != "" {
		n, err := fonts.LoadDir(cfg.Font.Dir)
		if err != nil {
			log.Warn().Err(err).Str("dir", cfg.Font.Dir).Msg("font dir")
		} else {
			log.Info().Int("faces", n).Str("dir", cfg.Font.Dir).Msg("fonts loaded")
		}
	}
	if cfg.Font.Default != "" {
		if err := fonts.SetDefault(cfg.Font.Default); err != nil {
			log.Warn().Err(err).Msg("default font")
		}
	}

	// 2) State
	store := bank.NewStore()
	path := bank.SnapshotPath(cfg.StateDir)
	snap, err := bank.LoadSnapshot(path)
	switch {
	case errors.Is(err, bank.ErrSnapshotMissing):
		snap.IsCycling = cfg.Cycling
		log.Info().Str("path", path).Msg("no saved state; starting fresh")
	case err != nil:
		log.Warn().Err(err).Str("path", path).Msg("saved state restored with repairs")
		hub.Publish(diag.Diagnostic{
			Severity: diag.Warn,
			Code:     diag.RestoreFailed,
			Summary:  "Saved state could not be fully restored",
			Detail:   err.Error(),
			Evidence: map[string]any{"path": path},
		})
	}
	_ = store.Restore(snap)

	core := &Core{Store: store, Fonts: fonts, Hub: hub}
	if err := os.MkdirAll(cfg.StateDir, 0o755); err != nil {
		return nil, fmt.Errorf("state dir: %w", err)
	}
	lock := flock.New(filepath.Join(cfg.StateDir, bank.SnapshotKey+".lock"))
	ok, err := lock.TryLock()
	switch {
	case err != nil:
		return nil, fmt.Errorf("state lock: %w", err)
	case !ok:
		core.ReadOnly = true
		log.Warn().Str("dir", cfg.StateDir).Msg("state in use by another process; changes will not be saved")
	default:
		core.lock = lock
		core.stopSave = store.Autosave(path)
	}

	// 3) Transport
	open := led.Opener(led.Options{
		Driver:     cfg.Driver,
		VendorID:   cfg.Device.VendorID,
		ProductID:  cfg.Device.ProductID,
		PacketSize: cfg.Device.PacketSize,
	})
	up := led.NewUploader(open, led.UploadOptions{
		Delay:      time.Duration(cfg.Device.PacketDelayMs) * time.Millisecond,
		ClearFirst: cfg.Device.ClearFirst,
		PacketSize: cfg.Device.PacketSize,
	}, hub)

	// 4) Session
	core.Open = open
	core.Session = NewSession(store, Options{
		Fonts:      fonts,
		Driver:     drv,
		Uploader:   up,
		Hub:        hub,
		Brightness: cfg.Brightness,
	})
	return core, nil
}
