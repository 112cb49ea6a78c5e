package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/marquee/internal/bank"
	"github.com/coreman2200/marquee/internal/config"
	diag "github.com/coreman2200/marquee/internal/diagnostics"
	"github.com/coreman2200/marquee/internal/font"
	"github.com/coreman2200/marquee/internal/led"
	"github.com/coreman2200/marquee/internal/pattern"
	"github.com/coreman2200/marquee/internal/protocol"
)

// fakeFonts renders every rune as a 5px block and remembers the centering
// requests.
type fakeFonts struct{ centers []bool }

func (f *fakeFonts) Rasterize(text, id string, center bool) (bank.Matrix, error) {
	if id == "missing" {
		return nil, font.ErrUnknownFont
	}
	f.centers = append(f.centers, center)
	if text == "" {
		return bank.NewMatrix(1), nil
	}
	m := bank.NewMatrix(max(len(text)*6, 44))
	for i := range text {
		m[5][i*6] = true
	}
	return m, nil
}

type clock struct{ now time.Duration }

func (c *clock) Now() time.Duration { return c.now }

func newSession(t *testing.T) (*Session, *fakeFonts, *clock) {
	t.Helper()
	ff := &fakeFonts{}
	c := &clock{}
	s := NewSession(bank.NewStore(), Options{Fonts: ff, Clock: c.Now, Hub: diag.NewHub(8)})
	return s, ff, c
}

func active(s *Session) bank.Bank {
	_, b := s.Store().ActiveBank()
	return b
}

func TestSetTextCentersForNonScrollingModes(t *testing.T) {
	s, ff, _ := newSession(t)
	require.NoError(t, s.SetText("hi"))
	assert.Equal(t, "hi", active(s).Text)
	assert.True(t, active(s).Pixels[5][0])

	require.NoError(t, s.SetMode(bank.ScrollLeft))
	assert.Equal(t, []bool{true, false}, ff.centers, "mode change re-renders the text")

	require.NoError(t, s.SetText("a much longer message"))
	b := active(s)
	assert.Equal(t, b.Width()-44, b.Viewport, "viewport follows the end of the text")
}

func TestSetFont(t *testing.T) {
	s, ff, _ := newSession(t)
	assert.ErrorIs(t, s.SetFont("missing"), font.ErrUnknownFont)
	require.NoError(t, s.SetText("x"))
	n := len(ff.centers)
	require.NoError(t, s.SetFont("basic"))
	assert.Equal(t, "basic", active(s).Font)
	assert.Greater(t, len(ff.centers), n)
}

func TestEditsRejectedDuringPlayback(t *testing.T) {
	s, _, c := newSession(t)
	require.NoError(t, s.TogglePixel(1, 1))
	s.StartPlayback()
	require.True(t, s.Playing())

	for name, fn := range map[string]func() error{
		"text":      func() error { return s.SetText("no") },
		"pixel":     func() error { return s.TogglePixel(2, 2) },
		"clear":     s.ClearImage,
		"invert":    s.InvertImage,
		"translate": func() error { return s.TranslateImage(bank.Up) },
		"scroll":    func() error { return s.ScrollView(bank.Right) },
		"add":       s.AddFrame,
		"delete":    s.DeleteFrame,
		"next":      s.NextFrame,
		"prev":      s.PrevFrame,
		"blink":     func() error { return s.SetBlink(true) },
		"ants":      func() error { return s.SetAnts(true) },
		"select":    func() error { return s.SelectBank(3) },
		"pattern":   func() error { return s.LoadPattern(pattern.Checker) },
	} {
		assert.ErrorIs(t, fn(), ErrPlaybackActive, name)
	}
	b := active(s)
	assert.True(t, b.Pixels[1][1])
	assert.False(t, b.Pixels[2][2])
	assert.False(t, b.Blink)

	c.now = time.Second
	require.NoError(t, s.SetSpeed(2))
	require.NoError(t, s.SetMode(bank.Laser))
	assert.True(t, s.Playing(), "mode and speed changes restart playback")
	assert.Equal(t, 2, active(s).Speed)
	assert.Equal(t, "laser", s.Status().Mode)

	s.TogglePlayback()
	assert.False(t, s.Playing())
	assert.NoError(t, s.SetBlink(true))
}

func TestTickRendersActiveBank(t *testing.T) {
	s, _, c := newSession(t)
	require.NoError(t, s.TogglePixel(3, 4))
	f, err := s.Tick()
	require.NoError(t, err)
	assert.True(t, f[4][3])

	require.NoError(t, s.SetMode(bank.ScrollLeft))
	s.StartPlayback()
	c.now = time.Millisecond
	f, err = s.Tick()
	require.NoError(t, err)
	assert.Zero(t, f.Lit(), "scroll starts off screen")
	_, n := s.Frame()
	assert.Equal(t, uint64(2), n)
}

func TestImportImageAndPattern(t *testing.T) {
	s, _, _ := newSession(t)
	require.NoError(t, s.SetText("abc"))
	m := bank.ParseMatrix("#.#", "", "", "", "", "", "", "", "", "", "###")
	require.NoError(t, s.ImportImage(m))
	b := active(s)
	assert.Empty(t, b.Text)
	assert.Equal(t, 3, b.Width())
	assert.Error(t, s.ImportImage(bank.Matrix{{true}}))

	require.NoError(t, s.LoadPattern(pattern.RowSweep))
	b = active(s)
	assert.Equal(t, bank.Animation, b.Mode)
	assert.Equal(t, 11, b.FrameCount())
	assert.ErrorIs(t, s.LoadPattern("nope"), pattern.ErrUnknownPattern)
}

func TestSelectBankAndStatus(t *testing.T) {
	s, _, _ := newSession(t)
	require.NoError(t, s.SelectBank(5))
	assert.ErrorIs(t, s.SelectBank(8), bank.ErrBankIndex)
	s.SetCycling(true)
	st := s.Status()
	assert.Equal(t, 5, st.Active)
	assert.True(t, st.Cycling)
	assert.Equal(t, "static", st.Mode)
	assert.Equal(t, 8*43, st.Memory.Used)
}

func TestEncodeReadsAllBanks(t *testing.T) {
	s, _, _ := newSession(t)
	require.NoError(t, s.TogglePixel(0, 0))
	s.SetBrightness(25)
	h, payload, err := s.Encode()
	require.NoError(t, err)
	assert.Equal(t, byte(0x40), h.Brightness())
	assert.Equal(t, 6, h.Length(0))
	assert.Len(t, payload, 66)

	pkts, err := s.Packets(0)
	require.NoError(t, err)
	assert.Len(t, pkts, 3)
}

func TestRecord(t *testing.T) {
	s, _, _ := newSession(t)
	require.NoError(t, s.TogglePixel(0, 0))
	rec := s.Record(time.Second, 10*time.Millisecond)
	require.Len(t, rec.Frames, 1, "static never changes")
	assert.Equal(t, time.Second, rec.Delays[0])

	require.NoError(t, s.SetMode(bank.ScrollLeft))
	require.NoError(t, s.SetSpeed(8))
	rec = s.Record(2*time.Second, 10*time.Millisecond)
	assert.Greater(t, len(rec.Frames), 5)
	var total time.Duration
	for _, d := range rec.Delays {
		total += d
	}
	assert.Equal(t, 2*time.Second, total)
	assert.False(t, s.Playing(), "recording leaves the session idle")
}

func testConfig(t *testing.T) *config.Config {
	cfg := config.Default()
	cfg.Driver = "sim"
	cfg.StateDir = t.TempDir()
	cfg.Device.PacketDelayMs = 0
	return cfg
}

func TestInitCoreUploadsToSimulator(t *testing.T) {
	core, err := InitCore(testConfig(t), nil)
	require.NoError(t, err)
	defer core.Close()

	require.NoError(t, core.Session.TogglePixel(0, 0))
	require.NoError(t, core.Session.Upload(context.Background()))

	drv, err := core.Open()
	require.NoError(t, err)
	sim := drv.(*led.Sim)
	pkts := sim.Packets()
	require.Len(t, pkts, 4)
	assert.Equal(t, make([]byte, led.PacketSize), pkts[0], "blank clear packet first")
	assert.Equal(t, []byte("wang"), pkts[1][:4])
	assert.Equal(t, byte(0x80), pkts[2][0])

	var codes []string
	for _, d := range core.Hub.Recent() {
		codes = append(codes, d.Code)
	}
	assert.Contains(t, codes, diag.UploadDone)
}

func TestUploadWithoutClearPacket(t *testing.T) {
	cfg := testConfig(t)
	cfg.Device.ClearFirst = false
	core, err := InitCore(cfg, nil)
	require.NoError(t, err)
	defer core.Close()

	require.NoError(t, core.Session.TogglePixel(0, 0))
	require.NoError(t, core.Session.Upload(context.Background()))
	drv, err := core.Open()
	require.NoError(t, err)
	pkts := drv.(*led.Sim).Packets()
	require.Len(t, pkts, 3)
	assert.Equal(t, []byte("wang"), pkts[0][:4])
}

func TestUploadOfEmptyBanksSendsNothing(t *testing.T) {
	core, err := InitCore(testConfig(t), nil)
	require.NoError(t, err)
	defer core.Close()

	err = core.Session.Upload(context.Background())
	assert.ErrorIs(t, err, led.ErrNothingToUpload)

	drv, err := core.Open()
	require.NoError(t, err)
	assert.Empty(t, drv.(*led.Sim).Packets())
	require.NotEmpty(t, core.Hub.Recent())
	assert.Equal(t, diag.UploadEmpty, core.Hub.Recent()[0].Code)
}

func TestUploadWarnsWhenOverMemory(t *testing.T) {
	core, err := InitCore(testConfig(t), nil)
	require.NoError(t, err)
	defer core.Close()

	m := bank.NewMatrix(8 * 400)
	m[0][8*400-1] = true
	require.NoError(t, core.Session.ImportImage(m))
	require.NoError(t, core.Session.Upload(context.Background()))
	assert.Equal(t, diag.MemoryOver, core.Hub.Recent()[0].Code)
	assert.True(t, protocol.MemoryUsage(core.Session.Banks()).Over())
}

func TestStatePersistsAcrossSessions(t *testing.T) {
	cfg := testConfig(t)
	core, err := InitCore(cfg, nil)
	require.NoError(t, err)
	require.NoError(t, core.Session.SetText("saved"))
	core.Session.SetCycling(true)
	core.Close()

	core, err = InitCore(cfg, nil)
	require.NoError(t, err)
	defer core.Close()
	assert.Equal(t, "saved", active(core.Session).Text)
	assert.True(t, core.Store.Cycling())
	assert.Empty(t, core.Hub.Recent())
}

func TestMalformedStateIsReported(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.WriteFile(filepath.Join(cfg.StateDir, bank.SnapshotKey+".json"), []byte("{"), 0644))
	core, err := InitCore(cfg, nil)
	require.NoError(t, err)
	defer core.Close()
	require.NotEmpty(t, core.Hub.Recent())
	assert.Equal(t, diag.RestoreFailed, core.Hub.Recent()[0].Code)
	assert.Equal(t, 0, core.Store.Active())
}

func TestConductorTicks(t *testing.T) {
	s, _, _ := newSession(t)
	ctx, cancel := context.WithCancel(context.Background())
	frames := make(chan uint64, 1)
	c := NewConductor(s)
	c.OnFrame = func(n uint64) {
		select {
		case frames <- n:
		default:
		}
	}
	done := make(chan struct{})
	go func() {
		c.Run(ctx, 200)
		close(done)
	}()
	assert.Equal(t, uint64(1), <-frames)
	cancel()
	<-done
}

func TestUploadWithoutUploader(t *testing.T) {
	s, _, _ := newSession(t)
	assert.ErrorIs(t, s.Upload(context.Background()), ErrNoUploader)
}

func TestInitCoreCreatesStateDir(t *testing.T) {
	cfg := testConfig(t)
	cfg.StateDir = filepath.Join(cfg.StateDir, "fresh", "dir")
	core, err := InitCore(cfg, nil)
	require.NoError(t, err)
	defer core.Close()
	assert.False(t, core.ReadOnly)

	require.NoError(t, core.Session.TogglePixel(0, 0))
	_, err = os.Stat(bank.SnapshotPath(cfg.StateDir))
	assert.NoError(t, err, "edits are saved")
}

func TestInitCoreFailsOnUnusableStateDir(t *testing.T) {
	cfg := testConfig(t)
	file := filepath.Join(cfg.StateDir, "not-a-dir")
	require.NoError(t, os.WriteFile(file, nil, 0644))
	cfg.StateDir = file
	_, err := InitCore(cfg, nil)
	assert.Error(t, err)
}

func TestSecondCoreIsReadOnly(t *testing.T) {
	cfg := testConfig(t)
	first, err := InitCore(cfg, nil)
	require.NoError(t, err)
	defer first.Close()
	assert.False(t, first.ReadOnly)

	second, err := InitCore(cfg, nil)
	require.NoError(t, err)
	defer second.Close()
	assert.True(t, second.ReadOnly)
}
