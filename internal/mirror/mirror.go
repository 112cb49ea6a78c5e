// Package mirror copies the rendered badge frame onto a small monochrome
// OLED so a bench setup shows what the badge will show.
package mirror

import (
	"errors"
	"fmt"
	"image"
	"io"
	"sync"

	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/coreman2200/marquee/internal/layout"
	"github.com/coreman2200/marquee/internal/render"
)

var ErrTooSmall = errors.New("display smaller than the badge")

// Mirror is a render.Driver drawing frames onto a periph display.
type Mirror struct {
	mu    sync.Mutex
	dev   display.Drawer
	bus   io.Closer
	img   *image1bit.VerticalLSB
	fit   Fit
	last  render.Frame
	drawn bool
}

// Open initializes the host drivers and an SSD1306 on the named I2C bus.
// An empty name picks the first bus.
func Open(bus string) (*Mirror, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("host init: %w", err)
	}
	b, err := i2creg.Open(bus)
	if err != nil {
		return nil, fmt.Errorf("open i2c %q: %w", bus, err)
	}
	dev, err := ssd1306.NewI2C(b, &ssd1306.DefaultOpts)
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("ssd1306: %w", err)
	}
	m, err := New(dev, b)
	if err != nil {
		b.Close()
		return nil, err
	}
	log.Info().Str("bus", b.String()).Str("dev", dev.String()).Int("scale", m.fit.Scale).Msg("oled mirror ready")
	return m, nil
}

// New wraps an already opened display. closer, when set, is closed after the
// display halts.
func New(dev display.Drawer, closer io.Closer) (*Mirror, error) {
	fit, err := FitTo(dev.Bounds())
	if err != nil {
		return nil, err
	}
	return &Mirror{
		dev: dev,
		bus: closer,
		img: image1bit.NewVerticalLSB(dev.Bounds()),
		fit: fit,
	}, nil
}

// Write draws f, skipping the bus transfer when nothing changed.
func (m *Mirror) Write(f render.Frame) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.drawn && f == m.last {
		return nil
	}
	for y := 0; y < layout.Height; y++ {
		for x := 0; x < layout.Width; x++ {
			r := m.fit.Cell(x, y)
			bit := image1bit.Bit(f[y][x])
			for py := r.Min.Y; py < r.Max.Y; py++ {
				for px := r.Min.X; px < r.Max.X; px++ {
					m.img.SetBit(px, py, bit)
				}
			}
		}
	}
	if err := m.dev.Draw(m.dev.Bounds(), m.img, image.Point{}); err != nil {
		return err
	}
	m.last, m.drawn = f, true
	return nil
}

func (m *Mirror) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	err := m.dev.Halt()
	if m.bus != nil {
		err = errors.Join(err, m.bus.Close())
	}
	return err
}
