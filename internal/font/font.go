package font

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/golang/freetype/truetype"
	"github.com/hajimehoshi/bitmapfont"
	"github.com/rs/zerolog/log"
	"github.com/zachomedia/go-bdf"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"

	"github.com/coreman2200/marquee/internal/layout"
)

var ErrUnknownFont = errors.New("unknown font")

// DefaultFont is used when a bank names no font.
const DefaultFont = "gomono"

// Face is a font face fitted to the badge: Baseline is the row the glyphs sit
// on so that a capital X fills the panel height.
type Face struct {
	Name     string
	Face     font.Face
	Baseline int
}

// Registry holds the available faces by name. A truetype face is not safe for
// concurrent use, so rasterization is serialized.
type Registry struct {
	mu    sync.Mutex
	faces map[string]*Face
	def   string
}

// NewRegistry returns a registry preloaded with the Go fonts, basicfont and
// the gothic12 bitmap face, which also covers CJK text.
func NewRegistry() *Registry {
	r := &Registry{faces: map[string]*Face{}, def: DefaultFont}
	for name, ttf := range map[string][]byte{
		"gomono":    gomono.TTF,
		"goregular": goregular.TTF,
		"gobold":    gobold.TTF,
	} {
		if err := r.RegisterTTF(name, ttf); err != nil {
			log.Warn().Err(err).Str("font", name).Msg("builtin font failed to load")
		}
	}
	r.Register("basic", basicfont.Face7x13)
	r.Register("gothic12", bitmapfont.Gothic12r)
	return r
}

// Register adds a bitmap face as is, vertically centered on the panel.
func (r *Registry) Register(name string, f font.Face) {
	h, asc := capHeight(f)
	base := asc
	if h < layout.Height {
		base += (layout.Height - h) / 2
	}
	r.mu.Lock()
	r.faces[name] = &Face{Name: name, Face: f, Baseline: base}
	r.mu.Unlock()
}

// RegisterTTF parses a TrueType font and sizes it so that a capital X is as
// tall as the panel.
func (r *Registry) RegisterTTF(name string, ttf []byte) error {
	tt, err := truetype.Parse(ttf)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	var best font.Face
	bestAsc := 0
	for size := 6.0; size <= 32; size += 0.5 {
		f := truetype.NewFace(tt, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingFull})
		h, asc := capHeight(f)
		if h > layout.Height {
			break
		}
		best, bestAsc = f, asc
	}
	if best == nil {
		return fmt.Errorf("%s: no size fits %d rows", name, layout.Height)
	}
	r.mu.Lock()
	r.faces[name] = &Face{Name: name, Face: best, Baseline: bestAsc}
	r.mu.Unlock()
	return nil
}

// RegisterBDF parses a BDF bitmap font.
func (r *Registry) RegisterBDF(name string, data []byte) error {
	f, err := bdf.Parse(data)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	r.Register(name, f.NewFace())
	return nil
}

// LoadDir registers every .bdf and .ttf file in dir under its base name.
func (r *Registry) LoadDir(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		name := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return n, err
		}
		switch ext {
		case ".bdf":
			err = r.RegisterBDF(name, data)
		case ".ttf":
			err = r.RegisterTTF(name, data)
		default:
			continue
		}
		if err != nil {
			log.Warn().Err(err).Str("file", e.Name()).Msg("skipping font")
			continue
		}
		n++
	}
	return n, nil
}

// SetDefault selects the face used for an empty font id.
func (r *Registry) SetDefault(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.faces[name]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownFont, name)
	}
	r.def = name
	return nil
}

func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.faces))
	for n := range r.faces {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// capHeight measures the ink of "X": its height and its ascent above the
// baseline, in pixels.
func capHeight(f font.Face) (h, ascent int) {
	b, _ := font.BoundString(f, "X")
	top := b.Min.Y.Floor()
	bottom := b.Max.Y.Ceil()
	return bottom - top, -top
}

// glyphCanvas returns a scratch image wide enough for one glyph and the dot
// where drawing starts.
func glyphCanvas(f *Face, adv fixed.Int26_6) (*image.Alpha, fixed.Point26_6) {
	const pad = 4
	w := adv.Ceil() + 2*pad
	return image.NewAlpha(image.Rect(0, 0, w, layout.Height)), fixed.P(pad, f.Baseline)
}
