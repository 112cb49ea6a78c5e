package font

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/gomono"

	"github.com/coreman2200/marquee/internal/bank"
	"github.com/coreman2200/marquee/internal/layout"
)

func litColumns(m bank.Matrix) (first, last int) {
	first, last = -1, -1
	for x := 0; x < m.Width(); x++ {
		if m.ColumnLit(x) {
			if first < 0 {
				first = x
			}
			last = x
		}
	}
	return first, last
}

func TestEmptyTextIsOneBlankColumn(t *testing.T) {
	r := NewRegistry()
	m, err := r.Rasterize("", "", true)
	require.NoError(t, err)
	assert.Equal(t, 1, m.Width())
	assert.Equal(t, layout.Height, m.Height())
	assert.False(t, m.Any())
}

func TestShortTextIsPaddedToPanel(t *testing.T) {
	r := NewRegistry()
	left, err := r.Rasterize("HI", "", false)
	require.NoError(t, err)
	require.NoError(t, left.Validate())
	assert.Equal(t, layout.Width, left.Width())
	first, _ := litColumns(left)
	assert.Equal(t, 0, first)

	centered, err := r.Rasterize("HI", "", true)
	require.NoError(t, err)
	first, last := litColumns(centered)
	assert.Greater(t, first, 0)
	assert.Less(t, last, layout.Width-1)
}

func TestCapitalFillsHeight(t *testing.T) {
	r := NewRegistry()
	m, err := r.Rasterize("X", "gomono", false)
	require.NoError(t, err)
	rows := 0
	for y := range m {
		for _, v := range m[y] {
			if v {
				rows++
				break
			}
		}
	}
	assert.GreaterOrEqual(t, rows, 8)
}

func TestGlyphsAreSeparatedByOneColumn(t *testing.T) {
	r := NewRegistry()
	one, err := r.Rasterize("I", "basic", false)
	require.NoError(t, err)
	_, last := litColumns(one)
	w := last + 1

	two, err := r.Rasterize("II", "basic", false)
	require.NoError(t, err)
	assert.False(t, two.ColumnLit(w))
	assert.True(t, two.ColumnLit(w+1))
}

func TestLongTextGrows(t *testing.T) {
	r := NewRegistry()
	m, err := r.Rasterize("HELLO WORLD, HELLO BADGE", "", true)
	require.NoError(t, err)
	assert.Greater(t, m.Width(), layout.Width)
	first, _ := litColumns(m)
	assert.Equal(t, 0, first)
}

func TestUnknownFont(t *testing.T) {
	r := NewRegistry()
	_, err := r.Rasterize("A", "comic-sans", false)
	assert.ErrorIs(t, err, ErrUnknownFont)
	assert.ErrorIs(t, r.SetDefault("comic-sans"), ErrUnknownFont)
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mono2.ttf"), gomono.TTF, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0644))

	r := NewRegistry()
	n, err := r.LoadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Contains(t, r.Names(), "mono2")
	require.NoError(t, r.SetDefault("mono2"))
}

func TestGothicCoversCJK(t *testing.T) {
	r := NewRegistry()
	m, err := r.Rasterize("日本", "gothic12", false)
	require.NoError(t, err)
	require.NoError(t, m.Validate())
	assert.True(t, m.Any())
	assert.Contains(t, r.Names(), "gothic12")
}
