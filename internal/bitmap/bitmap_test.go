package bitmap

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/marquee/internal/render"
)

// halves returns a w x h image, white on the left half and black on the right.
func halves(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.RGBA{A: 0xff}
			if x < w/2 {
				c = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
			}
			img.Set(x, y, c)
		}
	}
	return img
}

func TestFromImageScalesToPanelHeight(t *testing.T) {
	m := FromImage(halves(44, 22), ImportOptions{})
	require.NoError(t, m.Validate())
	assert.Equal(t, 22, m.Width())
	assert.True(t, m[5][0])
	assert.True(t, m[5][8])
	assert.False(t, m[5][13])
	assert.False(t, m[5][21])

	inv := FromImage(halves(44, 22), ImportOptions{Invert: true})
	assert.False(t, inv[5][0])
	assert.True(t, inv[5][21])
}

func TestDecode(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, halves(11, 11)))
	m, err := Decode(&buf, ImportOptions{})
	require.NoError(t, err)
	assert.Equal(t, 11, m.Width())
	assert.True(t, m[0][0])

	_, err = Decode(bytes.NewReader([]byte("not an image")), ImportOptions{})
	assert.Error(t, err)
}

func TestParseLEDColor(t *testing.T) {
	c, err := ParseLEDColor("#ff6a00")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 0xff, G: 0x6a, A: 0xff}, c)

	_, err = ParseLEDColor("orange")
	assert.Error(t, err)
}

func TestRecordingMergesRepeatedFrames(t *testing.T) {
	var a, b render.Frame
	b[0][0] = true
	var rec Recording
	rec.Add(a, 50*time.Millisecond)
	rec.Add(a, 50*time.Millisecond)
	rec.Add(b, 30*time.Millisecond)
	rec.Add(a, 10*time.Millisecond)
	assert.Len(t, rec.Frames, 3)
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 30 * time.Millisecond, 10 * time.Millisecond}, rec.Delays)
}

func TestEncodeGIF(t *testing.T) {
	var f render.Frame
	f[1][2] = true
	rec := Recording{Frames: []render.Frame{{}, f}, Delays: []time.Duration{time.Second, 10 * time.Millisecond}}

	var buf bytes.Buffer
	require.NoError(t, EncodeGIF(&buf, rec, GIFOptions{Scale: 4}))
	g, err := gif.DecodeAll(&buf)
	require.NoError(t, err)
	require.Len(t, g.Image, 2)
	assert.Equal(t, []int{100, 2}, g.Delay)
	assert.Equal(t, image.Rect(0, 0, 44*4, 11*4), g.Image[1].Bounds())
	assert.Equal(t, uint8(2), g.Image[1].ColorIndexAt(2*4, 1*4))
	assert.Equal(t, uint8(1), g.Image[1].ColorIndexAt(0, 0))
	assert.Equal(t, uint8(0), g.Image[1].ColorIndexAt(3, 0), "gap between dots")

	assert.ErrorIs(t, EncodeGIF(&buf, Recording{}, GIFOptions{}), ErrNoFrames)
}
