package bitmap

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/disintegration/gift"

	"github.com/coreman2200/marquee/internal/bank"
	"github.com/coreman2200/marquee/internal/layout"
)

// DefaultThreshold is the luminance percentage above which a pixel is lit.
const DefaultThreshold = 50

type ImportOptions struct {
	Threshold float32
	// Invert lights dark pixels instead, for dark artwork on light backgrounds.
	Invert bool
}

// FromImage scales img to the panel height, keeping its aspect ratio, and
// thresholds it into a matrix.
func FromImage(img image.Image, opts ImportOptions) bank.Matrix {
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultThreshold
	}
	g := gift.New(
		gift.Resize(0, layout.Height, gift.LanczosResampling),
		gift.Grayscale(),
		gift.Threshold(opts.Threshold),
	)
	dst := image.NewGray(g.Bounds(img.Bounds()))
	g.Draw(dst, img)

	b := dst.Bounds()
	m := bank.NewMatrix(b.Dx())
	for y := 0; y < layout.Height && y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			on := dst.GrayAt(b.Min.X+x, b.Min.Y+y).Y > 127
			m[y][x] = on != opts.Invert
		}
	}
	return m
}

// Decode reads a png, gif or jpeg and converts it with FromImage.
func Decode(r io.Reader, opts ImportOptions) (bank.Matrix, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("decode %s: empty image", format)
	}
	return FromImage(img, opts), nil
}
