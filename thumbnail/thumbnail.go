/*
Package thumbnail implements a small palette-quantized PNG preview of a tile
pyramid, produced from its lowest level.
*/
package thumbnail

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"os"

	"github.com/disintegration/imaging"
	"github.com/ericpauley/go-quantize/quantize"
)

// Filename is the name of the thumbnail written alongside a pyramid
const Filename = "thumbnail.png"

const maxColors = 256

var errNoColors = errors.New("thumbnail: invalid number of colors")

// Encode writes the Image m to w as a paletted PNG using at most colors
// colors.
func Encode(w io.Writer, m image.Image, colors int) error {
	if colors < 2 || colors > maxColors {
		return errNoColors
	}

	b := m.Bounds()

	pm, _ := m.(*image.Paletted)
	if pm == nil || len(pm.Palette) > colors {
		q := quantize.MedianCutQuantizer{}
		pm = image.NewPaletted(b, q.Quantize(make(color.Palette, 0, colors), m))
		draw.Draw(pm, b, m, b.Min, draw.Src)
	}

	// Adjust image so that top-left corner is at (0, 0)
	if pm.Rect.Min != (image.Point{}) {
		dup := *pm
		dup.Rect = dup.Rect.Sub(dup.Rect.Min)
		pm = &dup
	}

	return png.Encode(w, pm)
}

// Write scales m to fit within size by size pixels and writes it to file
func Write(file string, m image.Image, size, colors int) error {
	f, err := os.Create(file)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := Encode(f, imaging.Fit(m, size, size, imaging.Lanczos), colors); err != nil {
		return err
	}

	return f.Close()
}
