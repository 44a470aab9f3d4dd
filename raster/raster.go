/*
Package raster implements the per-tile pixel work: decoding assembled JPEG
tiles, scanning a page for its maximum sample, linear max-normalization to
the full 8-bit range and stacking channels into a composite raster.
*/
package raster

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
)

// MaxChannels is the number of colour components a composite can carry
const MaxChannels = 3

var (
	errShape       = errors.New("raster: channel shapes differ")
	errNoChannels  = errors.New("raster: no channels")
	errTooManySlot = errors.New("raster: too many channels")
)

// Decode decodes a standalone JPEG tile into an 8-bit grayscale raster
func Decode(b []byte) (*image.Gray, error) {
	m, err := jpeg.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	if g, ok := m.(*image.Gray); ok {
		return g, nil
	}
	r := m.Bounds()
	g := image.NewGray(r)
	draw.Draw(g, r, m, r.Min, draw.Src)
	return g, nil
}

// Normalize stretches m linearly so that max maps to 255. A max of zero is
// treated as one so an all-black page stays black
func Normalize(m *image.Gray, max uint8) *image.Gray {
	d := uint32(max)
	if d == 0 {
		d = 1
	}

	r := m.Bounds()
	out := image.NewGray(r)
	for y := 0; y < r.Dy(); y++ {
		src := m.Pix[y*m.Stride : y*m.Stride+r.Dx()]
		dst := out.Pix[y*out.Stride : y*out.Stride+r.Dx()]
		for x, v := range src {
			n := 255 * uint32(v) / d
			if n > 255 {
				n = 255
			}
			dst[x] = uint8(n)
		}
	}
	return out
}

// Composite stacks one normalized raster per slot into a single raster.
// Slot k becomes colour component k (red, green, blue); nil slots are left
// black. A single slot yields a grayscale raster.
func Composite(slots []*image.Gray) (image.Image, error) {
	if len(slots) > MaxChannels {
		return nil, errTooManySlot
	}

	var r image.Rectangle
	n := 0
	for _, s := range slots {
		if s == nil {
			continue
		}
		if n > 0 && s.Bounds().Size() != r.Size() {
			return nil, errShape
		}
		r = s.Bounds().Sub(s.Bounds().Min)
		n++
	}
	if n == 0 {
		return nil, errNoChannels
	}

	if len(slots) == 1 {
		g := image.NewGray(r)
		draw.Draw(g, r, slots[0], slots[0].Bounds().Min, draw.Src)
		return g, nil
	}

	out := image.NewNRGBA(r)
	for y := 0; y < r.Dy(); y++ {
		for x := 0; x < r.Dx(); x++ {
			var c [MaxChannels]uint8
			for k, s := range slots {
				if s != nil {
					c[k] = s.Pix[y*s.Stride+x]
				}
			}
			out.SetNRGBA(x, y, color.NRGBA{c[0], c[1], c[2], 0xff})
		}
	}
	return out, nil
}
