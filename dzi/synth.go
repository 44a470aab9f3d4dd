package dzi

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// Stitch reads back every written tile of level, laid out with geometry g,
// and pastes them onto a padded canvas
func (w *Writer) Stitch(level int, g Geometry) (*image.NRGBA, error) {
	pw, ph := g.Padded()
	canvas := imaging.New(pw, ph, color.Black)

	for i := 0; i < g.Tiles(); i++ {
		col, row := i%g.Columns, i/g.Columns
		m, err := imaging.Open(w.Path(level, col, row))
		if err != nil {
			return nil, err
		}
		canvas = imaging.Paste(canvas, m, image.Pt(col*g.TileWidth, row*g.TileHeight))
	}

	return canvas, nil
}

// Synthesize completes level 0 according to p. g is the geometry of the
// coarsest source level, which was written as level p.FirstLevel().
func (w *Writer) Synthesize(p Policy, g Geometry) error {
	switch p {
	case BuildFromSource:
		return w.cropLowest(g)
	case SynthesizeFromTier1:
		return w.synthesize(g)
	}
	return nil
}

// cropLowest makes sure the single source tile of level 0 has the true page
// extent rather than its padded storage size
func (w *Writer) cropLowest(g Geometry) error {
	m, err := imaging.Open(w.Path(0, 0, 0))
	if err != nil {
		return err
	}
	if b := m.Bounds(); b.Dx() <= g.Width && b.Dy() <= g.Height {
		return nil
	}
	_, err = w.save(imaging.Crop(m, image.Rect(0, 0, g.Width, g.Height)), 0, 0, 0)
	return err
}

func (w *Writer) synthesize(g Geometry) error {
	tier1, err := w.Stitch(1, g)
	if err != nil {
		return err
	}

	pw, ph := g.Padded()
	tier0 := imaging.Resize(tier1, pw/2, ph/2, imaging.Lanczos)
	tier0 = imaging.Crop(tier0, image.Rect(0, 0, g.Width/2, g.Height/2))

	if _, err := w.save(tier0, 0, 0, 0); err != nil {
		return err
	}
	w.count++

	return nil
}
