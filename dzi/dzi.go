/*
Package dzi writes a Deep Zoom tile pyramid: one directory per zoom level
holding <col>_<row>.jpg tiles, a .dzi descriptor and an ImageProperties.xml
manifest.

Level 0 is the coarsest level and must consist of a single tile. When the
coarsest source level has more than one tile a Policy decides whether level
0 is synthesized from level 1 or left out entirely.
*/
package dzi

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
)

const (
	// TileFormat is the file extension and descriptor format of every tile
	TileFormat = "jpg"

	// PropertiesFilename is the name of the properties manifest
	PropertiesFilename = "ImageProperties.xml"

	dirMode = 0755
)

// Geometry describes the tile layout of one level
type Geometry struct {
	Width, Height         int
	TileWidth, TileHeight int
	Columns, Rows         int
}

// Padded returns the extent of the level including tile padding
func (g Geometry) Padded() (int, int) {
	return g.Columns * g.TileWidth, g.Rows * g.TileHeight
}

// Tiles returns the number of tiles in the level
func (g Geometry) Tiles() int {
	return g.Columns * g.Rows
}

// Level records what was emitted for one zoom level
type Level struct {
	Zoom                      int
	Width, Height             int
	TileWidth, TileHeight     int
	PaddedWidth, PaddedHeight int
	// Total is the running count of tiles written once the level completed
	Total int
}

// NewLevel returns the record for a level written with geometry g
func NewLevel(zoom int, g Geometry, total int) Level {
	pw, ph := g.Padded()
	return Level{
		Zoom:         zoom,
		Width:        g.Width,
		Height:       g.Height,
		TileWidth:    g.TileWidth,
		TileHeight:   g.TileHeight,
		PaddedWidth:  pw,
		PaddedHeight: ph,
		Total:        total,
	}
}

// Writer persists tiles under Dir
type Writer struct {
	Dir     string
	Quality int

	count int
	made  map[string]struct{}
}

// NewWriter returns a Writer rooted at dir encoding tiles at the given JPEG
// quality
func NewWriter(dir string, quality int) *Writer {
	return &Writer{
		Dir:     dir,
		Quality: quality,
		made:    make(map[string]struct{}),
	}
}

// Count returns the number of tiles written so far
func (w *Writer) Count() int {
	return w.count
}

// LevelDir returns the directory holding the tiles of level
func (w *Writer) LevelDir(level int) string {
	return filepath.Join(w.Dir, fmt.Sprint(level))
}

// Path returns the path of the tile at col, row of level
func (w *Writer) Path(level, col, row int) string {
	return filepath.Join(w.LevelDir(level), fmt.Sprintf("%d_%d.%s", col, row, TileFormat))
}

func (w *Writer) mkdir(dir string) error {
	if _, ok := w.made[dir]; ok {
		return nil
	}
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return err
	}
	w.made[dir] = struct{}{}
	return nil
}

func (w *Writer) save(m image.Image, level, col, row int) (string, error) {
	if err := w.mkdir(w.Dir); err != nil {
		return "", err
	}
	if err := w.mkdir(w.LevelDir(level)); err != nil {
		return "", err
	}
	path := w.Path(level, col, row)
	if err := imaging.Save(m, path, imaging.JPEGQuality(w.Quality)); err != nil {
		return "", err
	}
	return path, nil
}

// WriteTile crops m down to width by height when it is larger, which only
// happens for border tiles, then encodes it as the tile at col, row of level
func (w *Writer) WriteTile(level, col, row int, m image.Image, width, height int) (string, error) {
	if b := m.Bounds(); b.Dx() > width || b.Dy() > height {
		m = imaging.Crop(m, image.Rect(b.Min.X, b.Min.Y, b.Min.X+min(b.Dx(), width), b.Min.Y+min(b.Dy(), height)))
	}

	path, err := w.save(m, level, col, row)
	if err != nil {
		return "", err
	}
	w.count++

	return path, nil
}
