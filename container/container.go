/*
Package container implements a reader for pyramidal tiled TIFF files where
every page is a half-scale copy of the page before it and every tile is
stored using the new-style JPEG compression scheme.

Pages are returned coarsest first. Only the single combination of fill
order and orientation observed in scanner output is supported; anything
else is rejected with an error wrapping ErrUnsupported.
*/
package container

import (
	"errors"
	"fmt"
)

const (
	// CompressionJPEG is the TIFF compression code for new-style JPEG
	CompressionJPEG = 7

	fillOrderMSB2LSB   = 1
	orientationTopLeft = 1
)

var (
	// ErrUnsupported is wrapped by every error caused by input outside of
	// the supported format subset
	ErrUnsupported = errors.New("container: unsupported input")

	errNoPages    = errors.New("container: no tiled pages")
	errBadTileIdx = errors.New("container: tile index out of range")
)

func unsupported(format string, a ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrUnsupported}, a...)...)
}

// Page is one resolution level of a container
type Page struct {
	Width, Height         int
	TileWidth, TileHeight int
	Columns, Rows         int

	Offsets []uint64
	Counts  []uint64

	// Tables holds the shared JPEG tables with the start and end of image
	// markers removed, it may be empty
	Tables []byte

	Compression uint16
	FillOrder   uint16
	Orientation uint16
}

// Tiles returns the number of tiles stored for the page
func (p *Page) Tiles() int {
	return len(p.Offsets)
}

// Position maps a tile index to its column and row within the tile grid
func (p *Page) Position(i int) (int, int) {
	return i % p.Columns, i / p.Columns
}

// IsBorder reports whether the tile at col, row lies on the right or bottom
// edge of the grid and so carries padding
func (p *Page) IsBorder(col, row int) bool {
	return col+1 == p.Columns || row+1 == p.Rows
}

// TileSize returns the unpadded extent of the tile at col, row
func (p *Page) TileSize(col, row int) (int, int) {
	w, h := p.TileWidth, p.TileHeight
	if col+1 == p.Columns {
		w = p.Width - p.TileWidth*col
	}
	if row+1 == p.Rows {
		h = p.Height - p.TileHeight*row
	}
	return w, h
}

// Padded returns the extent of the page including tile padding
func (p *Page) Padded() (int, int) {
	return p.Columns * p.TileWidth, p.Rows * p.TileHeight
}

// SameGeometry reports whether two pages share pixel extent, tile extent and
// tile grid
func (p *Page) SameGeometry(o *Page) bool {
	return p.Width == o.Width && p.Height == o.Height &&
		p.TileWidth == o.TileWidth && p.TileHeight == o.TileHeight &&
		p.Columns == o.Columns && p.Rows == o.Rows
}

func (p *Page) validate() error {
	if p.Compression != CompressionJPEG {
		return unsupported("compression %d", p.Compression)
	}
	if p.FillOrder != fillOrderMSB2LSB {
		return unsupported("fill order %d", p.FillOrder)
	}
	if p.Orientation != orientationTopLeft {
		return unsupported("orientation %d", p.Orientation)
	}
	if p.Width <= 0 || p.Height <= 0 || p.TileWidth <= 0 || p.TileHeight <= 0 {
		return unsupported("page %dx%d with tiles %dx%d", p.Width, p.Height, p.TileWidth, p.TileHeight)
	}
	if len(p.Offsets) != len(p.Counts) {
		return unsupported("%d tile offsets but %d byte counts", len(p.Offsets), len(p.Counts))
	}
	if len(p.Offsets) != p.Columns*p.Rows {
		return unsupported("%d tiles for a %dx%d grid", len(p.Offsets), p.Columns, p.Rows)
	}
	return nil
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
