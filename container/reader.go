package container

import (
	"fmt"
	"io"
	"os"

	"github.com/google/tiff"
	_ "github.com/google/tiff/bigtiff" // register BigTIFF support
)

// ifd holds the subset of TIFF tags the reader needs
type ifd struct {
	ImageWidth      uint64   `tiff:"field,tag=256"`
	ImageLength     uint64   `tiff:"field,tag=257"`
	Compression     uint16   `tiff:"field,tag=259"`
	FillOrder       uint16   `tiff:"field,tag=266"`
	Orientation     uint16   `tiff:"field,tag=274"`
	SamplesPerPixel uint16   `tiff:"field,tag=277"`
	TileWidth       uint64   `tiff:"field,tag=322"`
	TileLength      uint64   `tiff:"field,tag=323"`
	TileOffsets     []uint64 `tiff:"field,tag=324"`
	TileByteCounts  []uint64 `tiff:"field,tag=325"`
	JPEGTables      []byte   `tiff:"field,tag=347"`
}

// File is an open container
type File struct {
	r     io.ReaderAt
	c     io.Closer
	Pages []*Page
}

// Open opens the named container and parses every tiled page
func Open(name string) (*File, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}

	file, err := NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	file.c = f

	return file, nil
}

// NewReader parses the container read from r. Pages that are not tiled,
// such as thumbnails, are skipped
func NewReader(r tiff.ReadAtReadSeeker) (*File, error) {
	tif, err := tiff.Parse(r, nil, nil)
	if err != nil {
		return nil, err
	}

	var pages []*Page
	for i, tifd := range tif.IFDs() {
		var fields ifd
		if err := tiff.UnmarshalIFD(tifd, &fields); err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		if fields.TileWidth == 0 || fields.TileLength == 0 {
			continue
		}
		p, err := newPage(&fields)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		pages = append(pages, p)
	}

	if len(pages) == 0 {
		return nil, errNoPages
	}

	// Coarsest first
	for i, j := 0, len(pages)-1; i < j; i, j = i+1, j-1 {
		pages[i], pages[j] = pages[j], pages[i]
	}

	return &File{
		r:     r,
		Pages: pages,
	}, nil
}

func newPage(fields *ifd) (*Page, error) {
	if fields.SamplesPerPixel > 1 {
		return nil, unsupported("%d samples per pixel", fields.SamplesPerPixel)
	}

	p := &Page{
		Width:       int(fields.ImageWidth),
		Height:      int(fields.ImageLength),
		TileWidth:   int(fields.TileWidth),
		TileHeight:  int(fields.TileLength),
		Offsets:     fields.TileOffsets,
		Counts:      fields.TileByteCounts,
		Compression: fields.Compression,
		FillOrder:   fields.FillOrder,
		Orientation: fields.Orientation,
	}

	// Both tags default to 1 when absent
	if p.FillOrder == 0 {
		p.FillOrder = fillOrderMSB2LSB
	}
	if p.Orientation == 0 {
		p.Orientation = orientationTopLeft
	}

	if p.TileWidth > 0 && p.TileHeight > 0 {
		p.Columns = ceilDiv(p.Width, p.TileWidth)
		p.Rows = ceilDiv(p.Height, p.TileHeight)
	}

	// Trim the start and end of image markers, the tables are spliced into
	// each tile after its own start of image marker
	if len(fields.JPEGTables) >= 4 {
		p.Tables = fields.JPEGTables[2 : len(fields.JPEGTables)-2]
	}

	if err := p.validate(); err != nil {
		return nil, err
	}

	return p, nil
}

// ReadRaw returns the stored bytes of tile i of page p
func (f *File) ReadRaw(p *Page, i int) ([]byte, error) {
	if i < 0 || i >= p.Tiles() {
		return nil, errBadTileIdx
	}
	b := make([]byte, p.Counts[i])
	if n, err := f.r.ReadAt(b, int64(p.Offsets[i])); err != nil && n != len(b) {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("tile %d: %w", i, err)
	}
	return b, nil
}

// ReadTile returns tile i of page p as a standalone JPEG stream
func (f *File) ReadTile(p *Page, i int) ([]byte, error) {
	b, err := f.ReadRaw(p, i)
	if err != nil {
		return nil, err
	}
	return Assemble(p.Tables, b), nil
}

// Close closes the underlying file, if any
func (f *File) Close() error {
	if f.c == nil {
		return nil
	}
	return f.c.Close()
}
