/*
Package tifftest builds small pyramidal tiled JPEG TIFF files for tests.

Tiles are encoded as 8-bit grayscale JPEG at maximum quality. The shared
quantization and Huffman tables are moved out of every tile into the
JPEGTables tag, the same way scanner software writes them.
*/
package tifftest

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image"
	"image/jpeg"
	"io/ioutil"
	"sort"
)

const (
	typeShort     = 3
	typeLong      = 4
	typeUndefined = 7
)

var errBadStream = errors.New("tifftest: malformed JPEG stream")

// Page describes one page of a generated file
type Page struct {
	Width, Height         int
	TileWidth, TileHeight int

	// Value returns the sample at x, y in page coordinates, padding beyond
	// the page extent is always zero. A nil Value fills the page with zero
	Value func(x, y int) uint8

	// Compression defaults to new-style JPEG when zero
	Compression uint16
	// FillOrder and Orientation are omitted from the page when zero
	FillOrder   uint16
	Orientation uint16

	// EmbedTables leaves the tables inside every tile and omits the
	// JPEGTables tag
	EmbedTables bool

	// Untiled writes the page as a single uncompressed strip
	Untiled bool
}

// Constant returns a Value function that yields v everywhere
func Constant(v uint8) func(int, int) uint8 {
	return func(int, int) uint8 { return v }
}

// TileValues returns a Value function that yields values[i] for every pixel
// of tile i on a grid of tiles sized tw by th with cols columns
func TileValues(tw, th, cols int, values ...uint8) func(int, int) uint8 {
	return func(x, y int) uint8 {
		return values[(y/th)*cols+x/tw]
	}
}

type entry struct {
	tag   uint16
	typ   uint16
	count uint32
	data  []byte
}

func shortEntry(tag uint16, v uint16) entry {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, v)
	return entry{tag, typeShort, 1, b}
}

func longEntry(tag uint16, v ...uint32) entry {
	b := make([]byte, 4*len(v))
	for i := range v {
		binary.LittleEndian.PutUint32(b[4*i:], v[i])
	}
	return entry{tag, typeLong, uint32(len(v)), b}
}

// EncodeGray encodes m as a complete JPEG stream
func EncodeGray(m *image.Gray) ([]byte, error) {
	var b bytes.Buffer
	if err := jpeg.Encode(&b, m, &jpeg.Options{Quality: 100}); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// Split separates a complete JPEG stream into a tables-only stream holding
// the quantization and Huffman tables, and an abbreviated stream holding
// everything else
func Split(b []byte) ([]byte, []byte, error) {
	if len(b) < 4 || b[0] != 0xff || b[1] != 0xd8 {
		return nil, nil, errBadStream
	}

	tables := []byte{0xff, 0xd8}
	tile := []byte{0xff, 0xd8}

	for i := 2; i+4 <= len(b); {
		if b[i] != 0xff {
			return nil, nil, errBadStream
		}
		n := int(b[i+2])<<8 | int(b[i+3])
		if i+2+n > len(b) {
			return nil, nil, errBadStream
		}
		switch b[i+1] {
		case 0xdb, 0xc4: // DQT, DHT
			tables = append(tables, b[i:i+2+n]...)
		case 0xda: // SOS, the entropy coded data follows
			tile = append(tile, b[i:]...)
			return append(tables, 0xff, 0xd9), tile, nil
		default:
			tile = append(tile, b[i:i+2+n]...)
		}
		i += 2 + n
	}

	return nil, nil, errBadStream
}

// RenderTile returns the padded tile i of page p
func RenderTile(p Page, i int) *image.Gray {
	cols := (p.Width + p.TileWidth - 1) / p.TileWidth
	ox, oy := (i%cols)*p.TileWidth, (i/cols)*p.TileHeight

	m := image.NewGray(image.Rect(0, 0, p.TileWidth, p.TileHeight))
	if p.Value == nil {
		return m
	}
	for y := 0; y < p.TileHeight; y++ {
		for x := 0; x < p.TileWidth; x++ {
			if ox+x < p.Width && oy+y < p.Height {
				m.Pix[y*m.Stride+x] = p.Value(ox+x, oy+y)
			}
		}
	}
	return m
}

type builder struct {
	b    []byte
	next int // position of the pointer to the next IFD
}

func (w *builder) align() {
	if len(w.b)%2 != 0 {
		w.b = append(w.b, 0)
	}
}

func (w *builder) page(p Page) error {
	if p.Untiled {
		return w.strip(p)
	}

	cols := (p.Width + p.TileWidth - 1) / p.TileWidth
	rows := (p.Height + p.TileHeight - 1) / p.TileHeight

	var (
		offsets, counts []uint32
		tables          []byte
	)
	for i := 0; i < cols*rows; i++ {
		full, err := EncodeGray(RenderTile(p, i))
		if err != nil {
			return err
		}
		tile := full
		if !p.EmbedTables {
			var t []byte
			if t, tile, err = Split(full); err != nil {
				return err
			}
			if tables == nil {
				tables = t
			}
		}
		offsets = append(offsets, uint32(len(w.b)))
		counts = append(counts, uint32(len(tile)))
		w.b = append(w.b, tile...)
	}

	compression := p.Compression
	if compression == 0 {
		compression = 7
	}

	entries := []entry{
		longEntry(256, uint32(p.Width)),
		longEntry(257, uint32(p.Height)),
		shortEntry(258, 8),
		shortEntry(259, compression),
		shortEntry(262, 1),
		shortEntry(277, 1),
		longEntry(322, uint32(p.TileWidth)),
		longEntry(323, uint32(p.TileHeight)),
		longEntry(324, offsets...),
		longEntry(325, counts...),
	}
	if p.FillOrder != 0 {
		entries = append(entries, shortEntry(266, p.FillOrder))
	}
	if p.Orientation != 0 {
		entries = append(entries, shortEntry(274, p.Orientation))
	}
	if tables != nil {
		entries = append(entries, entry{347, typeUndefined, uint32(len(tables)), tables})
	}

	w.ifd(entries)
	return nil
}

func (w *builder) strip(p Page) error {
	offset := uint32(len(w.b))
	w.b = append(w.b, make([]byte, p.Width*p.Height)...)

	w.ifd([]entry{
		longEntry(256, uint32(p.Width)),
		longEntry(257, uint32(p.Height)),
		shortEntry(258, 8),
		shortEntry(259, 1),
		shortEntry(262, 1),
		longEntry(273, offset),
		shortEntry(277, 1),
		longEntry(278, uint32(p.Height)),
		longEntry(279, uint32(p.Width*p.Height)),
	})
	return nil
}

func (w *builder) ifd(entries []entry) {
	sort.Slice(entries, func(i, j int) bool { return entries[i].tag < entries[j].tag })

	w.align()
	start := len(w.b)
	binary.LittleEndian.PutUint32(w.b[w.next:], uint32(start))

	overflow := start + 2 + 12*len(entries) + 4
	var extra []byte

	ifd := make([]byte, 2+12*len(entries)+4)
	binary.LittleEndian.PutUint16(ifd, uint16(len(entries)))
	for i, e := range entries {
		o := 2 + 12*i
		binary.LittleEndian.PutUint16(ifd[o:], e.tag)
		binary.LittleEndian.PutUint16(ifd[o+2:], e.typ)
		binary.LittleEndian.PutUint32(ifd[o+4:], e.count)
		if len(e.data) <= 4 {
			copy(ifd[o+8:], e.data)
			continue
		}
		binary.LittleEndian.PutUint32(ifd[o+8:], uint32(overflow+len(extra)))
		extra = append(extra, e.data...)
		if len(extra)%2 != 0 {
			extra = append(extra, 0)
		}
	}

	w.b = append(w.b, ifd...)
	w.next = start + 2 + 12*len(entries)
	w.b = append(w.b, extra...)
}

// Build returns a little-endian TIFF file holding pages in the given order
func Build(pages ...Page) ([]byte, error) {
	w := &builder{
		b:    []byte{'I', 'I', 42, 0, 0, 0, 0, 0},
		next: 4,
	}
	for _, p := range pages {
		if err := w.page(p); err != nil {
			return nil, err
		}
	}
	return w.b, nil
}

// WriteFile writes the file built from pages to name
func WriteFile(name string, pages ...Page) error {
	b, err := Build(pages...)
	if err != nil {
		return err
	}
	return ioutil.WriteFile(name, b, 0644)
}
