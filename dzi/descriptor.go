package dzi

import (
	"encoding/xml"
	"io/ioutil"
	"path/filepath"
)

const (
	namespace = "http://schemas.microsoft.com/deepzoom/2008"
	overlap   = 1
	version   = "1.8"
)

type dziSize struct {
	Width  int `xml:"Width,attr"`
	Height int `xml:"Height,attr"`
}

type dziImage struct {
	XMLName  xml.Name `xml:"Image"`
	TileSize int      `xml:"TileSize,attr"`
	Overlap  int      `xml:"Overlap,attr"`
	Format   string   `xml:"Format,attr"`
	Xmlns    string   `xml:"xmlns,attr"`
	Size     dziSize  `xml:"Size"`
}

type imageProperties struct {
	XMLName   xml.Name `xml:"IMAGE_PROPERTIES"`
	Width     int      `xml:"WIDTH,attr"`
	Height    int      `xml:"HEIGHT,attr"`
	NumTiles  int      `xml:"NUMTILES,attr"`
	NumImages int      `xml:"NUMIMAGES,attr"`
	Version   string   `xml:"VERSION,attr"`
	TileSize  int      `xml:"TILESIZE,attr"`
	MinLevel  int      `xml:"MINLEVEL,attr"`
	MaxLevel  int      `xml:"MAXLEVEL,attr"`
	Data      string   `xml:"DATA,attr"`
}

func writeXML(file string, v interface{}) error {
	b, err := xml.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	b = append([]byte(xml.Header), b...)
	return ioutil.WriteFile(file, append(b, '\n'), 0644)
}

// WriteDescriptor writes the <name>.dzi descriptor into dir using the
// geometry of the finest level
func WriteDescriptor(dir, name string, finest Level) (string, error) {
	file := filepath.Join(dir, name+".dzi")
	return file, writeXML(file, dziImage{
		TileSize: finest.TileWidth,
		Overlap:  overlap,
		Format:   TileFormat,
		Xmlns:    namespace,
		Size: dziSize{
			Width:  finest.Width,
			Height: finest.Height,
		},
	})
}

// WriteProperties writes the properties manifest into dir. total is the
// number of tiles across all levels and lowest the lowest level present
func WriteProperties(dir string, finest Level, lowest, total int) (string, error) {
	file := filepath.Join(dir, PropertiesFilename)
	return file, writeXML(file, imageProperties{
		Width:     finest.Width,
		Height:    finest.Height,
		NumTiles:  total,
		NumImages: 1,
		Version:   version,
		TileSize:  finest.TileWidth,
		MinLevel:  lowest,
		MaxLevel:  finest.Zoom,
		Data:      dir,
	})
}

// Descriptor is the parsed form of a .dzi descriptor
type Descriptor struct {
	TileSize, Overlap int
	Format            string
	Width, Height     int
}

// Properties is the parsed form of the properties manifest
type Properties struct {
	Width, Height      int
	NumTiles           int
	TileSize           int
	MinLevel, MaxLevel int
	Data               string
}

// ReadDescriptor parses a .dzi descriptor
func ReadDescriptor(file string) (*Descriptor, error) {
	b, err := ioutil.ReadFile(file)
	if err != nil {
		return nil, err
	}
	var x dziImage
	if err := xml.Unmarshal(b, &x); err != nil {
		return nil, err
	}
	return &Descriptor{
		TileSize: x.TileSize,
		Overlap:  x.Overlap,
		Format:   x.Format,
		Width:    x.Size.Width,
		Height:   x.Size.Height,
	}, nil
}

// ReadProperties parses the properties manifest in dir
func ReadProperties(dir string) (*Properties, error) {
	b, err := ioutil.ReadFile(filepath.Join(dir, PropertiesFilename))
	if err != nil {
		return nil, err
	}
	var x imageProperties
	if err := xml.Unmarshal(b, &x); err != nil {
		return nil, err
	}
	return &Properties{
		Width:    x.Width,
		Height:   x.Height,
		NumTiles: x.NumTiles,
		TileSize: x.TileSize,
		MinLevel: x.MinLevel,
		MaxLevel: x.MaxLevel,
		Data:     x.Data,
	}, nil
}
