/*
Package dzextract converts per-channel pyramidal tiled JPEG TIFF files into a
Deep Zoom tile pyramid, merging co-registered fluorescence channels into one
colour composite tile per position.
*/
package dzextract

import (
	"io"
	"io/ioutil"
	"log"

	"github.com/bodgit/dzextract/catalog"
	"github.com/bodgit/dzextract/config"
)

// Extractor converts channel stacks into tile pyramids
type Extractor struct {
	cfg       *config.Config
	logger    *log.Logger
	catalog   *catalog.Catalog
	progress  io.Writer
	thumbnail bool
}

// Option configures an Extractor
type Option func(*Extractor)

// WithCatalog records every conversion in c
func WithCatalog(c *catalog.Catalog) Option {
	return func(e *Extractor) {
		e.catalog = c
	}
}

// WithProgress draws a progress bar over every tile of a conversion to w
func WithProgress(w io.Writer) Option {
	return func(e *Extractor) {
		e.progress = w
	}
}

// WithThumbnail writes a thumbnail of the lowest level alongside the pyramid
func WithThumbnail() Option {
	return func(e *Extractor) {
		e.thumbnail = true
	}
}

// New returns an Extractor using cfg, a nil cfg uses the defaults
func New(cfg *config.Config, logger *log.Logger, options ...Option) *Extractor {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = log.New(ioutil.Discard, "", 0)
	}
	e := &Extractor{
		cfg:    cfg,
		logger: logger,
	}
	for _, o := range options {
		o(e)
	}
	return e
}
