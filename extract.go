package dzextract

import (
	"fmt"
	"image"
	"path/filepath"

	"github.com/bodgit/dzextract/catalog"
	"github.com/bodgit/dzextract/container"
	"github.com/bodgit/dzextract/dzi"
	"github.com/bodgit/dzextract/raster"
	"github.com/bodgit/dzextract/thumbnail"
	"github.com/disintegration/imaging"
	"github.com/schollz/progressbar/v3"
)

// Result describes a completed conversion
type Result struct {
	Stack  *Stack
	Dest   string
	Policy dzi.Policy
	// Levels holds one record per written source level, coarsest first
	Levels []dzi.Level
	// Stats holds the scan statistics per written source level, indexed
	// like Stack.Channels
	Stats      [][]raster.Stats
	Tiles      int
	MinLevel   int
	MaxLevel   int
	Descriptor string
	Properties string
	Thumbnail  string
}

// traversal is the state carried across every level of one conversion
type traversal struct {
	stack  *Stack
	files  []*container.File
	writer *dzi.Writer
	zoom   int
	levels []dzi.Level
	stats  [][]raster.Stats
	bar    *progressbar.ProgressBar
}

func geometry(p *container.Page) dzi.Geometry {
	return dzi.Geometry{
		Width:      p.Width,
		Height:     p.Height,
		TileWidth:  p.TileWidth,
		TileHeight: p.TileHeight,
		Columns:    p.Columns,
		Rows:       p.Rows,
	}
}

func openChannels(stack *Stack) ([]*container.File, error) {
	files := make([]*container.File, 0, len(stack.Channels))
	for _, ch := range stack.Channels {
		f, err := container.Open(ch.Path)
		if err != nil {
			closeAll(files)
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

func closeAll(files []*container.File) {
	for _, f := range files {
		f.Close()
	}
}

// checkChannels enforces that every channel shares the same pyramid and
// that each page halves the one after it
func checkChannels(stack *Stack, files []*container.File) error {
	ref := files[0]
	for c, f := range files[1:] {
		if len(f.Pages) != len(ref.Pages) {
			return fmt.Errorf("%w: %s has %d pages, %s has %d", container.ErrUnsupported, stack.Channels[c+1].Path, len(f.Pages), stack.Channels[0].Path, len(ref.Pages))
		}
	}

	for i, p := range ref.Pages {
		for c, f := range files[1:] {
			if !p.SameGeometry(f.Pages[i]) {
				return fmt.Errorf("%w: page %d of %s differs from %s", container.ErrUnsupported, i, stack.Channels[c+1].Path, stack.Channels[0].Path)
			}
		}
		if i == 0 {
			continue
		}
		prev := ref.Pages[i-1]
		if prev.TileWidth != p.TileWidth || prev.TileHeight != p.TileHeight {
			return fmt.Errorf("%w: tile size changes at page %d", container.ErrUnsupported, i)
		}
		if prev.Width != p.Width/2 || prev.Height != p.Height/2 {
			return fmt.Errorf("%w: page %d is not half of page %d", container.ErrUnsupported, i-1, i)
		}
	}

	return nil
}

func decodeTile(f *container.File, p *container.Page, i int) (*image.Gray, error) {
	b, err := f.ReadTile(p, i)
	if err != nil {
		return nil, err
	}
	m, err := raster.Decode(b)
	if err != nil {
		return nil, fmt.Errorf("tile %d: %w", i, err)
	}
	return m, nil
}

// scan decodes every tile of page pageno once per channel
func (e *Extractor) scan(t *traversal, pageno int) ([]raster.Stats, error) {
	stats := make([]raster.Stats, len(t.files))
	for c, f := range t.files {
		p := f.Pages[pageno]
		var s raster.Scanner
		for i := 0; i < p.Tiles(); i++ {
			m, err := decodeTile(f, p, i)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", t.stack.Channels[c].Path, err)
			}
			s.Add(m)
		}
		stats[c] = s.Stats()
		e.logger.Printf("Level %d channel %d: max %d, mean %.2f, stddev %.2f\n", t.zoom, t.stack.Channels[c].Slot, stats[c].Max, stats[c].Mean, stats[c].StdDev)
	}
	return stats, nil
}

func (e *Extractor) extractLevel(t *traversal, pageno int) error {
	stats, err := e.scan(t, pageno)
	if err != nil {
		return err
	}

	page := t.files[0].Pages[pageno]
	e.logger.Printf("Level %d: %dx%d, %dx%d tiles\n", t.zoom, page.Width, page.Height, page.Columns, page.Rows)

	slots := make([]*image.Gray, t.stack.Slots())
	for i := 0; i < page.Tiles(); i++ {
		col, row := page.Position(i)

		for c, f := range t.files {
			m, err := decodeTile(f, f.Pages[pageno], i)
			if err != nil {
				return fmt.Errorf("%s: %w", t.stack.Channels[c].Path, err)
			}
			slots[t.stack.Channels[c].Slot] = raster.Normalize(m, stats[c].Max)
		}

		composite, err := raster.Composite(slots)
		if err != nil {
			return err
		}

		w, h := page.TileSize(col, row)
		if _, err := t.writer.WriteTile(t.zoom, col, row, composite, w, h); err != nil {
			return err
		}

		if t.bar != nil {
			t.bar.Add(1)
		}
	}

	t.levels = append(t.levels, dzi.NewLevel(t.zoom, geometry(page), t.writer.Count()))
	t.stats = append(t.stats, stats)
	t.zoom++

	return nil
}

// Extract discovers the channel files in src and converts them into a
// pyramid in dst
func (e *Extractor) Extract(src, dst string) (*Result, error) {
	stack, err := Discover(src, e.cfg.ColorTables())
	if err != nil {
		return nil, err
	}
	return e.ExtractStack(stack, dst)
}

// ExtractStack converts stack into a pyramid in dst
func (e *Extractor) ExtractStack(stack *Stack, dst string) (*Result, error) {
	for _, ch := range stack.Channels {
		e.logger.Printf("Using \"%s\" for slot %d\n", ch.Path, ch.Slot)
	}

	files, err := openChannels(stack)
	if err != nil {
		return nil, err
	}
	defer closeAll(files)

	if err := checkChannels(stack, files); err != nil {
		return nil, err
	}

	coarsest := files[0].Pages[0]
	policy := dzi.DecidePolicy(coarsest.Tiles(), e.cfg.Pyramid.SynthesizeMaxTiles)
	e.logger.Printf("Coarsest level has %d tiles, level 0 policy %s\n", coarsest.Tiles(), policy)

	t := &traversal{
		stack:  stack,
		files:  files,
		writer: dzi.NewWriter(dst, e.cfg.Tile.Quality),
		zoom:   policy.FirstLevel(),
	}

	if e.progress != nil {
		total := 0
		for _, p := range files[0].Pages {
			total += p.Tiles()
		}
		t.bar = progressbar.NewOptions(total, progressbar.OptionSetWriter(e.progress), progressbar.OptionSetDescription(stack.Name))
		defer t.bar.Finish()
	}

	for pageno := range files[0].Pages {
		if err := e.extractLevel(t, pageno); err != nil {
			return nil, err
		}
	}

	if err := t.writer.Synthesize(policy, geometry(coarsest)); err != nil {
		return nil, fmt.Errorf("level 0: %w", err)
	}
	if policy == dzi.SynthesizeFromTier1 {
		e.logger.Printf("Synthesized level 0 from %d tiles of level 1\n", coarsest.Tiles())
	}

	finest := t.levels[len(t.levels)-1]
	result := &Result{
		Stack:    stack,
		Dest:     dst,
		Policy:   policy,
		Levels:   t.levels,
		Stats:    t.stats,
		Tiles:    t.writer.Count(),
		MinLevel: policy.LowestLevel(),
		MaxLevel: finest.Zoom,
	}

	if result.Descriptor, err = dzi.WriteDescriptor(dst, stack.Name, finest); err != nil {
		return nil, err
	}
	if result.Properties, err = dzi.WriteProperties(dst, finest, result.MinLevel, result.Tiles); err != nil {
		return nil, err
	}
	e.logger.Printf("Wrote %d tiles, levels %d-%d, to \"%s\"\n", result.Tiles, result.MinLevel, result.MaxLevel, dst)

	if e.thumbnail {
		if result.Thumbnail, err = e.writeThumbnail(t, policy); err != nil {
			return nil, err
		}
	}

	if e.catalog != nil {
		if err := e.record(result); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// writeThumbnail renders the single level 0 tile. Without a level 0 the
// thumbnail would need the whole of level 1, so none is written
func (e *Extractor) writeThumbnail(t *traversal, policy dzi.Policy) (string, error) {
	if policy == dzi.SkipEntirely {
		e.logger.Printf("No level 0, not writing a thumbnail\n")
		return "", nil
	}

	m, err := imaging.Open(t.writer.Path(0, 0, 0))
	if err != nil {
		return "", err
	}

	file := filepath.Join(t.writer.Dir, thumbnail.Filename)
	if err := thumbnail.Write(file, m, e.cfg.Thumbnail.Size, e.cfg.Thumbnail.Colors); err != nil {
		return "", err
	}
	return file, nil
}

func (e *Extractor) record(result *Result) error {
	channels, err := Fingerprint(result.Stack)
	if err != nil {
		return err
	}

	slide := &catalog.Slide{
		Name:        result.Stack.Name,
		Source:      result.Stack.Source,
		Destination: result.Dest,
		Width:       result.Levels[len(result.Levels)-1].Width,
		Height:      result.Levels[len(result.Levels)-1].Height,
		Tiles:       result.Tiles,
		MinLevel:    result.MinLevel,
		MaxLevel:    result.MaxLevel,
		Policy:      result.Policy.String(),
		Channels:    channels,
	}
	for i, stats := range result.Stats {
		for c, s := range stats {
			slide.Levels = append(slide.Levels, catalog.LevelStats{
				Level:  result.Levels[i].Zoom,
				Slot:   result.Stack.Channels[c].Slot,
				Max:    int(s.Max),
				Mean:   s.Mean,
				StdDev: s.StdDev,
			})
		}
	}

	_, err = e.catalog.Record(slide)
	return err
}
