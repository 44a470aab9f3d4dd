/*
Package catalog records completed pyramid conversions in a SQLite database:
where each came from, the channel files and their checksums, the pyramid
extent and the per-level channel intensity statistics.
*/
package catalog

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Catalog is a conversion database
type Catalog struct {
	db *sql.DB
}

// Channel is one source file of a conversion
type Channel struct {
	Slot  int
	Color string
	File  string
	CRC   uint32
}

// LevelStats holds the scan statistics of one channel of one level
type LevelStats struct {
	Level  int
	Slot   int
	Max    int
	Mean   float64
	StdDev float64
}

// Slide is one completed conversion
type Slide struct {
	ID          int64
	Name        string
	Source      string
	Destination string
	Width       int
	Height      int
	Tiles       int
	MinLevel    int
	MaxLevel    int
	Policy      string
	Channels    []Channel
	Levels      []LevelStats
}

// Open opens, creating if necessary, the catalog in file
func Open(file string) (*Catalog, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_foreign_keys=on", file))
	if err != nil {
		return nil, err
	}
	// Batch workers share the catalog, serialise writers
	db.SetMaxOpenConns(1)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS slide (id INTEGER PRIMARY KEY NOT NULL, name TEXT NOT NULL, source TEXT NOT NULL, destination TEXT NOT NULL UNIQUE, width INTEGER NOT NULL, height INTEGER NOT NULL, tiles INTEGER NOT NULL, min_level INTEGER NOT NULL, max_level INTEGER NOT NULL, policy TEXT NOT NULL)"); err != nil {
		db.Close()
		return nil, err
	}

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS channel (slide_id INTEGER NOT NULL, slot INTEGER NOT NULL, color TEXT NOT NULL, file TEXT NOT NULL, crc TEXT NOT NULL, FOREIGN KEY(slide_id) REFERENCES slide(id) ON DELETE CASCADE)"); err != nil {
		db.Close()
		return nil, err
	}

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS level_stats (slide_id INTEGER NOT NULL, level INTEGER NOT NULL, slot INTEGER NOT NULL, max INTEGER NOT NULL, mean REAL NOT NULL, stddev REAL NOT NULL, FOREIGN KEY(slide_id) REFERENCES slide(id) ON DELETE CASCADE)"); err != nil {
		db.Close()
		return nil, err
	}

	return &Catalog{
		db: db,
	}, nil
}

// Close closes the catalog
func (c *Catalog) Close() error {
	return c.db.Close()
}

func crcString(crc uint32) string {
	return fmt.Sprintf("%08X", crc)
}

// Record stores s, replacing any earlier conversion into the same
// destination, and returns its id
func (c *Catalog) Record(s *Slide) (int64, error) {
	tx, err := c.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err = tx.Exec("DELETE FROM slide WHERE destination = ?", s.Destination); err != nil {
		return 0, err
	}

	result, err := tx.Exec("INSERT INTO slide (name, source, destination, width, height, tiles, min_level, max_level, policy) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)", s.Name, s.Source, s.Destination, s.Width, s.Height, s.Tiles, s.MinLevel, s.MaxLevel, s.Policy)
	if err != nil {
		return 0, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}

	for _, ch := range s.Channels {
		if _, err = tx.Exec("INSERT INTO channel (slide_id, slot, color, file, crc) VALUES (?, ?, ?, ?, ?)", id, ch.Slot, ch.Color, ch.File, crcString(ch.CRC)); err != nil {
			return 0, err
		}
	}

	for _, l := range s.Levels {
		if _, err = tx.Exec("INSERT INTO level_stats (slide_id, level, slot, max, mean, stddev) VALUES (?, ?, ?, ?, ?, ?)", id, l.Level, l.Slot, l.Max, l.Mean, l.StdDev); err != nil {
			return 0, err
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	s.ID = id

	return id, nil
}

// Current reports whether the conversion recorded for destination was made
// from exactly the given channel files with the same checksums
func (c *Catalog) Current(destination string, channels []Channel) (bool, error) {
	var id int64
	switch err := c.db.QueryRow("SELECT id FROM slide WHERE destination = ?", destination).Scan(&id); err {
	case sql.ErrNoRows:
		return false, nil
	case nil:
	default:
		return false, err
	}

	recorded, err := c.channels(id)
	if err != nil {
		return false, err
	}
	if len(recorded) != len(channels) {
		return false, nil
	}

	want := make(map[string]uint32, len(channels))
	for _, ch := range channels {
		want[ch.File] = ch.CRC
	}
	for _, ch := range recorded {
		if crc, ok := want[ch.File]; !ok || crc != ch.CRC {
			return false, nil
		}
	}

	return true, nil
}

func (c *Catalog) channels(id int64) ([]Channel, error) {
	rows, err := c.db.Query("SELECT slot, color, file, crc FROM channel WHERE slide_id = ? ORDER BY slot", id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var channels []Channel
	for rows.Next() {
		var ch Channel
		var crc string
		if err := rows.Scan(&ch.Slot, &ch.Color, &ch.File, &crc); err != nil {
			return nil, err
		}
		if _, err := fmt.Sscanf(crc, "%X", &ch.CRC); err != nil {
			return nil, err
		}
		channels = append(channels, ch)
	}

	return channels, rows.Err()
}

func (c *Catalog) levels(id int64) ([]LevelStats, error) {
	rows, err := c.db.Query("SELECT level, slot, max, mean, stddev FROM level_stats WHERE slide_id = ? ORDER BY level, slot", id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var levels []LevelStats
	for rows.Next() {
		var l LevelStats
		if err := rows.Scan(&l.Level, &l.Slot, &l.Max, &l.Mean, &l.StdDev); err != nil {
			return nil, err
		}
		levels = append(levels, l)
	}

	return levels, rows.Err()
}

// Slides returns every recorded conversion ordered by destination
func (c *Catalog) Slides() ([]Slide, error) {
	rows, err := c.db.Query("SELECT id, name, source, destination, width, height, tiles, min_level, max_level, policy FROM slide ORDER BY destination")
	if err != nil {
		return nil, err
	}

	var slides []Slide
	for rows.Next() {
		var s Slide
		if err := rows.Scan(&s.ID, &s.Name, &s.Source, &s.Destination, &s.Width, &s.Height, &s.Tiles, &s.MinLevel, &s.MaxLevel, &s.Policy); err != nil {
			rows.Close()
			return nil, err
		}
		slides = append(slides, s)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	// Only one connection is available so the outer query must be closed
	// before the detail queries run
	for i := range slides {
		if slides[i].Channels, err = c.channels(slides[i].ID); err != nil {
			return nil, err
		}
		if slides[i].Levels, err = c.levels(slides[i].ID); err != nil {
			return nil, err
		}
	}

	return slides, nil
}
