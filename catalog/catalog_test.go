package catalog

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func open(t *testing.T) *Catalog {
	dir, err := ioutil.TempDir("", "catalog")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })

	c, err := Open(filepath.Join(dir, "dzextract.db"))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func slide(dest string, crc uint32) *Slide {
	return &Slide{
		Name:        "A",
		Source:      "/src",
		Destination: dest,
		Width:       512,
		Height:      512,
		Tiles:       5,
		MinLevel:    0,
		MaxLevel:    1,
		Policy:      "build-from-source",
		Channels: []Channel{
			{Slot: 0, Color: "Rhodamine", File: "/src/A-Rhodamine.tif", CRC: crc},
			{Slot: 2, Color: "DAPI", File: "/src/A-DAPI.tif", CRC: 0xdeadbeef},
		},
		Levels: []LevelStats{
			{Level: 0, Slot: 0, Max: 200, Mean: 12.5, StdDev: 3},
			{Level: 0, Slot: 2, Max: 180, Mean: 10, StdDev: 2},
		},
	}
}

func TestRecordAndSlides(t *testing.T) {
	c := open(t)

	id, err := c.Record(slide("/dst/a", 1))
	require.NoError(t, err)
	assert.NotZero(t, id)

	_, err = c.Record(slide("/dst/b", 2))
	require.NoError(t, err)

	slides, err := c.Slides()
	require.NoError(t, err)
	require.Len(t, slides, 2)

	s := slides[0]
	assert.Equal(t, id, s.ID)
	assert.Equal(t, "/dst/a", s.Destination)
	assert.Equal(t, 5, s.Tiles)
	assert.Equal(t, "build-from-source", s.Policy)
	require.Len(t, s.Channels, 2)
	assert.Equal(t, uint32(1), s.Channels[0].CRC)
	assert.Equal(t, uint32(0xdeadbeef), s.Channels[1].CRC)
	assert.Equal(t, "DAPI", s.Channels[1].Color)
	require.Len(t, s.Levels, 2)
	assert.Equal(t, 200, s.Levels[0].Max)
	assert.InDelta(t, 12.5, s.Levels[0].Mean, 1e-9)
}

func TestRecordReplaces(t *testing.T) {
	c := open(t)

	_, err := c.Record(slide("/dst/a", 1))
	require.NoError(t, err)
	s := slide("/dst/a", 7)
	s.Tiles = 21
	_, err = c.Record(s)
	require.NoError(t, err)

	slides, err := c.Slides()
	require.NoError(t, err)
	require.Len(t, slides, 1)
	assert.Equal(t, 21, slides[0].Tiles)
	assert.Len(t, slides[0].Channels, 2)
	assert.Len(t, slides[0].Levels, 2)
}

func TestCurrent(t *testing.T) {
	c := open(t)

	ok, err := c.Current("/dst/a", nil)
	require.NoError(t, err)
	assert.False(t, ok)

	s := slide("/dst/a", 1)
	_, err = c.Record(s)
	require.NoError(t, err)

	ok, err = c.Current("/dst/a", s.Channels)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.Current("/dst/a", slide("/dst/a", 2).Channels)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = c.Current("/dst/a", s.Channels[:1])
	require.NoError(t, err)
	assert.False(t, ok)
}
