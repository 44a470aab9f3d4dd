package dzextract

import (
	"bytes"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/bodgit/dzextract/catalog"
	"github.com/bodgit/dzextract/dzi"
	"github.com/bodgit/dzextract/internal/tifftest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatch(t *testing.T) {
	root, dest := tempDir(t), tempDir(t)

	for _, dir := range []string{"s1", filepath.Join("nested", "s2"), "empty", "bad", ".hidden"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, dir), 0755))
	}
	writeChannel(t, filepath.Join(root, "s1"), "s1.tif", pyramid(128, 128, 64, 2, tifftest.Constant(80))...)
	writeChannel(t, filepath.Join(root, "nested", "s2"), "s2-DAPI.tif", pyramid(64, 64, 64, 1, tifftest.Constant(10))...)
	writeChannel(t, filepath.Join(root, "nested", "s2"), "s2-FITC.tif", pyramid(64, 64, 64, 1, tifftest.Constant(20))...)
	writeChannel(t, filepath.Join(root, "bad"), "bad.tif", tifftest.Page{Width: 64, Height: 64, TileWidth: 64, TileHeight: 64, Orientation: 3})
	writeChannel(t, filepath.Join(root, ".hidden"), "h.tif", pyramid(64, 64, 64, 1, nil)...)

	c, err := catalog.Open(filepath.Join(tempDir(t), "dzextract.db"))
	require.NoError(t, err)
	defer c.Close()

	var b bytes.Buffer
	e := New(nil, log.New(&b, "", 0), WithCatalog(c))
	require.NoError(t, e.Batch(root, dest, 2))

	props, err := dzi.ReadProperties(filepath.Join(dest, "s1"))
	require.NoError(t, err)
	assert.Equal(t, 5, props.NumTiles)

	props, err = dzi.ReadProperties(filepath.Join(dest, "nested", "s2"))
	require.NoError(t, err)
	assert.Equal(t, 1, props.NumTiles)
	assert.Equal(t, 0, props.MaxLevel)

	for _, dir := range []string{"bad", "empty", ".hidden"} {
		_, err = os.Stat(filepath.Join(dest, dir))
		assert.True(t, os.IsNotExist(err), dir)
	}
	assert.Contains(t, b.String(), "Skipping")

	slides, err := c.Slides()
	require.NoError(t, err)
	assert.Len(t, slides, 2)

	b.Reset()
	require.NoError(t, e.Batch(root, dest, 0))
	assert.Contains(t, b.String(), "is up to date")
	assert.NotContains(t, b.String(), "Wrote")

	slides, err = c.Slides()
	require.NoError(t, err)
	assert.Len(t, slides, 2)
}

func TestBatchMissingRoot(t *testing.T) {
	assert.Error(t, New(nil, nil).Batch(filepath.Join(tempDir(t), "missing"), tempDir(t), 1))
}
