package dzextract

import (
	"errors"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/bodgit/dzextract/config"
	"github.com/bodgit/dzextract/container"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempDir(t *testing.T) string {
	dir, err := ioutil.TempDir("", "dzextract")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return dir
}

func touch(t *testing.T, dir string, names ...string) {
	for _, name := range names {
		require.NoError(t, ioutil.WriteFile(filepath.Join(dir, name), nil, 0644))
	}
}

func slots(s *Stack) map[int]string {
	m := make(map[int]string)
	for _, ch := range s.Channels {
		m[ch.Slot] = filepath.Base(ch.Path)
	}
	return m
}

func TestDiscoverColors(t *testing.T) {
	dir := tempDir(t)
	touch(t, dir, "A-DAPI.tif", "A-FITC.tif", "A-Rhodamine.tif", "notes.txt", ".A-DAPI.tif")

	stack, err := Discover(dir, config.DefaultConfig().ColorTables())
	require.NoError(t, err)

	assert.Equal(t, "A", stack.Name)
	assert.Equal(t, dir, stack.Source)
	assert.Equal(t, map[int]string{0: "A-Rhodamine.tif", 1: "A-FITC.tif", 2: "A-DAPI.tif"}, slots(stack))
	assert.Equal(t, 3, stack.Slots())
	assert.Equal(t, "Rhodamine", stack.Channels[0].Color)
}

func TestDiscoverSparse(t *testing.T) {
	dir := tempDir(t)
	touch(t, dir, "slide-DAPI.tiff")

	stack, err := Discover(dir, config.DefaultConfig().ColorTables())
	require.NoError(t, err)

	assert.Equal(t, "slide", stack.Name)
	assert.Equal(t, map[int]string{2: "slide-DAPI.tiff"}, slots(stack))
	assert.Equal(t, 3, stack.Slots())
}

func TestDiscoverAmbiguousColor(t *testing.T) {
	dir := tempDir(t)
	touch(t, dir, "A-Rhodamine.tif", "B-Rhodamine.tif", "A-RFP.tif", "A-DAPI.tif")

	stack, err := Discover(dir, config.DefaultConfig().ColorTables())
	require.NoError(t, err)

	assert.Equal(t, map[int]string{0: "A-RFP.tif", 2: "A-DAPI.tif"}, slots(stack))
	assert.Equal(t, "A", stack.Name)
}

func TestDiscoverZStack(t *testing.T) {
	dir := tempDir(t)
	touch(t, dir,
		"A-DAPI-Z1.tif", "A-DAPI-Z2.tif", "A-DAPI-Z3.tif",
		"A-FITC-Z1.tif", "A-FITC-Z2.tif", "A-FITC-Z3.tif",
	)

	stack, err := Discover(dir, config.DefaultConfig().ColorTables())
	require.NoError(t, err)

	assert.Equal(t, "A", stack.Name)
	assert.Equal(t, map[int]string{1: "A-FITC-Z2.tif", 2: "A-DAPI-Z2.tif"}, slots(stack))
}

func TestDiscoverZStackUnknownColor(t *testing.T) {
	dir := tempDir(t)
	touch(t, dir, "A-DAPI-Z1.tif", "A-Cy5-Z1.tif")

	_, err := Discover(dir, config.DefaultConfig().ColorTables())
	assert.True(t, errors.Is(err, container.ErrUnsupported))
}

func TestDiscoverFallback(t *testing.T) {
	dir := tempDir(t)
	touch(t, dir, "y.tif", "x.tif")

	stack, err := Discover(dir, config.DefaultConfig().ColorTables())
	require.NoError(t, err)

	assert.Equal(t, "x", stack.Name)
	assert.Equal(t, map[int]string{0: "x.tif", 1: "y.tif"}, slots(stack))
	assert.Empty(t, stack.Channels[0].Color)
}

func TestDiscoverTooManyChannels(t *testing.T) {
	dir := tempDir(t)
	touch(t, dir, "a.tif", "b.tif", "c.tif", "d.tif")

	_, err := Discover(dir, config.DefaultConfig().ColorTables())
	assert.True(t, errors.Is(err, container.ErrUnsupported))
}

func TestDiscoverNothingToDo(t *testing.T) {
	dir := tempDir(t)
	touch(t, dir, "readme.txt")

	_, err := Discover(dir, config.DefaultConfig().ColorTables())
	assert.Equal(t, ErrNothingToDo, err)

	_, err = Discover(filepath.Join(dir, "readme.txt"), nil)
	assert.Error(t, err)
}
