package config

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, s string) string {
	dir, err := ioutil.TempDir("", "config")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })

	file := filepath.Join(dir, "dzextract.yaml")
	require.NoError(t, ioutil.WriteFile(file, []byte(s), 0644))
	return file
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	tables := cfg.ColorTables()
	require.Len(t, tables, 3)
	assert.Contains(t, tables[0], "Rhodamine")
	assert.Contains(t, tables[1], "FITC")
	assert.Equal(t, []string{"DAPI"}, tables[2])
	assert.Equal(t, 4, cfg.Pyramid.SynthesizeMaxTiles)
}

func TestLoadConfigMissing(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	cfg, err = LoadConfig(filepath.Join(os.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig(t *testing.T) {
	file := writeConfig(t, `
tile:
  quality: 90
pyramid:
  synthesizeMaxTiles: 9
colors:
  blue: [DAPI, Hoechst]
`)

	cfg, err := LoadConfig(file)
	require.NoError(t, err)
	assert.Equal(t, 90, cfg.Tile.Quality)
	assert.Equal(t, "jpg", cfg.Tile.Format)
	assert.Equal(t, 9, cfg.Pyramid.SynthesizeMaxTiles)
	assert.Equal(t, []string{"DAPI", "Hoechst"}, cfg.Colors.Blue)
	assert.Equal(t, DefaultConfig().Colors.Red, cfg.Colors.Red)
}

func TestLoadConfigInvalid(t *testing.T) {
	for _, s := range []string{
		"tile:\n  quality: 0\n",
		"tile:\n  format: png\n",
		"pyramid:\n  synthesizeMaxTiles: 0\n",
		"colors:\n  red: []\n",
		"thumbnail:\n  colors: 1000\n",
		"tile: [",
	} {
		_, err := LoadConfig(writeConfig(t, s))
		assert.Error(t, err, s)
	}
}
