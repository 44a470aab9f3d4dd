package thumbnail

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gradient(w, h int) *image.NRGBA {
	m := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			m.SetNRGBA(x, y, color.NRGBA{uint8(x), uint8(y), uint8(x ^ y), 0xff})
		}
	}
	return m
}

func TestEncode(t *testing.T) {
	var b bytes.Buffer
	require.NoError(t, Encode(&b, gradient(64, 32), 16))

	m, err := png.Decode(&b)
	require.NoError(t, err)

	pm, ok := m.(*image.Paletted)
	require.True(t, ok)
	assert.True(t, len(pm.Palette) <= 16)
	assert.Equal(t, image.Rect(0, 0, 64, 32), pm.Bounds())
}

func TestEncodeSubImage(t *testing.T) {
	sub := gradient(64, 64).SubImage(image.Rect(10, 20, 30, 60))

	var b bytes.Buffer
	require.NoError(t, Encode(&b, sub, 8))

	m, err := png.Decode(&b)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 20, 40), m.Bounds())
}

func TestEncodeBadColors(t *testing.T) {
	var b bytes.Buffer
	assert.Equal(t, errNoColors, Encode(&b, gradient(4, 4), 1))
	assert.Equal(t, errNoColors, Encode(&b, gradient(4, 4), 257))
}

func TestWrite(t *testing.T) {
	dir, err := ioutil.TempDir("", "thumbnail")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	file := filepath.Join(dir, Filename)
	require.NoError(t, Write(file, gradient(400, 200), 100, 64))

	f, err := os.Open(file)
	require.NoError(t, err)
	defer f.Close()

	cfg, err := png.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Width)
	assert.Equal(t, 50, cfg.Height)
}
