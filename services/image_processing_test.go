package services

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testPhoto draws a dark square centered on a near-white canvas, the shape of
// a typical catalog shot against a bright background.
func testPhoto(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.White)
		}
	}
	for y := height/2 - 8; y < height/2+8; y++ {
		for x := width/2 - 8; x < width/2+8; x++ {
			img.Set(x, y, color.Black)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestWhitenBackgroundSmooth(t *testing.T) {
	processed, err := WhitenBackgroundSmooth(testPhoto(t, 64, 64), 240, 4.0)
	require.NoError(t, err)

	img, _, err := image.Decode(bytes.NewReader(processed))
	require.NoError(t, err)

	r, g, b, _ := img.At(0, 0).RGBA()
	assert.Equal(t, uint32(65535), r, "background corner should come out pure white")
	assert.Equal(t, uint32(65535), g)
	assert.Equal(t, uint32(65535), b)

	r, _, _, _ = img.At(32, 32).RGBA()
	assert.Less(t, r, uint32(32768), "subject center should stay dark")
}

func TestPrepareCatalogImageBoundsLongSide(t *testing.T) {
	processed, err := PrepareCatalogImage(testPhoto(t, 1400, 700))
	require.NoError(t, err)

	img, _, err := image.Decode(bytes.NewReader(processed))
	require.NoError(t, err)
	assert.Equal(t, 1024, img.Bounds().Dx())
	assert.Equal(t, 512, img.Bounds().Dy())

	r, g, b, _ := img.At(0, 0).RGBA()
	assert.Equal(t, uint32(65535), r)
	assert.Equal(t, uint32(65535), g)
	assert.Equal(t, uint32(65535), b)
}

func TestPrepareCatalogImageBadInput(t *testing.T) {
	_, err := PrepareCatalogImage([]byte("not an image"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode image")
}
