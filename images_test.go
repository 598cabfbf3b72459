package opinions

import (
	"bytes"
	"image/jpeg"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessImageResizesWideImages(t *testing.T) {
	img, data, err := processImage(bytes.NewReader(testPNG(t, 1600, 900)), "Wide Shot.PNG")
	require.NoError(t, err)

	assert.Equal(t, "wide-shot.jpg", img.Filename)
	assert.Equal(t, "Wide Shot.PNG", img.OriginalName)
	assert.Equal(t, 800, img.Width)
	assert.Equal(t, 450, img.Height)
	assert.Equal(t, len(data), img.Size)
	assert.False(t, img.UploadedAt.IsZero())

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 800, cfg.Width)
	assert.Equal(t, 450, cfg.Height)
}

func TestProcessImageKeepsSmallImages(t *testing.T) {
	img, _, err := processImage(bytes.NewReader(testPNG(t, 320, 200)), "small.png")
	require.NoError(t, err)
	assert.Equal(t, 320, img.Width)
	assert.Equal(t, 200, img.Height)
}

func TestProcessImageRejectsGarbage(t *testing.T) {
	_, _, err := processImage(strings.NewReader("definitely not an image"), "x.png")
	assert.ErrorContains(t, err, "decode image")
}

func TestProcessImageFallbackName(t *testing.T) {
	img, _, err := processImage(bytes.NewReader(testPNG(t, 10, 10)), "???.png")
	require.NoError(t, err)
	assert.Equal(t, "image.jpg", img.Filename)
}
