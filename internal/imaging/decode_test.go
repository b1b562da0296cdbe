package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeTestPNG(t *testing.T) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 60), G: uint8(y * 60), B: 128, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDecodeAcceptsPNG(t *testing.T) {
	img, format, err := Decode(encodeTestPNG(t))
	require.NoError(t, err)

	assert.Equal(t, "png", format)
	assert.Equal(t, 4, img.Bounds().Dx())
}

func TestValidateRejectsGarbage(t *testing.T) {
	_, err := Validate([]byte("definitely not an image"))
	assert.Error(t, err)
}

func TestValidateRejectsEmptyInput(t *testing.T) {
	_, err := Validate(nil)
	assert.Error(t, err)
}
