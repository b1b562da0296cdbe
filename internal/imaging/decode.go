// Package imaging validates uploaded byte streams as decodable images before
// any model work happens.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// Decode parses the uploaded bytes and returns the decoded image with its
// format name. An error here means the client sent something that is not an
// image at all; it must be rejected before reaching the embedding model.
func Decode(data []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, "", fmt.Errorf("decode image: empty %dx%d bitmap", bounds.Dx(), bounds.Dy())
	}
	return img, format, nil
}

// Validate is Decode without keeping the pixels, for callers that only need
// the go/no-go answer.
func Validate(data []byte) (string, error) {
	_, format, err := Decode(data)
	return format, err
}
