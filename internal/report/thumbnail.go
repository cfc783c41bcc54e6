package report

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/nfnt/resize"
)

// MaxThumbWidth bounds embedded screenshots.
const MaxThumbWidth = 480

// Thumbnail reads the PNG at path, scales it down to maxWidth keeping the
// aspect ratio, and returns it base64 encoded. Narrower images are
// re-encoded unscaled.
func Thumbnail(path string, maxWidth uint) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to decode screenshot %s: %w", path, err)
	}

	var out bytes.Buffer
	if err := png.Encode(&out, scale(img, maxWidth)); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(out.Bytes()), nil
}

func scale(img image.Image, maxWidth uint) image.Image {
	bounds := img.Bounds()
	if maxWidth == 0 || uint(bounds.Dx()) <= maxWidth {
		return img
	}
	aspectRatio := float64(bounds.Dy()) / float64(bounds.Dx())
	height := uint(float64(maxWidth) * aspectRatio)
	if height == 0 {
		height = 1
	}
	return resize.Resize(maxWidth, height, img, resize.Lanczos3)
}
