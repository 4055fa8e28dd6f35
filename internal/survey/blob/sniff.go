package blob

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/webp"
)

var ErrUnsupportedImage = errors.New("unsupported image format")

var rasterTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
	"image/bmp":  true,
}

// SniffImage detects the content type of an upload and checks that its
// header decodes as one of the common raster formats. The pixels are never
// decoded.
func SniffImage(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty file", ErrUnsupportedImage)
	}
	mime := http.DetectContentType(data)
	if !rasterTypes[mime] {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedImage, mime)
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		if mime != "image/webp" {
			return "", fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
		}
		if _, err := webp.DecodeConfig(bytes.NewReader(data)); err != nil {
			return "", fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
		}
	}
	return mime, nil
}
