package encode

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
)

// DecodeImage decodes image bytes in the specified format back to an
// image.Image, used by the incremental-render path to read back a tile
// written by a previous run before compositing new content into it.
func DecodeImage(data []byte, format string) (image.Image, error) {
	r := bytes.NewReader(data)
	switch format {
	case "png", "":
		return png.Decode(r)
	case "jpeg", "jpg":
		return jpeg.Decode(r)
	case "webp":
		return DecodeWebP(data)
	default:
		return nil, fmt.Errorf("unsupported decode format: %q", format)
	}
}
