package encode

import (
	"bytes"
	"fmt"
	"image"

	"github.com/gen2brain/webp"
)

// WebPEncoder encodes tiles as WebP through the pure-Go gen2brain/webp
// codec (wazero-backed, no CGo or system libwebp needed).
type WebPEncoder struct {
	Quality int
}

func newWebPEncoder(quality int) (Encoder, error) {
	if quality <= 0 {
		quality = 85
	}
	return &WebPEncoder{Quality: quality}, nil
}

func (e *WebPEncoder) Encode(img image.Image) ([]byte, error) {
	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, fmt.Errorf("webp: empty image")
	}
	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, webp.Options{Quality: float32(e.Quality)}); err != nil {
		return nil, fmt.Errorf("webp encode: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *WebPEncoder) Format() string        { return "webp" }
func (e *WebPEncoder) PMTileType() uint8     { return TileTypeWebP }
func (e *WebPEncoder) FileExtension() string { return ".webp" }

// DecodeWebP decodes WebP image bytes for the -x incremental-update path,
// which must read back a previously written tile before compositing.
func DecodeWebP(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("webp: empty data")
	}
	return webp.Decode(bytes.NewReader(data))
}
