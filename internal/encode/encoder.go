// Package encode implements the pluggable tile-image encoders (PNG, JPEG,
// WebP) that NewEncoder selects by format name; an empty name selects PNG.
package encode

import (
	"fmt"
	"image"
)

// TileType constants matching the PMTiles v3 spec, as returned by each
// encoder's PMTileType.
const (
	TileTypeUnknown = 0
	TileTypeMVT     = 1
	TileTypePNG     = 2
	TileTypeJPEG    = 3
	TileTypeWebP    = 4
)

// Encoder encodes a finished tile image into file bytes.
type Encoder interface {
	// Encode encodes an image to bytes in the tile format.
	Encode(img image.Image) ([]byte, error)

	// Format returns the format name (e.g. "jpeg", "png", "webp").
	Format() string

	// PMTileType returns the PMTiles tile type constant.
	PMTileType() uint8

	// FileExtension returns the appropriate file extension.
	FileExtension() string
}

// NewEncoder creates an encoder for the given format and quality. Quality is
// ignored by formats that don't use it.
func NewEncoder(format string, quality int) (Encoder, error) {
	switch format {
	case "png", "":
		return &PNGEncoder{}, nil
	case "jpeg", "jpg":
		return &JPEGEncoder{Quality: quality}, nil
	case "webp":
		return newWebPEncoder(quality)
	default:
		return nil, fmt.Errorf("unsupported tile format: %q (supported: png, jpeg, webp)", format)
	}
}
