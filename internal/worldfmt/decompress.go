package worldfmt

import (
	"bytes"
	"compress/gzip"
	"compress/zlib"
	"errors"
	"io"
	"os"
)

// ReadGzFile reads and fully decompresses a gzip file from disk. It
// returns (nil, os.ErrNotExist) if the file is missing, and a non-nil
// error for any other failure (including a corrupt gzip stream).
func ReadGzFile(filename string) ([]byte, error) {
	f, err := os.Open(filename)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, os.ErrNotExist
		}
		return nil, err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer gz.Close()

	return io.ReadAll(gz)
}

// ReadGzOrZlib decompresses a buffer that may be either gzip- or
// zlib-framed, auto-detecting which from the stream's magic bytes. This
// is what region-file chunk payloads use (version byte 1 = gzip, 2 =
// zlib), but the detection is format-driven rather than trusting that byte.
func ReadGzOrZlib(compressed []byte) ([]byte, error) {
	if len(compressed) >= 2 && compressed[0] == 0x1f && compressed[1] == 0x8b {
		gz, err := gzip.NewReader(bytes.NewReader(compressed))
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		return io.ReadAll(gz)
	}
	zr, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}
