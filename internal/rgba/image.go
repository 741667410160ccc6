// Package rgba implements the packed-pixel image buffer and blending
// primitives the renderer uses on its hot paths: alpha compositing,
// clipped blits, and the 2x2 half-reduction used to build zoom levels.
package rgba

import (
	"bufio"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
)

// Pixel is a packed 32-bit RGBA value: bits 0-7 red, 8-15 green, 16-23 blue,
// 24-31 alpha, matching the teacher's little-endian-in-a-uint32 layout so
// blend math can operate on the whole word at once.
type Pixel uint32

func MakeRGBA(r, g, b, a uint8) Pixel {
	return Pixel(a)<<24 | Pixel(b)<<16 | Pixel(g)<<8 | Pixel(r)
}

func (p Pixel) R() uint8 { return uint8(p) }
func (p Pixel) G() uint8 { return uint8(p >> 8) }
func (p Pixel) B() uint8 { return uint8(p >> 16) }
func (p Pixel) A() uint8 { return uint8(p >> 24) }

func (p *Pixel) SetAlpha(a int) { *p = (*p &^ 0xff000000) | Pixel(a&0xff)<<24 }
func (p *Pixel) SetBlue(b int)  { *p = (*p &^ 0x00ff0000) | Pixel(b&0xff)<<16 }
func (p *Pixel) SetGreen(g int) { *p = (*p &^ 0x0000ff00) | Pixel(g&0xff)<<8 }
func (p *Pixel) SetRed(r int)   { *p = (*p &^ 0x000000ff) | Pixel(r&0xff) }

// Image is a contiguous W*H buffer of Pixels, row-major.
type Image struct {
	Data []Pixel
	W, H int32
}

// New allocates a cleared image of the given size.
func New(w, h int32) *Image {
	return &Image{Data: make([]Pixel, w*h), W: w, H: h}
}

// Create resizes the image in place and clears it, reusing the backing
// array when it is already large enough — the tile renderer calls this
// once per worker per tile rather than reallocating.
func (img *Image) Create(w, h int32) {
	img.W, img.H = w, h
	n := int(w * h)
	if cap(img.Data) >= n {
		img.Data = img.Data[:n]
		for i := range img.Data {
			img.Data[i] = 0
		}
		return
	}
	img.Data = make([]Pixel, n)
}

// At returns the pixel at (x,y); no bounds checking, matching the teacher's
// index-directly-into-the-slice hot path.
func (img *Image) At(x, y int32) Pixel { return img.Data[y*img.W+x] }

func (img *Image) Set(x, y int32, p Pixel) { img.Data[y*img.W+x] = p }

// Rect is a rectangle within an Image, used both as a source region for
// blits and as a destination region for half-reduction.
type Rect struct {
	X, Y, W, H int32
}

var imagePool sync.Map // map[[2]int32]*sync.Pool of *Image

// Get returns a cleared Image of the given size from a per-dimension pool,
// or allocates a fresh one. Mirrors the sync.Map-of-sync.Pool idiom used to
// avoid reallocating per-tile buffers across a worker's run.
func Get(w, h int32) *Image {
	key := [2]int32{w, h}
	if p, ok := imagePool.Load(key); ok {
		if v := p.(*sync.Pool).Get(); v != nil {
			img := v.(*Image)
			for i := range img.Data {
				img.Data[i] = 0
			}
			return img
		}
	}
	return New(w, h)
}

// Put returns an Image to its dimension pool for reuse.
func Put(img *Image) {
	if img == nil {
		return
	}
	key := [2]int32{img.W, img.H}
	p, _ := imagePool.LoadOrStore(key, &sync.Pool{})
	p.(*sync.Pool).Put(img)
}

// ReadPNG loads a PNG file into img, replacing its contents. It returns
// false (not an error) when the file does not exist or is not a readable
// PNG, since callers treat a missing tile as "start from blank".
func (img *Image) ReadPNG(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	cfg, err := png.Decode(bufio.NewReader(f))
	if err != nil {
		return false
	}
	bounds := cfg.Bounds()
	w, h := int32(bounds.Dx()), int32(bounds.Dy())
	img.Create(w, h)

	switch src := cfg.(type) {
	case *image.NRGBA:
		for y := int32(0); y < h; y++ {
			for x := int32(0); x < w; x++ {
				c := src.NRGBAAt(int(x), int(y))
				img.Set(x, y, MakeRGBA(c.R, c.G, c.B, c.A))
			}
		}
	case *image.RGBA:
		for y := int32(0); y < h; y++ {
			for x := int32(0); x < w; x++ {
				c := src.RGBAAt(int(x), int(y))
				img.Set(x, y, MakeRGBA(c.R, c.G, c.B, c.A))
			}
		}
	default:
		for y := int32(0); y < h; y++ {
			for x := int32(0); x < w; x++ {
				r, g, b, a := cfg.At(int(x), int(y)).RGBA()
				img.Set(x, y, MakeRGBA(uint8(r>>8), uint8(g>>8), uint8(b>>8), uint8(a>>8)))
			}
		}
	}
	return true
}

// WritePNG encodes img and writes it to path, creating any missing parent
// directories on the first failed open — matching the original's
// open-fails-with-ENOENT-then-mkdir-and-retry behavior.
func (img *Image) WritePNG(path string) error {
	f, err := os.Create(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if mkErr := os.MkdirAll(filepath.Dir(path), 0o755); mkErr != nil {
				return mkErr
			}
			f, err = os.Create(path)
		}
		if err != nil {
			return err
		}
	}
	defer f.Close()

	out := image.NewRGBA(image.Rect(0, 0, int(img.W), int(img.H)))
	for y := int32(0); y < img.H; y++ {
		for x := int32(0); x < img.W; x++ {
			p := img.At(x, y)
			out.SetRGBA(int(x), int(y), color.RGBA{R: p.R(), G: p.G(), B: p.B(), A: p.A()})
		}
	}

	w := bufio.NewWriter(f)
	if err := png.Encode(w, out); err != nil {
		return err
	}
	return w.Flush()
}

// ToStdImage converts to a standard image.RGBA for use with alternate
// encoders (JPEG, WebP) that operate on the image package's types.
func (img *Image) ToStdImage() *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, int(img.W), int(img.H)))
	for y := int32(0); y < img.H; y++ {
		for x := int32(0); x < img.W; x++ {
			p := img.At(x, y)
			out.SetRGBA(int(x), int(y), color.RGBA{R: p.R(), G: p.G(), B: p.B(), A: p.A()})
		}
	}
	return out
}
