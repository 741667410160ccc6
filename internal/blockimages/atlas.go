// Package blockimages builds and serves the block-sprite atlas: a single
// image holding every block's hexagonal 4B*4B appearance, indexed by a
// dense (blockID, blockData) -> offset map the scene graph builder and tile
// renderer consult on every visible block.
package blockimages

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/equalpants/pigmap-go/internal/rgba"
)

// NumBlockImages is the fixed capacity of the atlas: offset 0 is always the
// fully-transparent dummy sprite used for unrecognized block ids.
const NumBlockImages = 554

// legacyVersion is the version assumed for a blocks-B.png with no
// accompanying .version file -- the block count as of the first pigmap
// release, before the version file existed.
const legacyVersion = 157

// BlockImages holds the built sprite atlas plus the per-offset opacity and
// transparency flags the renderer needs to decide visibility and occlusion.
type BlockImages struct {
	Img       rgba.Image
	Rectsize  int32 // size of each 4B*4B cell

	// blockOffsets maps every (blockID, blockData) combination -- blockID
	// masked to 12 bits, blockData to 4 -- to a sprite offset. Entries this
	// repo's recipe table does not populate stay 0, the dummy sprite.
	blockOffsets [4096 * 16]int32

	opacity      []bool // len NumBlockImages
	transparency []bool // len NumBlockImages
}

// Offset returns the sprite index for a block variant. The id is masked to
// 12 bits and the data to 4 bits before the table lookup, so a corrupt or
// out-of-range id can never index outside the fixed table.
func (bi *BlockImages) Offset(blockID uint16, blockData uint8) int32 {
	return bi.blockOffsets[offsetIdx(blockID, blockData)]
}

func offsetIdx(blockID uint16, blockData uint8) int {
	return int(blockID&0x0FFF)*16 + int(blockData&0x0F)
}

func (bi *BlockImages) setOffset(blockID uint16, blockData uint8, offset int32) {
	bi.blockOffsets[offsetIdx(blockID, blockData)] = offset
}

func (bi *BlockImages) IsOpaque(offset int32) bool      { return bi.opacity[offset] }
func (bi *BlockImages) IsTransparent(offset int32) bool { return bi.transparency[offset] }

func (bi *BlockImages) IsOpaqueAt(blockID uint16, blockData uint8) bool {
	return bi.IsOpaque(bi.Offset(blockID, blockData))
}

func (bi *BlockImages) IsTransparentAt(blockID uint16, blockData uint8) bool {
	return bi.IsTransparent(bi.Offset(blockID, blockData))
}

// GetRect returns the pixel rectangle of the given sprite offset within Img.
func (bi *BlockImages) GetRect(offset int32) rgba.Rect {
	return rgba.Rect{
		X: (offset % 16) * bi.Rectsize,
		Y: (offset / 16) * bi.Rectsize,
		W: bi.Rectsize,
		H: bi.Rectsize,
	}
}

func versionFilePath(imgpath string, b int) string {
	return fmt.Sprintf("%s/blocks-%d.version", imgpath, b)
}

func blocksFilePath(imgpath string, b int) string {
	return fmt.Sprintf("%s/blocks-%d.png", imgpath, b)
}

func writeVersion(imgpath string, b int, version int) error {
	return os.WriteFile(versionFilePath(imgpath, b), []byte(strconv.Itoa(version)), 0o644)
}

// readVersion returns the recorded block count for blocks-B.png, writing the
// legacy default (and assuming it) if no version file exists yet.
func readVersion(imgpath string, b int) int {
	data, err := os.ReadFile(versionFilePath(imgpath, b))
	if err != nil {
		writeVersion(imgpath, b, legacyVersion)
		return legacyVersion
	}
	v, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || v < 0 || v > 10000 {
		return 0
	}
	return v
}

// Create builds or loads the B-sized sprite atlas from imgpath. It prefers a
// cached blocks-B.png whose version file matches NumBlockImages; failing
// that it rebuilds from terrain.png (and the auxiliary chest/fire/endportal
// textures) and, if the old file was merely out of date rather than
// corrupt, blits its existing sprites back in first so custom art survives
// a version bump.
func Create(b int, imgpath string) (*BlockImages, error) {
	bi := &BlockImages{Rectsize: int32(4 * b)}
	bi.SetOffsets()

	w := bi.Rectsize * 16
	h := (int32(NumBlockImages)/16 + 1) * bi.Rectsize

	biversion := readVersion(imgpath, b)
	blocksfile := blocksFilePath(imgpath, b)

	var oldimg rgba.Image
	preserveOld := false
	if bi.Img.ReadPNG(blocksfile) {
		if bi.Img.W == w && bi.Img.H == h && biversion == NumBlockImages {
			bi.RetouchAlphas(b)
			bi.CheckOpacityAndTransparency(b)
			return bi, nil
		}
		oldH := (int32(biversion)/16 + 1) * bi.Rectsize
		if biversion < NumBlockImages && bi.Img.W == w && bi.Img.H == oldH {
			// deep-copy: bi.Img.Create below may reuse and clear its
			// backing array in place, which would corrupt oldimg too if
			// it only held a shared slice header
			oldimg.W, oldimg.H = bi.Img.W, bi.Img.H
			oldimg.Data = append([]rgba.Pixel(nil), bi.Img.Data...)
			preserveOld = true
		}
	}

	if err := bi.construct(b, imgpath); err != nil {
		return nil, fmt.Errorf("blockimages: %w", err)
	}

	if preserveOld {
		for i := int32(0); i < int32(biversion); i++ {
			rect := bi.GetRect(i)
			rgba.Blit(&oldimg, rect, &bi.Img, rect.X, rect.Y)
		}
	}

	if err := bi.Img.WritePNG(blocksfile); err != nil {
		return nil, fmt.Errorf("blockimages: writing %s: %w", blocksfile, err)
	}
	if err := writeVersion(imgpath, b, NumBlockImages); err != nil {
		return nil, fmt.Errorf("blockimages: writing version: %w", err)
	}

	bi.RetouchAlphas(b)
	bi.CheckOpacityAndTransparency(b)
	return bi, nil
}

// CheckOpacityAndTransparency scans the N, W, and U faces of every sprite:
// any pixel with alpha<255 clears that sprite's opacity, any pixel with
// alpha>0 clears its transparency. The scan aborts a sprite early once both
// flags are decided.
func (bi *BlockImages) CheckOpacityAndTransparency(b int) {
	bi.opacity = make([]bool, NumBlockImages)
	bi.transparency = make([]bool, NumBlockImages)
	for i := range bi.opacity {
		bi.opacity[i] = true
		bi.transparency[i] = true
	}

	tilesize := int32(2 * b)
	for i := int32(0); i < int32(NumBlockImages); i++ {
		rect := bi.GetRect(i)
		scanFace(bi, i, NewFaceIterator(rect.X, rect.Y+int32(b), 1, tilesize))
		if !bi.opacity[i] && !bi.transparency[i] {
			continue
		}
		scanFace(bi, i, NewFaceIterator(rect.X+2*int32(b), rect.Y+2*int32(b), -1, tilesize))
		if !bi.opacity[i] && !bi.transparency[i] {
			continue
		}
		scanFaceTop(bi, i, NewTopFaceIterator(rect.X+2*int32(b)-1, rect.Y, tilesize))
	}
}

func scanFace(bi *BlockImages, i int32, it *FaceIterator) {
	for !it.End {
		a := bi.Img.At(it.X, it.Y).A()
		if a < 255 {
			bi.opacity[i] = false
		}
		if a > 0 {
			bi.transparency[i] = false
		}
		if !bi.opacity[i] && !bi.transparency[i] {
			return
		}
		it.Advance()
	}
}

func scanFaceTop(bi *BlockImages, i int32, it *TopFaceIterator) {
	for !it.End {
		a := bi.Img.At(it.X, it.Y).A()
		if a < 255 {
			bi.opacity[i] = false
		}
		if a > 0 {
			bi.transparency[i] = false
		}
		if !bi.opacity[i] && !bi.transparency[i] {
			return
		}
		it.Advance()
	}
}

// RetouchAlphas snaps near-transparent (<10) pixels to fully transparent and
// near-opaque (>245) pixels to fully opaque on every sprite's N, W, and U
// faces, so accidental image-editing slips (like an almost-but-not-quite
// 100% opacity) don't register as translucent and force extra render work.
func (bi *BlockImages) RetouchAlphas(b int) {
	tilesize := int32(2 * b)
	for i := int32(0); i < int32(NumBlockImages); i++ {
		rect := bi.GetRect(i)
		retouch(bi, NewFaceIterator(rect.X, rect.Y+int32(b), 1, tilesize))
		retouch(bi, NewFaceIterator(rect.X+2*int32(b), rect.Y+2*int32(b), -1, tilesize))
		retouchTop(bi, NewTopFaceIterator(rect.X+2*int32(b)-1, rect.Y, tilesize))
	}
}

func retouchAlpha(a uint8) (uint8, bool) {
	if a < 10 {
		return 0, true
	}
	if a > 245 {
		return 255, true
	}
	return a, false
}

func retouch(bi *BlockImages, it *FaceIterator) {
	for !it.End {
		p := bi.Img.At(it.X, it.Y)
		if newA, changed := retouchAlpha(p.A()); changed {
			p.SetAlpha(int(newA))
			bi.Img.Set(it.X, it.Y, p)
		}
		it.Advance()
	}
}

func retouchTop(bi *BlockImages, it *TopFaceIterator) {
	for !it.End {
		p := bi.Img.At(it.X, it.Y)
		if newA, changed := retouchAlpha(p.A()); changed {
			p.SetAlpha(int(newA))
			bi.Img.Set(it.X, it.Y, p)
		}
		it.Advance()
	}
}
