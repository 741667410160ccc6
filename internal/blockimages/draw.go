package blockimages

import "github.com/equalpants/pigmap-go/internal/rgba"

// sourceTile names one 16x16-grid cell of a resized terrain/chest image, with
// an optional quarter rotation and horizontal flip; tile<0 means "no face".
type sourceTile struct {
	img        *rgba.Image
	tilex      int32 // 0-based column/row index, not pixel position
	tiley      int32
	rot        int32
	flipX      bool
	valid      bool
}

func terrainTile(tiles *rgba.Image, tile int32) sourceTile {
	return rotatedTerrainTile(tiles, tile, 0, false)
}

func rotatedTerrainTile(tiles *rgba.Image, tile int32, rot int32, flipX bool) sourceTile {
	if tile < 0 {
		return sourceTile{}
	}
	return sourceTile{img: tiles, tilex: tile % 16, tiley: tile / 16, rot: rot, flipX: flipX, valid: true}
}

// readSourcePixel reads the pixel a RotatedFaceIterator is currently on,
// given the tile's own column/row offset within the shared source image.
func readSourcePixel(t sourceTile, it *RotatedFaceIterator, tilesize int32) rgba.Pixel {
	return t.img.At(t.tilex*tilesize+localX(it, tilesize), t.tiley*tilesize+localY(it, tilesize))
}

func localX(it *RotatedFaceIterator, tilesize int32) int32 {
	x := it.X % tilesize
	if x < 0 {
		x += tilesize
	}
	return x
}

func localY(it *RotatedFaceIterator, tilesize int32) int32 {
	y := it.Y % tilesize
	if y < 0 {
		y += tilesize
	}
	return y
}

// drawRotatedBlockImage paints the N, W, and U faces of drect from three
// (possibly absent, rotated, or flipped) source tiles, darkening the N face
// to 90% and the W face to 80% to fake directional shading -- the same
// shading every "normal" block (a plain cube) gets.
func drawRotatedBlockImage(dest *rgba.Image, drect rgba.Rect, nface, wface, uface sourceTile, b int32) {
	tilesize := 2 * b
	if nface.valid {
		dstit := NewFaceIterator(drect.X, drect.Y+b, 1, tilesize)
		srcit := NewRotatedFaceIterator(0, 0, nface.rot, tilesize, nface.flipX)
		for !srcit.End {
			p := readSourcePixel(nface, srcit, tilesize)
			darkenPixel(&p, 0.9, 0.9, 0.9)
			dest.Set(dstit.X, dstit.Y, p)
			srcit.Advance()
			dstit.Advance()
		}
	}
	if wface.valid {
		dstit := NewFaceIterator(drect.X+2*b, drect.Y+2*b, -1, tilesize)
		srcit := NewRotatedFaceIterator(0, 0, wface.rot, tilesize, wface.flipX)
		for !srcit.End {
			p := readSourcePixel(wface, srcit, tilesize)
			darkenPixel(&p, 0.8, 0.8, 0.8)
			dest.Set(dstit.X, dstit.Y, p)
			srcit.Advance()
			dstit.Advance()
		}
	}
	if uface.valid {
		dstit := NewTopFaceIterator(drect.X+2*b-1, drect.Y, tilesize)
		srcit := NewRotatedFaceIterator(0, 0, uface.rot, tilesize, uface.flipX)
		for !srcit.End {
			dest.Set(dstit.X, dstit.Y, readSourcePixel(uface, srcit, tilesize))
			srcit.Advance()
			dstit.Advance()
		}
	}
}

func darkenPixel(p *rgba.Pixel, r, g, bl float64) {
	rgba.Darken(p, r, g, bl)
}

// drawBlockImage draws a plain cube from three unrotated terrain tiles.
func drawBlockImage(dest *rgba.Image, drect rgba.Rect, tiles *rgba.Image, nface, wface, uface int32, b int32) {
	drawRotatedBlockImage(dest, drect, terrainTile(tiles, nface), terrainTile(tiles, wface), terrainTile(tiles, uface), b)
}

// drawSolidColorBlockImage fills the full hexagon with a flat color, shaded
// per face the same way a textured cube is -- used for blocks with no
// terrain texture of their own (end portal, dragon egg accents, etc.)
func drawSolidColorBlockImage(dest *rgba.Image, drect rgba.Rect, p rgba.Pixel, b int32) {
	tilesize := 2 * b
	nface := p
	darkenPixel(&nface, 0.9, 0.9, 0.9)
	for it := NewFaceIterator(drect.X, drect.Y+b, 1, tilesize); !it.End; it.Advance() {
		dest.Set(it.X, it.Y, nface)
	}
	wface := p
	darkenPixel(&wface, 0.8, 0.8, 0.8)
	for it := NewFaceIterator(drect.X+2*b, drect.Y+2*b, -1, tilesize); !it.End; it.Advance() {
		dest.Set(it.X, it.Y, wface)
	}
	for it := NewTopFaceIterator(drect.X+2*b-1, drect.Y, tilesize); !it.End; it.Advance() {
		dest.Set(it.X, it.Y, p)
	}
}

// drawItemBlockImage draws two crossed flat copies of a tile through the
// block's center, used for saplings, flowers, mushrooms, and similar
// "sprite" blocks that have no real faces.
func drawItemBlockImage(dest *rgba.Image, drect rgba.Rect, tile sourceTile, b int32) {
	if !tile.valid {
		return
	}
	tilesize := 2 * b
	cutoff := tilesize / 2
	// S half of an E/W-facing plane, starting at [B, 1.5B]
	dstit := NewFaceIterator(drect.X+b, drect.Y+b+cutoff, -1, tilesize)
	srcit := NewRotatedFaceIterator(0, 0, 0, tilesize, false)
	for !srcit.End {
		if dstit.pos/tilesize >= b {
			dest.Set(dstit.X, dstit.Y, readSourcePixel(tile, srcit, tilesize))
		}
		srcit.Advance()
		dstit.Advance()
	}
	// N half of the same plane
	dstit = NewFaceIterator(drect.X+b, drect.Y+b+cutoff, -1, tilesize)
	srcit = NewRotatedFaceIterator(0, 0, 0, tilesize, false)
	for !srcit.End {
		if dstit.pos/tilesize < b {
			dest.Set(dstit.X, dstit.Y, readSourcePixel(tile, srcit, tilesize))
		}
		srcit.Advance()
		dstit.Advance()
	}
	// E/W-crossing plane through the same tile
	dstit2 := NewFaceIterator(drect.X+b, drect.Y+b, 1, tilesize)
	srcit2 := NewRotatedFaceIterator(0, 0, 0, tilesize, false)
	for !srcit2.End {
		dest.Set(dstit2.X, dstit2.Y, readSourcePixel(tile, srcit2, tilesize))
		srcit2.Advance()
		dstit2.Advance()
	}
}

// drawFencePost draws a fence's central post: a 2x2 top cap plus a 1-wide,
// 2B-tall strip down each of its two visible side faces.
func drawFencePost(dest *rgba.Image, drect rgba.Rect, tiles *rgba.Image, tile int32, b int32) {
	tilesize := 2 * b
	tilex, tiley := (tile%16)*tilesize, (tile/16)*tilesize

	for y := int32(0); y < 2; y++ {
		for x := int32(0); x < 2; x++ {
			dest.Set(drect.X+2*b-1+x, drect.Y+b-1+y, tiles.At(tilex+x, tiley+y))
		}
	}
	for y := int32(0); y < tilesize; y++ {
		dest.Set(drect.X+2*b-1, drect.Y+b+1+y, tiles.At(tilex, tiley+y))
	}
	for y := int32(0); y < tilesize; y++ {
		dest.Set(drect.X+2*b, drect.Y+b+1+y, tiles.At(tilex, tiley+y))
	}
}

// drawFence draws a fence post plus any of its four rails (N, S, E, W) that
// connectivity calls for, each a single horizontal strip partway up the
// corresponding side face. The post parameter exists because some fence
// variants (the "only rails, no post" shape is never actually used by this
// renderer, but the option mirrors the original's signature) draw the rails
// alone.
func drawFence(dest *rgba.Image, drect rgba.Rect, tiles *rgba.Image, tile int32, n, s, e, w, post bool, b int32) {
	tilesize := 2 * b
	tilex, tiley := (tile%16)*tilesize, (tile/16)*tilesize

	drawRail := func(dstit *FaceIterator, lowerHalf bool) {
		srcit := NewFaceIterator(tilex, tiley, 0, tilesize)
		for !srcit.End {
			inHalf := dstit.pos/tilesize >= b
			if inHalf == lowerHalf && ((dstit.pos%tilesize)*2/b)%4 == 1 {
				dest.Set(dstit.X, dstit.Y, tiles.At(srcit.X, srcit.Y))
			}
			srcit.Advance()
			dstit.Advance()
		}
	}

	if e {
		drawRail(NewFaceIterator(drect.X+b, drect.Y+b/2, 1, tilesize), false)
	}
	if s {
		drawRail(NewFaceIterator(drect.X+b, drect.Y+3*b/2, -1, tilesize), true)
	}
	if post {
		drawFencePost(dest, drect, tiles, tile, b)
	}
	if w {
		drawRail(NewFaceIterator(drect.X+b, drect.Y+b/2, 1, tilesize), true)
	}
	if n {
		drawRail(NewFaceIterator(drect.X+b, drect.Y+3*b/2, -1, tilesize), false)
	}
}
