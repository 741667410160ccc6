// Package mapcoord implements the coordinate systems that tie block, chunk,
// region, and tile space together: the isometric block-center projection,
// the hexagonal per-chunk bounding box, the tile grid built on top of it,
// and the Google-Maps-style zoom pyramid above the base tile grid.
//
// Minecraft axis convention: +x = S, +z = W, +y = U (-x = N, -z = E, -y = D).
package mapcoord

import (
	"fmt"
	"strings"
)

// MapParams describes the fixed shape of a rendered map: block pixel size
// B, tile-to-chunk multiplier T, the Google-Maps zoom level of the base
// tile grid, and the Y-range actually rendered.
type MapParams struct {
	B        int // block size in pixels; must be in [2,16]
	T        int // tile multiplier; must be in [1,16]
	BaseZoom int // zoom level of the base tile grid; must be in [0,30]

	MinY, MaxY         int  // effective Y range actually rendered
	UserMinY, UserMaxY bool // whether MinY/MaxY were set explicitly (vs. world defaults)
}

// TileSize is the pixel width/height of one base tile.
func (mp MapParams) TileSize() int64 { return int64(64 * mp.B * mp.T) }

func (mp MapParams) Valid() bool {
	return mp.B >= 2 && mp.B <= 16 && mp.T >= 1 && mp.T <= 16
}

func (mp MapParams) ValidZoom() bool {
	return mp.BaseZoom >= 0 && mp.BaseZoom <= 30
}

func (mp MapParams) ValidYRange() bool {
	return mp.MinY <= mp.MaxY && mp.MinY >= 0 && mp.MaxY <= 255
}

// EffectiveMaxY returns the Y level TopBlock should scan down from: MaxY
// when the operator set it explicitly (UserMaxY), otherwise 255, the
// Anvil build ceiling.
func (mp MapParams) EffectiveMaxY() int {
	if mp.UserMaxY {
		return mp.MaxY
	}
	return 255
}

// EffectiveMinY returns the lowest Y a render should consider: MinY when
// the operator set it explicitly (UserMinY), otherwise 0, the Anvil floor.
func (mp MapParams) EffectiveMinY() int {
	if mp.UserMinY {
		return mp.MinY
	}
	return 0
}

// Pixel is an absolute position in the isometric projection's pixel space.
type Pixel struct {
	X, Y int64
}

func (p Pixel) Add(q Pixel) Pixel { return Pixel{p.X + q.X, p.Y + q.Y} }
func (p Pixel) Sub(q Pixel) Pixel { return Pixel{p.X - q.X, p.Y - q.Y} }

// GetTile finds the base-zoom TileIdx containing p.
func (p Pixel) GetTile(mp MapParams) TileIdx {
	ts := mp.TileSize()
	xx := p.X + 2*int64(mp.B)
	yy := p.Y + ts - 17*int64(mp.B)
	return TileIdx{floordiv(xx, ts), floordiv(yy, ts)}
}

// BBox is an endpoint-exclusive bounding box (right/bottom edges excluded).
type BBox struct {
	TopLeft, BottomRight Pixel
}

func (bb BBox) BottomLeft() Pixel { return Pixel{bb.TopLeft.X, bb.BottomRight.Y} }
func (bb BBox) TopRight() Pixel   { return Pixel{bb.BottomRight.X, bb.TopLeft.Y} }

func (bb BBox) Includes(p Pixel) bool {
	return p.X >= bb.TopLeft.X && p.X < bb.BottomRight.X && p.Y >= bb.TopLeft.Y && p.Y < bb.BottomRight.Y
}

func (bb BBox) Overlaps(o BBox) bool {
	if o.TopLeft.X >= bb.BottomRight.X || o.TopLeft.Y >= bb.BottomRight.Y ||
		o.BottomRight.X <= bb.TopLeft.X || o.BottomRight.Y <= bb.TopLeft.Y {
		return false
	}
	return true
}

// BlockIdx is a block position in Minecraft world coordinates.
type BlockIdx struct {
	X, Z, Y int64
}

func (bi BlockIdx) Add(o BlockIdx) BlockIdx { return BlockIdx{bi.X + o.X, bi.Z + o.Z, bi.Y + o.Y} }
func (bi BlockIdx) Sub(o BlockIdx) BlockIdx { return BlockIdx{bi.X - o.X, bi.Z - o.Z, bi.Y - o.Y} }

// Occludes reports whether bi sits in front of (and adjacent on the
// triangular projection grid to) the block o, such that bi would be drawn
// after o and may hide it.
func (bi BlockIdx) Occludes(o BlockIdx) bool {
	dx, dz, dy := o.X-bi.X, o.Z-bi.Z, o.Y-bi.Y
	if dx < 0 || dz > 0 || dy > 0 {
		return false
	}
	imgxdiff := dx*2 + dz*2
	imgydiff := -dx + dz - dy*2
	return imgxdiff >= -2 && imgxdiff <= 2 && imgydiff >= -2 && imgydiff <= 2
}

func (bi BlockIdx) IsOccludedBy(o BlockIdx) bool { return o.Occludes(bi) }

// GetCenter returns the pixel at the center of this block's projected image.
func (bi BlockIdx) GetCenter(mp MapParams) Pixel {
	b := int64(mp.B)
	return Pixel{2 * b * (bi.X + bi.Z), b * (bi.Z - bi.X - 2*bi.Y)}
}

func (bi BlockIdx) GetBBox(mp MapParams) BBox {
	c := bi.GetCenter(mp)
	b := int64(mp.B)
	return BBox{c.Sub(Pixel{2 * b, 2 * b}), c.Add(Pixel{2 * b, 2 * b})}
}

func (bi BlockIdx) GetChunkIdx() ChunkIdx {
	return ChunkIdx{floordiv16(bi.X), floordiv16(bi.Z)}
}

// TopBlock returns the topmost of the blocks that project onto pixel p
// (one per Y layer, up to mp.EffectiveMaxY()), assuming p lies on the
// block-center lattice.
func TopBlock(p Pixel, mp MapParams) BlockIdx {
	b := int64(mp.B)
	maxY := int64(mp.EffectiveMaxY())
	bx := (p.X-2*p.Y)/(4*b) - maxY
	bz := (p.X+2*p.Y)/(4*b) + maxY
	return BlockIdx{bx, bz, maxY}
}

// ChunkIdx is a 16x16-block chunk position.
type ChunkIdx struct {
	X, Z int64
}

func (ci ChunkIdx) Add(o ChunkIdx) ChunkIdx { return ChunkIdx{ci.X + o.X, ci.Z + o.Z} }
func (ci ChunkIdx) Sub(o ChunkIdx) ChunkIdx { return ChunkIdx{ci.X - o.X, ci.Z - o.Z} }

func (ci ChunkIdx) ToFileName() string {
	return fmt.Sprintf("c.%s.%s.dat", toBase36(ci.X), toBase36(ci.Z))
}

func (ci ChunkIdx) ToFilePath() string {
	return fmt.Sprintf("%s/%s/%s", toBase36(mod64pos(ci.X)), toBase36(mod64pos(ci.Z)), ci.ToFileName())
}

// ChunkIdxFromFilePath parses a chunk file path (plain name, relative, or
// absolute) of the form ".../c.X.Z.dat".
func ChunkIdxFromFilePath(filename string) (ChunkIdx, bool) {
	pos3 := strings.LastIndexByte(filename, '.')
	if pos3 < 0 {
		return ChunkIdx{}, false
	}
	pos2 := lastIndexByteBefore(filename, '.', pos3)
	if pos2 < 0 {
		return ChunkIdx{}, false
	}
	pos := lastIndexByteBefore(filename, '.', pos2)
	if pos < 1 {
		return ChunkIdx{}, false
	}
	if filename[pos3:] != ".dat" {
		return ChunkIdx{}, false
	}
	if filename[pos-1:pos] != "c" {
		return ChunkIdx{}, false
	}
	if pos > 1 && filename[pos-2] != '/' {
		return ChunkIdx{}, false
	}
	x, ok1 := fromBase36Slice(filename[pos+1 : pos2])
	z, ok2 := fromBase36Slice(filename[pos2+1 : pos3])
	if !ok1 || !ok2 {
		return ChunkIdx{}, false
	}
	return ChunkIdx{x, z}, true
}

func lastIndexByteBefore(s string, c byte, before int) int {
	if before <= 0 {
		return -1
	}
	return strings.LastIndexByte(s[:before], c)
}

// BaseCorner is the NED (north-east-down) corner block of the chunk.
func (ci ChunkIdx) BaseCorner() BlockIdx { return BlockIdx{ci.X * 16, ci.Z * 16, 0} }

func (ci ChunkIdx) GetBBox(mp MapParams) BBox {
	c := ci.BaseCorner().GetCenter(mp)
	b := int64(mp.B)
	return BBox{c.Sub(Pixel{2 * b, 269 * b}), c.Add(Pixel{62 * b, 17 * b})}
}

func (ci ChunkIdx) GetRegionIdx() RegionIdx {
	return RegionIdx{floordiv(ci.X, 32), floordiv(ci.Z, 32)}
}

// GetTiles returns the set of base tiles whose bounding box overlaps this
// chunk's bounding box: the tile containing the NED corner, then as many
// tiles above/below it as overlap, then (if it overlaps too) the same
// column shifted one tile to the right.
func (ci ChunkIdx) GetTiles(mp MapParams) []TileIdx {
	bbchunk := ci.GetBBox(mp)
	var tiles []TileIdx

	tibase := ci.BaseCorner().GetCenter(mp).GetTile(mp)
	tiles = append(tiles, tibase)

	tidown := tibase.Add(TileIdx{0, 1})
	for tidown.GetBBox(mp).Overlaps(bbchunk) {
		tiles = append(tiles, tidown)
		tidown = tidown.Add(TileIdx{0, 1})
	}

	tiup := tibase.Sub(TileIdx{0, 1})
	for tiup.GetBBox(mp).Overlaps(bbchunk) {
		tiles = append(tiles, tiup)
		tiup = tiup.Sub(TileIdx{0, 1})
	}

	tiright := tibase.Add(TileIdx{1, 0})
	if tiright.GetBBox(mp).Overlaps(bbchunk) {
		oldsize := len(tiles)
		for i := 0; i < oldsize; i++ {
			tiles = append(tiles, tiles[i].Add(TileIdx{1, 0}))
		}
	}

	return tiles
}

// RegionIdx is a 32x32-chunk region position.
type RegionIdx struct {
	X, Z int64
}

func (ri RegionIdx) ToOldFileName() string {
	return fmt.Sprintf("r.%d.%d.mcr", ri.X, ri.Z)
}

func (ri RegionIdx) ToAnvilFileName() string {
	return fmt.Sprintf("r.%d.%d.mca", ri.X, ri.Z)
}

// RegionIdxFromFilePath parses a region file path of the form
// ".../r.X.Z.mcr" or ".../r.X.Z.mca".
func RegionIdxFromFilePath(filename string) (RegionIdx, bool) {
	pos3 := strings.LastIndexByte(filename, '.')
	if pos3 < 0 {
		return RegionIdx{}, false
	}
	pos2 := lastIndexByteBefore(filename, '.', pos3)
	if pos2 < 0 {
		return RegionIdx{}, false
	}
	pos := lastIndexByteBefore(filename, '.', pos2)
	if pos < 1 {
		return RegionIdx{}, false
	}
	ext := filename[pos3:]
	if ext != ".mcr" && ext != ".mca" {
		return RegionIdx{}, false
	}
	if filename[pos-1:pos] != "r" {
		return RegionIdx{}, false
	}
	if pos > 1 && filename[pos-2] != '/' {
		return RegionIdx{}, false
	}
	var x, z int64
	if _, err := fmt.Sscanf(filename[pos+1:pos2], "%d", &x); err != nil {
		return RegionIdx{}, false
	}
	if _, err := fmt.Sscanf(filename[pos2+1:pos3], "%d", &z); err != nil {
		return RegionIdx{}, false
	}
	return RegionIdx{x, z}, true
}

// BaseChunk is the NW corner chunk of the region.
func (ri RegionIdx) BaseChunk() ChunkIdx { return ChunkIdx{ri.X * 32, ri.Z * 32} }

// TileIdx addresses a tile at the base zoom level. Unlike Google Maps tile
// coordinates (which are all non-negative), tile [0,0] here is the center
// of the map; it maps to Google tile [2^(baseZoom-1), 2^(baseZoom-1)].
type TileIdx struct {
	X, Y int64
}

func (t TileIdx) Add(o TileIdx) TileIdx { return TileIdx{t.X + o.X, t.Y + o.Y} }
func (t TileIdx) Sub(o TileIdx) TileIdx { return TileIdx{t.X - o.X, t.Y - o.Y} }

// Valid reports whether t falls within the 2^baseZoom x 2^baseZoom grid.
func (t TileIdx) Valid(mp MapParams) bool {
	if mp.BaseZoom == 0 {
		return t.X == 0 && t.Y == 0
	}
	max := int64(1) << uint(mp.BaseZoom)
	offset := max / 2
	gx, gy := t.X+offset, t.Y+offset
	return gx >= 0 && gx < max && gy >= 0 && gy < max
}

// ToFilePath returns the Google-Maps-style quadtree path (e.g.
// "0/3/2/0/0/1/2.png"), or "" if t is not valid.
func (t TileIdx) ToFilePath(mp MapParams) string {
	if !t.Valid(mp) {
		return ""
	}
	if mp.BaseZoom == 0 {
		return "base.png"
	}
	offset := int64(1) << uint(mp.BaseZoom-1)
	gx, gy := t.X+offset, t.Y+offset
	var sb strings.Builder
	for zoom := mp.BaseZoom - 1; zoom >= 0; zoom-- {
		xbit := (gx >> uint(zoom)) & 1
		ybit := (gy >> uint(zoom)) & 1
		fmt.Fprintf(&sb, "%d/", xbit+2*ybit)
	}
	s := sb.String()
	return s[:len(s)-1] + ".png"
}

func (t TileIdx) BaseChunk(mp MapParams) ChunkIdx {
	T := int64(mp.T)
	return ChunkIdx{T * (t.X - 2*t.Y), T * (t.X + 2*t.Y)}
}

func (t TileIdx) GetBBox(mp MapParams) BBox {
	bco := t.BaseChunk(mp).BaseCorner().GetCenter(mp)
	b := int64(mp.B)
	tl := bco.Add(Pixel{-2 * b, 17*b - mp.TileSize()})
	ts := mp.TileSize()
	return BBox{tl, tl.Add(Pixel{ts, ts})}
}

func (t TileIdx) ToZoomTileIdx(mp MapParams) ZoomTileIdx {
	max := int64(1) << uint(mp.BaseZoom)
	offset := max / 2
	return ZoomTileIdx{t.X + offset, t.Y + offset, mp.BaseZoom}
}

// ZoomTileIdx addresses a tile at zoom levels above the base grid, using
// true Google Maps coordinates (always non-negative, 0..2^zoom).
type ZoomTileIdx struct {
	X, Y int64
	Zoom int
}

func (z ZoomTileIdx) Valid() bool {
	max := int64(1) << uint(z.Zoom)
	return z.X >= 0 && z.X < max && z.Y >= 0 && z.Y < max && z.Zoom >= 0
}

func (z ZoomTileIdx) ToFilePath() string {
	if !z.Valid() {
		return ""
	}
	if z.Zoom == 0 {
		return "base.png"
	}
	var sb strings.Builder
	for zz := z.Zoom - 1; zz >= 0; zz-- {
		xbit := (z.X >> uint(zz)) & 1
		ybit := (z.Y >> uint(zz)) & 1
		fmt.Fprintf(&sb, "%d/", xbit+2*ybit)
	}
	s := sb.String()
	return s[:len(s)-1] + ".png"
}

// ToTileIdx returns the top-left base tile contained in z.
func (z ZoomTileIdx) ToTileIdx(mp MapParams) TileIdx {
	shift := uint(mp.BaseZoom - z.Zoom)
	newx, newy := z.X<<shift, z.Y<<shift
	max := int64(1) << uint(mp.BaseZoom)
	offset := max / 2
	return TileIdx{newx - offset, newy - offset}
}

// ToZoom converts to the tile at level zz that contains z (if zz < z.Zoom)
// or the top-left of the tiles at level zz that z contains (if zz > z.Zoom).
func (z ZoomTileIdx) ToZoom(zz int) ZoomTileIdx {
	if zz > z.Zoom {
		shift := uint(zz - z.Zoom)
		return ZoomTileIdx{z.X << shift, z.Y << shift, zz}
	}
	shift := uint(z.Zoom - zz)
	return ZoomTileIdx{z.X >> shift, z.Y >> shift, zz}
}

// Add offsets z by (dx,dy) at the same zoom level. There is no generic
// addition operator across ZoomTileIdx values at different zoom levels.
func (z ZoomTileIdx) Add(dx, dy int64) ZoomTileIdx {
	return ZoomTileIdx{z.X + dx, z.Y + dy, z.Zoom}
}
