// Package scenegraph builds, per tile, the DAG of visible blocks needed to
// draw one base tile: which blocks are visible, in what draw order
// (respecting occlusion between neighboring pseudocolumns), and with what
// sprite and edge-darkening flags.
package scenegraph

import "github.com/equalpants/pigmap-go/internal/mapcoord"

func ceildiv(a, b int64) int64 {
	if b < 0 {
		a, b = -a, -b
	}
	if a > 0 {
		return (a + b - 1) / b
	}
	return a / b
}

// topPixelY returns the topmost column-grid y-coordinate in column x (even
// if the column lies outside the box), looking only at the box's top edge.
func topPixelY(x, bboxTop int64, b int) int64 {
	bb := int64(b)
	if x%(4*bb) == 0 {
		return ceildiv(bboxTop, 2*bb) * 2 * bb
	}
	return ceildiv(bboxTop-bb, 2*bb)*2*bb + bb
}

// TileBlockIterator walks the hexagonal grid of block-center pixels whose
// blocks can touch a given tile, column by column (top to bottom, then
// left to right), recording each point's sequence position and the
// sequence positions of its N, E, and SE neighbors (-1 if outside the
// tile) so a caller can wire up cross-pseudocolumn occlusion as it goes.
type TileBlockIterator struct {
	End     bool
	Current mapcoord.Pixel
	Pos     int
	NextN, NextE, NextSE int

	mp            mapcoord.MapParams
	expandedBBox  mapcoord.BBox
	lastTop, lastBottom int
}

// NewTileBlockIterator initializes to the tile's upper-left grid point.
func NewTileBlockIterator(ti mapcoord.TileIdx, mp mapcoord.MapParams) *TileBlockIterator {
	it := &TileBlockIterator{mp: mp}
	bb := ti.GetBBox(mp)
	pad := int64(2*mp.B - 1)
	it.expandedBBox = mapcoord.BBox{
		TopLeft:     bb.TopLeft.Sub(mapcoord.Pixel{X: pad, Y: pad}),
		BottomRight: bb.BottomRight.Add(mapcoord.Pixel{X: pad, Y: pad}),
	}
	b := int64(mp.B)
	it.Current.X = ceildiv(it.expandedBBox.TopLeft.X, 2*b) * 2 * b
	it.Current.Y = topPixelY(it.Current.X, it.expandedBBox.TopLeft.Y, mp.B)
	it.lastTop = 0
	it.lastBottom = -1
	it.NextN, it.NextE, it.NextSE = -1, -1, -1
	return it
}

// Advance moves down the current column, or over to the top of the next
// column once the bottom of the expanded box is reached.
func (it *TileBlockIterator) Advance() {
	b := int64(it.mp.B)
	it.Current.Y += 2 * b
	it.NextSE = it.Pos
	if it.NextN != -1 {
		it.NextE = it.NextN
		it.NextN++
		if it.NextE == it.lastBottom {
			it.NextN = -1
		}
	}
	it.Pos++

	if it.Current.Y >= it.expandedBBox.BottomRight.Y {
		it.Current.X += 2 * b
		if it.Current.X >= it.expandedBBox.BottomRight.X {
			it.End = true
			return
		}
		it.Current.Y = topPixelY(it.Current.X, it.expandedBBox.TopLeft.Y, it.mp.B)
		it.NextSE = -1
		if topPixelY(it.Current.X-2*b, it.expandedBBox.TopLeft.Y, it.mp.B) < it.Current.Y {
			it.NextE = it.lastTop
			it.NextN = it.NextE + 1
		} else {
			it.NextE = -1
			it.NextN = it.lastTop
		}
		it.lastTop = it.Pos
		it.lastBottom = it.Pos - 1
	}
}

// PseudocolumnIterator walks the blocks that project onto the same pixel,
// from the topmost (at the rendered world's MaxY) downward.
type PseudocolumnIterator struct {
	End     bool
	Current mapcoord.BlockIdx
}

func NewPseudocolumnIterator(center mapcoord.Pixel, mp mapcoord.MapParams) *PseudocolumnIterator {
	return &PseudocolumnIterator{Current: mapcoord.TopBlock(center, mp)}
}

// Advance moves one step SED (south, east, down): the next lower block
// that projects onto the same pixel.
func (it *PseudocolumnIterator) Advance() {
	it.Current = it.Current.Add(mapcoord.BlockIdx{X: 1, Z: -1, Y: -1})
	if it.Current.Y < 0 {
		it.End = true
	}
}
