package scenegraph

import (
	"github.com/equalpants/pigmap-go/internal/blockimages"
	"github.com/equalpants/pigmap-go/internal/mapcoord"
	"github.com/equalpants/pigmap-go/internal/rgba"
	"github.com/equalpants/pigmap-go/internal/tables"
	"github.com/equalpants/pigmap-go/internal/worldfmt"
)

// Node is one visible block in a tile's scene graph: its screen position,
// which sprite to draw, which drop-off edges to darken, and up to 7
// occlusion dependents (blocks this one may partially hide, indexed by
// direction: same pseudocolumn, N, E, SE, S, W, NW).
type Node struct {
	XStart, YStart int32 // top-left of the block's bounding box, in tile image coords
	BimgOffset     int32

	DarkenEU, DarkenSU, DarkenND, DarkenWD bool
	drawn                                  bool

	Block mapcoord.BlockIdx

	// Children[0] is the next-lower node in the same pseudocolumn;
	// Children[1..6] are N, E, SE, S, W, NW respectively. -1 means none.
	Children [7]int
}

func newNode(x, y int32, bi mapcoord.BlockIdx, offset int32) Node {
	n := Node{XStart: x, YStart: y, Block: bi, BimgOffset: offset}
	for i := range n.Children {
		n.Children[i] = -1
	}
	return n
}

// Graph holds every visible block in one tile, grouped by pseudocolumn.
// It's meant to be reused across tiles (via Reset) to avoid reallocating.
type Graph struct {
	Nodes []Node
	Pcols []int // index into Nodes of each pseudocolumn's top node, or -1

	stack []int // scratch space for DrawAll's iterative traversal
}

func NewGraph() *Graph {
	g := &Graph{}
	g.Nodes = make([]Node, 0, 2048)
	return g
}

func (g *Graph) Reset() {
	g.Nodes = g.Nodes[:0]
	g.Pcols = g.Pcols[:0]
}

func (g *Graph) topNode(pcol int) int { return g.Pcols[pcol] }

// buildDependencies links nodes between two neighboring pseudocolumns that
// occlude one another: pcol1 must be N, E, or SE of pcol2, and which names
// the child slot on pcol1's nodes that should point into pcol2 (4=S, 5=W,
// 6=NW when pcol1 is N/E/SE of pcol2, matching Node.Children's layout).
func buildDependencies(g *Graph, pcol1, pcol2, which int) {
	node1, node2 := g.topNode(pcol1), g.topNode(pcol2)
	if node1 == -1 || node2 == -1 {
		return
	}

	for {
		if g.Nodes[node1].Block.Occludes(g.Nodes[node2].Block) {
			next1 := g.Nodes[node1].Children[0]
			for next1 != -1 && g.Nodes[next1].Block.Occludes(g.Nodes[node2].Block) {
				node1 = next1
				next1 = g.Nodes[node1].Children[0]
			}
			g.Nodes[node1].Children[which] = node2
			node1 = next1
		}
		if node1 == -1 {
			return
		}

		if g.Nodes[node2].Block.Occludes(g.Nodes[node1].Block) {
			next2 := g.Nodes[node2].Children[0]
			for next2 != -1 && g.Nodes[next2].Block.Occludes(g.Nodes[node1].Block) {
				node2 = next2
				next2 = g.Nodes[node2].Children[0]
			}
			g.Nodes[node2].Children[which-3] = node1
			node2 = next2
		}
		if node2 == -1 {
			return
		}
	}
}

// neighborDirections: N, S, E, W, D deltas in the (X=S+,Z=W+,Y=U+) system
// mapcoord.BlockIdx uses.
var (
	deltaN = mapcoord.BlockIdx{X: -1, Z: 0, Y: 0}
	deltaS = mapcoord.BlockIdx{X: 1, Z: 0, Y: 0}
	deltaE = mapcoord.BlockIdx{X: 0, Z: -1, Y: 0}
	deltaW = mapcoord.BlockIdx{X: 0, Z: 1, Y: 0}
	deltaD = mapcoord.BlockIdx{X: 0, Z: 0, Y: -1}
)

// ChunkSource supplies chunk data on demand, as implemented by
// *cache.ChunkCache.
type ChunkSource interface {
	GetData(ci tables.PosChunkIdx) *worldfmt.ChunkData
}

func neighborBlock(bi, delta mapcoord.BlockIdx, ci tables.PosChunkIdx, chunkdata *worldfmt.ChunkData, cc ChunkSource) (uint16, uint8) {
	bin := bi.Add(delta)
	cin := tables.NewPosChunkIdx(bin.GetChunkIdx())
	cd := chunkdata
	if cin != ci {
		cd = cc.GetData(cin)
	}
	bo := worldfmt.NewBlockOffset(bin)
	return cd.ID(bo), cd.Data(bo)
}

// checkSpecial adjusts a freshly-built node for anything that depends on
// its neighbors rather than purely on its own blockID/blockData: water,
// ice, fence, and chest sprites that vary by adjacency, and the drop-off
// edge darkening every fully opaque block gets when it has no neighbor to
// one of four sides.
func checkSpecial(node *Node, blockID uint16, blockData uint8, ci tables.PosChunkIdx, chunkdata *worldfmt.ChunkData, cc ChunkSource, bi *blockimages.BlockImages) {
	b := node.Block

	switch {
	case node.BimgOffset == blockimages.OffsetWaterFull:
		idN, _ := neighborBlock(b, deltaN, ci, chunkdata, cc)
		idW, _ := neighborBlock(b, deltaW, ci, chunkdata, cc)
		waterN := idN == 8 || idN == 9
		waterW := idW == 8 || idW == 9
		switch {
		case waterW && waterN:
			node.BimgOffset = blockimages.OffsetWaterNoWN
		case waterW:
			node.BimgOffset = blockimages.OffsetWaterNoW
		case waterN:
			node.BimgOffset = blockimages.OffsetWaterNoN
		}

	case blockID == 79: // ice
		idN, _ := neighborBlock(b, deltaN, ci, chunkdata, cc)
		idW, _ := neighborBlock(b, deltaW, ci, chunkdata, cc)
		iceN := idN == 79
		iceW := idW == 79
		switch {
		case iceW && iceN:
			node.BimgOffset = blockimages.OffsetIceNoWN
		case iceW:
			node.BimgOffset = blockimages.OffsetIceNoW
		case iceN:
			node.BimgOffset = blockimages.OffsetIceNoN
		}

	case blockID == 85: // fence
		idN, _ := neighborBlock(b, deltaN, ci, chunkdata, cc)
		idS, _ := neighborBlock(b, deltaS, ci, chunkdata, cc)
		idE, _ := neighborBlock(b, deltaE, ci, chunkdata, cc)
		idW, _ := neighborBlock(b, deltaW, ci, chunkdata, cc)
		var bits uint8
		if idN == 85 {
			bits |= 0x1
		}
		if idS == 85 {
			bits |= 0x2
		}
		if idE == 85 {
			bits |= 0x4
		}
		if idW == 85 {
			bits |= 0x8
		}
		if bits != 0 {
			node.BimgOffset = blockimages.FenceOffset(bits)
		}

	case blockID == 54: // chest
		idN, _ := neighborBlock(b, deltaN, ci, chunkdata, cc)
		idS, _ := neighborBlock(b, deltaS, ci, chunkdata, cc)
		idE, _ := neighborBlock(b, deltaE, ci, chunkdata, cc)
		idW, dataW := neighborBlock(b, deltaW, ci, chunkdata, cc)
		switch {
		case idN == 54:
			node.BimgOffset = blockimages.OffsetChestHalfS
		case idS == 54:
			node.BimgOffset = blockimages.OffsetChestHalfN
		case idW == 54:
			node.BimgOffset = blockimages.OffsetChestHalfE
		case idE == 54:
			node.BimgOffset = blockimages.OffsetChestHalfW
		case bi.IsOpaqueAt(idW, dataW):
			// a single chest blocked to the W turns to face N instead, so
			// its front remains visible
			node.BimgOffset = blockimages.OffsetChestFacingN
		}

	case blockID == 95: // locked chest
		idW, dataW := neighborBlock(b, deltaW, ci, chunkdata, cc)
		if bi.IsOpaqueAt(idW, dataW) {
			node.BimgOffset = blockimages.OffsetLockedChestFacingN
		}
	}

	// TODO: non-opaque-but-not-air blocks (snow, half-steps) could use
	// drop-off darkening too; only fully opaque blocks get it for now.
	if bi.IsOpaque(node.BimgOffset) {
		idS, _ := neighborBlock(b, deltaS, ci, chunkdata, cc)
		idE, _ := neighborBlock(b, deltaE, ci, chunkdata, cc)
		idD, _ := neighborBlock(b, deltaD, ci, chunkdata, cc)
		if idS == 0 {
			node.DarkenSU = true
		}
		if idE == 0 {
			node.DarkenEU = true
		}
		if idD == 0 {
			node.DarkenND = true
			node.DarkenWD = true
		}
	}
}

// Build populates g with every visible block touching tile ti, in
// pseudocolumn order, with occlusion dependencies wired between
// neighboring pseudocolumns.
func Build(g *Graph, ti mapcoord.TileIdx, mp mapcoord.MapParams, cc ChunkSource, bi *blockimages.BlockImages) {
	g.Reset()

	tilebb := ti.GetBBox(mp)
	xoff := -tilebb.TopLeft.X - 2*int64(mp.B)
	yoff := -tilebb.TopLeft.Y - 2*int64(mp.B)

	for tbit := NewTileBlockIterator(ti, mp); !tbit.End; tbit.Advance() {
		g.Pcols = append(g.Pcols, -1)
		var lastci tables.PosChunkIdx
		haveLastci := false
		var chunkdata *worldfmt.ChunkData
		prevnode := -1

		for pcit := NewPseudocolumnIterator(tbit.Current, mp); !pcit.End; pcit.Advance() {
			ci := tables.NewPosChunkIdx(pcit.Current.GetChunkIdx())
			if !haveLastci || ci != lastci {
				chunkdata = cc.GetData(ci)
				lastci = ci
				haveLastci = true
			}

			bo := worldfmt.NewBlockOffset(pcit.Current)
			blockID := chunkdata.ID(bo)
			blockData := chunkdata.Data(bo)
			initialOffset := bi.Offset(blockID, blockData)

			if blockID == 0 { // air
				continue
			}

			node := newNode(int32(tbit.Current.X+xoff), int32(tbit.Current.Y+yoff), pcit.Current, initialOffset)
			checkSpecial(&node, blockID, blockData, ci, chunkdata, cc, bi)

			if bi.IsTransparent(node.BimgOffset) {
				continue
			}

			thisnode := len(g.Nodes)
			g.Nodes = append(g.Nodes, node)
			if prevnode != -1 {
				g.Nodes[prevnode].Children[0] = thisnode
			} else {
				g.Pcols[len(g.Pcols)-1] = thisnode
			}
			prevnode = thisnode

			if bi.IsOpaque(node.BimgOffset) {
				break
			}
		}

		if tbit.NextN != -1 {
			buildDependencies(g, tbit.NextN, tbit.Pos, 4)
		}
		if tbit.NextE != -1 {
			buildDependencies(g, tbit.NextE, tbit.Pos, 5)
		}
		if tbit.NextSE != -1 {
			buildDependencies(g, tbit.NextSE, tbit.Pos, 6)
		}
	}
}

var darkenOverlay = rgba.MakeRGBA(0, 0, 0, 0x60)

// darkenEdge blends darkenOverlay along a 2B-1 pixel diagonal edge of a
// block's bounding box, starting at (x0,y0) and alternating a diagonal
// step with a pure-horizontal one (dx per step, dy every other step).
func darkenEdge(img *rgba.Image, x0, y0, b int32, dx, dy int32) {
	x, y := x0, y0
	which := true
	for i := int32(0); i < 2*b-1; i++ {
		if x >= 0 && x < img.W && y >= 0 && y < img.H {
			p := img.At(x, y)
			rgba.Blend(&p, darkenOverlay)
			img.Set(x, y, p)
		}
		x += dx
		if which {
			y += dy
		}
		which = !which
	}
}

func darkenEUEdge(img *rgba.Image, xstart, ystart, b int32) {
	darkenEdge(img, xstart+2*b-1, ystart, b, -1, 1)
}
func darkenSUEdge(img *rgba.Image, xstart, ystart, b int32) {
	darkenEdge(img, xstart+2*b, ystart, b, 1, 1)
}
func darkenNDEdge(img *rgba.Image, xstart, ystart, b int32) {
	darkenEdge(img, xstart+2*b-1, ystart+4*b-1, b, -1, -1)
}
func darkenWDEdge(img *rgba.Image, xstart, ystart, b int32) {
	darkenEdge(img, xstart+2*b, ystart+4*b-1, b, 1, -1)
}

func drawNode(node *Node, img *rgba.Image, bi *blockimages.BlockImages) {
	rgba.Alphablit(&bi.Img, bi.GetRect(node.BimgOffset), img, node.XStart, node.YStart)
	quarterB := bi.Rectsize / 4
	if node.DarkenEU {
		darkenEUEdge(img, node.XStart, node.YStart, quarterB)
	}
	if node.DarkenSU {
		darkenSUEdge(img, node.XStart, node.YStart, quarterB)
	}
	if node.DarkenND {
		darkenNDEdge(img, node.XStart, node.YStart, quarterB)
	}
	if node.DarkenWD {
		darkenWDEdge(img, node.XStart, node.YStart, quarterB)
	}
	node.drawn = true
}

// drawSubgraph draws rootnode and, first, every not-yet-drawn node it
// depends on (same pseudocolumn plus the 6 occlusion neighbors),
// iteratively rather than recursively to bound stack depth to the
// reused scratch slice.
func drawSubgraph(g *Graph, rootnode int, img *rgba.Image, bi *blockimages.BlockImages) {
	if g.Nodes[rootnode].drawn {
		return
	}
	g.stack = g.stack[:0]
	g.stack = append(g.stack, rootnode)
	for len(g.stack) > 0 {
		cur := g.stack[len(g.stack)-1]
		node := &g.Nodes[cur]
		pushed := false
		for _, child := range node.Children {
			if child != -1 && !g.Nodes[child].drawn {
				g.stack = append(g.stack, child)
				pushed = true
				break
			}
		}
		if pushed {
			continue
		}
		drawNode(node, img, bi)
		g.stack = g.stack[:len(g.stack)-1]
	}
}

// DrawAll draws every node of g into img, in dependency order.
func DrawAll(g *Graph, img *rgba.Image, bi *blockimages.BlockImages) {
	for i := range g.Nodes {
		drawSubgraph(g, i, img, bi)
	}
}
