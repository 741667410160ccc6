package scenegraph

import (
	"testing"

	"github.com/equalpants/pigmap-go/internal/blockimages"
	"github.com/equalpants/pigmap-go/internal/mapcoord"
	"github.com/equalpants/pigmap-go/internal/rgba"
	"github.com/equalpants/pigmap-go/internal/tables"
	"github.com/equalpants/pigmap-go/internal/worldfmt"
)

// newTestAtlasWithOpaqueStone builds a real (if textureless) atlas with
// stone's recipe offset filled in as a fully opaque sprite, the way
// blockimages' own tests do, so IsOpaque reflects genuine pixel data
// rather than a hand-set flag.
func newTestAtlasWithOpaqueStone() *blockimages.BlockImages {
	b := 6
	bi := &blockimages.BlockImages{Rectsize: int32(4 * b)}
	bi.SetOffsets()
	bi.Img.Create(bi.Rectsize*16, (int32(blockimages.NumBlockImages)/16+1)*bi.Rectsize)

	stoneOffset := bi.Offset(1, 0)
	rect := bi.GetRect(stoneOffset)
	for y := rect.Y; y < rect.Y+rect.H; y++ {
		for x := rect.X; x < rect.X+rect.W; x++ {
			bi.Img.Set(x, y, rgba.MakeRGBA(120, 120, 120, 255))
		}
	}
	bi.CheckOpacityAndTransparency(b)
	return bi
}

// fakeSource is an in-memory ChunkSource for tests: chunks not explicitly
// placed come back as blank (all-air).
type fakeSource struct {
	chunks map[tables.PosChunkIdx]*worldfmt.ChunkData
	blank  worldfmt.ChunkData
}

func newFakeSource() *fakeSource {
	return &fakeSource{chunks: make(map[tables.PosChunkIdx]*worldfmt.ChunkData), blank: worldfmt.BlankChunkData()}
}

func (f *fakeSource) GetData(ci tables.PosChunkIdx) *worldfmt.ChunkData {
	if cd, ok := f.chunks[ci]; ok {
		return cd
	}
	return &f.blank
}

func (f *fakeSource) setBlock(bi mapcoord.BlockIdx, id uint16, data uint8) {
	ci := tables.NewPosChunkIdx(bi.GetChunkIdx())
	cd, ok := f.chunks[ci]
	if !ok {
		blank := worldfmt.BlankChunkData()
		cd = &blank
		f.chunks[ci] = cd
	}
	bo := worldfmt.NewBlockOffset(bi)
	i := (bo.Y*16+bo.Z)*16 + bo.X
	cd.BlockIDs[i] = uint8(id)
	addNibble := uint8(id >> 8)
	if i%2 == 0 {
		cd.BlockAdd[i/2] = (cd.BlockAdd[i/2] &^ 0x0f) | addNibble
		cd.BlockData[i/2] = (cd.BlockData[i/2] &^ 0x0f) | data
	} else {
		cd.BlockAdd[i/2] = (cd.BlockAdd[i/2] &^ 0xf0) | addNibble<<4
		cd.BlockData[i/2] = (cd.BlockData[i/2] &^ 0xf0) | data<<4
	}
}

func testMapParams() mapcoord.MapParams {
	return mapcoord.MapParams{B: 6, T: 1, BaseZoom: 0, MinY: 0, MaxY: 127}
}

func TestTileBlockIteratorNeighborsAreConsistent(t *testing.T) {
	mp := testMapParams()
	ti := mapcoord.TileIdx{X: 0, Y: 0}

	var centers []mapcoord.Pixel
	for it := NewTileBlockIterator(ti, mp); !it.End; it.Advance() {
		centers = append(centers, it.Current)
		if it.Pos != len(centers)-1 {
			t.Fatalf("pos %d does not match sequence index %d", it.Pos, len(centers)-1)
		}
		if it.NextN >= it.Pos || it.NextE >= it.Pos || it.NextSE >= it.Pos {
			t.Fatalf("neighbor position is after current position %d: N=%d E=%d SE=%d", it.Pos, it.NextN, it.NextE, it.NextSE)
		}
	}
	if len(centers) == 0 {
		t.Fatal("iterator produced no grid points")
	}

	b := int64(mp.B)
	for pos, c := range centers {
		bi := mapcoord.TopBlock(c, mp)
		if bi.GetCenter(mp) != c {
			t.Fatalf("topBlock round-trip mismatch at pos %d: %+v -> %+v", pos, c, bi.GetCenter(mp))
		}
	}
	// re-walk to check the specific N/E/SE pixel relationships
	pos := 0
	for it := NewTileBlockIterator(ti, mp); !it.End; it.Advance() {
		if it.NextN != -1 {
			want := mapcoord.Pixel{X: it.Current.X - 2*b, Y: it.Current.Y + b}
			if centers[it.NextN] != want {
				t.Fatalf("pos %d: N neighbor pixel = %+v, want %+v", pos, centers[it.NextN], want)
			}
		}
		if it.NextE != -1 {
			want := mapcoord.Pixel{X: it.Current.X - 2*b, Y: it.Current.Y - b}
			if centers[it.NextE] != want {
				t.Fatalf("pos %d: E neighbor pixel = %+v, want %+v", pos, centers[it.NextE], want)
			}
		}
		if it.NextSE != -1 {
			want := mapcoord.Pixel{X: it.Current.X, Y: it.Current.Y - 2*b}
			if centers[it.NextSE] != want {
				t.Fatalf("pos %d: SE neighbor pixel = %+v, want %+v", pos, centers[it.NextSE], want)
			}
		}
		pos++
	}
}

func TestPseudocolumnIteratorStepsSED(t *testing.T) {
	mp := testMapParams()
	center := mapcoord.Pixel{X: 0, Y: 0}
	it := NewPseudocolumnIterator(center, mp)
	if it.End {
		t.Fatal("iterator ended immediately")
	}
	first := it.Current
	it.Advance()
	if it.End {
		t.Fatal("iterator ended after one step from a valid MaxY")
	}
	want := first.Add(mapcoord.BlockIdx{X: 1, Z: -1, Y: -1})
	if it.Current != want {
		t.Fatalf("advance = %+v, want %+v", it.Current, want)
	}
}

func TestBuildSceneGraphSingleOpaqueBlockGetsDropOffDarkening(t *testing.T) {
	mp := testMapParams()
	// MaxY=5 (rather than the default 255) so the block's D neighbor lookup
	// stays inside the chunk's valid Y range; Y=0 is the world floor and
	// has no D neighbor to query.
	mp.MaxY, mp.UserMaxY = 5, true
	src := newFakeSource()

	center := mapcoord.Pixel{X: 0, Y: 0}
	bi := mapcoord.TopBlock(center, mp)
	src.setBlock(bi, 1, 0) // stone, fully opaque

	atlas := newTestAtlasWithOpaqueStone()

	g := NewGraph()
	ti := bi.GetCenter(mp).GetTile(mp)
	Build(g, ti, mp, src, atlas)

	if len(g.Nodes) != 1 {
		t.Fatalf("got %d nodes, want 1", len(g.Nodes))
	}
	n := g.Nodes[0]
	if !n.DarkenSU || !n.DarkenEU || !n.DarkenND || !n.DarkenWD {
		t.Fatalf("isolated opaque block should darken all four drop-off edges, got %+v", n)
	}
}

func TestCheckSpecialFenceConnectivityMatchesOffsetFormula(t *testing.T) {
	src := newFakeSource()
	center := mapcoord.BlockIdx{X: 10, Z: 10, Y: 5}
	src.setBlock(center, 85, 0)
	src.setBlock(center.Add(deltaN), 85, 0)
	src.setBlock(center.Add(deltaE), 85, 0)

	ci := tables.NewPosChunkIdx(center.GetChunkIdx())
	chunkdata := src.GetData(ci)
	atlas := newTestAtlasWithOpaqueStone()

	node := newNode(0, 0, center, atlas.Offset(85, 0))
	checkSpecial(&node, 85, 0, ci, chunkdata, src, atlas)

	if node.BimgOffset != 162 {
		t.Fatalf("fence with N+E neighbors got offset %d, want 162", node.BimgOffset)
	}
}

// TestCheckSpecialWaterLineMatchesCatalogOffsets mirrors a north-south line
// of water: the northmost block has no water neighbor to its N and keeps the
// full-face sprite, while every block south of it sees water immediately to
// its N and switches to the missing-N-face variant.
func TestCheckSpecialWaterLineMatchesCatalogOffsets(t *testing.T) {
	src := newFakeSource()
	north := mapcoord.BlockIdx{X: 10, Z: 10, Y: 5}
	mid := north.Add(deltaS)
	south := mid.Add(deltaS)
	for _, bi := range []mapcoord.BlockIdx{north, mid, south} {
		src.setBlock(bi, 8, 0)
	}

	ci := tables.NewPosChunkIdx(north.GetChunkIdx())
	chunkdata := src.GetData(ci)
	atlas := newTestAtlasWithOpaqueStone()

	for _, tc := range []struct {
		name string
		bi   mapcoord.BlockIdx
		want int32
	}{
		{"northmost", north, blockimages.OffsetWaterFull},
		{"interior 1", mid, blockimages.OffsetWaterNoN},
		{"interior 2", south, blockimages.OffsetWaterNoN},
	} {
		node := newNode(0, 0, tc.bi, atlas.Offset(8, 0))
		checkSpecial(&node, 8, 0, ci, chunkdata, src, atlas)
		if node.BimgOffset != tc.want {
			t.Errorf("%s: offset = %d, want %d", tc.name, node.BimgOffset, tc.want)
		}
	}
	if blockimages.OffsetWaterFull != 8 || blockimages.OffsetWaterNoN != 179 {
		t.Fatalf("water offsets drifted from the catalog-pinned values: full=%d noN=%d", blockimages.OffsetWaterFull, blockimages.OffsetWaterNoN)
	}
}
