package mapcoord

import "testing"

func TestBlockIdxGetCenter(t *testing.T) {
	mp := MapParams{B: 2, T: 1, BaseZoom: 5, MaxY: 127}
	bi := BlockIdx{X: 1, Z: 1, Y: 0}
	got := bi.GetCenter(mp)
	want := Pixel{X: 2 * 2 * (1 + 1), Y: 2 * (1 - 1 - 0)}
	if got != want {
		t.Fatalf("GetCenter() = %+v, want %+v", got, want)
	}
}

func TestTopBlockInvertsGetCenter(t *testing.T) {
	mp := MapParams{B: 2, T: 1, BaseZoom: 5, MaxY: 127, UserMaxY: true}
	for _, bi := range []BlockIdx{
		{X: 0, Z: 0, Y: 127},
		{X: 5, Z: -3, Y: 127},
		{X: -10, Z: 10, Y: 127},
	} {
		p := bi.GetCenter(mp)
		got := TopBlock(p, mp)
		if got != bi {
			t.Errorf("TopBlock(GetCenter(%+v)) = %+v, want %+v", bi, got, bi)
		}
	}
}

func TestChunkIdxFilePathRoundTrip(t *testing.T) {
	cases := []ChunkIdx{{0, 0}, {-1, 5}, {100, -200}}
	for _, ci := range cases {
		path := ci.ToFileName()
		got, ok := ChunkIdxFromFilePath(path)
		if !ok {
			t.Errorf("ChunkIdxFromFilePath(%q) failed to parse", path)
			continue
		}
		if got != ci {
			t.Errorf("round trip %v -> %q -> %v", ci, path, got)
		}
	}
}

func TestChunkIdxToFilePathSubdir(t *testing.T) {
	ci := ChunkIdx{X: -65, Z: 3}
	path := ci.ToFilePath()
	wantDir := toBase36(mod64pos(-65)) + "/" + toBase36(mod64pos(3)) + "/"
	if len(path) < len(wantDir) || path[:len(wantDir)] != wantDir {
		t.Fatalf("ToFilePath() = %q, want prefix %q", path, wantDir)
	}
}

func TestRegionIdxFromFilePath(t *testing.T) {
	ri := RegionIdx{X: -3, Z: 12}
	for _, name := range []string{ri.ToOldFileName(), ri.ToAnvilFileName()} {
		got, ok := RegionIdxFromFilePath(name)
		if !ok || got != ri {
			t.Errorf("RegionIdxFromFilePath(%q) = %v,%v want %v,true", name, got, ok, ri)
		}
	}
}

func TestTileIdxValidAtZoomZero(t *testing.T) {
	mp := MapParams{B: 2, T: 1, BaseZoom: 0}
	if !(TileIdx{0, 0}).Valid(mp) {
		t.Error("tile (0,0) should be valid at baseZoom 0")
	}
	if (TileIdx{1, 0}).Valid(mp) {
		t.Error("tile (1,0) should be invalid at baseZoom 0")
	}
}

func TestTileIdxToZoomTileIdxRoundTrip(t *testing.T) {
	mp := MapParams{B: 2, T: 1, BaseZoom: 6}
	for _, ti := range []TileIdx{{0, 0}, {5, -3}, {-31, 31}} {
		if !ti.Valid(mp) {
			continue
		}
		zt := ti.ToZoomTileIdx(mp)
		got := zt.ToTileIdx(mp)
		if got != ti {
			t.Errorf("round trip %v -> %v -> %v", ti, zt, got)
		}
	}
}

func TestZOrderRoundTrip(t *testing.T) {
	const size = 8
	for i := uint32(0); i < size*size; i++ {
		z := ToZOrder(i, size)
		got := FromZOrder(z, size)
		if got != i {
			t.Errorf("FromZOrder(ToZOrder(%d)) = %d", i, got)
		}
	}
}

func TestBase36RoundTrip(t *testing.T) {
	for _, v := range []int64{0, 1, -1, 35, 36, -36, 123456789, -987654321} {
		s := toBase36(v)
		got, ok := fromBase36Slice(s)
		if !ok || got != v {
			t.Errorf("base36 round trip %d -> %q -> %d,%v", v, s, got, ok)
		}
	}
}

func TestFloordivCeildiv(t *testing.T) {
	cases := []struct{ a, b, fdiv, cdiv int64 }{
		{7, 2, 3, 4},
		{-7, 2, -4, -3},
		{7, -2, -4, -3},
		{-7, -2, 3, 4},
		{0, 5, 0, 0},
	}
	for _, c := range cases {
		if got := floordiv(c.a, c.b); got != c.fdiv {
			t.Errorf("floordiv(%d,%d) = %d, want %d", c.a, c.b, got, c.fdiv)
		}
		if got := ceildiv(c.a, c.b); got != c.cdiv {
			t.Errorf("ceildiv(%d,%d) = %d, want %d", c.a, c.b, got, c.cdiv)
		}
	}
}

func TestMod64pos(t *testing.T) {
	cases := map[int64]int64{0: 0, 63: 63, 64: 0, -1: 63, -64: 0, -65: 63}
	for a, want := range cases {
		if got := mod64pos(a); got != want {
			t.Errorf("mod64pos(%d) = %d, want %d", a, got, want)
		}
	}
}

func TestChunkIdxGetTilesIncludesBaseTile(t *testing.T) {
	mp := MapParams{B: 2, T: 2, BaseZoom: 10}
	ci := ChunkIdx{X: 4, Z: -6}
	tiles := ci.GetTiles(mp)
	if len(tiles) == 0 {
		t.Fatal("GetTiles returned no tiles")
	}
	bbchunk := ci.GetBBox(mp)
	for _, ti := range tiles {
		if !ti.GetBBox(mp).Overlaps(bbchunk) {
			t.Errorf("tile %v does not overlap chunk bbox", ti)
		}
	}
}
