package render

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/equalpants/pigmap-go/internal/blockimages"
	"github.com/equalpants/pigmap-go/internal/cache"
	"github.com/equalpants/pigmap-go/internal/mapcoord"
	"github.com/equalpants/pigmap-go/internal/rgba"
	"github.com/equalpants/pigmap-go/internal/scenegraph"
	"github.com/equalpants/pigmap-go/internal/tables"
)

func testMapParams() mapcoord.MapParams {
	return mapcoord.MapParams{B: 6, T: 1, BaseZoom: 0, MinY: 0, MaxY: 5}
}

// newBlankWorldJob builds a Job backed by an empty input directory (so
// every chunk reads back as all-air) and an empty tile table for each test
// to mark required tiles in -- enough to exercise Tile/ZoomTile without needing any
// real world data or atlas pixels.
func newBlankWorldJob(t *testing.T, mp mapcoord.MapParams) (*Job, string) {
	t.Helper()
	inDir := t.TempDir()
	outDir := t.TempDir()

	ct := tables.NewChunkTable()
	rt := tables.NewRegionTable()
	rc := cache.NewRegionCache(ct, rt, inDir, true)
	cc := cache.NewChunkCache(ct, rt, rc, inDir, true, false)

	tt := tables.NewTileTable()

	return &Job{
		FullRender: true,
		Mp:         mp,
		InputPath:  inDir,
		OutputPath: outDir,
		BlockImages: &blockimages.BlockImages{Rectsize: int32(4 * mp.B)},
		ChunkTable:  ct,
		ChunkCache:  cc,
		RegionTable: rt,
		TileTable:   tt,
		TileCache:   NewTileCache(mp),
		SceneGraph:  scenegraph.NewGraph(),
	}, outDir
}

func TestTileNotRequiredReturnsFalse(t *testing.T) {
	mp := testMapParams()
	j, _ := newBlankWorldJob(t, mp)
	var img rgba.Image
	drawn, err := j.Tile(mapcoord.TileIdx{X: 0, Y: 0}, &img)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if drawn {
		t.Fatal("an unrequired tile should not be drawn")
	}
}

func TestTileDrawsBlankWorldAndWritesPNG(t *testing.T) {
	mp := testMapParams()
	j, outDir := newBlankWorldJob(t, mp)
	ti := mapcoord.TileIdx{X: 0, Y: 0}
	pti := tables.NewPosTileIdx(ti)
	j.TileTable.SetRequired(pti)

	var img rgba.Image
	drawn, err := j.Tile(ti, &img)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !drawn {
		t.Fatal("required tile should have been drawn")
	}
	if !j.TileTable.IsDrawn(pti) {
		t.Fatal("tile table should mark the tile drawn")
	}

	path := filepath.Join(outDir, ti.ToFilePath(mp))
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected tile PNG at %s: %v", path, err)
	}
}

func TestTileDrawnTwiceErrors(t *testing.T) {
	mp := testMapParams()
	j, _ := newBlankWorldJob(t, mp)
	ti := mapcoord.TileIdx{X: 0, Y: 0}
	pti := tables.NewPosTileIdx(ti)
	j.TileTable.SetRequired(pti)

	var img rgba.Image
	if _, err := j.Tile(ti, &img); err != nil {
		t.Fatalf("first draw: unexpected error: %v", err)
	}
	if _, err := j.Tile(ti, &img); err == nil {
		t.Fatal("drawing the same tile twice should error")
	}
}

func TestTileTestModeSkipsIOAndMarksDrawn(t *testing.T) {
	mp := testMapParams()
	j, outDir := newBlankWorldJob(t, mp)
	j.TestMode = true
	ti := mapcoord.TileIdx{X: 0, Y: 0}
	pti := tables.NewPosTileIdx(ti)
	j.TileTable.SetRequired(pti)

	var img rgba.Image
	drawn, err := j.Tile(ti, &img)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !drawn || !j.TileTable.IsDrawn(pti) {
		t.Fatal("test-mode draw should still report drawn and mark the table")
	}
	entries, _ := os.ReadDir(outDir)
	if len(entries) != 0 {
		t.Fatalf("test mode should not touch disk, found %v", entries)
	}
}

func TestZoomTileWithNoRequiredChildrenIsRejected(t *testing.T) {
	mp := testMapParams()
	mp.BaseZoom = 2
	j, _ := newBlankWorldJob(t, mp)
	j.TileCache = NewTileCache(mp)

	var img rgba.Image
	drawn, err := j.ZoomTile(mapcoord.ZoomTileIdx{X: 0, Y: 0, Zoom: 0}, &img)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if drawn {
		t.Fatal("a zoom tile above an empty tile table should be rejected, not drawn")
	}
}

func TestZoomTileRecursesToRequiredBaseTile(t *testing.T) {
	mp := testMapParams()
	mp.BaseZoom = 1
	j, outDir := newBlankWorldJob(t, mp)
	j.TileCache = NewTileCache(mp)

	base := mapcoord.TileIdx{X: 0, Y: 0}
	j.TileTable.SetRequired(tables.NewPosTileIdx(base))

	var img rgba.Image
	zti := base.ToZoomTileIdx(mp).ToZoom(0)
	drawn, err := j.ZoomTile(zti, &img)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !drawn {
		t.Fatal("zoom tile with one required base child should be drawn")
	}
	path := filepath.Join(outDir, zti.ToFilePath())
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected zoom tile PNG at %s: %v", path, err)
	}
}

func TestThreadOutputCacheGetIndex(t *testing.T) {
	c := NewThreadOutputCache(2)
	if idx := c.GetIndex(mapcoord.ZoomTileIdx{X: 1, Y: 1, Zoom: 3}); idx != -1 {
		t.Fatalf("wrong zoom should return -1, got %d", idx)
	}
	if idx := c.GetIndex(mapcoord.ZoomTileIdx{X: 3, Y: 1, Zoom: 2}); idx != 1*4+3 {
		t.Fatalf("GetIndex = %d, want %d", idx, 1*4+3)
	}
}
