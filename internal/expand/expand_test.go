package expand

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/equalpants/pigmap-go/internal/mapcoord"
	"github.com/equalpants/pigmap-go/internal/params"
	"github.com/equalpants/pigmap-go/internal/rgba"
)

func TestMapRelocatesExistingTileAndGrowsBaseZoom(t *testing.T) {
	outDir := t.TempDir()
	mp := mapcoord.MapParams{B: 2, T: 1, BaseZoom: 1}
	if err := params.WriteFile(outDir, mp); err != nil {
		t.Fatal(err)
	}

	tileSize := int32(mp.TileSize())
	img := rgba.New(tileSize, tileSize)
	img.Set(0, 0, 0xff112233)
	if err := img.WritePNG(filepath.Join(outDir, "0.png")); err != nil {
		t.Fatal(err)
	}

	newMP, err := Map(outDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if newMP.BaseZoom != mp.BaseZoom+1 {
		t.Fatalf("BaseZoom = %d, want %d", newMP.BaseZoom, mp.BaseZoom+1)
	}

	if _, err := os.Stat(filepath.Join(outDir, "0.png")); err != nil {
		t.Fatal("a fresh 0.png should exist after expansion")
	}
	if _, err := os.Stat(filepath.Join(outDir, "0", "3.png")); err != nil {
		t.Fatal("the old 0.png should have been relocated to 0/3.png")
	}
	if _, err := os.Stat(filepath.Join(outDir, "base.png")); err != nil {
		t.Fatal("a fresh base.png should exist after expansion")
	}

	var relocated rgba.Image
	if !relocated.ReadPNG(filepath.Join(outDir, "0", "3.png")) {
		t.Fatal("relocated tile should still be a readable PNG")
	}
	if relocated.At(0, 0) != 0xff112233 {
		t.Fatalf("relocated pixel = %#x, want %#x", relocated.At(0, 0), rgba.Pixel(0xff112233))
	}

	persisted, err := params.ReadFile(outDir)
	if err != nil {
		t.Fatalf("reading persisted params: %v", err)
	}
	if persisted.BaseZoom != newMP.BaseZoom {
		t.Fatalf("persisted BaseZoom = %d, want %d", persisted.BaseZoom, newMP.BaseZoom)
	}
}

func TestMapHandlesUnusedQuadrants(t *testing.T) {
	outDir := t.TempDir()
	mp := mapcoord.MapParams{B: 2, T: 1, BaseZoom: 2}
	if err := params.WriteFile(outDir, mp); err != nil {
		t.Fatal(err)
	}

	// no tiles at all on disk -- every quadrant is unused
	newMP, err := Map(outDir)
	if err != nil {
		t.Fatalf("expanding an empty map should not error: %v", err)
	}
	if newMP.BaseZoom != mp.BaseZoom+1 {
		t.Fatalf("BaseZoom = %d, want %d", newMP.BaseZoom, mp.BaseZoom+1)
	}
	for _, dir := range []string{"0", "1", "2", "3"} {
		if _, err := os.Stat(filepath.Join(outDir, dir)); err != nil {
			t.Fatalf("quadrant directory %s should exist even when unused", dir)
		}
	}
}
