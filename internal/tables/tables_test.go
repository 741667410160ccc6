package tables

import (
	"testing"

	"github.com/equalpants/pigmap-go/internal/mapcoord"
)

func TestChunkTableRequiredAndDiskState(t *testing.T) {
	ct := NewChunkTable()
	ci := mapcoord.ChunkIdx{X: 100, Z: -50}
	pci := NewPosChunkIdx(ci)

	if ct.IsRequired(pci) {
		t.Fatal("fresh table reports chunk required")
	}
	ct.SetRequired(pci)
	if !ct.IsRequired(pci) {
		t.Fatal("SetRequired did not take effect")
	}
	if got := ct.DiskState(pci); got != ChunkUnknown {
		t.Fatalf("fresh disk state = %d, want ChunkUnknown", got)
	}
	ct.SetDiskState(pci, ChunkCorrupted)
	if got := ct.DiskState(pci); got != ChunkCorrupted {
		t.Fatalf("disk state = %d, want ChunkCorrupted", got)
	}
}

func TestChunkTableCopyFrom(t *testing.T) {
	src := NewChunkTable()
	ci := mapcoord.ChunkIdx{X: 7, Z: 7}
	src.SetRequired(NewPosChunkIdx(ci))

	dst := NewChunkTable()
	dst.CopyFrom(src)
	if !dst.IsRequired(NewPosChunkIdx(ci)) {
		t.Fatal("CopyFrom did not carry over required bit")
	}

	// mutating src after the fact must not affect dst (deep copy)
	src.SetDiskState(NewPosChunkIdx(ci), ChunkCorrupted)
	if dst.DiskState(NewPosChunkIdx(ci)) == ChunkCorrupted {
		t.Fatal("CopyFrom aliased storage with source")
	}
}

func TestTileTableSetRequiredReqCount(t *testing.T) {
	tt := NewTileTable()
	ti := mapcoord.TileIdx{X: 3, Y: -3}
	pti := NewPosTileIdx(ti)

	prev := tt.SetRequired(pti)
	if prev {
		t.Fatal("first SetRequired reported previous state true")
	}
	if tt.ReqCount != 1 {
		t.Fatalf("ReqCount = %d, want 1", tt.ReqCount)
	}
	prev = tt.SetRequired(pti)
	if !prev {
		t.Fatal("second SetRequired reported previous state false")
	}
	if tt.ReqCount != 1 {
		t.Fatalf("ReqCount after duplicate set = %d, want 1", tt.ReqCount)
	}
}

func TestTileTableDrawnIndependentOfRequired(t *testing.T) {
	tt := NewTileTable()
	pti := NewPosTileIdx(mapcoord.TileIdx{X: 0, Y: 0})
	tt.SetDrawn(pti)
	if tt.IsRequired(pti) {
		t.Fatal("SetDrawn should not imply required")
	}
	if !tt.IsDrawn(pti) {
		t.Fatal("SetDrawn did not take effect")
	}
}

func TestRequiredTileIteratorVisitsAllRequired(t *testing.T) {
	tt := NewTileTable()
	want := map[mapcoord.TileIdx]bool{
		{X: 0, Y: 0}:   true,
		{X: 5, Y: -2}:  true,
		{X: -100, Y: 3}: true,
	}
	for ti := range want {
		tt.SetRequired(NewPosTileIdx(ti))
	}

	got := map[mapcoord.TileIdx]bool{}
	it := NewRequiredTileIterator(tt)
	for !it.End {
		got[it.Current.ToTileIdx()] = true
		it.Advance()
	}
	if len(got) != len(want) {
		t.Fatalf("iterator visited %d tiles, want %d", len(got), len(want))
	}
	for ti := range want {
		if !got[ti] {
			t.Errorf("iterator missed required tile %v", ti)
		}
	}
}

func TestRegionTableRequiredAndDiskState(t *testing.T) {
	rt := NewRegionTable()
	ri := mapcoord.RegionIdx{X: -2, Z: 9}
	pri := NewPosRegionIdx(ri)

	rt.SetRequired(pri)
	if !rt.IsRequired(pri) {
		t.Fatal("SetRequired did not take effect")
	}
	if got := rt.DiskState(pri); got != RegionUnknown {
		t.Fatalf("fresh disk state = %d, want RegionUnknown", got)
	}
	rt.SetDiskState(pri, RegionCorrupted)
	if got := rt.DiskState(pri); got != RegionCorrupted {
		t.Fatalf("disk state = %d, want RegionCorrupted", got)
	}
}

func TestRegionChunkIteratorFromPosCoversWholeRegion(t *testing.T) {
	ri := NewPosRegionIdx(mapcoord.RegionIdx{X: 2, Z: -3})
	count := 0
	for it := NewRegionChunkIteratorFromPos(ri); !it.End; it.Advance() {
		count++
	}
	if count != 1024 {
		t.Fatalf("iterator visited %d chunks, want 1024", count)
	}
}
