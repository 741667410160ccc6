package scheduler

import (
	"testing"

	"github.com/equalpants/pigmap-go/internal/mapcoord"
	"github.com/equalpants/pigmap-go/internal/tables"
)

func TestScheduleBalancesEvenCosts(t *testing.T) {
	costs := []int64{10, 10, 10, 10}
	assignments, gap, fraction := Schedule(costs, 2)
	if len(assignments) != len(costs) {
		t.Fatalf("got %d assignments, want %d", len(assignments), len(costs))
	}
	if gap != 0 || fraction != 0 {
		t.Fatalf("four equal costs on two workers should balance exactly, got gap=%d fraction=%v", gap, fraction)
	}
	var totals [2]int64
	for i, w := range assignments {
		totals[w] += costs[i]
	}
	if totals[0] != totals[1] {
		t.Fatalf("worker totals = %v, want equal", totals)
	}
}

func TestScheduleSkewedCostsProduceNonzeroGap(t *testing.T) {
	costs := []int64{100, 1, 1, 1}
	assignments, gap, fraction := Schedule(costs, 2)
	if gap <= 0 || fraction <= 0 {
		t.Fatalf("one huge cost among small ones should leave a gap, got gap=%d fraction=%v", gap, fraction)
	}
	// the 100-cost item should land alone on one worker
	bigWorker := assignments[0]
	for i := 1; i < len(costs); i++ {
		if assignments[i] == bigWorker {
			t.Fatalf("cost %d landed on the same worker as the largest cost", i)
		}
	}
}

func TestScheduleSingleWorkerGetsEverything(t *testing.T) {
	costs := []int64{5, 3, 1}
	assignments, gap, fraction := Schedule(costs, 1)
	if gap != 0 || fraction != 0 {
		t.Fatalf("a single worker has nothing to be imbalanced against, got gap=%d fraction=%v", gap, fraction)
	}
	for _, w := range assignments {
		if w != 0 {
			t.Fatalf("single-worker assignment = %d, want 0", w)
		}
	}
}

func TestMemoryFitsZeroCapMeansUnlimited(t *testing.T) {
	if !MemoryFits(1<<30, 4096, 0) {
		t.Fatal("a zero cap should never reject")
	}
}

func TestMemoryFitsRejectsOversizedRequest(t *testing.T) {
	if MemoryFits(1000, 4096, 1024) {
		t.Fatal("1000 tiles of 4096x4096 should not fit in a 1KB cap")
	}
	if !MemoryFits(1, 2, 16) {
		t.Fatal("one 2x2 RGBA tile (16 bytes) should fit exactly in a 16-byte cap")
	}
}

func testMapParams(baseZoom int) mapcoord.MapParams {
	return mapcoord.MapParams{B: 6, T: 1, BaseZoom: baseZoom, MinY: 0, MaxY: 127}
}

func TestAssignThreadTasksRejectsBaseZoomZero(t *testing.T) {
	tt := tables.NewTileTable()
	mp := testMapParams(0)
	if _, err := AssignThreadTasks(tt, mp, 2, 0); err == nil {
		t.Fatal("baseZoom 0 has no zoom level to partition at and should error")
	}
}

func TestAssignThreadTasksRejectsZeroWorkers(t *testing.T) {
	tt := tables.NewTileTable()
	mp := testMapParams(2)
	if _, err := AssignThreadTasks(tt, mp, 0, 0); err == nil {
		t.Fatal("zero workers should error")
	}
}

func TestAssignThreadTasksRejectsEmptyTable(t *testing.T) {
	tt := tables.NewTileTable()
	mp := testMapParams(2)
	if _, err := AssignThreadTasks(tt, mp, 2, 0); err == nil {
		t.Fatal("an empty table has no required tiles at any zoom level and should error")
	}
}

// scatterRequiredTiles marks enough base tiles required, spread across the
// base grid, that zoom level 1's four quadrants each contain at least one
// of them -- enough for assignThreadTasks to find real costs to schedule.
func scatterRequiredTiles(tt *tables.TileTable, mp mapcoord.MapParams) {
	size := int64(1) << uint(mp.BaseZoom)
	for x := -size / 2; x < size/2; x += 2 {
		for y := -size / 2; y < size/2; y += 2 {
			tt.SetRequired(tables.NewPosTileIdx(mapcoord.TileIdx{X: x, Y: y}))
		}
	}
}

func TestAssignThreadTasksCoversEveryRequiredTileExactlyOnce(t *testing.T) {
	mp := testMapParams(4)
	tt := tables.NewTileTable()
	scatterRequiredTiles(tt, mp)

	plan, err := AssignThreadTasks(tt, mp, 3, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Zoom < 1 || plan.Zoom > mp.BaseZoom {
		t.Fatalf("plan.Zoom = %d, want within [1,%d]", plan.Zoom, mp.BaseZoom)
	}

	var total int64
	seen := make(map[mapcoord.ZoomTileIdx]bool)
	for w, tiles := range plan.Workers {
		var sum int64
		for _, zti := range tiles {
			if zti.Zoom != plan.Zoom {
				t.Fatalf("worker %d has a tile at zoom %d, want %d", w, zti.Zoom, plan.Zoom)
			}
			if seen[zti] {
				t.Fatalf("zoom tile %+v assigned to more than one worker", zti)
			}
			seen[zti] = true
			sum += tt.GetNumRequired(zti, mp)
		}
		if sum != plan.Costs[w] {
			t.Fatalf("worker %d cost = %d, want %d", w, plan.Costs[w], sum)
		}
		total += sum
	}
	if total != tt.ReqCount {
		t.Fatalf("plan covers %d required tiles, want %d", total, tt.ReqCount)
	}
}

func TestAssignThreadTasksMemoryCapSkipsLevelsThatDoNotFit(t *testing.T) {
	mp := testMapParams(4)
	tt := tables.NewTileTable()
	scatterRequiredTiles(tt, mp)

	// a cap too small for even a single tile forces every level to be
	// skipped, which should surface as an error rather than a bogus plan.
	if _, err := AssignThreadTasks(tt, mp, 2, 1); err == nil {
		t.Fatal("an impossibly small memory cap should leave no usable level")
	}
}
