// Package scheduler picks a zoom level at which to split rendering work
// across a fixed worker pool, and assigns that level's zoom tiles to
// workers so their total costs stay as even as possible.
package scheduler

import (
	"fmt"
	"sort"

	"github.com/equalpants/pigmap-go/internal/mapcoord"
	"github.com/equalpants/pigmap-go/internal/tables"
)

// Schedule assigns each cost to a worker using greedy longest-processing-
// time: costs are handled largest first, each going to whichever worker
// currently has the smallest running total. assignments[i] is the worker
// index chosen for costs[i]. gap is the difference between the most- and
// least-loaded worker's totals; fraction expresses that gap as a share of
// the most-loaded worker's total (0 when every total is 0).
func Schedule(costs []int64, workers int) (assignments []int, gap int64, fraction float64) {
	type indexed struct {
		cost int64
		idx  int
	}
	sorted := make([]indexed, len(costs))
	for i, c := range costs {
		sorted[i] = indexed{c, i}
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].cost > sorted[j].cost })

	totals := make([]int64, workers)
	assignments = make([]int, len(costs))
	for i := range assignments {
		assignments[i] = -1
	}

	next := 0
	for _, s := range sorted {
		assignments[s.idx] = next
		totals[next] += s.cost
		for i := 0; i < workers; i++ {
			if totals[i] < totals[next] {
				next = i
			}
		}
	}

	min, max := totals[0], totals[0]
	for _, t := range totals[1:] {
		if t < min {
			min = t
		}
		if t > max {
			max = t
		}
	}
	gap = max - min
	if max != 0 {
		fraction = float64(gap) / float64(max)
	}
	return assignments, gap, fraction
}

// MemoryFits reports whether tiles images of size tileSize x tileSize
// (4 bytes/pixel, RGBA) fit within capBytes. A capBytes of 0 means no
// limit was configured, so everything fits.
func MemoryFits(tiles int, tileSize int64, capBytes uint64) bool {
	if capBytes == 0 {
		return true
	}
	need := uint64(tiles) * uint64(tileSize) * uint64(tileSize) * 4
	return need <= capBytes
}

// DefaultMemoryCap returns fraction of total system RAM as a byte budget
// for the ThreadOutputCache, or an error if RAM could not be detected on
// this platform -- callers that can't detect it should fall back to a
// user-supplied cap or 0 (no limit).
func DefaultMemoryCap(fraction float64) (uint64, error) {
	total, err := totalSystemRAM()
	if err != nil {
		return 0, err
	}
	return uint64(float64(total) * fraction), nil
}

// Plan is the outcome of partitioning a render at a chosen worker zoom:
// Workers[i] lists the zoom tiles assigned to worker i, and Costs[i] is
// the sum of their required-base-tile counts.
type Plan struct {
	Zoom    int
	Workers [][]mapcoord.ZoomTileIdx
	Costs   []int64
}

// stopThreshold and stopGap are the §4.I.4 stop conditions: once a level's
// imbalance drops below either bound, scanning finer levels stops and that
// level's schedule is used.
const (
	stopThreshold = 0.05
	stopGap       = 50
)

// AssignThreadTasks implements §4.I: starting at zoom 1, it looks for the
// coarsest zoom level whose tiles can be scheduled across workers with low
// imbalance, skipping levels whose ThreadOutputCache wouldn't fit within
// capBytes (0 disables the check). It returns the best level found even if
// no level satisfies the stop condition.
func AssignThreadTasks(tt *tables.TileTable, mp mapcoord.MapParams, workers int, capBytes uint64) (Plan, error) {
	if workers < 1 {
		return Plan{}, fmt.Errorf("scheduler: workers must be >= 1, got %d", workers)
	}
	if mp.BaseZoom < 1 {
		return Plan{}, fmt.Errorf("scheduler: baseZoom %d has no zoom level above it to partition at", mp.BaseZoom)
	}

	var bestZoomTiles []mapcoord.ZoomTileIdx
	var bestCosts []int64
	var bestAssignments []int
	bestFraction := 1.1

	for zoom := 1; zoom <= mp.BaseZoom; zoom++ {
		size := int64(1) << uint(zoom)
		var reqZoomTiles []mapcoord.ZoomTileIdx
		var costs []int64
		for x := int64(0); x < size; x++ {
			for y := int64(0); y < size; y++ {
				zti := mapcoord.ZoomTileIdx{X: x, Y: y, Zoom: zoom}
				if n := tt.GetNumRequired(zti, mp); n > 0 {
					reqZoomTiles = append(reqZoomTiles, zti)
					costs = append(costs, n)
				}
			}
		}

		if !MemoryFits(len(reqZoomTiles), mp.TileSize(), capBytes) {
			break
		}

		assignments, gap, fraction := Schedule(costs, workers)
		stop := fraction < stopThreshold || gap < stopGap

		if fraction < bestFraction || stop {
			bestZoomTiles = reqZoomTiles
			bestCosts = costs
			bestAssignments = assignments
			bestFraction = fraction
		}
		if stop {
			break
		}
	}

	if bestZoomTiles == nil {
		return Plan{}, fmt.Errorf("scheduler: no zoom level between 1 and %d produced any required tiles", mp.BaseZoom)
	}

	plan := Plan{
		Zoom:    bestZoomTiles[0].Zoom,
		Workers: make([][]mapcoord.ZoomTileIdx, workers),
		Costs:   make([]int64, workers),
	}
	for i, w := range bestAssignments {
		plan.Workers[w] = append(plan.Workers[w], bestZoomTiles[i])
		plan.Costs[w] += bestCosts[i]
	}
	return plan, nil
}
