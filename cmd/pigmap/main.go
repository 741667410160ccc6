// Command pigmap renders a Minecraft-like voxel world into an isometric
// slippy-map tile pyramid, either as a full render, an incremental update
// from a chunk/region change list, or a synthetic test-world render.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/equalpants/pigmap-go/internal/blockimages"
	"github.com/equalpants/pigmap-go/internal/cache"
	"github.com/equalpants/pigmap-go/internal/expand"
	"github.com/equalpants/pigmap-go/internal/htmlout"
	"github.com/equalpants/pigmap-go/internal/mapcoord"
	"github.com/equalpants/pigmap-go/internal/params"
	"github.com/equalpants/pigmap-go/internal/render"
	"github.com/equalpants/pigmap-go/internal/rgba"
	"github.com/equalpants/pigmap-go/internal/scenegraph"
	"github.com/equalpants/pigmap-go/internal/scheduler"
	"github.com/equalpants/pigmap-go/internal/tables"
	"github.com/equalpants/pigmap-go/internal/world"
)

// config holds the parsed command line, mirroring the single-letter flag
// surface directly.
type config struct {
	inputDir      string
	outputDir     string
	imageDir      string
	chunkList     string
	regionList    string
	blockSize     int
	tileMult      int
	baseZoom      int
	baseZoomSet   bool
	workers       int
	allowExpand   bool
	htmlDir       string
	testWorldSize int
	testWorldSet  bool
}

const (
	modeTest = iota
	modeFull
	modeIncremental
)

func main() {
	cfg := parseFlags()

	mode, err := validate(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "pigmap:", err)
		os.Exit(1)
	}

	if err := run(cfg, mode); err != nil {
		log.Println("pigmap:", err)
		os.Exit(1)
	}
}

func parseFlags() config {
	var cfg config
	flag.StringVar(&cfg.inputDir, "i", "", "world input directory")
	flag.StringVar(&cfg.outputDir, "o", "", "tile output directory")
	flag.StringVar(&cfg.imageDir, "g", ".", "source image directory (block textures, atlas cache)")
	flag.StringVar(&cfg.chunkList, "c", "", "incremental update: file listing changed chunk paths")
	flag.StringVar(&cfg.regionList, "r", "", "incremental update: file listing changed region paths")
	flag.IntVar(&cfg.blockSize, "B", 0, "block size in pixels (full render only)")
	flag.IntVar(&cfg.tileMult, "T", 0, "tile multiplier (full render only)")
	flag.IntVar(&cfg.baseZoom, "Z", -1, "base zoom level (full render only; default: smallest that fits)")
	flag.IntVar(&cfg.workers, "h", 1, "worker count")
	flag.BoolVar(&cfg.allowExpand, "x", false, "allow expanding the map by one zoom level if needed")
	flag.StringVar(&cfg.htmlDir, "m", ".", "HTML template/stylesheet directory")
	flag.IntVar(&cfg.testWorldSize, "w", 0, "render a synthetic test world of roughly this many chunks")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: pigmap -i input_dir -o output_dir [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Render a voxel world into an isometric tile pyramid.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg.baseZoomSet = isFlagSet("Z")
	cfg.testWorldSet = isFlagSet("w")
	return cfg
}

func isFlagSet(name string) bool {
	found := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

// validate applies the §6 mode-selection and flag-combination rules,
// returning which mode was selected.
func validate(cfg config) (int, error) {
	if cfg.testWorldSet {
		if cfg.inputDir != "" || cfg.outputDir != "" || cfg.chunkList != "" || cfg.regionList != "" ||
			cfg.allowExpand || isFlagSet("m") {
			return 0, fmt.Errorf("-w cannot be combined with -i, -o, -c, -r, -x, or -m")
		}
		if cfg.testWorldSize <= 0 {
			return 0, fmt.Errorf("-w requires a positive chunk count")
		}
		return modeTest, nil
	}

	if cfg.inputDir == "" || cfg.outputDir == "" {
		return 0, fmt.Errorf("-i and -o are required")
	}

	if cfg.chunkList != "" || cfg.regionList != "" {
		if cfg.chunkList != "" && cfg.regionList != "" {
			return 0, fmt.Errorf("-c and -r are mutually exclusive")
		}
		if isFlagSet("B") || isFlagSet("T") || cfg.baseZoomSet {
			return 0, fmt.Errorf("incremental updates (-c/-r) read B/T/baseZoom from pigmap.params; -B/-T/-Z are not allowed")
		}
		return modeIncremental, nil
	}

	if cfg.allowExpand {
		return 0, fmt.Errorf("-x only applies to incremental updates (-c/-r)")
	}
	if cfg.blockSize <= 0 || cfg.tileMult <= 0 {
		return 0, fmt.Errorf("a full render requires -B and -T")
	}
	return modeFull, nil
}

// run executes the selected mode to completion.
func run(cfg config, mode int) error {
	switch mode {
	case modeTest:
		return runTestWorld(cfg)
	case modeFull:
		return runFullOrIncremental(cfg, true)
	default:
		return runFullOrIncremental(cfg, false)
	}
}

func runFullOrIncremental(cfg config, full bool) error {
	var mp mapcoord.MapParams
	ct := tables.NewChunkTable()
	rt := tables.NewRegionTable()
	tt := tables.NewTileTable()

	regionFormat := world.DetectRegionFormat(cfg.inputDir)

	if full {
		mp = mapcoord.MapParams{B: cfg.blockSize, T: cfg.tileMult, BaseZoom: -1}
		if cfg.baseZoomSet {
			mp.BaseZoom = cfg.baseZoom
		}
		if !mp.Valid() {
			return fmt.Errorf("invalid -B/-T/-Z combination")
		}

		var err error
		var counts world.Counts
		if regionFormat {
			counts, err = world.ScanRegionFormat(cfg.inputDir, ct, tt, rt, &mp)
		} else {
			counts, err = world.ScanLegacyFormat(cfg.inputDir, ct, tt, &mp)
		}
		if err != nil {
			return err
		}
		log.Printf("full render: %d chunks, %d regions, %d tiles required", counts.Chunks, counts.Regions, counts.Tiles)
		if !mp.ValidZoom() {
			return fmt.Errorf("world requires more zoom levels than baseZoom allows (%d)", mp.BaseZoom)
		}
	} else {
		var err error
		mp, err = params.ReadFile(cfg.outputDir)
		if err != nil {
			return fmt.Errorf("incremental update requires an existing %s: %w", cfg.outputDir, err)
		}

		scan := func() (world.Counts, error) {
			if cfg.regionList != "" {
				return world.ScanRegionList(cfg.regionList, cfg.inputDir, ct, tt, rt, mp)
			}
			return world.ScanChunkList(cfg.chunkList, ct, tt, mp)
		}

		counts, scanErr := scan()
		if scanErr != nil {
			if !cfg.allowExpand {
				return fmt.Errorf("baseZoom %d too small for this update: %w", mp.BaseZoom, scanErr)
			}
			log.Printf("baseZoom %d too small, expanding map by one level", mp.BaseZoom)
			if _, err := expand.Map(cfg.outputDir); err != nil {
				return fmt.Errorf("expanding map: %w", err)
			}
			mp, err = params.ReadFile(cfg.outputDir)
			if err != nil {
				return err
			}
			ct, rt, tt = tables.NewChunkTable(), tables.NewRegionTable(), tables.NewTileTable()
			counts, err = scan()
			if err != nil {
				return fmt.Errorf("still too small after expanding: %w", err)
			}
		}
		log.Printf("incremental update: %d chunks, %d regions, %d tiles required", counts.Chunks, counts.Regions, counts.Tiles)
	}

	bi, err := blockimages.Create(mp.B, cfg.imageDir)
	if err != nil {
		return fmt.Errorf("loading block image atlas: %w", err)
	}

	if err := renderRequired(cfg, mp, full, regionFormat, ct, rt, tt, bi); err != nil {
		return err
	}

	if err := params.WriteFile(cfg.outputDir, mp); err != nil {
		return fmt.Errorf("writing pigmap.params: %w", err)
	}
	if err := htmlout.Write(cfg.htmlDir, cfg.outputDir, mp); err != nil {
		log.Printf("writing HTML viewer: %v", err)
	}
	return nil
}

func runTestWorld(cfg config) error {
	ct := tables.NewChunkTable()
	tt := tables.NewTileTable()
	mp := mapcoord.MapParams{B: 6, T: 1, BaseZoom: -1}

	counts := world.MakeTestWorld(cfg.testWorldSize, ct, tt, &mp)
	log.Printf("test world: %d chunks, %d tiles required, baseZoom %d", counts.Chunks, counts.Tiles, mp.BaseZoom)

	return renderRequired(cfg, mp, true, false, ct, tables.NewRegionTable(), tt, nil)
}

// renderRequired runs the worker-parallel rendering pass described in
// §5: workers render their assigned zoom tiles (and everything below
// them) independently, then the driver merges their drawn state and
// finishes the coarser zoom levels single-threaded.
func renderRequired(cfg config, mp mapcoord.MapParams, full, regionFormat bool, ct *tables.ChunkTable, rt *tables.RegionTable, tt *tables.TileTable, bi *blockimages.BlockImages) error {
	if tt.ReqCount == 0 {
		log.Println("nothing to do (no required tiles)")
		return nil
	}

	testMode := bi == nil
	workers := cfg.workers
	if workers < 1 {
		workers = 1
	}

	var capBytes uint64
	if memCap, err := scheduler.DefaultMemoryCap(0.5); err == nil {
		capBytes = memCap
	}

	var plan scheduler.Plan
	if mp.BaseZoom >= 1 && tt.ReqCount > 0 {
		var err error
		plan, err = scheduler.AssignThreadTasks(tt, mp, workers, capBytes)
		if err != nil {
			return fmt.Errorf("scheduling render work: %w", err)
		}
	} else {
		// too few zoom levels to split across workers; everything runs
		// as a single full-depth pass below.
		plan = scheduler.Plan{Zoom: 0, Workers: [][]mapcoord.ZoomTileIdx{{{X: 0, Y: 0, Zoom: 0}}}, Costs: []int64{tt.ReqCount}}
	}

	type workerResult struct {
		tt     *tables.TileTable
		cache  *render.ThreadOutputCache
		chunk  cache.ChunkCacheStats
		region cache.RegionCacheStats
		err    error
	}

	results := make(chan workerResult, len(plan.Workers))
	for _, zoomTiles := range plan.Workers {
		zoomTiles := zoomTiles
		go func() {
			workerTT := tables.NewTileTable()
			workerTT.CopyFrom(tt)
			workerCT := tables.NewChunkTable()
			workerCT.CopyFrom(ct)
			workerRT := tables.NewRegionTable()
			workerRT.CopyFrom(rt)

			var chunkCache *cache.ChunkCache
			var sg *scenegraph.Graph
			if !testMode {
				rc := cache.NewRegionCache(workerCT, workerRT, cfg.inputDir, full)
				chunkCache = cache.NewChunkCache(workerCT, workerRT, rc, cfg.inputDir, full, regionFormat)
				sg = scenegraph.NewGraph()
			}

			job := &render.Job{
				FullRender:   full,
				RegionFormat: regionFormat,
				Mp:           mp,
				InputPath:    cfg.inputDir,
				OutputPath:   cfg.outputDir,
				BlockImages:  bi,
				ChunkTable:   workerCT,
				ChunkCache:   chunkCache,
				RegionTable:  workerRT,
				TileTable:    workerTT,
				TileCache:    render.NewTileCache(mp),
				SceneGraph:   sg,
				TestMode:     testMode,
			}

			toc := render.NewThreadOutputCache(plan.Zoom)
			var tmp rgba.Image
			for _, zti := range zoomTiles {
				used, err := job.ZoomTile(zti, &tmp)
				if err != nil {
					results <- workerResult{err: fmt.Errorf("worker rendering zoom tile %+v: %w", zti, err)}
					return
				}
				idx := toc.GetIndex(zti)
				toc.Used[idx] = used
				if used {
					toc.Images[idx] = tmp
				}
			}

			var stats cache.ChunkCacheStats
			var rstats cache.RegionCacheStats
			if chunkCache != nil {
				stats = chunkCache.Stats
				rstats = chunkCache.RegionCache.Stats
			}
			results <- workerResult{tt: workerTT, cache: toc, chunk: stats, region: rstats}
		}()
	}

	combined := render.NewThreadOutputCache(plan.Zoom)
	var chunkStats cache.ChunkCacheStats
	var regionStats cache.RegionCacheStats
	for range plan.Workers {
		res := <-results
		if res.err != nil {
			return res.err
		}
		tt.MergeDrawnFrom(res.tt)
		for i := range combined.Used {
			if res.cache.Used[i] {
				combined.Used[i] = true
				combined.Images[i] = res.cache.Images[i]
			}
		}
		chunkStats.Add(res.chunk)
		regionStats.Add(res.region)
	}

	// single-threaded finishing pass above the worker-split zoom level
	finishJob := &render.Job{
		FullRender: full,
		Mp:         mp,
		OutputPath: cfg.outputDir,
		TileTable:  tt,
		TileCache:  render.NewTileCache(mp),
		TestMode:   testMode,
	}
	var top rgba.Image
	if plan.Zoom > 0 {
		if _, err := finishJob.ZoomTileFromCache(mapcoord.ZoomTileIdx{X: 0, Y: 0, Zoom: 0}, &top, combined); err != nil {
			return fmt.Errorf("finishing zoom pyramid: %w", err)
		}
	}

	for it := tables.NewRequiredTileIterator(tt); !it.End; it.Advance() {
		if !tt.IsDrawn(it.Current) {
			log.Printf("required tile %s was somehow not drawn!", it.Current.ToTileIdx().ToFilePath(mp))
		}
	}

	log.Printf("chunks: %d hits %d misses %d read %d missing %d reqmissing %d corrupt",
		chunkStats.Hits, chunkStats.Misses, chunkStats.Read, chunkStats.Missing, chunkStats.ReqMissing, chunkStats.Corrupt)
	log.Printf("regions: %d hits %d misses %d read %d missing %d reqmissing %d corrupt",
		regionStats.Hits, regionStats.Misses, regionStats.Read, regionStats.Missing, regionStats.ReqMissing, regionStats.Corrupt)
	return nil
}
