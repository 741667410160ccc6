// Package render draws base tiles from a scene graph and assembles the
// zoom pyramid above them by repeated 2x2 half-reduction.
package render

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/equalpants/pigmap-go/internal/blockimages"
	"github.com/equalpants/pigmap-go/internal/cache"
	"github.com/equalpants/pigmap-go/internal/encode"
	"github.com/equalpants/pigmap-go/internal/mapcoord"
	"github.com/equalpants/pigmap-go/internal/rgba"
	"github.com/equalpants/pigmap-go/internal/scenegraph"
	"github.com/equalpants/pigmap-go/internal/tables"
)

// Stats tallies what one render pass touched, on top of the cache's own
// hit/miss counters.
type Stats struct {
	ReqChunkCount, ReqRegionCount, ReqTileCount int64
	Chunk                                       cache.ChunkCacheStats
	Region                                      cache.RegionCacheStats
}

// Job holds everything one worker needs to render tiles: it is reused
// across every tile that worker draws, so its scratch fields (SceneGraph,
// TileCache) never get reallocated mid-run.
type Job struct {
	FullRender   bool // whether this is a full render, as opposed to an incremental update
	RegionFormat bool
	Mp           mapcoord.MapParams
	InputPath    string
	OutputPath   string
	Encoder      encode.Encoder // nil defaults to PNG

	BlockImages *blockimages.BlockImages
	ChunkTable  *tables.ChunkTable
	ChunkCache  *cache.ChunkCache
	RegionTable *tables.RegionTable
	TileTable   *tables.TileTable
	TileCache   *TileCache
	SceneGraph  *scenegraph.Graph

	Stats Stats

	// TestMode skips reading chunks or drawing pixels, just walking the
	// table/scheduling logic -- useful for dry runs and for exercising
	// the test-world generator without real image work.
	TestMode bool
}

func (j *Job) encoder() encode.Encoder {
	if j.Encoder != nil {
		return j.Encoder
	}
	return &encode.PNGEncoder{}
}

// tileFilePath adapts a mapcoord-produced ".png" path to the job's
// configured output format.
func (j *Job) tileFilePath(basePath string) string {
	ext := j.encoder().FileExtension()
	if ext == ".png" {
		return basePath
	}
	return strings.TrimSuffix(basePath, ".png") + ext
}

// writeTile encodes img and writes it to path, creating parent
// directories as needed.
func (j *Job) writeTile(path string, img *rgba.Image) error {
	enc := j.encoder()
	if enc.Format() == "png" || enc.Format() == "" {
		return img.WritePNG(path)
	}
	data, err := enc.Encode(img.ToStdImage())
	if err != nil {
		return fmt.Errorf("render: encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		if !os.IsNotExist(err) {
			return err
		}
		if mkErr := os.MkdirAll(filepath.Dir(path), 0o755); mkErr != nil {
			return mkErr
		}
		return os.WriteFile(path, data, 0o644)
	}
	return nil
}

// readTile loads an existing tile at path into img, for the incremental
// path that needs to preserve a zoom tile's unchanged quadrants. It
// reports false (not an error) for a missing or unreadable file.
func (j *Job) readTile(path string, img *rgba.Image) bool {
	enc := j.encoder()
	if enc.Format() == "png" || enc.Format() == "" {
		return img.ReadPNG(path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	decoded, err := encode.DecodeImage(data, enc.Format())
	if err != nil {
		return false
	}
	copyStdImage(img, decoded)
	return true
}

func copyStdImage(dst *rgba.Image, src image.Image) {
	bounds := src.Bounds()
	w, h := int32(bounds.Dx()), int32(bounds.Dy())
	dst.Create(w, h)
	for y := int32(0); y < h; y++ {
		for x := int32(0); x < w; x++ {
			r, g, b, a := src.At(bounds.Min.X+int(x), bounds.Min.Y+int(y)).RGBA()
			dst.Set(x, y, rgba.MakeRGBA(uint8(r>>8), uint8(g>>8), uint8(b>>8), uint8(a>>8)))
		}
	}
}

// TileCache holds the 4 intermediate tile images needed at each zoom
// level while recursing down to base tiles, indexed by baseZoom-zoom-1, so
// a worker never reallocates a tile image mid-run.
type TileCache struct {
	Levels []ZoomLevel
}

// ZoomLevel is the working space for one level of the recursion: up to
// 4 child tiles (upper-left, lower-left, upper-right, lower-right).
type ZoomLevel struct {
	Used  [4]bool
	Tiles [4]rgba.Image
}

func NewTileCache(mp mapcoord.MapParams) *TileCache {
	tc := &TileCache{Levels: make([]ZoomLevel, mp.BaseZoom)}
	for i := range tc.Levels {
		for j := range tc.Levels[i].Tiles {
			tc.Levels[i].Tiles[j].Create(int32(mp.TileSize()), int32(mp.TileSize()))
		}
	}
	return tc
}

// ThreadOutputCache holds the tiles a single worker produced at its
// assigned "worker zoom" level, indexed densely by zoom-tile coordinate,
// so the driver's single-threaded finishing pass can read them back
// without re-rendering.
type ThreadOutputCache struct {
	Zoom   int
	Images []rgba.Image
	Used   []bool
}

func NewThreadOutputCache(zoom int) *ThreadOutputCache {
	n := int64(1) << uint(2*zoom)
	return &ThreadOutputCache{
		Zoom:   zoom,
		Images: make([]rgba.Image, n),
		Used:   make([]bool, n),
	}
}

// GetIndex returns zti's index into Images/Used, or -1 if zti isn't at
// this cache's zoom level.
func (c *ThreadOutputCache) GetIndex(zti mapcoord.ZoomTileIdx) int {
	if zti.Zoom != c.Zoom {
		return -1
	}
	size := int64(1) << uint(c.Zoom)
	return int(zti.Y*size + zti.X)
}

// Tile renders a base tile into img and writes it to disk. It reports
// false (not an error) when the tile isn't required or is out of range for
// this baseZoom; the out-of-range case is also logged to stderr. A tile
// that was already drawn is a bug in the caller and returns an error.
func (j *Job) Tile(ti mapcoord.TileIdx, img *rgba.Image) (bool, error) {
	pti := tables.NewPosTileIdx(ti)
	if !j.TileTable.IsRequired(pti) {
		return false, nil
	}

	basePath := ti.ToFilePath(j.Mp)
	if basePath == "" {
		fmt.Fprintf(os.Stderr, "render: tile [%d,%d] exceeds the possible map size\n", ti.X, ti.Y)
		return false, nil
	}
	tileFile := filepath.Join(j.OutputPath, j.tileFilePath(basePath))

	if j.TileTable.IsDrawn(pti) {
		return false, fmt.Errorf("render: attempted to draw tile [%d,%d] more than once", ti.X, ti.Y)
	}

	if j.TestMode {
		j.TileTable.SetDrawn(pti)
		return true, nil
	}

	sg := j.SceneGraph
	sg.Reset()
	img.Create(int32(j.Mp.TileSize()), int32(j.Mp.TileSize()))

	scenegraph.Build(sg, ti, j.Mp, j.ChunkCache, j.BlockImages)
	scenegraph.DrawAll(sg, img, j.BlockImages)

	if err := j.writeTile(tileFile, img); err != nil {
		return false, fmt.Errorf("render: write %s: %w", tileFile, err)
	}
	j.TileTable.SetDrawn(pti)
	return true, nil
}

// combineQuadrants half-reduces each drawn child tile from zlevel into
// the corresponding quadrant of tile, which must already be sized and
// (for a partial update) preloaded with the previous version.
func combineQuadrants(tile *rgba.Image, zlevel *ZoomLevel, children [4]*rgba.Image) {
	half := int32(tile.W / 2)
	quadrants := [4]rgba.Rect{
		{X: 0, Y: 0, W: half, H: half},
		{X: 0, Y: half, W: half, H: half},
		{X: half, Y: 0, W: half, H: half},
		{X: half, Y: half, W: half, H: half},
	}
	for i, used := range zlevel.Used {
		if used {
			rgba.ReduceHalf(tile, quadrants[i], children[i])
		}
	}
}

// prepareZoomTileImage gets tile ready to receive the newly-reduced
// quadrants: for a full render (or when all 4 children are present) it
// starts blank, otherwise it tries to preserve the previous version's
// unchanged quadrants by reading it back from disk first.
func (j *Job) prepareZoomTileImage(tileFile string, usedCount int, tile *rgba.Image) {
	size := int32(j.Mp.TileSize())
	if usedCount < 4 && !j.FullRender {
		if !j.readTile(tileFile, tile) || tile.W != size || tile.H != size {
			tile.Create(size, size)
		}
		return
	}
	tile.Create(size, size)
}

// ZoomTile recursively renders every required tile a zoom tile depends
// on, then assembles and writes the zoom tile itself. It reports false
// (not an error) when the zoom tile isn't required.
func (j *Job) ZoomTile(zti mapcoord.ZoomTileIdx, tile *rgba.Image) (bool, error) {
	if zti.Zoom == j.Mp.BaseZoom {
		return j.Tile(zti.ToTileIdx(j.Mp), tile)
	}
	if j.TileTable.Reject(zti, j.Mp) {
		return false, nil
	}

	zlevel := &j.TileCache.Levels[j.Mp.BaseZoom-zti.Zoom-1]
	topleft := zti.ToZoom(zti.Zoom + 1)
	children := [4]mapcoord.ZoomTileIdx{topleft, topleft.Add(0, 1), topleft.Add(1, 0), topleft.Add(1, 1)}

	var usedCount int
	var childImgs [4]*rgba.Image
	for i, c := range children {
		used, err := j.ZoomTile(c, &zlevel.Tiles[i])
		if err != nil {
			return false, err
		}
		zlevel.Used[i] = used
		childImgs[i] = &zlevel.Tiles[i]
		if used {
			usedCount++
		}
	}
	if usedCount == 0 {
		return false, nil
	}
	if j.TestMode {
		return true, nil
	}

	tileFile := filepath.Join(j.OutputPath, j.tileFilePath(zti.ToFilePath()))
	j.prepareZoomTileImage(tileFile, usedCount, tile)
	combineQuadrants(tile, zlevel, childImgs)

	if err := j.writeTile(tileFile, tile); err != nil {
		return false, fmt.Errorf("render: write %s: %w", tileFile, err)
	}
	return true, nil
}

// ZoomTileFromCache is the second-phase counterpart of ZoomTile for
// multithreaded runs: it stops recursing at tocache's zoom level and
// reads those tiles back from a worker's ThreadOutputCache rather than
// re-rendering them.
func (j *Job) ZoomTileFromCache(zti mapcoord.ZoomTileIdx, tile *rgba.Image, tocache *ThreadOutputCache) (bool, error) {
	if zti.Zoom >= tocache.Zoom {
		return false, nil
	}

	zlevel := &j.TileCache.Levels[j.Mp.BaseZoom-zti.Zoom-1]
	topleft := zti.ToZoom(zti.Zoom + 1)
	children := [4]mapcoord.ZoomTileIdx{topleft, topleft.Add(0, 1), topleft.Add(1, 0), topleft.Add(1, 1)}
	var childImgs [4]*rgba.Image

	if zti.Zoom == tocache.Zoom-1 {
		for i, c := range children {
			idx := tocache.GetIndex(c)
			zlevel.Used[i] = tocache.Used[idx]
			childImgs[i] = &tocache.Images[idx]
		}
	} else {
		for i, c := range children {
			used, err := j.ZoomTileFromCache(c, &zlevel.Tiles[i], tocache)
			if err != nil {
				return false, err
			}
			zlevel.Used[i] = used
			childImgs[i] = &zlevel.Tiles[i]
		}
	}

	var usedCount int
	for _, used := range zlevel.Used {
		if used {
			usedCount++
		}
	}
	if usedCount == 0 {
		return false, nil
	}
	if j.TestMode {
		return true, nil
	}

	tileFile := filepath.Join(j.OutputPath, j.tileFilePath(zti.ToFilePath()))
	j.prepareZoomTileImage(tileFile, usedCount, tile)
	combineQuadrants(tile, zlevel, childImgs)

	if err := j.writeTile(tileFile, tile); err != nil {
		return false, fmt.Errorf("render: write %s: %w", tileFile, err)
	}
	return true, nil
}
