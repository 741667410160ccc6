// Package world scans a source world directory (or a synthetic test
// world) and marks the chunks, regions, and tiles it finds as required in
// the tables a render job will later walk.
package world

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/equalpants/pigmap-go/internal/mapcoord"
	"github.com/equalpants/pigmap-go/internal/tables"
	"github.com/equalpants/pigmap-go/internal/worldfmt"
)

// DetectRegionFormat reports whether inputdir holds a world in the
// Anvil/McRegion region-file layout (a "region" subdirectory) as opposed
// to the legacy one-file-per-chunk layout.
func DetectRegionFormat(inputdir string) bool {
	info, err := os.Stat(filepath.Join(inputdir, "region"))
	return err == nil && info.IsDir()
}

// Counts tallies how many chunks, tiles, and regions a scan marked
// required.
type Counts struct {
	Chunks, Tiles, Regions int64
}

// markChunkTiles marks every base tile ci's chunk overlaps as required. If
// findBaseZoom is set, a tile that doesn't fit the current grid grows
// mp.BaseZoom until it does; otherwise that is a hard error, since
// incremental updates must target an already-established map.
func markChunkTiles(ci mapcoord.ChunkIdx, tt *tables.TileTable, mp *mapcoord.MapParams, findBaseZoom bool) error {
	for _, ti := range ci.GetTiles(*mp) {
		pti := tables.NewPosTileIdx(ti)
		if !pti.Valid() {
			continue // extremely distant tile; world may be corrupt
		}
		tt.SetRequired(pti)
		if findBaseZoom {
			for !ti.Valid(*mp) {
				mp.BaseZoom++
			}
		} else if !ti.Valid(*mp) {
			return fmt.Errorf("world: baseZoom %d too small for tile [%d,%d]", mp.BaseZoom, ti.X, ti.Y)
		}
	}
	return nil
}

// ScanRegionFormat finds every region file physically present in
// inputdir's "region" subdirectory, marking it, its contained chunks, and
// those chunks' tiles required. If mp.BaseZoom is -1 on entry, the zoom
// level grows from 0 as needed; otherwise an out-of-range tile is an
// error.
func ScanRegionFormat(inputdir string, ct *tables.ChunkTable, tt *tables.TileTable, rt *tables.RegionTable, mp *mapcoord.MapParams) (Counts, error) {
	findBaseZoom := mp.BaseZoom == -1
	if findBaseZoom {
		mp.BaseZoom = 0
	}
	var counts Counts

	entries, err := os.ReadDir(filepath.Join(inputdir, "region"))
	if err != nil {
		if os.IsNotExist(err) {
			return counts, nil
		}
		return counts, fmt.Errorf("world: reading region directory: %w", err)
	}

	for _, e := range entries {
		ri, ok := mapcoord.RegionIdxFromFilePath(e.Name())
		if !ok {
			continue
		}
		pri := tables.NewPosRegionIdx(ri)
		if !pri.Valid() {
			continue // extremely distant region; world may be corrupt
		}
		if rt.IsRequired(pri) {
			continue // already found, probably via the other region extension
		}

		chunks, err := worldfmt.GetContainedChunks(ri, inputdir)
		if err != nil || len(chunks) == 0 {
			continue // unreadable or empty region; skip it rather than fail the whole scan
		}

		rt.SetRequired(pri)
		counts.Regions++

		for _, ci := range chunks {
			pci := tables.NewPosChunkIdx(ci)
			if !pci.Valid() {
				continue
			}
			ct.SetRequired(pci)
			counts.Chunks++
			if err := markChunkTiles(ci, tt, mp, findBaseZoom); err != nil {
				return counts, err
			}
		}
	}

	counts.Tiles = tt.ReqCount
	return counts, nil
}

// ScanLegacyFormat walks the 64x64 chunk subdirectory grid of a loose,
// one-file-per-chunk world, marking every chunk found and the tiles it
// touches required. If mp.BaseZoom is -1 on entry, the zoom level grows
// from 0 as needed; otherwise an out-of-range tile is an error.
func ScanLegacyFormat(inputdir string, ct *tables.ChunkTable, tt *tables.TileTable, mp *mapcoord.MapParams) (Counts, error) {
	findBaseZoom := mp.BaseZoom == -1
	if findBaseZoom {
		mp.BaseZoom = 0
	}
	var counts Counts

	for x := int64(0); x < 64; x++ {
		for z := int64(0); z < 64; z++ {
			dir := filepath.Join(inputdir, mapcoord.ToBase36(x), mapcoord.ToBase36(z))
			entries, err := os.ReadDir(dir)
			if err != nil {
				continue // subdirectory doesn't exist; nothing to scan here
			}
			for _, e := range entries {
				ci, ok := mapcoord.ChunkIdxFromFilePath(e.Name())
				if !ok {
					continue
				}
				pci := tables.NewPosChunkIdx(ci)
				if !pci.Valid() {
					continue
				}
				ct.SetRequired(pci)
				counts.Chunks++
				if err := markChunkTiles(ci, tt, mp, findBaseZoom); err != nil {
					return counts, err
				}
			}
		}
	}

	counts.Tiles = tt.ReqCount
	return counts, nil
}

// readLines reads a plain-text list file, one entry per line, skipping
// blank lines.
func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines, scanner.Err()
}

// ScanRegionList reads a plain-text list of region file paths (one per
// line, naming what changed since the last render) and marks each named
// region, its contained chunks, and their tiles required. mp.BaseZoom is
// never grown here -- incremental updates must target an already-fixed
// grid, so an out-of-range tile is always an error.
func ScanRegionList(listPath, inputdir string, ct *tables.ChunkTable, tt *tables.TileTable, rt *tables.RegionTable, mp mapcoord.MapParams) (Counts, error) {
	lines, err := readLines(listPath)
	if err != nil {
		return Counts{}, fmt.Errorf("world: reading region list: %w", err)
	}

	var counts Counts
	for _, line := range lines {
		ri, ok := mapcoord.RegionIdxFromFilePath(line)
		if !ok {
			continue
		}
		pri := tables.NewPosRegionIdx(ri)
		if !pri.Valid() {
			continue
		}
		if rt.IsRequired(pri) {
			continue
		}

		chunks, err := worldfmt.GetContainedChunks(ri, inputdir)
		if err != nil || len(chunks) == 0 {
			continue
		}

		rt.SetRequired(pri)
		counts.Regions++

		for _, ci := range chunks {
			pci := tables.NewPosChunkIdx(ci)
			if !pci.Valid() {
				continue
			}
			ct.SetRequired(pci)
			counts.Chunks++
			if err := markChunkTiles(ci, tt, &mp, false); err != nil {
				return counts, err
			}
		}
	}

	counts.Tiles = tt.ReqCount
	return counts, nil
}

// ScanChunkList reads a plain-text list of loose chunk file paths (one per
// line) and marks each named chunk and its tiles required. mp.BaseZoom is
// never grown here, matching ScanRegionList.
func ScanChunkList(listPath string, ct *tables.ChunkTable, tt *tables.TileTable, mp mapcoord.MapParams) (Counts, error) {
	lines, err := readLines(listPath)
	if err != nil {
		return Counts{}, fmt.Errorf("world: reading chunk list: %w", err)
	}

	var counts Counts
	for _, line := range lines {
		ci, ok := mapcoord.ChunkIdxFromFilePath(line)
		if !ok {
			continue
		}
		pci := tables.NewPosChunkIdx(ci)
		if !pci.Valid() {
			continue
		}
		ct.SetRequired(pci)
		counts.Chunks++
		if err := markChunkTiles(ci, tt, &mp, false); err != nil {
			return counts, err
		}
	}

	counts.Tiles = tt.ReqCount
	return counts, nil
}

// FindAllChunks lists every loose chunk file's path under a legacy-format
// world directory. Used only for testing, to enumerate a world without
// going through the chunk table.
func FindAllChunks(inputdir string) []string {
	var paths []string
	for x := int64(0); x < 64; x++ {
		for z := int64(0); z < 64; z++ {
			dir := filepath.Join(inputdir, mapcoord.ToBase36(x), mapcoord.ToBase36(z))
			entries, err := os.ReadDir(dir)
			if err != nil {
				continue
			}
			for _, e := range entries {
				paths = append(paths, filepath.Join(dir, e.Name()))
			}
		}
	}
	return paths
}

// MakeTestWorld builds a synthetic required set of roughly size chunks,
// for exercising the table/scheduler/renderer plumbing without a real
// world on disk: a solid disk at the center, a few concentric rings out to
// 4x the disk's radius, and four diagonal/axis spokes reaching the
// outermost ring. If mp.BaseZoom is -1 on entry, the zoom level grows from
// 0 as needed.
func MakeTestWorld(size int, ct *tables.ChunkTable, tt *tables.TileTable, mp *mapcoord.MapParams) Counts {
	findBaseZoom := mp.BaseZoom == -1
	if findBaseZoom {
		mp.BaseZoom = 0
	}
	var counts Counts

	mark := func(ci mapcoord.ChunkIdx) {
		ct.SetRequired(tables.NewPosChunkIdx(ci))
		counts.Chunks++
		for _, ti := range ci.GetTiles(*mp) {
			tt.SetRequired(tables.NewPosTileIdx(ti))
			if findBaseZoom {
				for !ti.Valid(*mp) {
					mp.BaseZoom++
				}
			}
		}
	}

	size2 := int64(math.Sqrt(float64(size)*0.95) / 2.0)

	// solid disk at the center
	for x := -size2; x < size2; x++ {
		for z := -size2; z < size2; z++ {
			mark(mapcoord.ChunkIdx{X: x, Z: z})
		}
	}

	// three concentric rings at 2x, 3x, 4x the disk's radius
	for m := int64(2); m <= 4; m++ {
		rad := float64(size2 * m)
		for t := -3.14159; t < 3.14159; t += 0.002 {
			mark(mapcoord.ChunkIdx{X: int64(math.Cos(t) * rad), Z: int64(math.Sin(t) * rad)})
		}
	}

	// axis and diagonal spokes out to the outermost ring
	irad := size2 * 4
	for z := -irad; z < irad; z++ {
		mark(mapcoord.ChunkIdx{X: 0, Z: z})
	}
	for x := -irad; x < irad; x++ {
		mark(mapcoord.ChunkIdx{X: x, Z: 0})
	}
	for x, z := -irad, -irad; z < irad; x, z = x+1, z+1 {
		mark(mapcoord.ChunkIdx{X: x, Z: z})
	}
	for x, z := irad, -irad; z < irad; x, z = x-1, z+1 {
		mark(mapcoord.ChunkIdx{X: x, Z: z})
	}

	counts.Tiles = tt.ReqCount
	return counts
}
