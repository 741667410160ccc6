// Package expand implements the one-time map-expansion operation that
// grows an existing tile pyramid by one zoom level without re-rendering
// anything.
package expand

import (
	"os"
	"path/filepath"
	"time"

	"github.com/equalpants/pigmap-go/internal/mapcoord"
	"github.com/equalpants/pigmap-go/internal/params"
	"github.com/equalpants/pigmap-go/internal/rgba"
)

// quadrant describes one of the four zoom-1 tiles/subdirectories: dir is
// its name ("0".."3"); nestedName is the name it gets once nested one
// level deeper inside itself; nestRect is where its shrunk old content
// lands within its own freshly-blank replacement; baseRect is where its
// freshly-built content lands within the new base tile.
type quadrant struct {
	dir        string
	nestedName string
	nestRect   rgba.Rect
	baseRect   rgba.Rect
}

func quadrants(half int32) [4]quadrant {
	return [4]quadrant{
		{"0", "3", rgba.Rect{X: half, Y: half, W: half, H: half}, rgba.Rect{X: 0, Y: 0, W: half, H: half}},
		{"1", "2", rgba.Rect{X: 0, Y: half, W: half, H: half}, rgba.Rect{X: half, Y: 0, W: half, H: half}},
		{"2", "1", rgba.Rect{X: half, Y: 0, W: half, H: half}, rgba.Rect{X: 0, Y: half, W: half, H: half}},
		{"3", "0", rgba.Rect{X: 0, Y: 0, W: half, H: half}, rgba.Rect{X: half, Y: half, W: half, H: half}},
	}
}

// Map grows outputPath's tile pyramid by one zoom level:
//  1. each top-level quadrant's subdirectory and ".png" file move one
//     level deeper, becoming the nested quadrant of themselves that
//     keeps them in the same absolute position (e.g. "0" and "0.png"
//     become "0/3" and "0/3.png");
//  2. fresh zoom-1 tiles are built by half-reducing each relocated old
//     tile into the corresonding corner of an otherwise-blank tile;
//  3. a fresh base tile is built by half-reducing the four new zoom-1
//     tiles into their quadrants;
//  4. mp.BaseZoom is incremented and persisted;
//  5. every file under outputPath has its modification time touched, so
//     a browser never serves a stale cached tile under an unchanged name.
func Map(outputPath string) (mapcoord.MapParams, error) {
	mp, err := params.ReadFile(outputPath)
	if err != nil {
		return mp, err
	}
	tileSize := int32(mp.TileSize())
	half := tileSize / 2
	qs := quadrants(half)

	for _, q := range qs {
		if err := relocate(outputPath, q); err != nil {
			return mp, err
		}
	}

	newTiles := make(map[string]*rgba.Image, 4)
	for _, q := range qs {
		nestedPath := filepath.Join(outputPath, q.dir, q.nestedName+".png")
		var old rgba.Image
		if !old.ReadPNG(nestedPath) {
			continue
		}
		newImg := rgba.New(tileSize, tileSize)
		rgba.ReduceHalf(newImg, q.nestRect, &old)
		if err := newImg.WritePNG(filepath.Join(outputPath, q.dir+".png")); err != nil {
			return mp, err
		}
		newTiles[q.dir] = newImg
	}

	base := rgba.New(tileSize, tileSize)
	for _, q := range qs {
		if newImg, ok := newTiles[q.dir]; ok {
			rgba.ReduceHalf(base, q.baseRect, newImg)
		}
	}
	if err := base.WritePNG(filepath.Join(outputPath, "base.png")); err != nil {
		return mp, err
	}

	mp.BaseZoom++
	if err := params.WriteFile(outputPath, mp); err != nil {
		return mp, err
	}

	if err := touchAll(outputPath); err != nil {
		return mp, err
	}
	return mp, nil
}

// relocate moves q's top-level subdirectory and ".png" file one level
// deeper, replacing the top level with a fresh empty directory. A missing
// subdirectory or file (an unused quadrant) is not an error.
func relocate(outputPath string, q quadrant) error {
	oldDir := filepath.Join(outputPath, q.dir)
	tmpDir := filepath.Join(outputPath, "old"+q.dir)
	hadDir := false
	if err := os.Rename(oldDir, tmpDir); err != nil {
		if !os.IsNotExist(err) {
			return err
		}
	} else {
		hadDir = true
	}

	if err := os.MkdirAll(oldDir, 0o755); err != nil {
		return err
	}

	if hadDir {
		if err := os.Rename(tmpDir, filepath.Join(oldDir, q.nestedName)); err != nil {
			return err
		}
	}

	oldFile := filepath.Join(outputPath, q.dir+".png")
	if err := os.Rename(oldFile, filepath.Join(oldDir, q.nestedName+".png")); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// touchAll sets every file and directory under root's modification time
// to now.
func touchAll(root string) error {
	now := time.Now()
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		return os.Chtimes(path, now, now)
	})
}
