// Package cache implements the direct-mapped chunk and region caches that
// sit between the renderer and the world directory: a fixed ring of
// cache entries hashed from chunk/region coordinates, with required/
// disk-state bookkeeping in the shared tables so repeated misses (chunks
// known not to exist) don't repeatedly hit the filesystem.
package cache

import (
	"errors"
	"fmt"
	"os"

	"github.com/equalpants/pigmap-go/internal/tables"
	"github.com/equalpants/pigmap-go/internal/worldfmt"
)

func isNotExist(err error) bool { return errors.Is(err, os.ErrNotExist) }

// ChunkCacheStats tallies cache hits/misses for one render pass. The
// miss sub-counters' meanings shift slightly in region-file mode — see
// the RegionCache docs.
type ChunkCacheStats struct {
	Hits, Misses int64
	Read         int64 // successfully read from disk
	Skipped      int64 // assumed not to exist because not required in a full render
	Missing      int64 // non-required chunk not present on disk
	ReqMissing   int64 // required chunk not present on disk
	Corrupt      int64 // found on disk, but failed to read
}

func (s *ChunkCacheStats) Add(o ChunkCacheStats) {
	s.Hits += o.Hits
	s.Misses += o.Misses
	s.Read += o.Read
	s.Skipped += o.Skipped
	s.Missing += o.Missing
	s.ReqMissing += o.ReqMissing
	s.Corrupt += o.Corrupt
}

const (
	chunkCacheBitsX = 5
	chunkCacheBitsZ = 5
	chunkCacheXSize = 1 << chunkCacheBitsX
	chunkCacheZSize = 1 << chunkCacheBitsZ
	chunkCacheSize  = chunkCacheXSize * chunkCacheZSize
	chunkCacheXMask = chunkCacheXSize - 1
	chunkCacheZMask = chunkCacheZSize - 1
)

var emptyPosChunkIdx = tables.PosChunkIdx{X: -1, Z: -1}

type chunkCacheEntry struct {
	ci   tables.PosChunkIdx // emptyPosChunkIdx if this slot is empty
	data worldfmt.ChunkData
}

// ChunkCache is a direct-mapped, 1024-slot cache from chunk coordinates
// to parsed ChunkData, backed by either loose per-chunk files on disk or
// a RegionCache.
type ChunkCache struct {
	entries   [chunkCacheSize]chunkCacheEntry
	blankdata worldfmt.ChunkData // returned for missing/corrupt chunks

	ChunkTable   *tables.ChunkTable
	RegionTable  *tables.RegionTable
	RegionCache  *RegionCache
	InputPath    string
	FullRender   bool
	RegionFormat bool
	Stats        ChunkCacheStats
}

func NewChunkCache(ct *tables.ChunkTable, rt *tables.RegionTable, rc *RegionCache, inputPath string, fullRender, regionFormat bool) *ChunkCache {
	cc := &ChunkCache{
		blankdata:    worldfmt.BlankChunkData(),
		ChunkTable:   ct,
		RegionTable:  rt,
		RegionCache:  rc,
		InputPath:    inputPath,
		FullRender:   fullRender,
		RegionFormat: regionFormat,
	}
	for i := range cc.entries {
		cc.entries[i].ci = emptyPosChunkIdx
	}
	return cc
}

func chunkEntryNum(ci tables.PosChunkIdx) int {
	return int((ci.X&chunkCacheXMask)*chunkCacheZSize + (ci.Z & chunkCacheZMask))
}

// GetData looks up a chunk and returns a pointer to its data — for
// missing or corrupt chunks, a pointer to shared blank (all-air) data.
func (c *ChunkCache) GetData(ci tables.PosChunkIdx) *worldfmt.ChunkData {
	e := chunkEntryNum(ci)
	state := c.ChunkTable.DiskState(ci)

	if state == tables.ChunkUnknown {
		c.Stats.Misses++
	} else {
		c.Stats.Hits++
	}

	// if we've already tried and failed to read the chunk, don't try again
	if state == tables.ChunkCorrupted || state == tables.ChunkMissing {
		return &c.blankdata
	}

	if state == tables.ChunkCached {
		if c.entries[e].ci != ci {
			panic(fmt.Sprintf("cache: chunk slot %d holds %v, wanted %v", e, c.entries[e].ci, ci))
		}
		return &c.entries[e].data
	}

	// if this is a full render and the chunk is not required, we already know it doesn't exist
	req := c.ChunkTable.IsRequired(ci)
	if c.FullRender && !req {
		c.Stats.Skipped++
		c.ChunkTable.SetDiskState(ci, tables.ChunkMissing)
		return &c.blankdata
	}

	// okay, we actually have to read the chunk from disk
	if c.RegionFormat {
		c.readFromRegionCache(ci)
	} else {
		c.readChunkFile(ci)
	}

	state = c.ChunkTable.DiskState(ci)
	if state == tables.ChunkCorrupted {
		c.Stats.Corrupt++
		return &c.blankdata
	}
	if state == tables.ChunkMissing {
		if req {
			c.Stats.ReqMissing++
		} else {
			c.Stats.Missing++
		}
		return &c.blankdata
	}
	if state != tables.ChunkCached || c.entries[e].ci != ci {
		panic(fmt.Sprintf("cache: chunk slot %d holds %v after read, wanted %v", e, c.entries[e].ci, ci))
	}
	c.Stats.Read++
	return &c.entries[e].data
}

func (c *ChunkCache) readChunkFile(ci tables.PosChunkIdx) {
	filename := c.InputPath + "/" + ci.ToChunkIdx().ToFilePath()
	buf, err := worldfmt.ReadGzFile(filename)
	if err != nil {
		if isNotExist(err) {
			c.ChunkTable.SetDiskState(ci, tables.ChunkMissing)
		} else {
			c.ChunkTable.SetDiskState(ci, tables.ChunkCorrupted)
		}
		return
	}
	c.parseReadBuf(ci, false, buf)
}

func (c *ChunkCache) readFromRegionCache(ci tables.PosChunkIdx) {
	buf, anvil, err := c.RegionCache.GetDecompressedChunk(ci)
	if err != nil {
		if isNotExist(err) {
			c.ChunkTable.SetDiskState(ci, tables.ChunkMissing)
		} else {
			c.ChunkTable.SetDiskState(ci, tables.ChunkCorrupted)
		}
		return
	}
	c.parseReadBuf(ci, anvil, buf)
}

func (c *ChunkCache) parseReadBuf(ci tables.PosChunkIdx, anvil bool, buf []byte) {
	// evict current tenant of chunk's cache slot
	e := chunkEntryNum(ci)
	if c.entries[e].ci != emptyPosChunkIdx {
		c.ChunkTable.SetDiskState(c.entries[e].ci, tables.ChunkUnknown)
	}
	c.entries[e].ci = emptyPosChunkIdx

	var ok bool
	if anvil {
		ok = c.entries[e].data.LoadFromAnvilFile(buf)
	} else {
		ok = c.entries[e].data.LoadFromOldFile(buf)
	}
	if ok {
		c.entries[e].ci = ci
		c.ChunkTable.SetDiskState(ci, tables.ChunkCached)
	} else {
		c.ChunkTable.SetDiskState(ci, tables.ChunkCorrupted)
	}
}
