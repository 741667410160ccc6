package cache

import (
	"errors"
	"fmt"
	"os"

	"github.com/equalpants/pigmap-go/internal/mapcoord"
	"github.com/equalpants/pigmap-go/internal/tables"
	"github.com/equalpants/pigmap-go/internal/worldfmt"
)

var errCorruptRegion = errors.New("cache: region data corrupt")

// RegionCacheStats tallies region-file cache activity for one render
// pass. In region mode these sub-counters take the place of
// ChunkCacheStats' read/missing/corrupt counters:
//   - Hits/Misses: the region's disk state was already known / still
//     unknown when a chunk was requested from it
//   - Read: a region file was actually read from disk
//   - Skipped: a full render asked for a region that was never marked
//     required, so no read was attempted
//   - Missing/ReqMissing: the region file was absent (ReqMissing when the
//     region was required)
//   - Corrupt: the region file exists but could not be loaded
//
// A chunk whose compressed data fails to decompress inside a readable
// region file is not counted here.
type RegionCacheStats struct {
	Hits, Misses int64
	Read         int64
	Skipped      int64
	Missing      int64
	ReqMissing   int64
	Corrupt      int64
}

func (s *RegionCacheStats) Add(o RegionCacheStats) {
	s.Hits += o.Hits
	s.Misses += o.Misses
	s.Read += o.Read
	s.Skipped += o.Skipped
	s.Missing += o.Missing
	s.ReqMissing += o.ReqMissing
	s.Corrupt += o.Corrupt
}

const (
	regionCacheBitsX = 1
	regionCacheBitsZ = 1
	regionCacheXSize = 1 << regionCacheBitsX
	regionCacheZSize = 1 << regionCacheBitsZ
	regionCacheSize  = regionCacheXSize * regionCacheZSize
	regionCacheXMask = regionCacheXSize - 1
	regionCacheZMask = regionCacheZSize - 1
)

var emptyPosRegionIdx = tables.PosRegionIdx{X: -1, Z: -1}

type regionCacheEntry struct {
	ri         tables.PosRegionIdx // emptyPosRegionIdx if this slot is empty
	regionfile worldfmt.RegionFileReader
}

// RegionCache is a 4-slot direct-mapped cache of region files, plus one
// extra "readbuf" slot: reading a new region always lands in readbuf
// first (since the read might fail), and only swaps into its real
// direct-mapped slot on success — with the slot's previous tenant
// swapping back into readbuf rather than being discarded outright, so a
// region that's about to be re-read isn't thrown away a moment too soon.
type RegionCache struct {
	entries [regionCacheSize]regionCacheEntry
	readbuf regionCacheEntry

	ChunkTable  *tables.ChunkTable
	RegionTable *tables.RegionTable
	InputPath   string
	FullRender  bool
	Stats       RegionCacheStats
}

func NewRegionCache(ct *tables.ChunkTable, rt *tables.RegionTable, inputPath string, fullRender bool) *RegionCache {
	rc := &RegionCache{
		ChunkTable:  ct,
		RegionTable: rt,
		InputPath:   inputPath,
		FullRender:  fullRender,
	}
	for i := range rc.entries {
		rc.entries[i].ri = emptyPosRegionIdx
	}
	rc.readbuf.ri = emptyPosRegionIdx
	return rc
}

func regionEntryNum(ri tables.PosRegionIdx) int {
	return int((ri.X&regionCacheXMask)*regionCacheZSize + (ri.Z & regionCacheZMask))
}

func decompress(rf *worldfmt.RegionFileReader, ci mapcoord.ChunkIdx) ([]byte, bool, error) {
	buf, err := rf.DecompressChunk(worldfmt.NewChunkOffset(ci))
	if err != nil {
		return nil, rf.Anvil, err
	}
	return buf, rf.Anvil, nil
}

// GetDecompressedChunk decompresses the given chunk's raw NBT bytes out
// of whichever region file holds it, reading that region file from disk
// (and evicting another from the cache) if necessary.
func (rc *RegionCache) GetDecompressedChunk(ci tables.PosChunkIdx) (buf []byte, anvil bool, err error) {
	cIdx := ci.ToChunkIdx()
	ri := tables.NewPosRegionIdx(cIdx.GetRegionIdx())
	e := regionEntryNum(ri)
	state := rc.RegionTable.DiskState(ri)

	if state == tables.RegionUnknown {
		rc.Stats.Misses++
	} else {
		rc.Stats.Hits++
	}

	// if we already tried and failed to read this region, don't try again
	// (this shouldn't normally be reachable: a failed region should have
	// already marked every one of its chunks CHUNK_MISSING, so the chunk
	// cache's own already-failed check should have short-circuited first)
	if state == tables.RegionCorrupted || state == tables.RegionMissing {
		return nil, false, os.ErrNotExist
	}

	// if the region is in the cache, try to extract the chunk from it
	if state == tables.RegionCached {
		if rc.entries[e].ri == ri {
			return decompress(&rc.entries[e].regionfile, cIdx)
		}
		if rc.readbuf.ri == ri {
			return decompress(&rc.readbuf.regionfile, cIdx)
		}
		panic(fmt.Sprintf("cache: region %v marked cached but not found in slot %d or readbuf", ri, e))
	}

	// if this is a full render and the region is not required, we already know it doesn't exist
	req := rc.RegionTable.IsRequired(ri)
	if rc.FullRender && !req {
		rc.Stats.Skipped++
		rc.markRegionMissing(ri)
		return nil, false, os.ErrNotExist
	}

	// okay, we actually have to read the region from disk, if it's there
	rc.readRegionFile(ri)

	state = rc.RegionTable.DiskState(ri)
	if state == tables.RegionCorrupted {
		rc.Stats.Corrupt++
		return nil, false, errCorruptRegion
	}
	if state == tables.RegionMissing {
		if req {
			rc.Stats.ReqMissing++
		} else {
			rc.Stats.Missing++
		}
		return nil, false, os.ErrNotExist
	}
	// since we've actually just done a read, the region should now be in a real cache entry, not the readbuf
	if state != tables.RegionCached || rc.entries[e].ri != ri {
		panic(fmt.Sprintf("cache: region %v not in slot %d after read", ri, e))
	}
	rc.Stats.Read++
	return decompress(&rc.entries[e].regionfile, cIdx)
}

func (rc *RegionCache) readRegionFile(ri tables.PosRegionIdx) {
	// forget the data in the readbuf
	if rc.readbuf.ri != emptyPosRegionIdx {
		rc.RegionTable.SetDiskState(rc.readbuf.ri, tables.RegionUnknown)
	}
	rc.readbuf.ri = emptyPosRegionIdx

	err := rc.readbuf.regionfile.LoadFromFile(ri.ToRegionIdx(), rc.InputPath)
	if err != nil {
		if isNotExist(err) {
			rc.markRegionMissing(ri)
		} else {
			rc.markRegionCorrupted(ri)
		}
		return
	}

	// read was successful; evict current tenant of the region's cache slot (swap it into the readbuf)
	e := regionEntryNum(ri)
	rc.entries[e].regionfile.Swap(&rc.readbuf.regionfile)
	rc.entries[e].ri, rc.readbuf.ri = rc.readbuf.ri, rc.entries[e].ri
	rc.entries[e].ri = ri
	rc.RegionTable.SetDiskState(ri, tables.RegionCached)
}

func (rc *RegionCache) markRegionMissing(ri tables.PosRegionIdx) {
	rc.RegionTable.SetDiskState(ri, tables.RegionMissing)
	for it := tables.NewRegionChunkIteratorFromPos(ri); !it.End; it.Advance() {
		rc.ChunkTable.SetDiskState(it.Current, tables.ChunkMissing)
	}
}

func (rc *RegionCache) markRegionCorrupted(ri tables.PosRegionIdx) {
	rc.RegionTable.SetDiskState(ri, tables.RegionCorrupted)
	for it := tables.NewRegionChunkIteratorFromPos(ri); !it.End; it.Advance() {
		rc.ChunkTable.SetDiskState(it.Current, tables.ChunkMissing)
	}
}
