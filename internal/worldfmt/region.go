package worldfmt

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/equalpants/pigmap-go/internal/mapcoord"
)

// ChunkOffset is a chunk's position within its own region.
type ChunkOffset struct {
	X, Z int64
}

func NewChunkOffset(ci mapcoord.ChunkIdx) ChunkOffset {
	ri := ci.GetRegionIdx()
	return ChunkOffset{X: ci.X - ri.X*32, Z: ci.Z - ri.Z*32}
}

// RegionFileReader holds one region file's header (chunk offsets) and raw
// (still-compressed) chunk data sectors, as read straight off disk.
//
// A region file is a sequence of 4096-byte sectors: the first is the
// header of 1024 big-endian uint32 offsets (indexed by Z*32+X), each
// packing a sector offset (upper 3 bytes) and a size in sectors (lower
// byte); the rest holds chunk payloads. Each payload is a 4-byte
// big-endian length, a 1-byte compression version (1 = gzip, 2 = zlib,
// included in the length), then length-1 bytes of compressed data.
type RegionFileReader struct {
	offsets   []uint32 // len 1024 once loaded
	chunkdata []byte
	Anvil     bool
}

func openRegionFile(ri mapcoord.RegionIdx, inputpath string) (*os.File, bool, error) {
	anvilPath := filepath.Join(inputpath, "region", ri.ToAnvilFileName())
	if f, err := os.Open(anvilPath); err == nil {
		return f, true, nil
	}
	oldPath := filepath.Join(inputpath, "region", ri.ToOldFileName())
	f, err := os.Open(oldPath)
	return f, false, err
}

// LoadFromFile reads a region file in full, preferring the Anvil (.mca)
// name over the old-style (.mcr) one. It returns os.ErrNotExist if
// neither file is present.
func (r *RegionFileReader) LoadFromFile(ri mapcoord.RegionIdx, inputpath string) error {
	f, anvil, err := openRegionFile(ri, inputpath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return os.ErrNotExist
		}
		return err
	}
	defer f.Close()
	r.Anvil = anvil

	info, err := f.Stat()
	if err != nil {
		return err
	}
	if info.Size() < 4096 {
		return fmt.Errorf("worldfmt: region file %s shorter than header", f.Name())
	}

	var header [4096]byte
	if _, err := io.ReadFull(f, header[:]); err != nil {
		return err
	}
	r.offsets = make([]uint32, 1024)
	for i := 0; i < 1024; i++ {
		r.offsets[i] = binary.BigEndian.Uint32(header[i*4:])
	}

	r.chunkdata = make([]byte, info.Size()-4096)
	if len(r.chunkdata) > 0 {
		if _, err := io.ReadFull(f, r.chunkdata); err != nil {
			return err
		}
	}
	return nil
}

// LoadHeaderOnly reads just the chunk-offset header, without the chunk
// payload sectors — used to list which chunks a region contains.
func (r *RegionFileReader) LoadHeaderOnly(ri mapcoord.RegionIdx, inputpath string) error {
	f, anvil, err := openRegionFile(ri, inputpath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return os.ErrNotExist
		}
		return err
	}
	defer f.Close()
	r.Anvil = anvil

	var header [4096]byte
	if _, err := io.ReadFull(f, header[:]); err != nil {
		return err
	}
	r.offsets = make([]uint32, 1024)
	for i := 0; i < 1024; i++ {
		r.offsets[i] = binary.BigEndian.Uint32(header[i*4:])
	}
	return nil
}

// Swap exchanges the contents of r and o in place (cheap slice-header
// swaps, not data copies) — used by the region cache to move a region
// out of its direct-mapped slot into the overflow readbuf, or vice versa.
func (r *RegionFileReader) Swap(o *RegionFileReader) {
	r.offsets, o.offsets = o.offsets, r.offsets
	r.chunkdata, o.chunkdata = o.chunkdata, r.chunkdata
	r.Anvil, o.Anvil = o.Anvil, r.Anvil
}

func getIdx(co ChunkOffset) int { return int(co.Z*32 + co.X) }

func (r *RegionFileReader) sizeSectors(idx int) uint32 { return r.offsets[idx] & 0xff }
func (r *RegionFileReader) sectorOffset(idx int) uint32 { return r.offsets[idx] >> 8 }

func (r *RegionFileReader) ContainsChunk(co ChunkOffset) bool { return r.offsets[getIdx(co)] != 0 }

// DecompressChunk decompresses the chunk at co into its raw NBT bytes. It
// returns os.ErrNotExist if the region doesn't contain that chunk.
func (r *RegionFileReader) DecompressChunk(co ChunkOffset) ([]byte, error) {
	if !r.ContainsChunk(co) {
		return nil, os.ErrNotExist
	}
	idx := getIdx(co)
	sector := r.sectorOffset(idx)
	if sector == 0 || r.sizeSectors(idx) == 0 {
		return nil, os.ErrNotExist
	}
	start := int64(sector-1) * 4096
	if start < 0 || start >= int64(len(r.chunkdata)) {
		return nil, fmt.Errorf("worldfmt: chunk sector offset out of range")
	}
	chunkstart := r.chunkdata[start:]
	if len(chunkstart) < 5 {
		return nil, fmt.Errorf("worldfmt: truncated chunk payload")
	}
	datasize := binary.BigEndian.Uint32(chunkstart)
	if uint32(len(chunkstart)) < 4+datasize {
		return nil, fmt.Errorf("worldfmt: truncated chunk payload")
	}
	return ReadGzOrZlib(chunkstart[5 : 4+datasize])
}

// RegionChunkIterator walks every chunk coordinate (present or not) in a
// region, in row-major order.
type RegionChunkIterator struct {
	End       bool
	Current   mapcoord.ChunkIdx
	baseChunk mapcoord.ChunkIdx
}

func NewRegionChunkIterator(ri mapcoord.RegionIdx) *RegionChunkIterator {
	base := ri.BaseChunk()
	return &RegionChunkIterator{Current: base, baseChunk: base}
}

func (it *RegionChunkIterator) Advance() {
	it.Current.X++
	if it.Current.X >= it.baseChunk.X+32 {
		it.Current.X = it.baseChunk.X
		it.Current.Z++
	}
	if it.Current.Z >= it.baseChunk.Z+32 {
		it.End = true
	}
}

// GetContainedChunks opens a region file, reads only its header, and
// returns the chunk coordinates it actually contains.
func GetContainedChunks(ri mapcoord.RegionIdx, inputpath string) ([]mapcoord.ChunkIdx, error) {
	var r RegionFileReader
	if err := r.LoadHeaderOnly(ri, inputpath); err != nil {
		return nil, err
	}
	var chunks []mapcoord.ChunkIdx
	for it := NewRegionChunkIterator(ri); !it.End; it.Advance() {
		if r.ContainsChunk(NewChunkOffset(it.Current)) {
			chunks = append(chunks, it.Current)
		}
	}
	return chunks, nil
}
