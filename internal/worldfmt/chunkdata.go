// Package worldfmt reads per-chunk block data out of a Minecraft-style
// world directory: the old flat per-chunk-file layout, and the sectioned
// "Anvil" region layout, each compressed with gzip or zlib.
package worldfmt

import "github.com/equalpants/pigmap-go/internal/mapcoord"

// BlockOffset is a block's position within its own chunk.
type BlockOffset struct {
	X, Z, Y int64
}

func NewBlockOffset(bi mapcoord.BlockIdx) BlockOffset {
	ci := bi.GetChunkIdx()
	return BlockOffset{X: bi.X - ci.X*16, Z: bi.Z - ci.Z*16, Y: bi.Y}
}

// ChunkData holds the raw per-block id/data arrays for one 16x16xN chunk,
// in whichever of the two on-disk layouts it was read from.
type ChunkData struct {
	BlockIDs  [65536]uint8 // one byte per block (old-style chunks use only half this space)
	BlockAdd  [32768]uint8 // Anvil only: extra 4 bits/block of block id
	BlockData [32768]uint8 // 4 bits/block (old-style chunks use only half this space)
	Anvil     bool         // whether this data came from an Anvil chunk or an old-style one
}

// ID returns the block id at offset bo. bo must point within this chunk.
func (cd *ChunkData) ID(bo BlockOffset) uint16 {
	if !cd.Anvil {
		if bo.Y > 127 {
			return 0
		}
		return uint16(cd.BlockIDs[(bo.X*16+bo.Z)*128+bo.Y])
	}
	i := (bo.Y*16+bo.Z)*16 + bo.X
	if i%2 == 0 {
		return uint16(cd.BlockAdd[i/2]&0xf)<<8 | uint16(cd.BlockIDs[i])
	}
	return uint16(cd.BlockAdd[i/2]&0xf0)<<4 | uint16(cd.BlockIDs[i])
}

// Data returns the 4-bit metadata value at offset bo.
func (cd *ChunkData) Data(bo BlockOffset) uint8 {
	var i int64
	if !cd.Anvil {
		if bo.Y > 127 {
			return 0
		}
		i = (bo.X*16 + bo.Z) * 128 + bo.Y
	} else {
		i = (bo.Y*16+bo.Z)*16 + bo.X
	}
	if i%2 == 0 {
		return cd.BlockData[i/2] & 0xf
	}
	return (cd.BlockData[i/2] & 0xf0) >> 4
}

// BlankChunkData returns a zeroed, all-air chunk used for missing/corrupt
// chunks; it is always marked Anvil so callers don't special-case it.
func BlankChunkData() ChunkData {
	return ChunkData{Anvil: true}
}
