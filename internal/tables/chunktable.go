// Package tables implements the sparse, three-level required/drawn/disk-state
// bitsets used to track chunks, tiles, and regions across a render run.
// Each table is a radix trie: a dense top-level array of group pointers,
// each group a dense array of leaf-set pointers, each leaf set a small
// packed bitset over its slice of the coordinate space. Leaves are
// allocated lazily, so a sparse, far-flung world costs memory only where
// it actually has data.
package tables

import "github.com/equalpants/pigmap-go/internal/mapcoord"

const (
	ctLevel1Bits = 5
	ctLevel2Bits = 5
	ctLevel3Bits = 8

	ctLevel1Size = 1 << ctLevel1Bits
	ctLevel2Size = 1 << ctLevel2Bits
	ctLevel3Size = 1 << ctLevel3Bits
	ctTotalSize  = ctLevel1Size * ctLevel2Size * ctLevel3Size

	ctDataSize = 3 // 1 required bit + 2 disk-state bits
)

// Chunk disk states, packed into the low two bits of a chunk's 3-bit cell.
const (
	ChunkUnknown   = 0
	ChunkCached    = 1
	ChunkMissing   = 2
	ChunkCorrupted = 3
)

// PosChunkIdx is a ChunkIdx shifted so both coordinates are non-negative,
// for use as a table index; it also bounds how big a map can be.
type PosChunkIdx struct {
	X, Z int64
}

func NewPosChunkIdx(ci mapcoord.ChunkIdx) PosChunkIdx {
	return PosChunkIdx{ci.X + ctTotalSize/2, ci.Z + ctTotalSize/2}
}

func (p PosChunkIdx) ToChunkIdx() mapcoord.ChunkIdx {
	return mapcoord.ChunkIdx{X: p.X - ctTotalSize/2, Z: p.Z - ctTotalSize/2}
}

func (p PosChunkIdx) Valid() bool {
	return p.X >= 0 && p.X < ctTotalSize && p.Z >= 0 && p.Z < ctTotalSize
}

func ctGetLevel1(a int64) int64 { return a & (ctLevel1Size - 1) }
func ctGetLevel2(a int64) int64 { return (a >> ctLevel1Bits) & (ctLevel2Size - 1) }
func ctGetLevel3(a int64) int64 { return (a >> (ctLevel1Bits + ctLevel2Bits)) & (ctLevel3Size - 1) }

// ChunkSet holds the required/disk-state bits for a ctLevel1Size x
// ctLevel1Size block of chunks, 3 bits each, packed into a byte slice.
type ChunkSet struct {
	bits []byte
}

func newChunkSet() *ChunkSet {
	nbits := ctLevel1Size * ctLevel1Size * ctDataSize
	return &ChunkSet{bits: make([]byte, (nbits+7)/8)}
}

func (cs *ChunkSet) bitIdx(ci PosChunkIdx) int64 {
	return (ctGetLevel1(ci.Z)*ctLevel1Size + ctGetLevel1(ci.X)) * ctDataSize
}

func getBit(bits []byte, i int64) bool {
	return bits[i/8]&(1<<uint(i%8)) != 0
}

func setBit(bits []byte, i int64, v bool) {
	if v {
		bits[i/8] |= 1 << uint(i%8)
	} else {
		bits[i/8] &^= 1 << uint(i%8)
	}
}

func (cs *ChunkSet) IsRequired(ci PosChunkIdx) bool { return getBit(cs.bits, cs.bitIdx(ci)) }

func (cs *ChunkSet) SetRequired(ci PosChunkIdx) { setBit(cs.bits, cs.bitIdx(ci), true) }

func (cs *ChunkSet) DiskState(ci PosChunkIdx) int {
	bi := cs.bitIdx(ci)
	hi, lo := getBit(cs.bits, bi+1), getBit(cs.bits, bi+2)
	state := 0
	if hi {
		state |= 0x2
	}
	if lo {
		state |= 0x1
	}
	return state
}

func (cs *ChunkSet) SetDiskState(ci PosChunkIdx, state int) {
	bi := cs.bitIdx(ci)
	setBit(cs.bits, bi+1, state&0x2 != 0)
	setBit(cs.bits, bi+2, state&0x1 != 0)
}

// ChunkGroup is the first level of indirection: a ctLevel2Size x
// ctLevel2Size array of (possibly nil) ChunkSets.
type ChunkGroup struct {
	sets [ctLevel2Size * ctLevel2Size]*ChunkSet
}

func (g *ChunkGroup) setIdx(ci PosChunkIdx) int64 {
	return ctGetLevel2(ci.Z)*ctLevel2Size + ctGetLevel2(ci.X)
}

func (g *ChunkGroup) GetChunkSet(ci PosChunkIdx) *ChunkSet { return g.sets[g.setIdx(ci)] }

func (g *ChunkGroup) getOrCreateChunkSet(ci PosChunkIdx) *ChunkSet {
	idx := g.setIdx(ci)
	if g.sets[idx] == nil {
		g.sets[idx] = newChunkSet()
	}
	return g.sets[idx]
}

// ChunkTable is the full sparse map from chunk coordinates to required/
// disk-state bits: ctLevel3Size x ctLevel3Size groups, each holding up to
// ctLevel2Size^2 sets, each set covering ctLevel1Size^2 chunks.
type ChunkTable struct {
	groups [ctLevel3Size * ctLevel3Size]*ChunkGroup
}

func NewChunkTable() *ChunkTable { return &ChunkTable{} }

func (t *ChunkTable) groupIdx(ci PosChunkIdx) int64 {
	return ctGetLevel3(ci.Z)*ctLevel3Size + ctGetLevel3(ci.X)
}

// toPosChunkIdx reconstructs a PosChunkIdx from a group index, a set index
// within that group, and a bit index (already multiplied by ctDataSize)
// within that set.
func toPosChunkIdx(cgi, csi, bi int64) PosChunkIdx {
	var ci PosChunkIdx
	ci.X += (cgi % ctLevel3Size) * ctLevel1Size * ctLevel2Size
	ci.Z += (cgi / ctLevel3Size) * ctLevel1Size * ctLevel2Size
	ci.X += (csi % ctLevel2Size) * ctLevel1Size
	ci.Z += (csi / ctLevel2Size) * ctLevel1Size
	ci.X += (bi / ctDataSize) % ctLevel1Size
	ci.Z += (bi / ctDataSize) / ctLevel1Size
	return ci
}

func (t *ChunkTable) GetChunkGroup(ci PosChunkIdx) *ChunkGroup { return t.groups[t.groupIdx(ci)] }

func (t *ChunkTable) GetChunkSet(ci PosChunkIdx) *ChunkSet {
	g := t.GetChunkGroup(ci)
	if g == nil {
		return nil
	}
	return g.GetChunkSet(ci)
}

func (t *ChunkTable) IsRequired(ci PosChunkIdx) bool {
	cs := t.GetChunkSet(ci)
	return cs != nil && cs.IsRequired(ci)
}

func (t *ChunkTable) DiskState(ci PosChunkIdx) int {
	cs := t.GetChunkSet(ci)
	if cs == nil {
		return ChunkUnknown
	}
	return cs.DiskState(ci)
}

func (t *ChunkTable) SetRequired(ci PosChunkIdx) {
	idx := t.groupIdx(ci)
	if t.groups[idx] == nil {
		t.groups[idx] = &ChunkGroup{}
	}
	t.groups[idx].getOrCreateChunkSet(ci).SetRequired(ci)
}

func (t *ChunkTable) SetDiskState(ci PosChunkIdx, state int) {
	idx := t.groupIdx(ci)
	if t.groups[idx] == nil {
		t.groups[idx] = &ChunkGroup{}
	}
	t.groups[idx].getOrCreateChunkSet(ci).SetDiskState(ci, state)
}

// CopyFrom deep-copies another table's contents into t, used when a worker
// merges its results back into the shared table at the join barrier.
func (t *ChunkTable) CopyFrom(src *ChunkTable) {
	for i, g := range src.groups {
		if g == nil {
			continue
		}
		dst := &ChunkGroup{}
		for j, s := range g.sets {
			if s == nil {
				continue
			}
			cp := newChunkSet()
			copy(cp.bits, s.bits)
			dst.sets[j] = cp
		}
		t.groups[i] = dst
	}
}
