package tables

import "github.com/equalpants/pigmap-go/internal/mapcoord"

const (
	rtLevel1Bits = 4
	rtLevel2Bits = 4
	rtLevel3Bits = 6

	rtLevel1Size = 1 << rtLevel1Bits
	rtLevel2Size = 1 << rtLevel2Bits
	rtLevel3Size = 1 << rtLevel3Bits
	rtTotalSize  = rtLevel1Size * rtLevel2Size * rtLevel3Size

	rtDataSize = 3 // 1 required bit + 2 disk-state bits
)

// Region disk states, packed into the low two bits of a region's 3-bit
// cell — the same shape as a chunk's disk state, since the region cache
// needs the same unknown/cached/missing/corrupted state machine a chunk
// does (whether read straight from loose files or through a region).
const (
	RegionUnknown   = 0
	RegionCached    = 1
	RegionMissing   = 2
	RegionCorrupted = 3
)

// PosRegionIdx is a RegionIdx shifted so both coordinates are non-negative.
type PosRegionIdx struct {
	X, Z int64
}

func NewPosRegionIdx(ri mapcoord.RegionIdx) PosRegionIdx {
	return PosRegionIdx{ri.X + rtTotalSize/2, ri.Z + rtTotalSize/2}
}

func (p PosRegionIdx) ToRegionIdx() mapcoord.RegionIdx {
	return mapcoord.RegionIdx{X: p.X - rtTotalSize/2, Z: p.Z - rtTotalSize/2}
}

func (p PosRegionIdx) Valid() bool {
	return p.X >= 0 && p.X < rtTotalSize && p.Z >= 0 && p.Z < rtTotalSize
}

func rtGetLevel1(a int64) int64 { return a & (rtLevel1Size - 1) }
func rtGetLevel2(a int64) int64 { return (a >> rtLevel1Bits) & (rtLevel2Size - 1) }
func rtGetLevel3(a int64) int64 { return (a >> (rtLevel1Bits + rtLevel2Bits)) & (rtLevel3Size - 1) }

// RegionSet holds the required bit and 2-bit disk state for a
// rtLevel1Size x rtLevel1Size block of regions.
type RegionSet struct {
	bits []byte
}

func newRegionSet() *RegionSet {
	nbits := rtLevel1Size * rtLevel1Size * rtDataSize
	return &RegionSet{bits: make([]byte, (nbits+7)/8)}
}

func (rs *RegionSet) bitIdx(ri PosRegionIdx) int64 {
	return (rtGetLevel1(ri.Z)*rtLevel1Size + rtGetLevel1(ri.X)) * rtDataSize
}

func (rs *RegionSet) IsRequired(ri PosRegionIdx) bool { return getBit(rs.bits, rs.bitIdx(ri)) }

func (rs *RegionSet) SetRequired(ri PosRegionIdx) { setBit(rs.bits, rs.bitIdx(ri), true) }

func (rs *RegionSet) DiskState(ri PosRegionIdx) int {
	bi := rs.bitIdx(ri)
	hi, lo := getBit(rs.bits, bi+1), getBit(rs.bits, bi+2)
	state := 0
	if hi {
		state |= 0x2
	}
	if lo {
		state |= 0x1
	}
	return state
}

func (rs *RegionSet) SetDiskState(ri PosRegionIdx, state int) {
	bi := rs.bitIdx(ri)
	setBit(rs.bits, bi+1, state&0x2 != 0)
	setBit(rs.bits, bi+2, state&0x1 != 0)
}

// RegionGroup is the first level of indirection for region coordinates.
type RegionGroup struct {
	sets [rtLevel2Size * rtLevel2Size]*RegionSet
}

func (g *RegionGroup) setIdx(ri PosRegionIdx) int64 {
	return rtGetLevel2(ri.Z)*rtLevel2Size + rtGetLevel2(ri.X)
}

func (g *RegionGroup) GetRegionSet(ri PosRegionIdx) *RegionSet { return g.sets[g.setIdx(ri)] }

func (g *RegionGroup) getOrCreateRegionSet(ri PosRegionIdx) *RegionSet {
	idx := g.setIdx(ri)
	if g.sets[idx] == nil {
		g.sets[idx] = newRegionSet()
	}
	return g.sets[idx]
}

// RegionTable is the full sparse map of region required/disk-state.
type RegionTable struct {
	groups [rtLevel3Size * rtLevel3Size]*RegionGroup
}

func NewRegionTable() *RegionTable { return &RegionTable{} }

func (t *RegionTable) groupIdx(ri PosRegionIdx) int64 {
	return rtGetLevel3(ri.Z)*rtLevel3Size + rtGetLevel3(ri.X)
}

// toPosRegionIdx reconstructs a PosRegionIdx from a group index, a set
// index within that group, and a bit index (already multiplied by
// rtDataSize) within that set.
func toPosRegionIdx(rgi, rsi, bi int64) PosRegionIdx {
	var ri PosRegionIdx
	ri.X += (rgi % rtLevel3Size) * rtLevel1Size * rtLevel2Size
	ri.Z += (rgi / rtLevel3Size) * rtLevel1Size * rtLevel2Size
	ri.X += (rsi % rtLevel2Size) * rtLevel1Size
	ri.Z += (rsi / rtLevel2Size) * rtLevel1Size
	ri.X += (bi / rtDataSize) % rtLevel1Size
	ri.Z += (bi / rtDataSize) / rtLevel1Size
	return ri
}

func (t *RegionTable) GetRegionGroup(ri PosRegionIdx) *RegionGroup { return t.groups[t.groupIdx(ri)] }

func (t *RegionTable) GetRegionSet(ri PosRegionIdx) *RegionSet {
	g := t.GetRegionGroup(ri)
	if g == nil {
		return nil
	}
	return g.GetRegionSet(ri)
}

func (t *RegionTable) IsRequired(ri PosRegionIdx) bool {
	rs := t.GetRegionSet(ri)
	return rs != nil && rs.IsRequired(ri)
}

func (t *RegionTable) DiskState(ri PosRegionIdx) int {
	rs := t.GetRegionSet(ri)
	if rs == nil {
		return RegionUnknown
	}
	return rs.DiskState(ri)
}

func (t *RegionTable) SetRequired(ri PosRegionIdx) {
	idx := t.groupIdx(ri)
	if t.groups[idx] == nil {
		t.groups[idx] = &RegionGroup{}
	}
	t.groups[idx].getOrCreateRegionSet(ri).SetRequired(ri)
}

func (t *RegionTable) SetDiskState(ri PosRegionIdx, state int) {
	idx := t.groupIdx(ri)
	if t.groups[idx] == nil {
		t.groups[idx] = &RegionGroup{}
	}
	t.groups[idx].getOrCreateRegionSet(ri).SetDiskState(ri, state)
}

// CopyFrom deep-copies another table's contents into t.
func (t *RegionTable) CopyFrom(src *RegionTable) {
	for i, g := range src.groups {
		if g == nil {
			continue
		}
		dst := &RegionGroup{}
		for j, s := range g.sets {
			if s == nil {
				continue
			}
			cp := newRegionSet()
			copy(cp.bits, s.bits)
			dst.sets[j] = cp
		}
		t.groups[i] = dst
	}
}

// RegionChunkIterator walks every chunk coordinate in a region, in
// row-major order, expressed in table (Pos-shifted) chunk-index space so
// the region cache can mark every chunk of a missing/corrupt region
// without converting back and forth.
type RegionChunkIterator struct {
	End       bool
	Current   PosChunkIdx
	baseChunk PosChunkIdx
}

// NewRegionChunkIteratorFromPos builds an iterator over the 32x32 chunks
// of region ri (given as a PosRegionIdx).
func NewRegionChunkIteratorFromPos(ri PosRegionIdx) *RegionChunkIterator {
	base := NewPosChunkIdx(ri.ToRegionIdx().BaseChunk())
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
