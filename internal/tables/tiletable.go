package tables

import "github.com/equalpants/pigmap-go/internal/mapcoord"

const (
	ttLevel1Bits = 4
	ttLevel2Bits = 4
	ttLevel3Bits = 8

	ttLevel1Size = 1 << ttLevel1Bits
	ttLevel2Size = 1 << ttLevel2Bits
	ttLevel3Size = 1 << ttLevel3Bits
	ttTotalSize  = ttLevel1Size * ttLevel2Size * ttLevel3Size

	ttDataSize = 2 // required bit + drawn bit
)

// PosTileIdx is a TileIdx shifted so both coordinates are non-negative.
type PosTileIdx struct {
	X, Y int64
}

func NewPosTileIdx(ti mapcoord.TileIdx) PosTileIdx {
	return PosTileIdx{ti.X + ttTotalSize/2, ti.Y + ttTotalSize/2}
}

func (p PosTileIdx) ToTileIdx() mapcoord.TileIdx {
	return mapcoord.TileIdx{X: p.X - ttTotalSize/2, Y: p.Y - ttTotalSize/2}
}

func (p PosTileIdx) Valid() bool {
	return p.X >= 0 && p.X < ttTotalSize && p.Y >= 0 && p.Y < ttTotalSize
}

func ttGetLevel1(a int64) int64 { return a & (ttLevel1Size - 1) }
func ttGetLevel2(a int64) int64 { return (a >> ttLevel1Bits) & (ttLevel2Size - 1) }
func ttGetLevel3(a int64) int64 { return (a >> (ttLevel1Bits + ttLevel2Bits)) & (ttLevel3Size - 1) }

// TileSet holds the required/drawn bits for a ttLevel1Size x ttLevel1Size
// block of tiles.
type TileSet struct {
	bits []byte
}

func newTileSet() *TileSet {
	nbits := ttLevel1Size * ttLevel1Size * ttDataSize
	return &TileSet{bits: make([]byte, (nbits+7)/8)}
}

func (ts *TileSet) bitIdx(ti PosTileIdx) int64 {
	return (ttGetLevel1(ti.Y)*ttLevel1Size + ttGetLevel1(ti.X)) * ttDataSize
}

func (ts *TileSet) IsRequired(ti PosTileIdx) bool { return getBit(ts.bits, ts.bitIdx(ti)) }
func (ts *TileSet) IsDrawn(ti PosTileIdx) bool     { return getBit(ts.bits, ts.bitIdx(ti)+1) }

// SetRequired sets ti's required bit and reports its previous value.
func (ts *TileSet) SetRequired(ti PosTileIdx) bool {
	bi := ts.bitIdx(ti)
	prev := getBit(ts.bits, bi)
	setBit(ts.bits, bi, true)
	return prev
}

func (ts *TileSet) SetDrawn(ti PosTileIdx) { setBit(ts.bits, ts.bitIdx(ti)+1, true) }

// TileGroup is the first level of indirection for tile coordinates,
// tracking how many of its tiles are required so a parent ZoomTile can
// be rejected in bulk when its TileGroup is empty.
type TileGroup struct {
	sets     [ttLevel2Size * ttLevel2Size]*TileSet
	ReqCount int64
}

func (g *TileGroup) setIdx(ti PosTileIdx) int64 {
	return ttGetLevel2(ti.Y)*ttLevel2Size + ttGetLevel2(ti.X)
}

func (g *TileGroup) GetTileSet(ti PosTileIdx) *TileSet { return g.sets[g.setIdx(ti)] }

func (g *TileGroup) getOrCreateTileSet(ti PosTileIdx) *TileSet {
	idx := g.setIdx(ti)
	if g.sets[idx] == nil {
		g.sets[idx] = newTileSet()
	}
	return g.sets[idx]
}

// TileTable is the full sparse map of base-tile required/drawn state.
type TileTable struct {
	groups   [ttLevel3Size * ttLevel3Size]*TileGroup
	ReqCount int64
}

func NewTileTable() *TileTable { return &TileTable{} }

func (t *TileTable) groupIdx(ti PosTileIdx) int64 {
	return ttGetLevel3(ti.Y)*ttLevel3Size + ttGetLevel3(ti.X)
}

// toPosTileIdx reconstructs a PosTileIdx from a group index, a set index
// within that group, and a bit index (already multiplied by ttDataSize)
// within that set — the inverse of the indexing used by iteration.
func toPosTileIdx(tgi, tsi, bi int64) PosTileIdx {
	var ti PosTileIdx
	ti.X += (tgi % ttLevel3Size) * ttLevel1Size * ttLevel2Size
	ti.Y += (tgi / ttLevel3Size) * ttLevel1Size * ttLevel2Size
	ti.X += (tsi % ttLevel2Size) * ttLevel1Size
	ti.Y += (tsi / ttLevel2Size) * ttLevel1Size
	ti.X += (bi / ttDataSize) % ttLevel1Size
	ti.Y += (bi / ttDataSize) / ttLevel1Size
	return ti
}

func (t *TileTable) GetTileGroup(ti PosTileIdx) *TileGroup { return t.groups[t.groupIdx(ti)] }

func (t *TileTable) GetTileSet(ti PosTileIdx) *TileSet {
	g := t.GetTileGroup(ti)
	if g == nil {
		return nil
	}
	return g.GetTileSet(ti)
}

func (t *TileTable) IsRequired(ti PosTileIdx) bool {
	ts := t.GetTileSet(ti)
	return ts != nil && ts.IsRequired(ti)
}

func (t *TileTable) IsDrawn(ti PosTileIdx) bool {
	ts := t.GetTileSet(ti)
	return ts != nil && ts.IsDrawn(ti)
}

// SetRequired marks ti required, bumping the group/table required counts
// only the first time it's set, and returns the tile's previous state.
func (t *TileTable) SetRequired(ti PosTileIdx) bool {
	idx := t.groupIdx(ti)
	if t.groups[idx] == nil {
		t.groups[idx] = &TileGroup{}
	}
	g := t.groups[idx]
	prev := g.getOrCreateTileSet(ti).SetRequired(ti)
	if !prev {
		g.ReqCount++
		t.ReqCount++
	}
	return prev
}

func (t *TileTable) SetDrawn(ti PosTileIdx) {
	idx := t.groupIdx(ti)
	if t.groups[idx] == nil {
		t.groups[idx] = &TileGroup{}
	}
	t.groups[idx].getOrCreateTileSet(ti).SetDrawn(ti)
}

// Reject reports whether a zoom tile can be skipped outright because its
// entire TileGroup or TileSet is unallocated (and therefore holds nothing
// required). Zoom tiles never straddle TileSet/TileGroup boundaries except
// at zoom 0, which always has to be drawn anyway.
func (t *TileTable) Reject(zti mapcoord.ZoomTileIdx, mp mapcoord.MapParams) bool {
	if zti.Zoom < mp.BaseZoom-ttLevel1Bits-ttLevel2Bits {
		return false
	}
	if zti.Zoom == 0 {
		return false
	}
	ti := zti.ToTileIdx(mp)
	pti := NewPosTileIdx(ti)
	if zti.Zoom >= mp.BaseZoom-ttLevel1Bits {
		return t.GetTileSet(pti) == nil
	}
	return t.GetTileGroup(pti) == nil
}

// count returns the number of set bits among this set's required bits
// (every even-indexed bit, since each tile occupies ttDataSize bits).
func (ts *TileSet) count() int64 {
	var n int64
	for i := int64(0); i < ttLevel1Size*ttLevel1Size; i++ {
		if getBit(ts.bits, i*ttDataSize) {
			n++
		}
	}
	return n
}

// GetNumRequired counts how many base tiles under zti are required,
// walking only as deep into the trie as zti's zoom level demands.
func (t *TileTable) GetNumRequired(zti mapcoord.ZoomTileIdx, mp mapcoord.MapParams) int64 {
	if zti.Zoom == 0 {
		return t.ReqCount
	}
	if zti.Zoom > mp.BaseZoom-ttLevel1Bits {
		topleft := zti.ToTileIdx(mp)
		ts := t.GetTileSet(NewPosTileIdx(topleft))
		if ts == nil {
			return 0
		}
		var count int64
		size := int64(1) << uint(mp.BaseZoom-zti.Zoom)
		for x := int64(0); x < size; x++ {
			for y := int64(0); y < size; y++ {
				if ts.IsRequired(NewPosTileIdx(topleft.Add(mapcoord.TileIdx{X: x, Y: y}))) {
					count++
				}
			}
		}
		return count
	}
	if zti.Zoom > mp.BaseZoom-ttLevel1Bits-ttLevel2Bits {
		topleft := zti.ToTileIdx(mp)
		tg := t.GetTileGroup(NewPosTileIdx(topleft))
		if tg == nil {
			return 0
		}
		var count int64
		size := int64(1) << uint(mp.BaseZoom-ttLevel1Bits-zti.Zoom)
		for x := int64(0); x < size; x++ {
			for y := int64(0); y < size; y++ {
				ts := tg.GetTileSet(NewPosTileIdx(topleft.Add(mapcoord.TileIdx{X: x << ttLevel1Bits, Y: y << ttLevel1Bits})))
				if ts != nil {
					count += ts.count()
				}
			}
		}
		return count
	}
	topleft := zti.ToTileIdx(mp)
	var count int64
	size := int64(1) << uint(mp.BaseZoom-ttLevel1Bits-ttLevel2Bits-zti.Zoom)
	for x := int64(0); x < size; x++ {
		for y := int64(0); y < size; y++ {
			tg := t.GetTileGroup(NewPosTileIdx(topleft.Add(mapcoord.TileIdx{
				X: x << uint(ttLevel1Bits+ttLevel2Bits),
				Y: y << uint(ttLevel1Bits+ttLevel2Bits),
			})))
			if tg != nil {
				count += tg.ReqCount
			}
		}
	}
	return count
}

// MergeDrawnFrom OR-merges src's drawn bits into t. Used after a batch of
// workers, each operating on its own CopyFrom'd table, finish rendering
// their assigned zoom tiles: the driver ends up with one table whose
// drawn bits reflect every worker's work, ready for the single-threaded
// finishing pass above the worker-split zoom level.
func (t *TileTable) MergeDrawnFrom(src *TileTable) {
	for i, g := range src.groups {
		if g == nil {
			continue
		}
		dstGroup := t.groups[i]
		if dstGroup == nil {
			dstGroup = &TileGroup{ReqCount: g.ReqCount}
			t.groups[i] = dstGroup
		}
		for j, s := range g.sets {
			if s == nil {
				continue
			}
			dstSet := dstGroup.sets[j]
			if dstSet == nil {
				dstSet = newTileSet()
				dstGroup.sets[j] = dstSet
			}
			for k := range s.bits {
				dstSet.bits[k] |= s.bits[k]
			}
		}
	}
}

// CopyFrom deep-copies another table's contents into t.
func (t *TileTable) CopyFrom(src *TileTable) {
	t.ReqCount = src.ReqCount
	for i, g := range src.groups {
		if g == nil {
			continue
		}
		dst := &TileGroup{ReqCount: g.ReqCount}
		for j, s := range g.sets {
			if s == nil {
				continue
			}
			cp := newTileSet()
			copy(cp.bits, s.bits)
			dst.sets[j] = cp
		}
		t.groups[i] = dst
	}
}
