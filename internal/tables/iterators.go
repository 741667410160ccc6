package tables

import "github.com/equalpants/pigmap-go/internal/mapcoord"

// RequiredChunkIterator walks every required chunk in a ChunkTable in
// row-major group/set order. Kept only for tests and tooling that want a
// simple scan; the render driver uses RequiredTileIterator instead.
type RequiredChunkIterator struct {
	End     bool
	Current PosChunkIdx

	table        *ChunkTable
	cgi, csi, bi int64
}

func NewRequiredChunkIterator(t *ChunkTable) *RequiredChunkIterator {
	it := &RequiredChunkIterator{table: t}
	it.Current = toPosChunkIdx(0, 0, 0)
	if t.IsRequired(it.Current) {
		return it
	}
	it.Advance()
	return it
}

func (it *RequiredChunkIterator) Advance() {
	it.bi += ctDataSize
	for ; it.cgi < ctLevel3Size*ctLevel3Size; it.cgi++ {
		g := it.table.groups[it.cgi]
		if g == nil {
			continue
		}
		for ; it.csi < ctLevel2Size*ctLevel2Size; it.csi++ {
			s := g.sets[it.csi]
			if s == nil {
				continue
			}
			for ; it.bi < ctLevel1Size*ctLevel1Size*ctDataSize; it.bi += ctDataSize {
				if getBit(s.bits, it.bi) {
					it.End = false
					it.Current = toPosChunkIdx(it.cgi, it.csi, it.bi)
					return
				}
			}
			it.bi = 0
		}
		it.csi = 0
		it.bi = 0
	}
	it.End = true
}

// RequiredTileIterator walks every required tile in a TileTable in Z-order
// (Morton order) across groups, sets, and bits, so the worker-zoom
// partitioner can hand out contiguous, spatially-local runs of tiles.
type RequiredTileIterator struct {
	End     bool
	Current PosTileIdx

	table              *TileTable
	ztgi, ztsi, zbi int64
}

func NewRequiredTileIterator(t *TileTable) *RequiredTileIterator {
	it := &RequiredTileIterator{table: t}
	it.Current = toPosTileIdx(
		int64(mapcoord.FromZOrder(uint32(it.ztgi), ttLevel3Size)),
		int64(mapcoord.FromZOrder(uint32(it.ztsi), ttLevel2Size)),
		int64(mapcoord.FromZOrder(uint32(it.zbi), ttLevel1Size))*ttDataSize,
	)
	if t.IsRequired(it.Current) {
		return it
	}
	it.Advance()
	return it
}

func (it *RequiredTileIterator) Advance() {
	it.zbi++
	for ; it.ztgi < ttLevel3Size*ttLevel3Size; it.ztgi++ {
		tgi := int64(mapcoord.FromZOrder(uint32(it.ztgi), ttLevel3Size))
		tg := it.table.groups[tgi]
		if tg == nil {
			continue
		}
		for ; it.ztsi < ttLevel2Size*ttLevel2Size; it.ztsi++ {
			tsi := int64(mapcoord.FromZOrder(uint32(it.ztsi), ttLevel2Size))
			ts := tg.sets[tsi]
			if ts == nil {
				continue
			}
			for ; it.zbi < ttLevel1Size*ttLevel1Size; it.zbi++ {
				bi := int64(mapcoord.FromZOrder(uint32(it.zbi), ttLevel1Size))
				if getBit(ts.bits, bi*ttDataSize) {
					it.End = false
					it.Current = toPosTileIdx(tgi, tsi, bi*ttDataSize)
					return
				}
			}
			it.zbi = 0
		}
		it.ztsi = 0
		it.zbi = 0
	}
	it.End = true
}

// getZoomTile returns the ZoomTileIdx, at the TileGroup granularity, that
// corresponds to TileGroup index tgi.
func getZoomTile(tgi int64, mp mapcoord.MapParams) mapcoord.ZoomTileIdx {
	ti := toPosTileIdx(tgi, 0, 0).ToTileIdx()
	zti := ti.ToZoomTileIdx(mp)
	return zti.ToZoom(mp.BaseZoom - ttLevel1Bits - ttLevel2Bits)
}

// TileGroupIterator walks every non-nil TileGroup in a TileTable, yielding
// the ZoomTileIdx (at TileGroup granularity) each one corresponds to — used
// by the scheduler to discover which coarse map regions have any work at
// all without walking every individual tile.
type TileGroupIterator struct {
	End bool
	Zti mapcoord.ZoomTileIdx

	table *TileTable
	mp    mapcoord.MapParams
	tgi   int64
}

func NewTileGroupIterator(t *TileTable, mp mapcoord.MapParams) *TileGroupIterator {
	it := &TileGroupIterator{table: t, mp: mp}
	it.Zti = getZoomTile(0, mp)
	if t.groups[0] != nil {
		return it
	}
	it.Advance()
	return it
}

func (it *TileGroupIterator) Advance() {
	it.tgi++
	for ; it.tgi < ttLevel3Size*ttLevel3Size; it.tgi++ {
		if it.table.groups[it.tgi] != nil {
			it.Zti = getZoomTile(it.tgi, it.mp)
			return
		}
	}
	it.End = true
}
