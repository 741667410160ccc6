package worldfmt

import (
	"bytes"
	"compress/zlib"
	"testing"

	"github.com/equalpants/pigmap-go/internal/mapcoord"
)

func TestLoadFromOldFile(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteByte(0) // some leading noise
	buf.Write(idsTag)
	ids := make([]byte, 32768)
	for i := range ids {
		ids[i] = byte(i % 7)
	}
	buf.Write(ids)
	buf.Write(dataTag)
	data := make([]byte, 16384)
	for i := range data {
		data[i] = byte(i % 5)
	}
	buf.Write(data)

	var cd ChunkData
	if !cd.LoadFromOldFile(buf.Bytes()) {
		t.Fatal("LoadFromOldFile failed to find both tags")
	}
	if cd.Anvil {
		t.Fatal("LoadFromOldFile set Anvil = true")
	}
	if cd.BlockIDs[0] != 0 || cd.BlockIDs[1] != 1 {
		t.Fatalf("block ids not copied correctly: %v", cd.BlockIDs[:4])
	}
	if cd.BlockData[0] != 0 || cd.BlockData[1] != 1 {
		t.Fatalf("block data not copied correctly: %v", cd.BlockData[:4])
	}
}

func TestChunkDataIDOldStyle(t *testing.T) {
	var cd ChunkData
	bo := BlockOffset{X: 1, Z: 2, Y: 3}
	idx := (bo.X*16 + bo.Z) * 128 + bo.Y
	cd.BlockIDs[idx] = 42
	if got := cd.ID(bo); got != 42 {
		t.Fatalf("ID = %d, want 42", got)
	}
}

func TestChunkDataIDAnvilHighBits(t *testing.T) {
	cd := ChunkData{Anvil: true}
	bo := BlockOffset{X: 0, Z: 0, Y: 0}
	i := (bo.Y*16+bo.Z)*16 + bo.X
	cd.BlockIDs[i] = 0xAB
	cd.BlockAdd[i/2] = 0x3 // low nibble since i is even
	got := cd.ID(bo)
	want := uint16(0x3)<<8 | 0xAB
	if got != want {
		t.Fatalf("ID = %#x, want %#x", got, want)
	}
}

func TestLoadFromAnvilFile(t *testing.T) {
	buf := buildMinimalAnvilChunk(t, 0)
	var cd ChunkData
	if !cd.LoadFromAnvilFile(buf) {
		t.Fatal("LoadFromAnvilFile failed")
	}
	if !cd.Anvil {
		t.Fatal("Anvil flag not set")
	}
	if cd.BlockIDs[0] != 7 {
		t.Fatalf("section 0 block id[0] = %d, want 7", cd.BlockIDs[0])
	}
}

// buildMinimalAnvilChunk hand-assembles a tiny NBT buffer containing a
// root compound > Level compound > Sections list with one compound
// holding Y=sectionY, a Blocks byte array, and a Data byte array.
func buildMinimalAnvilChunk(t *testing.T, sectionY byte) []byte {
	t.Helper()
	var buf bytes.Buffer

	writeTagHeader := func(typ byte, name string) {
		buf.WriteByte(typ)
		buf.WriteByte(0)
		buf.WriteByte(byte(len(name)))
		buf.WriteString(name)
	}

	// root compound, unnamed
	buf.WriteByte(tagCompound)
	buf.WriteByte(0)
	buf.WriteByte(0)

	// Level compound
	writeTagHeader(tagCompound, "Level")

	// Sections list, 1 element, element type = compound
	writeTagHeader(tagList, "Sections")
	buf.WriteByte(tagCompound)
	buf.Write([]byte{0, 0, 0, 1}) // length 1

	// section compound: Y (byte)
	writeTagHeader(tagByte, "Y")
	buf.WriteByte(sectionY)

	// Blocks byte array, length 4096
	writeTagHeader(tagByteArray, "Blocks")
	buf.Write([]byte{0, 0, 0x10, 0x00}) // 4096
	blocks := make([]byte, 4096)
	blocks[0] = 7
	buf.Write(blocks)

	// Data byte array, length 2048
	writeTagHeader(tagByteArray, "Data")
	buf.Write([]byte{0, 0, 0x08, 0x00}) // 2048
	buf.Write(make([]byte, 2048))

	// end of section compound
	buf.WriteByte(tagEnd)

	// end of Level compound
	buf.WriteByte(tagEnd)
	// end of root compound
	buf.WriteByte(tagEnd)

	return buf.Bytes()
}

func TestRegionChunkIteratorCoversWholeRegion(t *testing.T) {
	ri := mapcoord.RegionIdx{X: 2, Z: -3}
	count := 0
	seen := map[mapcoord.ChunkIdx]bool{}
	for it := NewRegionChunkIterator(ri); !it.End; it.Advance() {
		seen[it.Current] = true
		count++
	}
	if count != 1024 {
		t.Fatalf("iterator visited %d chunks, want 1024", count)
	}
	base := ri.BaseChunk()
	if !seen[base] || !seen[mapcoord.ChunkIdx{X: base.X + 31, Z: base.Z + 31}] {
		t.Fatal("iterator missed a corner chunk")
	}
}

func TestReadGzOrZlibRoundTrip(t *testing.T) {
	var zbuf bytes.Buffer
	zw := zlib.NewWriter(&zbuf)
	payload := []byte("hello pigmap")
	zw.Write(payload)
	zw.Close()

	got, err := ReadGzOrZlib(zbuf.Bytes())
	if err != nil {
		t.Fatalf("ReadGzOrZlib: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("got %q, want %q", got, payload)
	}
}
