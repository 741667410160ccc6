package blockimages

import (
	"testing"

	"github.com/equalpants/pigmap-go/internal/rgba"
)

func TestOffsetMasksIDAndData(t *testing.T) {
	bi := &BlockImages{}
	bi.setOffset(1, 0, 42)
	// a corrupt id with extra high bits set should still hit the same cell
	// as the masked 12-bit id
	if got := bi.Offset(1|0xF000, 0); got != 42 {
		t.Fatalf("Offset with high bits set = %d, want 42", got)
	}
	if got := bi.Offset(1, 0xF0); got != 42 {
		t.Fatalf("Offset with high data bits set = %d, want 42", got)
	}
}

func TestOffsetUnknownReturnsDummy(t *testing.T) {
	bi := &BlockImages{}
	bi.SetOffsets()
	if got := bi.Offset(9999&0x0FFF, 0); got != OffsetDummy {
		t.Fatalf("unmapped id returned offset %d, want dummy (0)", got)
	}
}

func TestFenceOffsetMatchesConnectivityFormula(t *testing.T) {
	// N+E bitmask = bit0|bit2 = 0b0101 = 5
	const mask = 0b0101
	if got := FenceOffset(mask); got != 157+5 {
		t.Fatalf("FenceOffset(N+E) = %d, want %d", got, 157+5)
	}
	bi := &BlockImages{}
	bi.SetOffsets()
	if got := bi.Offset(85, mask); got != 162 {
		t.Fatalf("fence offset for id 85 mask %b = %d, want 162", mask, got)
	}
}

func TestGetRectTilesAtlasByRectsize(t *testing.T) {
	bi := &BlockImages{Rectsize: 32}
	r0 := bi.GetRect(0)
	if r0.X != 0 || r0.Y != 0 || r0.W != 32 || r0.H != 32 {
		t.Fatalf("GetRect(0) = %+v", r0)
	}
	r16 := bi.GetRect(16)
	if r16.X != 0 || r16.Y != 32 {
		t.Fatalf("GetRect(16) should wrap to next row, got %+v", r16)
	}
	r17 := bi.GetRect(17)
	if r17.X != 32 || r17.Y != 32 {
		t.Fatalf("GetRect(17) = %+v", r17)
	}
}

func TestCheckOpacityAndTransparencyDetectsOpaqueSolid(t *testing.T) {
	b := 2
	bi := &BlockImages{Rectsize: int32(4 * b)}
	bi.Img.Create(bi.Rectsize*16, (int32(NumBlockImages)/16+1)*bi.Rectsize)

	// fill offset 1's whole cell with a fully opaque color
	rect := bi.GetRect(1)
	for y := rect.Y; y < rect.Y+rect.H; y++ {
		for x := rect.X; x < rect.X+rect.W; x++ {
			bi.Img.Set(x, y, rgba.MakeRGBA(10, 20, 30, 255))
		}
	}
	bi.CheckOpacityAndTransparency(b)
	if !bi.IsOpaque(1) {
		t.Fatal("fully opaque sprite not detected as opaque")
	}
	if bi.IsTransparent(1) {
		t.Fatal("fully opaque sprite reported as transparent")
	}
}

func TestCheckOpacityAndTransparencyDetectsFullyTransparent(t *testing.T) {
	b := 2
	bi := &BlockImages{Rectsize: int32(4 * b)}
	bi.Img.Create(bi.Rectsize*16, (int32(NumBlockImages)/16+1)*bi.Rectsize)
	// offset 0 stays all-zero (alpha 0 everywhere)
	bi.CheckOpacityAndTransparency(b)
	if !bi.IsTransparent(0) {
		t.Fatal("blank sprite not detected as transparent")
	}
	if bi.IsOpaque(0) {
		t.Fatal("blank sprite reported as opaque")
	}
}

func TestRetouchAlphasSnapsNearBoundaryValues(t *testing.T) {
	b := 2
	bi := &BlockImages{Rectsize: int32(4 * b)}
	bi.Img.Create(bi.Rectsize*16, (int32(NumBlockImages)/16+1)*bi.Rectsize)

	rect := bi.GetRect(1)
	// N face starts at (rect.X, rect.Y+b)
	bi.Img.Set(rect.X, rect.Y+int32(b), rgba.MakeRGBA(1, 2, 3, 5))
	bi.Img.Set(rect.X+1, rect.Y+int32(b), rgba.MakeRGBA(1, 2, 3, 250))

	bi.RetouchAlphas(b)

	if a := bi.Img.At(rect.X, rect.Y+int32(b)).A(); a != 0 {
		t.Fatalf("alpha 5 should snap to 0, got %d", a)
	}
	if a := bi.Img.At(rect.X+1, rect.Y+int32(b)).A(); a != 255 {
		t.Fatalf("alpha 250 should snap to 255, got %d", a)
	}
}

func TestFaceIteratorCoversWholeFace(t *testing.T) {
	size := int32(8)
	count := 0
	for it := NewFaceIterator(0, 0, 1, size); !it.End; it.Advance() {
		count++
	}
	if count != int(size*size) {
		t.Fatalf("FaceIterator visited %d pixels, want %d", count, size*size)
	}
}

func TestTopFaceIteratorCoversWholeFace(t *testing.T) {
	size := int32(8)
	count := 0
	for it := NewTopFaceIterator(0, 0, size); !it.End; it.Advance() {
		count++
	}
	if count != int(size*size) {
		t.Fatalf("TopFaceIterator visited %d pixels, want %d", count, size*size)
	}
}
