package rgba

// Blend alpha-composites src over *dest. The alpha channel does not
// interpolate the way RGB does: the result is the inverse of the product of
// both inverse alphas, so an opaque pixel drawn over anything stays opaque,
// and compositing two translucent pixels never loses opacity information
// either side already had.
func Blend(dest *Pixel, src Pixel) {
	// transparent source: nothing to do
	if src <= 0xffffff {
		return
	}
	// opaque source, or transparent dest: straight copy
	if src >= 0xff000000 || *dest <= 0xffffff {
		*dest = src
		return
	}
	// opaque dest: RGB blends, alpha stays 100%
	if *dest >= 0xff000000 {
		opaqueBlend(dest, src)
		return
	}
	fullBlend(dest, src)
}

// fullBlend handles translucent-over-translucent: both RGB and alpha need
// computing. sa/sainv are scaled to 1..256 so the 8-bit*8-bit products stay
// within a 16-bit range and can be truncated with a shift instead of a
// division.
func fullBlend(dest *Pixel, src Pixel) {
	sa := int64(src.A()) + 1
	sainv := 257 - sa
	d, s := int64(*dest), int64(src)
	d = ((d << 16) & 0xff00000000) | ((d << 8) & 0xff0000) | (d & 0xff)
	s = ((s << 16) & 0xff00000000) | ((s << 8) & 0xff0000) | (s & 0xff)
	newrgb := s*sa + d*sainv

	dainv := 256 - int64(dest.A())
	newa := sainv * dainv // 1..0x10000
	newa = (newa - 1) >> 8
	newa = 255 - newa

	*dest = Pixel(newa<<24) | Pixel((newrgb>>24)&0xff0000) | Pixel((newrgb>>16)&0xff00) | Pixel((newrgb>>8)&0xff)
}

// opaqueBlend is fullBlend specialized for an opaque destination: the
// result alpha is always 255, so it need not be recomputed.
func opaqueBlend(dest *Pixel, src Pixel) {
	sa := int64(src.A()) + 1
	sainv := 257 - sa
	d, s := int64(*dest), int64(src)
	d = ((d << 16) & 0xff00000000) | ((d << 8) & 0xff0000) | (d & 0xff)
	s = ((s << 16) & 0xff00000000) | ((s << 8) & 0xff0000) | (s & 0xff)
	newrgb := s*sa + d*sainv
	*dest = 0xff000000 | Pixel((newrgb>>24)&0xff0000) | Pixel((newrgb>>16)&0xff00) | Pixel((newrgb>>8)&0xff)
}

// Alphablit blends srect of src onto dest at (dxstart,dystart), clipping
// silently at every edge.
func Alphablit(src *Image, srect Rect, dest *Image, dxstart, dystart int32) {
	ybegin := max32(0, max32(-srect.Y, -dystart))
	yend := min32(srect.H, min32(src.H-srect.Y, dest.H-dystart))
	xbegin := max32(0, max32(-srect.X, -dxstart))
	xend := min32(srect.W, min32(src.W-srect.X, dest.W-dxstart))

	for yoff, sy, dy := ybegin, srect.Y+ybegin, dystart+ybegin; yoff < yend; yoff, sy, dy = yoff+1, sy+1, dy+1 {
		for xoff, sx, dx := xbegin, srect.X+xbegin, dxstart+xbegin; xoff < xend; xoff, sx, dx = xoff+1, sx+1, dx+1 {
			p := dest.At(dx, dy)
			Blend(&p, src.At(sx, sy))
			dest.Set(dx, dy, p)
		}
	}
}

// Blit copies srect of src onto dest at (dxstart,dystart) with no blending,
// clipping silently.
func Blit(src *Image, srect Rect, dest *Image, dxstart, dystart int32) {
	ybegin := max32(0, max32(-srect.Y, -dystart))
	yend := min32(srect.H, min32(src.H-srect.Y, dest.H-dystart))
	xbegin := max32(0, max32(-srect.X, -dxstart))
	xend := min32(srect.W, min32(src.W-srect.X, dest.W-dxstart))

	for yoff, sy, dy := ybegin, srect.Y+ybegin, dystart+ybegin; yoff < yend; yoff, sy, dy = yoff+1, sy+1, dy+1 {
		for xoff, sx, dx := xbegin, srect.X+xbegin, dxstart+xbegin; xoff < xend; xoff, sx, dx = xoff+1, sx+1, dx+1 {
			dest.Set(dx, dy, src.At(sx, sy))
		}
	}
}

// ReduceHalf shrinks source 2x2 box-filter style into drect of dest; drect
// must be exactly half of source's dimensions or this is a no-op. Each
// channel is right-shifted by 2 then summed, which bounds the per-channel
// sum at 0xfc instead of overflowing a byte, then the four shifted channels
// are added as one packed word.
func ReduceHalf(dest *Image, drect Rect, source *Image) {
	if source.W != drect.W*2 || source.H != drect.H*2 {
		return
	}
	for dy, sy := drect.Y, int32(0); sy < source.H; dy, sy = dy+1, sy+2 {
		for dx, sx := drect.X, int32(0); sx < source.W; dx, sx = dx+1, sx+2 {
			p1 := (source.At(sx, sy) >> 2) & 0x3f3f3f3f
			p2 := (source.At(sx+1, sy) >> 2) & 0x3f3f3f3f
			p3 := (source.At(sx, sy+1) >> 2) & 0x3f3f3f3f
			p4 := (source.At(sx+1, sy+1) >> 2) & 0x3f3f3f3f
			dest.Set(dx, dy, p1+p2+p3+p4)
		}
	}
}

// Resize nearest-neighbor samples srect of source into drect of dest,
// possibly at a different scale. Used only by atlas construction.
func Resize(source *Image, srect Rect, dest *Image, drect Rect) {
	for y := drect.Y; y < drect.Y+drect.H; y++ {
		ypct := float64(y-drect.Y) / float64(drect.H-1)
		yoff := int32(ypct * float64(srect.H-1))
		for x := drect.X; x < drect.X+drect.W; x++ {
			xpct := float64(x-drect.X) / float64(drect.W-1)
			xoff := int32(xpct * float64(srect.W-1))
			dest.Set(x, y, source.At(srect.X+xoff, srect.Y+yoff))
		}
	}
}

// Darken multiplies a pixel's RGB channels by factors in [0,1], leaving
// alpha untouched.
func Darken(dest *Pixel, r, g, b float64) {
	newr := uint8(r * float64(dest.R()))
	newg := uint8(g * float64(dest.G()))
	newb := uint8(b * float64(dest.B()))
	*dest = MakeRGBA(newr, newg, newb, dest.A())
}

// DarkenRect applies Darken to every pixel in rect.
func DarkenRect(img *Image, rect Rect, r, g, b float64) {
	for y := rect.Y; y < rect.Y+rect.H; y++ {
		for x := rect.X; x < rect.X+rect.W; x++ {
			p := img.At(x, y)
			Darken(&p, r, g, b)
			img.Set(x, y, p)
		}
	}
}

func max32(a, b int32) int32 {
	if a > b {
		return a
	}
	return b
}

func min32(a, b int32) int32 {
	if a < b {
		return a
	}
	return b
}
