package mapcoord

// floordiv is floored division: the real-valued a/b rounded toward
// negative infinity, unlike Go's truncating integer division.
func floordiv(a, b int64) int64 {
	if b < 0 {
		a, b = -a, -b
	}
	if a < 0 {
		return (a - b + 1) / b
	}
	return a / b
}

// ceildiv is the ceiling counterpart of floordiv.
func ceildiv(a, b int64) int64 {
	if b < 0 {
		a, b = -a, -b
	}
	if a > 0 {
		return (a + b - 1) / b
	}
	return a / b
}

// mod64pos is a%64 folded into [0,64), used to pick chunk subdirectories.
func mod64pos(a int64) int64 {
	if a >= 0 {
		return a % 64
	}
	m := a % 64
	if m == 0 {
		return 0
	}
	return 64 + m
}

// floordiv16 is floordiv(a,16) specialized with a shift on the non-negative
// path; BlockIdx.GetChunkIdx calls this on every block, so it matters.
func floordiv16(a int64) int64 {
	if a < 0 {
		return (a - 15) / 16
	}
	return a >> 4
}

const base36Digits = "0123456789abcdefghijklmnopqrstuvwxyz"

func toBase36(i int64) string {
	neg := i < 0
	if neg {
		i = -i
	}
	if i == 0 {
		return "0"
	}
	var b []byte
	for i > 0 {
		b = append(b, base36Digits[i%36])
		i /= 36
	}
	if neg {
		b = append(b, '-')
	}
	for l, r := 0, len(b)-1; l < r; l, r = l+1, r-1 {
		b[l], b[r] = b[r], b[l]
	}
	return string(b)
}

// fromBase36Slice parses a (possibly signed) base-36 integer.
func fromBase36Slice(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	sign := int64(1)
	i := 0
	if s[0] == '-' {
		sign = -1
		i++
	}
	var total int64
	if i == len(s) {
		return 0, false
	}
	for ; i < len(s); i++ {
		c := s[i]
		total *= 36
		switch {
		case c >= '0' && c <= '9':
			total += int64(c - '0')
		case c >= 'a' && c <= 'z':
			total += int64(c-'a') + 10
		case c >= 'A' && c <= 'Z':
			total += int64(c-'A') + 10
		default:
			return 0, false
		}
	}
	return total * sign, true
}

// FromBase36 parses a standalone base-36 string, returning 0 if malformed.
func FromBase36(s string) int64 {
	v, ok := fromBase36Slice(s)
	if !ok {
		return 0
	}
	return v
}

func ToBase36(i int64) string { return toBase36(i) }

// ToZOrder reinterprets row-major index i into a SIZExSIZE array as its
// Morton-order index, by interleaving the bits of i's x and y coordinates.
// This is actually "upside-down-N-order" (y interleaves into the low bit,
// x into the next), chosen so that advancing one past the last valid
// element lands exactly one past the end of the array, same as row-major.
func ToZOrder(i uint32, size uint32) uint32 {
	x, y := i%size, i/size
	x = (x | (x << 8)) & 0xff00ff
	x = (x | (x << 4)) & 0xf0f0f0f
	x = (x | (x << 2)) & 0x33333333
	x = (x | (x << 1)) & 0x55555555
	y = (y | (y << 8)) & 0xff00ff
	y = (y | (y << 4)) & 0xf0f0f0f
	y = (y | (y << 2)) & 0x33333333
	y = (y | (y << 1)) & 0x55555555
	return (x << 1) | y
}

// FromZOrder is the inverse of ToZOrder.
func FromZOrder(i uint32, size uint32) uint32 {
	x := (i >> 1) & 0x55555555
	x = (x | (x >> 1)) & 0x33333333
	x = (x | (x >> 2)) & 0xf0f0f0f
	x = (x | (x >> 4)) & 0xff00ff
	x = (x | (x >> 8)) & 0xffff
	y := i & 0x55555555
	y = (y | (y >> 1)) & 0x33333333
	y = (y | (y >> 2)) & 0xf0f0f0f
	y = (y | (y >> 4)) & 0xff00ff
	y = (y | (y >> 8)) & 0xffff
	return y*size + x
}

// Interpolate finds j in [0,srcrange) corresponding to i in [0,destrange),
// the source index a nearest-neighbor resize samples for destination i.
func Interpolate(i, destrange, srcrange int64) int64 {
	return (i * srcrange) / destrange
}
