package blockimages

// Sprite offset constants for the block categories the scene graph builder
// (which special-cases water, ice, fences, and chests) needs to name
// directly, rather than looking them up by (id, data) alone. Where the
// original's 554-entry catalog (blockimages.h) assigns one of these a
// specific number, this table uses that same number instead of inventing
// its own, since the scene graph's offset-driven dispatch (and the scenarios
// it's tested against) are pinned to those values: water full/falling is 8,
// its surface (both N and W faces suppressed) is 157, missing-W is 178,
// missing-N is 179; ice full is 128, its surface is 180, missing-W 181,
// missing-N 182; a fence's N+E connectivity is 162.

const (
	OffsetDummy = 0 // offset 0: fully transparent, used for unrecognized ids

	// Water. The default sprite draws both its N and W faces; when a
	// neighbor in one of those directions is also water, that face is
	// redundant (it'd just be two water surfaces pressed together) and a
	// variant without it is used instead, so no z-fighting-like seam shows.
	OffsetWaterFull = 8   // no water neighbor to N or W: draw both faces
	OffsetWaterNoW  = 178 // water to the W: its face is redundant, skip it
	OffsetWaterNoN  = 179 // water to the N: its face is redundant, skip it
	OffsetWaterNoWN = 157 // water to both: skip both faces ("water surface")

	// Lava: just the full-block variant; partial faces aren't modeled.
	OffsetLavaFull = 72

	// Ice, with the same redundant-face suppression as water.
	OffsetIceFull = 128
	OffsetIceNoW  = 181
	OffsetIceNoN  = 182
	OffsetIceNoWN = 180

	// Fences: a lone post with no neighboring fence gets its own sprite
	// (matching the catalog's fence-post entry); any other N/S/E/W
	// connectivity bitmask (bit0=N, bit1=S, bit2=E, bit3=W) maps to
	// FenceBase+bitmask, landing in the catalog's contiguous fence-variant
	// range (N+E = 157+5 = 162).
	OffsetFencePost = 134
	FenceBase       = 157

	// Chests: plain single chest by facing, the four halves of a double
	// chest (whichever neighbor has the other half), and the "isolated
	// chest rotated to face N because something opaque blocks its W side"
	// variant the original falls back to for single chests.
	OffsetChestFacingW  = 173
	OffsetChestFacingN  = 174
	OffsetChestFacingES = 175
	OffsetChestHalfN    = 190 // this chest is the N half of a double chest (partner is S)
	OffsetChestHalfS    = 191 // this chest is the S half (partner is N)
	OffsetChestHalfW    = 192 // this chest is the W half (partner is E)
	OffsetChestHalfE    = 193 // this chest is the E half (partner is W)

	OffsetLockedChestFacingW = 176
	OffsetLockedChestFacingN = 177
)

// FenceOffset returns the sprite offset for a fence with the given
// connectivity bitmask (0-15, bit0=N, bit1=S, bit2=E, bit3=W). A zero
// bitmask (no fence neighbors) gets the dedicated lone-post sprite rather
// than colliding with FenceBase, which is also water's both-faces-missing
// offset.
func FenceOffset(connectivity uint8) int32 {
	mask := connectivity & 0x0F
	if mask == 0 {
		return OffsetFencePost
	}
	return FenceBase + int32(mask)
}
