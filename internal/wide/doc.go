// Package wide provides SIMD-friendly lane types for batch texel processing.
//
// The types model 128-bit registers as fixed-size arrays so that the Go
// compiler can keep them in registers and vectorize the simple loops over
// their lanes. No unsafe or assembly is used.
//
// # Lane Types
//
// U16x8: 8 uint16 lanes, the view used when loading packed 16-bit texels.
// U32x4: 4 uint32 lanes, the view used while assembling RGBA8888 pixels.
//
// # Usage Example
//
//	// Widen four 16-bit texels into four 32-bit lanes, each holding
//	// the texel in both halves.
//	x := wide.LoadLow64(src)
//	c := wide.UnpackLo16(x, x)
//	r := c.And(wide.SplatU32(0xF8))
//	c.Shr16(5).Or(r).Store(dst)
package wide
