// Package color provides the channel arithmetic shared by every decode path:
// bit-replication expansion of narrow channels and RGBA8888 packing.
package color

// ColorU8 is an unpacked RGBA8888 color.
type ColorU8 struct {
	R, G, B, A uint8
}

// Pack returns c as a 32-bit pixel with R in the low byte:
// R | G<<8 | B<<16 | A<<24.
func (c ColorU8) Pack() uint32 {
	return uint32(c.R) | uint32(c.G)<<8 | uint32(c.B)<<16 | uint32(c.A)<<24
}

// Unpack splits a packed RGBA8888 pixel into its channels.
func Unpack(p uint32) ColorU8 {
	return ColorU8{
		R: uint8(p),
		G: uint8(p >> 8),
		B: uint8(p >> 16),
		A: uint8(p >> 24),
	}
}

// OpaqueAlpha is the alpha byte of every pixel decoded from a format
// without an alpha channel.
const OpaqueAlpha = 0xFF
