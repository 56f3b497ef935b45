package color

// Bit-replication expansion: the top bits of an N-bit sample are copied
// into the vacated low bits so that 0 maps to 0 and 2^N-1 maps to 255.
// All functions are branch-free; inputs wider than N bits are undefined.

// Expand3To8 widens a 3-bit sample: 00000abc -> abcabcab.
func Expand3To8(v uint8) uint8 {
	return v<<5 | v<<2 | v>>1
}

// Expand4To8 widens a 4-bit sample: 0000abcd -> abcdabcd.
func Expand4To8(v uint8) uint8 {
	return v<<4 | v
}

// Expand5To8 widens a 5-bit sample: 000abcde -> abcdeabc.
func Expand5To8(v uint8) uint8 {
	return v<<3 | v>>2
}

// Expand6To8 widens a 6-bit sample: 00abcdef -> abcdefab.
func Expand6To8(v uint8) uint8 {
	return v<<2 | v>>4
}

// Expand widens a bits-wide sample to 8 bits. It panics if bits is not
// one of 3, 4, 5 or 6.
func Expand(v uint8, bits int) uint8 {
	switch bits {
	case 3:
		return Expand3To8(v)
	case 4:
		return Expand4To8(v)
	case 5:
		return Expand5To8(v)
	case 6:
		return Expand6To8(v)
	}
	panic("color: unsupported expansion width")
}

// RGB565 decodes a host-order RGB565 value into an opaque RGBA8888 pixel.
func RGB565(v uint16) uint32 {
	return ColorU8{
		R: Expand5To8(uint8(v>>11) & 0x1F),
		G: Expand6To8(uint8(v>>5) & 0x3F),
		B: Expand5To8(uint8(v) & 0x1F),
		A: OpaqueAlpha,
	}.Pack()
}
