package wide

import "encoding/binary"

// U16x8 represents 8 uint16 lanes, the 16-bit view of a 128-bit register.
type U16x8 [8]uint16

// U32x4 represents 4 uint32 lanes, the 32-bit view of a 128-bit register.
type U32x4 [4]uint32

// LoadLow64 loads 8 bytes from src into the low four lanes as
// little-endian uint16 values. The high four lanes are zero.
// src must hold at least 8 bytes.
func LoadLow64(src []byte) U16x8 {
	_ = src[7]
	return U16x8{
		binary.LittleEndian.Uint16(src[0:]),
		binary.LittleEndian.Uint16(src[2:]),
		binary.LittleEndian.Uint16(src[4:]),
		binary.LittleEndian.Uint16(src[6:]),
	}
}

// UnpackLo16 interleaves the low four lanes of a and b.
// Lane i of the result is a[i] | b[i]<<16.
func UnpackLo16(a, b U16x8) U32x4 {
	return U32x4{
		uint32(a[0]) | uint32(b[0])<<16,
		uint32(a[1]) | uint32(b[1])<<16,
		uint32(a[2]) | uint32(b[2])<<16,
		uint32(a[3]) | uint32(b[3])<<16,
	}
}

// SplatU32 creates U32x4 with all lanes set to n.
func SplatU32(n uint32) U32x4 {
	return U32x4{n, n, n, n}
}

// And performs lane-wise bitwise AND.
func (v U32x4) And(other U32x4) U32x4 {
	var result U32x4
	for i := range v {
		result[i] = v[i] & other[i]
	}
	return result
}

// Or performs lane-wise bitwise OR.
func (v U32x4) Or(other U32x4) U32x4 {
	var result U32x4
	for i := range v {
		result[i] = v[i] | other[i]
	}
	return result
}

// Shr shifts each 32-bit lane right by n bits.
func (v U32x4) Shr(n uint) U32x4 {
	var result U32x4
	for i := range v {
		result[i] = v[i] >> n
	}
	return result
}

// Shr16 shifts each 16-bit half of every lane right by n bits.
// Bits never cross from the high half into the low half.
func (v U32x4) Shr16(n uint) U32x4 {
	mask := uint32(0xFFFF>>n) * 0x00010001
	var result U32x4
	for i := range v {
		result[i] = (v[i] >> n) & mask
	}
	return result
}

// Store writes the four lanes to dst, which must hold at least 4 values.
func (v U32x4) Store(dst []uint32) {
	_ = dst[3]
	dst[0] = v[0]
	dst[1] = v[1]
	dst[2] = v[2]
	dst[3] = v[3]
}
