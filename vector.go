package texdecode

import "github.com/gogpu/texdecode/internal/wide"

// VectorDecoder decodes a tile row of four texels per step using 128-bit
// lane arithmetic. Its output is bit-identical to ScalarDecoder.
type VectorDecoder struct{}

// Decode implements Decoder.
func (VectorDecoder) Decode(dst DecodedBuffer, src EncodedBuffer, width, height int) error {
	return DecodeVector(dst, src, width, height)
}

// Kind implements Decoder.
func (VectorDecoder) Kind() Kind { return KindVector }

var (
	maskR     = wide.SplatU32(0x000000F8)
	maskGHigh = wide.SplatU32(0x0000FC00)
	maskGLow  = wide.SplatU32(0x00000300)
	maskB     = wide.SplatU32(0x00F80000)
	alpha     = wide.SplatU32(0xFF000000)
)

// decodeRow4 decodes four big-endian texels (8 bytes) into four pixels.
//
// Loading big-endian texels as little-endian lanes swaps each texel's
// bytes, so after duplication every 32-bit lane reads
// [gggbbbbb rrrrrggg gggbbbbb rrrrrggg] from the high byte down. Each
// channel is masked out of whichever copy already sits at its target byte.
func decodeRow4(dst []uint32, src []byte) {
	x := wide.LoadLow64(src)
	c0 := wide.UnpackLo16(x, x)

	r0 := c0.And(maskR)
	r1 := r0.Shr(5)

	gtmp := c0.Shr(3)
	g0 := gtmp.And(maskGHigh)
	g1 := gtmp.Shr(6).And(maskGLow)

	b0 := c0.Shr(5).And(maskB)
	b1 := b0.Shr16(5)

	r0.Or(r1).Or(g0).Or(g1).Or(b0).Or(b1).Or(alpha).Store(dst)
}

// DecodeVector decodes src into dst four texels at a time. It runs on any
// platform; VectorSupported only reports whether the lanes map onto a
// hardware vector unit.
func DecodeVector(dst DecodedBuffer, src EncodedBuffer, width, height int) error {
	if err := checkBuffers(dst, src, width, height); err != nil {
		return err
	}

	tilesX := width / TileSize
	tilesY := height / TileSize
	off := 0
	for ty := 0; ty < tilesY; ty++ {
		for tx := 0; tx < tilesX; tx++ {
			for iy := 0; iy < TileSize; iy++ {
				row := (ty*TileSize+iy)*width + tx*TileSize
				decodeRow4(dst[row:row+TileSize], src[off:off+8])
				off += 8
			}
		}
	}
	return nil
}
