package texdecode

import (
	"encoding/binary"
	"image"

	"github.com/gogpu/texdecode/internal/color"
)

// EncodedBuffer holds packed RGB565 source texels.
//
// Texels are stored big-endian in tile-major order: every TileSize x TileSize
// tile occupies 32 contiguous bytes (four rows of four texels), and tiles
// are ordered tile-row outer, tile-column inner. A buffer for a w x h image
// is exactly w*h*2 bytes.
type EncodedBuffer []byte

// NewEncodedBuffer allocates a zeroed encoded buffer for width x height.
func NewEncodedBuffer(width, height int) EncodedBuffer {
	return make(EncodedBuffer, FormatRGB565.EncodedSize(width, height))
}

// texelOffset returns the byte offset of texel (x, y) in a tile-major buffer.
func texelOffset(x, y, width int) int {
	tilesX := width / TileSize
	tile := (y/TileSize)*tilesX + x/TileSize
	inTile := (y%TileSize)*TileSize + x%TileSize
	return (tile*TileSize*TileSize + inTile) * 2
}

// PutTexel stores a host-order RGB565 value at raster position (x, y).
func (b EncodedBuffer) PutTexel(x, y, width int, v uint16) {
	binary.BigEndian.PutUint16(b[texelOffset(x, y, width):], v)
}

// Texel returns the host-order RGB565 value at raster position (x, y).
func (b EncodedBuffer) Texel(x, y, width int) uint16 {
	return binary.BigEndian.Uint16(b[texelOffset(x, y, width):])
}

// DecodedBuffer holds RGBA8888 pixels in raster order. Each pixel is
// R | G<<8 | B<<16 | A<<24.
type DecodedBuffer []uint32

// NewDecodedBuffer allocates a zeroed decoded buffer for width x height.
func NewDecodedBuffer(width, height int) DecodedBuffer {
	return make(DecodedBuffer, width*height)
}

// RGBA returns the channels of the pixel at (x, y).
func (b DecodedBuffer) RGBA(x, y, width int) (r, g, bl, a uint8) {
	c := color.Unpack(b[y*width+x])
	return c.R, c.G, c.B, c.A
}

// Bytes returns the buffer as little-endian bytes, which is R, G, B, A
// per pixel. The result is a copy.
func (b DecodedBuffer) Bytes() []byte {
	out := make([]byte, len(b)*4)
	for i, p := range b {
		binary.LittleEndian.PutUint32(out[i*4:], p)
	}
	return out
}

// SetBytes fills b from little-endian RGBA bytes as produced by Bytes.
// Extra bytes are ignored.
func (b DecodedBuffer) SetBytes(data []byte) {
	n := min(len(b), len(data)/4)
	for i := 0; i < n; i++ {
		b[i] = binary.LittleEndian.Uint32(data[i*4:])
	}
}

// Image wraps a copy of the buffer as an *image.RGBA.
func (b DecodedBuffer) Image(width, height int) *image.RGBA {
	return &image.RGBA{
		Pix:    b.Bytes(),
		Stride: width * 4,
		Rect:   image.Rect(0, 0, width, height),
	}
}

// checkBuffers validates dimensions and buffer lengths for a decode call.
func checkBuffers(dst DecodedBuffer, src EncodedBuffer, width, height int) error {
	if err := ValidateDimensions(width, height); err != nil {
		return err
	}
	if len(src) < FormatRGB565.EncodedSize(width, height) || len(dst) < width*height {
		return ErrBufferSize
	}
	return nil
}
