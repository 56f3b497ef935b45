package texdecode

import (
	"encoding/binary"

	"github.com/gogpu/texdecode/internal/color"
)

// ScalarDecoder is the reference decoder. It reads one texel at a time.
type ScalarDecoder struct{}

// Decode implements Decoder.
func (ScalarDecoder) Decode(dst DecodedBuffer, src EncodedBuffer, width, height int) error {
	return DecodeScalar(dst, src, width, height)
}

// Kind implements Decoder.
func (ScalarDecoder) Kind() Kind { return KindScalar }

// DecodePixelRGB565 decodes a single host-order RGB565 value to RGBA8888.
func DecodePixelRGB565(v uint16) uint32 {
	return color.RGB565(v)
}

// DecodeScalar decodes src into dst one texel at a time.
func DecodeScalar(dst DecodedBuffer, src EncodedBuffer, width, height int) error {
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
				for ix := 0; ix < TileSize; ix++ {
					dst[row+ix] = color.RGB565(binary.BigEndian.Uint16(src[off:]))
					off += 2
				}
			}
		}
	}
	return nil
}
