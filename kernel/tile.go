// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package kernel

import (
	"encoding/binary"

	"github.com/gogpu/texdecode"
	"github.com/gogpu/texdecode/gpucore"
)

// Tile is the top-left corner, in texels, of the tile one kernel
// invocation decodes.
type Tile struct {
	X, Y uint32
}

// TileFor returns the tile decoded by the invocation with the given ID.
func TileFor(id [3]uint32) Tile {
	return Tile{X: id[0] * texdecode.TileSize, Y: id[1] * texdecode.TileSize}
}

// WordOffset returns the index of the 64-bit source word holding row of
// this tile in a tile-major buffer with tilesX tiles per row.
func (t Tile) WordOffset(row, tilesX uint32) uint32 {
	return t.Y*tilesX + t.X + row
}

// Params is the uniform block of the decode kernel.
type Params struct {
	Width  uint32
	Height uint32
	TilesX uint32
}

// ParamsSize is the byte size of the uniform block, padded to 16.
const ParamsSize = 16

// Bytes encodes p in the kernel's uniform layout.
func (p Params) Bytes() []byte {
	b := make([]byte, ParamsSize)
	binary.LittleEndian.PutUint32(b[0:], p.Width)
	binary.LittleEndian.PutUint32(b[4:], p.Height)
	binary.LittleEndian.PutUint32(b[8:], p.TilesX)
	return b
}

func paramsFrom(b []byte) Params {
	return Params{
		Width:  binary.LittleEndian.Uint32(b[0:]),
		Height: binary.LittleEndian.Uint32(b[4:]),
		TilesX: binary.LittleEndian.Uint32(b[8:]),
	}
}

// decodeTexel mirrors decode_texel: raw holds a texel as loaded from a
// little-endian word, so its bytes are swapped first.
func decodeTexel(raw uint32) uint32 {
	c := (raw&0xFF)<<8 | (raw>>8)&0xFF
	return texdecode.DecodePixelRGB565(uint16(c))
}

// InvokeTile is the host rendition of one kernel invocation. Bindings are
// in kernel layout order: params, encoded words, decoded image.
// It satisfies gpucore.HostKernel.
func InvokeTile(id [3]uint32, bindings []gpucore.HostBinding) {
	p := paramsFrom(bindings[0].Data)
	enc := bindings[1].Data
	img := bindings[2].Pixels

	start := TileFor(id)
	for row := uint32(0); row < texdecode.TileSize; row++ {
		w := start.WordOffset(row, p.TilesX) * 8
		lo := binary.LittleEndian.Uint32(enc[w:])
		hi := binary.LittleEndian.Uint32(enc[w+4:])

		base := (start.Y+row)*p.Width + start.X
		img[base] = decodeTexel(lo & 0xFFFF)
		img[base+1] = decodeTexel(lo >> 16)
		img[base+2] = decodeTexel(hi & 0xFFFF)
		img[base+3] = decodeTexel(hi >> 16)
	}
}
