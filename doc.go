// Package texdecode decodes packed RGB565 texture data into RGBA8888 pixels
// and benchmarks CPU and GPU implementations against each other.
//
// # Overview
//
// Three decoders produce bit-identical output for the same source:
//
//   - ScalarDecoder: the reference, one texel at a time.
//   - VectorDecoder: four texels per step using 128-bit lane arithmetic.
//   - kernel.Decoder: a WGSL compute kernel, one invocation per 4x4 tile.
//
// # Quick Start
//
//	import "github.com/gogpu/texdecode"
//
//	src := texdecode.NewEncodedBuffer(256, 256)
//	src.PutTexel(0, 0, 256, 0xF800) // red
//
//	dst := texdecode.NewDecodedBuffer(256, 256)
//	dec := texdecode.NewDecoder(texdecode.KindVector)
//	if err := dec.Decode(dst, src, 256, 256); err != nil {
//		log.Fatal(err)
//	}
//
// # Data Layout
//
// Source texels are big-endian 16-bit values (5 bits red, 6 green, 5 blue)
// stored tile-major: each 4x4 tile is 32 contiguous bytes, tiles ordered
// row by row. Decoded pixels are raster order, R in the low byte and an
// opaque alpha in the high byte.
//
// Each channel is widened by bit replication: the top bits of the sample
// fill the vacated low bits, so the full range maps exactly onto 0..255.
//
// # Architecture
//
// The module is organized into:
//   - Root: buffers, CPU decoders, errors, logging
//   - kernel: WGSL kernel generation, program cache, host dispatch
//   - gpucore, backend: device interface and backends (vulkan, noop, software)
//   - bench: benchmark loop, source pattern generator, statistics
//   - cmd/texbench: command-line benchmark
package texdecode

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 1

	// VersionPatch is the patch version
	VersionPatch = 0
)
