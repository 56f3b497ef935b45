// Package kernel runs the RGB565 decode as a WGSL compute kernel.
//
// The kernel source is a versioned template embedded in the package
// (shaders/rgb565.wgsl.tmpl) with a single substitution point, the tile
// size. Source renders it; ProgramCache compiles it once per device;
// Decoder owns the device buffers and dispatches one invocation per 4x4
// tile.
//
//	dev, _ := backend.OpenDefault()
//	dec, err := kernel.New(dev, 1024, 1024)
//	if err != nil {
//		return err // *texdecode.CompileError or *texdecode.DeviceError
//	}
//	defer dec.Close()
//
//	stats, err := dec.Decode(src)
//	err = dec.Readback(dst)
//
// # Host Twin
//
// InvokeTile is the Go rendition of one kernel invocation. The software
// device runs it in place of the WGSL, and tests compare it against the
// CPU decoders.
package kernel
