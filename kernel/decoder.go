// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package kernel

import (
	"fmt"

	"github.com/gogpu/texdecode"
	"github.com/gogpu/texdecode/gpucore"
)

// Decoder decodes RGB565 images on a compute device.
//
// New compiles the kernel and allocates device buffers up front, so a
// broken kernel is a startup error. Decode uploads the source and
// dispatches one invocation per tile; the result stays on the device until
// Readback.
type Decoder struct {
	device    gpucore.Device
	programs  *ProgramCache
	ownsCache bool

	width, height int
	program       gpucore.ProgramID
	params        gpucore.BufferID
	src           gpucore.BufferID
	img           gpucore.ImageID
}

// Option configures a Decoder.
type Option func(*decoderOptions)

type decoderOptions struct {
	cache   *ProgramCache
	dumpDir string
}

// WithProgramCache shares a program cache between decoders on the same
// device. The decoder does not close a shared cache.
func WithProgramCache(c *ProgramCache) Option {
	return func(o *decoderOptions) {
		o.cache = c
	}
}

// WithShaderDumpDir makes compile failures write the failing source to dir.
func WithShaderDumpDir(dir string) Option {
	return func(o *decoderOptions) {
		o.dumpDir = dir
	}
}

// New validates the dimensions, compiles the kernel and allocates the
// source buffer and destination image on device.
func New(device gpucore.Device, width, height int, opts ...Option) (*Decoder, error) {
	if err := texdecode.ValidateDimensions(width, height); err != nil {
		return nil, err
	}

	var o decoderOptions
	for _, opt := range opts {
		opt(&o)
	}

	d := &Decoder{device: device, width: width, height: height, programs: o.cache}
	if d.programs == nil {
		d.programs = NewProgramCache(device)
		d.programs.DumpDir = o.dumpDir
		d.ownsCache = true
	}

	if err := d.init(); err != nil {
		d.Close()
		return nil, err
	}
	return d, nil
}

func (d *Decoder) init() error {
	var err error
	d.program, err = d.programs.Program(texdecode.FormatRGB565)
	if err != nil {
		return err
	}

	d.params, err = d.device.CreateBuffer("rgb565_params", ParamsSize,
		gpucore.BufferUsageUniform|gpucore.BufferUsageCopyDst)
	if err != nil {
		return err
	}
	tilesX := uint32(d.width / texdecode.TileSize) //nolint:gosec // validated positive
	params := Params{Width: uint32(d.width), Height: uint32(d.height), TilesX: tilesX} //nolint:gosec // validated positive
	if err := d.device.WriteBuffer(d.params, params.Bytes()); err != nil {
		return err
	}

	srcSize := uint64(texdecode.FormatRGB565.EncodedSize(d.width, d.height))
	d.src, err = d.device.CreateBuffer("rgb565_source", (srcSize+3)&^3,
		gpucore.BufferUsageStorage|gpucore.BufferUsageCopyDst)
	if err != nil {
		return err
	}

	d.img, err = d.device.CreateImage("rgb565_decoded", uint32(d.width), uint32(d.height)) //nolint:gosec // validated positive
	if err != nil {
		return err
	}

	texdecode.Logger().Debug("kernel: decoder ready",
		"device", d.device.Name(), "width", d.width, "height", d.height, "source_bytes", srcSize)
	return nil
}

// Width returns the image width in texels.
func (d *Decoder) Width() int { return d.width }

// Height returns the image height in texels.
func (d *Decoder) Height() int { return d.height }

// Groups returns the dispatch grid: one workgroup per tile.
func (d *Decoder) Groups() [3]uint32 {
	return [3]uint32{
		uint32(d.width / texdecode.TileSize),  //nolint:gosec // validated positive
		uint32(d.height / texdecode.TileSize), //nolint:gosec // validated positive
		1,
	}
}

// Decode uploads src and runs the kernel over every tile. It blocks until
// the device finishes and returns the device-reported statistics.
func (d *Decoder) Decode(src texdecode.EncodedBuffer) (gpucore.DispatchStats, error) {
	if want := texdecode.FormatRGB565.EncodedSize(d.width, d.height); len(src) != want {
		return gpucore.DispatchStats{}, fmt.Errorf("kernel: source is %d bytes, want %d: %w",
			len(src), want, texdecode.ErrBufferSize)
	}
	if err := d.device.WriteBuffer(d.src, src); err != nil {
		return gpucore.DispatchStats{}, err
	}
	return d.device.Dispatch(gpucore.DispatchDesc{
		Label:   ProgramLabel,
		Program: d.program,
		Bindings: []gpucore.Binding{
			{Buffer: d.params},
			{Buffer: d.src},
			{Image: d.img},
		},
		Groups: d.Groups(),
	})
}

// Readback copies the decoded image from the device into dst.
func (d *Decoder) Readback(dst texdecode.DecodedBuffer) error {
	if len(dst) < d.width*d.height {
		return texdecode.ErrBufferSize
	}
	raw := make([]byte, d.width*d.height*4)
	if err := d.device.ReadImage(d.img, raw); err != nil {
		return err
	}
	dst.SetBytes(raw)
	return nil
}

// Close releases the decoder's device resources. Programs are released
// too unless the cache was shared.
func (d *Decoder) Close() {
	if d.img != gpucore.InvalidID {
		d.device.DestroyImage(d.img)
		d.img = gpucore.InvalidID
	}
	if d.src != gpucore.InvalidID {
		d.device.DestroyBuffer(d.src)
		d.src = gpucore.InvalidID
	}
	if d.params != gpucore.InvalidID {
		d.device.DestroyBuffer(d.params)
		d.params = gpucore.InvalidID
	}
	if d.ownsCache && d.programs != nil {
		d.programs.Close()
	}
	d.programs = nil
}
