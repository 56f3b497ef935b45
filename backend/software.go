// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package backend

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/gogpu/naga"

	"github.com/gogpu/texdecode"
	"github.com/gogpu/texdecode/gpucore"
	"github.com/gogpu/texdecode/internal/parallel"
)

// init registers the software backend on package import.
func init() {
	Register(BackendSoftware, func() (gpucore.Device, error) {
		return NewSoftwareDevice(0), nil
	})
}

// softwareProgram is a validated program ready to run on the CPU.
type softwareProgram struct {
	src gpucore.ProgramSource
}

// softwareImage is a host-resident RGBA8 image.
type softwareImage struct {
	width, height uint32
	pixels        []uint32
}

// SoftwareDevice is a gpucore.Device that runs programs on the CPU.
//
// CompileProgram validates the WGSL by compiling it to SPIR-V with naga, so
// a kernel that would be rejected by a GPU driver is rejected here too.
// Dispatch then executes the program's HostKernel once per workgroup on a
// worker pool.
type SoftwareDevice struct {
	pool     *parallel.WorkerPool
	nextID   uint64
	programs map[gpucore.ProgramID]*softwareProgram
	buffers  map[gpucore.BufferID][]byte
	images   map[gpucore.ImageID]*softwareImage
	closed   bool
}

// NewSoftwareDevice creates a software device with the given number of
// worker goroutines. If workers is 0 or negative, GOMAXPROCS is used.
func NewSoftwareDevice(workers int) *SoftwareDevice {
	return &SoftwareDevice{
		pool:     parallel.NewWorkerPool(workers),
		programs: make(map[gpucore.ProgramID]*softwareProgram),
		buffers:  make(map[gpucore.BufferID][]byte),
		images:   make(map[gpucore.ImageID]*softwareImage),
	}
}

// Name returns the backend identifier.
func (d *SoftwareDevice) Name() string {
	return BackendSoftware
}

func (d *SoftwareDevice) newID() uint64 {
	d.nextID++
	return d.nextID
}

func (d *SoftwareDevice) deviceError(op string, err error) error {
	return &texdecode.DeviceError{Op: op, Device: BackendSoftware, Err: err}
}

// CompileProgram validates src and registers it for dispatch.
func (d *SoftwareDevice) CompileProgram(src gpucore.ProgramSource) (gpucore.ProgramID, error) {
	if d.closed {
		return gpucore.InvalidID, d.deviceError("compile program", ErrClosed)
	}

	spirv, err := naga.Compile(src.WGSL)
	if err != nil {
		return gpucore.InvalidID, &texdecode.CompileError{Label: src.Label, Source: src.WGSL, Err: err}
	}
	if src.Host == nil {
		return gpucore.InvalidID, &texdecode.CompileError{
			Label:  src.Label,
			Source: src.WGSL,
			Err:    ErrNoHostKernel,
		}
	}

	id := gpucore.ProgramID(d.newID())
	d.programs[id] = &softwareProgram{src: src}
	texdecode.Logger().Debug("software: program compiled",
		"label", src.Label, "spirv_bytes", len(spirv), "bindings", len(src.Layout))
	return id, nil
}

// DestroyProgram releases a program.
func (d *SoftwareDevice) DestroyProgram(id gpucore.ProgramID) {
	delete(d.programs, id)
}

// CreateBuffer allocates a zeroed host buffer.
func (d *SoftwareDevice) CreateBuffer(label string, size uint64, _ gpucore.BufferUsage) (gpucore.BufferID, error) {
	if d.closed {
		return gpucore.InvalidID, d.deviceError("create buffer "+label, ErrClosed)
	}
	id := gpucore.BufferID(d.newID())
	d.buffers[id] = make([]byte, size)
	return id, nil
}

// WriteBuffer copies data to the start of a buffer.
func (d *SoftwareDevice) WriteBuffer(id gpucore.BufferID, data []byte) error {
	buf, ok := d.buffers[id]
	if !ok {
		return d.deviceError("write buffer", ErrUnknownResource)
	}
	if len(data) > len(buf) {
		return d.deviceError("write buffer", fmt.Errorf("%d bytes into %d-byte buffer", len(data), len(buf)))
	}
	copy(buf, data)
	return nil
}

// DestroyBuffer releases a buffer.
func (d *SoftwareDevice) DestroyBuffer(id gpucore.BufferID) {
	delete(d.buffers, id)
}

// CreateImage allocates a zeroed RGBA8 image.
func (d *SoftwareDevice) CreateImage(label string, width, height uint32) (gpucore.ImageID, error) {
	if d.closed {
		return gpucore.InvalidID, d.deviceError("create image "+label, ErrClosed)
	}
	id := gpucore.ImageID(d.newID())
	d.images[id] = &softwareImage{
		width:  width,
		height: height,
		pixels: make([]uint32, int(width)*int(height)),
	}
	return id, nil
}

// ReadImage copies the image to dst as little-endian RGBA8.
func (d *SoftwareDevice) ReadImage(id gpucore.ImageID, dst []byte) error {
	img, ok := d.images[id]
	if !ok {
		return d.deviceError("read image", ErrUnknownResource)
	}
	if len(dst) < len(img.pixels)*4 {
		return d.deviceError("read image", texdecode.ErrBufferSize)
	}
	for i, p := range img.pixels {
		binary.LittleEndian.PutUint32(dst[i*4:], p)
	}
	return nil
}

// DestroyImage releases an image.
func (d *SoftwareDevice) DestroyImage(id gpucore.ImageID) {
	delete(d.images, id)
}

// Dispatch runs the program's host kernel for every workgroup in the grid
// and returns when all of them have finished.
func (d *SoftwareDevice) Dispatch(desc gpucore.DispatchDesc) (gpucore.DispatchStats, error) {
	if d.closed {
		return gpucore.DispatchStats{}, d.deviceError("dispatch", ErrClosed)
	}
	prog, ok := d.programs[desc.Program]
	if !ok {
		return gpucore.DispatchStats{}, d.deviceError("dispatch", ErrUnknownResource)
	}
	bindings, err := d.resolveBindings(prog.src.Layout, desc.Bindings)
	if err != nil {
		return gpucore.DispatchStats{}, d.deviceError("dispatch "+desc.Label, err)
	}

	gx, gy, gz := desc.Groups[0], desc.Groups[1], desc.Groups[2]
	total := uint64(gx) * uint64(gy) * uint64(gz)
	host := prog.src.Host

	start := time.Now()
	d.pool.Dispatch(int(total), func(i int) {
		n := uint32(i)
		host([3]uint32{n % gx, (n / gx) % gy, n / (gx * gy)}, bindings)
	})
	elapsed := time.Since(start)

	return gpucore.DispatchStats{Elapsed: elapsed, Workgroups: total}, nil
}

// resolveBindings maps dispatch bindings onto host memory, checking them
// against the program layout.
func (d *SoftwareDevice) resolveBindings(layout []gpucore.BindingType, in []gpucore.Binding) ([]gpucore.HostBinding, error) {
	if len(in) != len(layout) {
		return nil, fmt.Errorf("%w: %d bindings for %d-entry layout", ErrBindingMismatch, len(in), len(layout))
	}
	out := make([]gpucore.HostBinding, len(in))
	for i, b := range in {
		switch layout[i] {
		case gpucore.BindingTypeStorageImage:
			img, ok := d.images[b.Image]
			if !ok {
				return nil, fmt.Errorf("%w: binding %d: image %d", ErrUnknownResource, i, b.Image)
			}
			out[i].Pixels = img.pixels
		default:
			buf, ok := d.buffers[b.Buffer]
			if !ok {
				return nil, fmt.Errorf("%w: binding %d: buffer %d", ErrUnknownResource, i, b.Buffer)
			}
			out[i].Data = buf
		}
	}
	return out, nil
}

// Close releases all resources and stops the worker pool.
func (d *SoftwareDevice) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	d.pool.Close()
	clear(d.programs)
	clear(d.buffers)
	clear(d.images)
	return nil
}
