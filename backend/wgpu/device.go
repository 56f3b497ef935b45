// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"fmt"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/texdecode"
	"github.com/gogpu/texdecode/backend"
	"github.com/gogpu/texdecode/gpucore"
)

// DefaultSubmitTimeout bounds every wait for GPU completion.
const DefaultSubmitTimeout = 5 * time.Second

// pollInterval is the sleep between completion polls.
const pollInterval = 20 * time.Microsecond

// init registers the HAL backends on package import.
func init() {
	backend.Register(backend.BackendVulkan, func() (gpucore.Device, error) {
		s, err := Open()
		if err != nil {
			return nil, err
		}
		return NewDevice(s, true), nil
	})
	backend.Register(backend.BackendNoop, func() (gpucore.Device, error) {
		s, err := OpenNoop()
		if err != nil {
			return nil, err
		}
		return NewDevice(s, true), nil
	})
}

// halProgram holds the HAL objects of one compiled program.
type halProgram struct {
	label    string
	layout   []gpucore.BindingType
	module   hal.ShaderModule
	bgLayout hal.BindGroupLayout
	pipeLay  hal.PipelineLayout
	pipeline hal.ComputePipeline
}

// halBuffer is a device buffer with its size.
type halBuffer struct {
	buf  hal.Buffer
	size uint64
}

// halImage is an RGBA8 image backed by a storage buffer, plus the staging
// buffer used to read it back.
type halImage struct {
	width, height uint32
	storage       hal.Buffer
	staging       hal.Buffer
	size          uint64
}

// bindKey identifies a cached bind group.
type bindKey struct {
	program  gpucore.ProgramID
	bindings string
}

// Device implements gpucore.Device on a gogpu/wgpu HAL device.
//
// Images are storage buffers of width*height u32 values. Every Dispatch and
// ReadImage is one submission followed by a wait for its completion.
// Dispatches are timed with timestamp queries when the backend has them.
type Device struct {
	name        string
	session     *Session
	ownsSession bool

	// SubmitTimeout bounds GPU waits. Zero means DefaultSubmitTimeout.
	SubmitTimeout time.Duration

	nextID     uint64
	programs   map[gpucore.ProgramID]*halProgram
	buffers    map[gpucore.BufferID]*halBuffer
	images     map[gpucore.ImageID]*halImage
	bindGroups map[bindKey]hal.BindGroup

	tsQuery       *timestampQuery
	tsUnsupported bool
}

// NewDevice wraps a session. If owns is true, Close also closes the session.
func NewDevice(s *Session, owns bool) *Device {
	return &Device{
		name:        s.Backend(),
		session:     s,
		ownsSession: owns,
		programs:    make(map[gpucore.ProgramID]*halProgram),
		buffers:     make(map[gpucore.BufferID]*halBuffer),
		images:      make(map[gpucore.ImageID]*halImage),
		bindGroups:  make(map[bindKey]hal.BindGroup),
	}
}

// Name returns the session's backend name.
func (d *Device) Name() string {
	return d.name
}

func (d *Device) newID() uint64 {
	d.nextID++
	return d.nextID
}

func (d *Device) deviceError(op string, err error) error {
	return &texdecode.DeviceError{Op: op, Device: d.Name(), Err: err}
}

func (d *Device) handles() (hal.Device, hal.Queue, error) {
	if d.session == nil || d.session.Device() == nil {
		return nil, nil, backend.ErrClosed
	}
	return d.session.Device(), d.session.Queue(), nil
}

// CompileProgram compiles WGSL to SPIR-V with naga and builds the shader
// module, bind group layout, pipeline layout and compute pipeline.
func (d *Device) CompileProgram(src gpucore.ProgramSource) (gpucore.ProgramID, error) {
	device, _, err := d.handles()
	if err != nil {
		return gpucore.InvalidID, d.deviceError("compile program", err)
	}

	spirv, err := compileSPIRV(src.WGSL)
	if err != nil {
		return gpucore.InvalidID, &texdecode.CompileError{Label: src.Label, Source: src.WGSL, Err: err}
	}

	p := &halProgram{label: src.Label, layout: src.Layout}
	if err := p.create(device, src, spirv); err != nil {
		p.destroy(device)
		return gpucore.InvalidID, &texdecode.CompileError{Label: src.Label, Source: src.WGSL, Err: err}
	}

	id := gpucore.ProgramID(d.newID())
	d.programs[id] = p
	texdecode.Logger().Debug("wgpu: program created",
		"label", src.Label, "spirv_words", len(spirv), "bindings", len(src.Layout))
	return id, nil
}

// compileSPIRV compiles WGSL source to SPIR-V words.
func compileSPIRV(wgsl string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(wgsl)
	if err != nil {
		return nil, err
	}
	// SPIR-V is little-endian 32-bit words
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return words, nil
}

func (p *halProgram) create(device hal.Device, src gpucore.ProgramSource, spirv []uint32) error {
	var err error
	p.module, err = device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  src.Label,
		Source: hal.ShaderSource{SPIRV: spirv},
	})
	if err != nil {
		return fmt.Errorf("create shader module: %w", err)
	}

	entries := make([]gputypes.BindGroupLayoutEntry, len(src.Layout))
	for i, t := range src.Layout {
		entries[i] = gputypes.BindGroupLayoutEntry{
			Binding:    uint32(i), //nolint:gosec // layouts are tiny
			Visibility: gputypes.ShaderStageCompute,
			Buffer:     &gputypes.BufferBindingLayout{Type: bufferBindingType(t)},
		}
	}
	p.bgLayout, err = device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   src.Label + "_layout",
		Entries: entries,
	})
	if err != nil {
		return fmt.Errorf("create bind group layout: %w", err)
	}

	p.pipeLay, err = device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            src.Label + "_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{p.bgLayout},
	})
	if err != nil {
		return fmt.Errorf("create pipeline layout: %w", err)
	}

	entry := src.EntryPoint
	if entry == "" {
		entry = "main"
	}
	p.pipeline, err = device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label:   src.Label + "_pipeline",
		Layout:  p.pipeLay,
		Compute: hal.ComputeState{Module: p.module, EntryPoint: entry},
	})
	if err != nil {
		return fmt.Errorf("create compute pipeline: %w", err)
	}
	return nil
}

func (p *halProgram) destroy(device hal.Device) {
	if p.pipeline != nil {
		device.DestroyComputePipeline(p.pipeline)
	}
	if p.pipeLay != nil {
		device.DestroyPipelineLayout(p.pipeLay)
	}
	if p.bgLayout != nil {
		device.DestroyBindGroupLayout(p.bgLayout)
	}
	if p.module != nil {
		device.DestroyShaderModule(p.module)
	}
}

// bufferBindingType maps a binding type to the HAL buffer binding. Images
// are storage buffers, so they bind read-write.
func bufferBindingType(t gpucore.BindingType) gputypes.BufferBindingType {
	switch t {
	case gpucore.BindingTypeUniformBuffer:
		return gputypes.BufferBindingTypeUniform
	case gpucore.BindingTypeReadOnlyStorageBuffer:
		return gputypes.BufferBindingTypeReadOnlyStorage
	default:
		return gputypes.BufferBindingTypeStorage
	}
}

// DestroyProgram releases a program and the bind groups created for it.
func (d *Device) DestroyProgram(id gpucore.ProgramID) {
	p, ok := d.programs[id]
	if !ok {
		return
	}
	device, _, err := d.handles()
	if err != nil {
		return
	}
	d.dropBindGroups(device, func(k bindKey) bool { return k.program == id })
	p.destroy(device)
	delete(d.programs, id)
}

// align4 rounds n up to a multiple of 4, as buffer sizes require.
func align4(n uint64) uint64 {
	return (n + 3) &^ 3
}

// halUsage maps buffer usage flags to HAL usages.
func halUsage(u gpucore.BufferUsage) gputypes.BufferUsage {
	var out gputypes.BufferUsage
	if u&gpucore.BufferUsageCopySrc != 0 {
		out |= gputypes.BufferUsageCopySrc
	}
	if u&gpucore.BufferUsageCopyDst != 0 {
		out |= gputypes.BufferUsageCopyDst
	}
	if u&gpucore.BufferUsageUniform != 0 {
		out |= gputypes.BufferUsageUniform
	}
	if u&gpucore.BufferUsageStorage != 0 {
		out |= gputypes.BufferUsageStorage
	}
	return out
}

// CreateBuffer allocates a device buffer. The size is rounded up to a
// multiple of 4.
func (d *Device) CreateBuffer(label string, size uint64, usage gpucore.BufferUsage) (gpucore.BufferID, error) {
	device, _, err := d.handles()
	if err != nil {
		return gpucore.InvalidID, d.deviceError("create buffer "+label, err)
	}
	size = align4(size)
	buf, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: halUsage(usage) | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return gpucore.InvalidID, d.deviceError("create buffer "+label, err)
	}
	id := gpucore.BufferID(d.newID())
	d.buffers[id] = &halBuffer{buf: buf, size: size}
	texdecode.Logger().Debug("wgpu: buffer created", "label", label, "size", size)
	return id, nil
}

// WriteBuffer uploads data through the queue.
func (d *Device) WriteBuffer(id gpucore.BufferID, data []byte) error {
	_, queue, err := d.handles()
	if err != nil {
		return d.deviceError("write buffer", err)
	}
	b, ok := d.buffers[id]
	if !ok {
		return d.deviceError("write buffer", backend.ErrUnknownResource)
	}
	if uint64(len(data)) > b.size {
		return d.deviceError("write buffer", fmt.Errorf("%d bytes into %d-byte buffer", len(data), b.size))
	}
	if err := queue.WriteBuffer(b.buf, 0, data); err != nil {
		return d.deviceError("write buffer", err)
	}
	return nil
}

// DestroyBuffer releases a buffer.
func (d *Device) DestroyBuffer(id gpucore.BufferID) {
	b, ok := d.buffers[id]
	if !ok {
		return
	}
	if device, _, err := d.handles(); err == nil {
		d.dropBindGroups(device, anyBinding)
		device.DestroyBuffer(b.buf)
	}
	delete(d.buffers, id)
}

// CreateImage allocates a width x height RGBA8 image as a storage buffer
// with a readback staging buffer.
func (d *Device) CreateImage(label string, width, height uint32) (gpucore.ImageID, error) {
	device, _, err := d.handles()
	if err != nil {
		return gpucore.InvalidID, d.deviceError("create image "+label, err)
	}
	size := uint64(width) * uint64(height) * 4
	storage, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopySrc | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return gpucore.InvalidID, d.deviceError("create image "+label, err)
	}
	staging, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: label + "_staging",
		Size:  size,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		device.DestroyBuffer(storage)
		return gpucore.InvalidID, d.deviceError("create image "+label, err)
	}
	id := gpucore.ImageID(d.newID())
	d.images[id] = &halImage{width: width, height: height, storage: storage, staging: staging, size: size}
	texdecode.Logger().Debug("wgpu: image created", "label", label, "width", width, "height", height)
	return id, nil
}

// ReadImage copies the image into its staging buffer, waits for the copy
// and reads it back.
func (d *Device) ReadImage(id gpucore.ImageID, dst []byte) error {
	device, queue, err := d.handles()
	if err != nil {
		return d.deviceError("read image", err)
	}
	img, ok := d.images[id]
	if !ok {
		return d.deviceError("read image", backend.ErrUnknownResource)
	}
	if uint64(len(dst)) < img.size {
		return d.deviceError("read image", texdecode.ErrBufferSize)
	}

	encoder, err := device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "readback_encoder"})
	if err != nil {
		return d.deviceError("read image", fmt.Errorf("create command encoder: %w", err))
	}
	if err := encoder.BeginEncoding("readback"); err != nil {
		return d.deviceError("read image", fmt.Errorf("begin encoding: %w", err))
	}
	encoder.CopyBufferToBuffer(img.storage, img.staging, []hal.BufferCopy{
		{SrcOffset: 0, DstOffset: 0, Size: img.size},
	})
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return d.deviceError("read image", fmt.Errorf("end encoding: %w", err))
	}
	defer device.FreeCommandBuffer(cmdBuf)

	if _, err := d.submitAndWait(queue, cmdBuf); err != nil {
		return d.deviceError("read image", err)
	}
	if err := mapRead(device, img.staging, dst[:img.size]); err != nil {
		return d.deviceError("read image", fmt.Errorf("readback: %w", err))
	}
	return nil
}

// DestroyImage releases an image and its staging buffer.
func (d *Device) DestroyImage(id gpucore.ImageID) {
	img, ok := d.images[id]
	if !ok {
		return
	}
	if device, _, err := d.handles(); err == nil {
		d.dropBindGroups(device, anyBinding)
		device.DestroyBuffer(img.staging)
		device.DestroyBuffer(img.storage)
	}
	delete(d.images, id)
}

// dropBindGroups destroys cached bind groups for which match returns true.
func (d *Device) dropBindGroups(device hal.Device, match func(bindKey) bool) {
	for k, bg := range d.bindGroups {
		if match(k) {
			device.DestroyBindGroup(bg)
			delete(d.bindGroups, k)
		}
	}
}

func anyBinding(bindKey) bool { return true }

// Dispatch records one compute pass, submits it and waits for completion.
// Elapsed is the GPU time between the pass's beginning and end timestamps.
// Without timestamp query support it is the host time from submission to
// completion.
func (d *Device) Dispatch(desc gpucore.DispatchDesc) (gpucore.DispatchStats, error) {
	device, queue, err := d.handles()
	if err != nil {
		return gpucore.DispatchStats{}, d.deviceError("dispatch", err)
	}
	p, ok := d.programs[desc.Program]
	if !ok {
		return gpucore.DispatchStats{}, d.deviceError("dispatch", backend.ErrUnknownResource)
	}
	bg, err := d.bindGroup(device, desc, p)
	if err != nil {
		return gpucore.DispatchStats{}, d.deviceError("dispatch "+desc.Label, err)
	}

	ts, err := d.timestamps(device)
	if err != nil {
		return gpucore.DispatchStats{}, d.deviceError("dispatch", err)
	}

	encoder, err := device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: p.label + "_encoder"})
	if err != nil {
		return gpucore.DispatchStats{}, d.deviceError("dispatch", fmt.Errorf("create command encoder: %w", err))
	}
	if err := encoder.BeginEncoding(p.label); err != nil {
		return gpucore.DispatchStats{}, d.deviceError("dispatch", fmt.Errorf("begin encoding: %w", err))
	}
	passDesc := &hal.ComputePassDescriptor{Label: p.label + "_pass"}
	if ts != nil {
		passDesc.TimestampWrites = ts.passWrites()
	}
	pass := encoder.BeginComputePass(passDesc)
	pass.SetPipeline(p.pipeline)
	pass.SetBindGroup(0, bg, nil)
	pass.Dispatch(desc.Groups[0], desc.Groups[1], desc.Groups[2])
	pass.End()
	if ts != nil {
		ts.encodeResolve(encoder)
	}
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return gpucore.DispatchStats{}, d.deviceError("dispatch", fmt.Errorf("end encoding: %w", err))
	}
	defer device.FreeCommandBuffer(cmdBuf)

	elapsed, err := d.submitAndWait(queue, cmdBuf)
	if err != nil {
		return gpucore.DispatchStats{}, d.deviceError("dispatch", err)
	}
	if ts != nil {
		if elapsed, err = ts.elapsed(device, queue); err != nil {
			return gpucore.DispatchStats{}, d.deviceError("dispatch", err)
		}
	}

	return gpucore.DispatchStats{
		Elapsed:    elapsed,
		Workgroups: uint64(desc.Groups[0]) * uint64(desc.Groups[1]) * uint64(desc.Groups[2]),
	}, nil
}

// bindGroup returns the cached bind group for desc, creating it on first
// use.
func (d *Device) bindGroup(device hal.Device, desc gpucore.DispatchDesc, p *halProgram) (hal.BindGroup, error) {
	if len(desc.Bindings) != len(p.layout) {
		return nil, fmt.Errorf("%w: %d bindings for %d-entry layout",
			backend.ErrBindingMismatch, len(desc.Bindings), len(p.layout))
	}
	key := bindKey{program: desc.Program, bindings: fmt.Sprint(desc.Bindings)}
	if bg, ok := d.bindGroups[key]; ok {
		return bg, nil
	}

	entries := make([]gputypes.BindGroupEntry, len(desc.Bindings))
	for i, b := range desc.Bindings {
		var (
			buf  hal.Buffer
			size uint64
		)
		if p.layout[i] == gpucore.BindingTypeStorageImage {
			img, ok := d.images[b.Image]
			if !ok {
				return nil, fmt.Errorf("%w: binding %d: image %d", backend.ErrUnknownResource, i, b.Image)
			}
			buf, size = img.storage, img.size
		} else {
			hb, ok := d.buffers[b.Buffer]
			if !ok {
				return nil, fmt.Errorf("%w: binding %d: buffer %d", backend.ErrUnknownResource, i, b.Buffer)
			}
			buf, size = hb.buf, hb.size
		}
		entries[i] = gputypes.BindGroupEntry{
			Binding:  uint32(i), //nolint:gosec // layouts are tiny
			Resource: gputypes.BufferBinding{Buffer: buf.NativeHandle(), Offset: 0, Size: size},
		}
	}

	bg, err := device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   p.label + "_bind_group",
		Layout:  p.bgLayout,
		Entries: entries,
	})
	if err != nil {
		return nil, fmt.Errorf("create bind group: %w", err)
	}
	d.bindGroups[key] = bg
	return bg, nil
}

// submitAndWait submits one command buffer and polls until the queue
// reports it complete. It returns the host time from submission to
// completion.
func (d *Device) submitAndWait(queue hal.Queue, cmdBuf hal.CommandBuffer) (time.Duration, error) {
	timeout := d.SubmitTimeout
	if timeout <= 0 {
		timeout = DefaultSubmitTimeout
	}

	start := time.Now()
	index, err := queue.Submit([]hal.CommandBuffer{cmdBuf})
	if err != nil {
		return 0, fmt.Errorf("submit: %w", err)
	}
	deadline := start.Add(timeout)
	for queue.PollCompleted() < index {
		if time.Now().After(deadline) {
			return 0, fmt.Errorf("wait for GPU: timed out after %v", timeout)
		}
		time.Sleep(pollInterval)
	}
	return time.Since(start), nil
}

// Close destroys every resource and, if the device owns it, the session.
func (d *Device) Close() error {
	if d.session == nil {
		return nil
	}
	if device, _, err := d.handles(); err == nil {
		d.dropBindGroups(device, anyBinding)
		for id := range d.images {
			d.DestroyImage(id)
		}
		for id := range d.buffers {
			d.DestroyBuffer(id)
		}
		for id := range d.programs {
			d.DestroyProgram(id)
		}
		if d.tsQuery != nil {
			d.tsQuery.destroy(device)
			d.tsQuery = nil
		}
	}
	if d.ownsSession {
		d.session.Close()
	}
	d.session = nil
	return nil
}
