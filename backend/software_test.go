// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package backend

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/gogpu/texdecode"
	"github.com/gogpu/texdecode/gpucore"
)

const fillShaderWGSL = `
struct Params {
    width: u32,
    value: u32,
    pad0: u32,
    pad1: u32,
}

@group(0) @binding(0) var<uniform> params: Params;
@group(0) @binding(1) var<storage, read_write> out_img: array<u32>;

@compute @workgroup_size(1)
fn main(@builtin(global_invocation_id) id: vec3<u32>) {
    out_img[id.y * params.width + id.x] = params.value;
}
`

// fillHost mirrors fillShaderWGSL.
func fillHost(group [3]uint32, b []gpucore.HostBinding) {
	width := binary.LittleEndian.Uint32(b[0].Data[0:])
	value := binary.LittleEndian.Uint32(b[0].Data[4:])
	b[1].Pixels[group[1]*width+group[0]] = value
}

func fillProgram() gpucore.ProgramSource {
	return gpucore.ProgramSource{
		Label:  "fill",
		WGSL:   fillShaderWGSL,
		Layout: []gpucore.BindingType{gpucore.BindingTypeUniformBuffer, gpucore.BindingTypeStorageImage},
		Host:   fillHost,
	}
}

func TestSoftwareDeviceName(t *testing.T) {
	d := NewSoftwareDevice(1)
	defer d.Close()
	if d.Name() != "software" {
		t.Errorf("Name() = %q, want %q", d.Name(), "software")
	}
}

func TestSoftwareDeviceDispatch(t *testing.T) {
	d := NewSoftwareDevice(4)
	defer d.Close()

	prog, err := d.CompileProgram(fillProgram())
	if err != nil {
		t.Fatalf("CompileProgram() error = %v", err)
	}

	params := make([]byte, 16)
	binary.LittleEndian.PutUint32(params[0:], 8)
	binary.LittleEndian.PutUint32(params[4:], 0xFF00FF00)
	ubuf, err := d.CreateBuffer("params", 16, gpucore.BufferUsageUniform|gpucore.BufferUsageCopyDst)
	if err != nil {
		t.Fatal(err)
	}
	if err := d.WriteBuffer(ubuf, params); err != nil {
		t.Fatal(err)
	}
	img, err := d.CreateImage("out", 8, 4)
	if err != nil {
		t.Fatal(err)
	}

	stats, err := d.Dispatch(gpucore.DispatchDesc{
		Program:  prog,
		Bindings: []gpucore.Binding{{Buffer: ubuf}, {Image: img}},
		Groups:   [3]uint32{8, 4, 1},
	})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if stats.Workgroups != 32 {
		t.Errorf("Workgroups = %d, want 32", stats.Workgroups)
	}

	out := make([]byte, 8*4*4)
	if err := d.ReadImage(img, out); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 32; i++ {
		if got := binary.LittleEndian.Uint32(out[i*4:]); got != 0xFF00FF00 {
			t.Fatalf("pixel %d = %#08x, want 0xff00ff00", i, got)
		}
	}
}

func TestSoftwareDeviceCompileErrors(t *testing.T) {
	d := NewSoftwareDevice(1)
	defer d.Close()

	t.Run("invalid wgsl", func(t *testing.T) {
		src := fillProgram()
		src.WGSL = "fn main( {"
		_, err := d.CompileProgram(src)
		var cerr *texdecode.CompileError
		if !errors.As(err, &cerr) {
			t.Fatalf("err = %v, want *CompileError", err)
		}
		if cerr.Label != "fill" || cerr.Source != src.WGSL {
			t.Errorf("CompileError = %+v", cerr)
		}
	})

	t.Run("missing host kernel", func(t *testing.T) {
		src := fillProgram()
		src.Host = nil
		if _, err := d.CompileProgram(src); !errors.Is(err, ErrNoHostKernel) {
			t.Errorf("err = %v, want ErrNoHostKernel", err)
		}
	})
}

func TestSoftwareDeviceBindingErrors(t *testing.T) {
	d := NewSoftwareDevice(1)
	defer d.Close()

	prog, err := d.CompileProgram(fillProgram())
	if err != nil {
		t.Fatal(err)
	}
	ubuf, _ := d.CreateBuffer("params", 16, gpucore.BufferUsageUniform)

	tests := []struct {
		name    string
		desc    gpucore.DispatchDesc
		wantErr error
	}{
		{"unknown program", gpucore.DispatchDesc{Program: 999}, ErrUnknownResource},
		{"too few bindings", gpucore.DispatchDesc{Program: prog, Bindings: []gpucore.Binding{{Buffer: ubuf}}}, ErrBindingMismatch},
		{"unknown image", gpucore.DispatchDesc{Program: prog, Bindings: []gpucore.Binding{{Buffer: ubuf}, {Image: 12345}}}, ErrUnknownResource},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := d.Dispatch(tt.desc)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
			var derr *texdecode.DeviceError
			if !errors.As(err, &derr) {
				t.Errorf("err = %v, want *DeviceError", err)
			}
		})
	}
}

func TestSoftwareDeviceResourceLifecycle(t *testing.T) {
	d := NewSoftwareDevice(1)

	buf, _ := d.CreateBuffer("b", 4, gpucore.BufferUsageStorage)
	if err := d.WriteBuffer(buf, make([]byte, 8)); err == nil {
		t.Error("oversized WriteBuffer succeeded")
	}
	d.DestroyBuffer(buf)
	if err := d.WriteBuffer(buf, []byte{1}); !errors.Is(err, ErrUnknownResource) {
		t.Errorf("WriteBuffer after destroy: err = %v", err)
	}

	img, _ := d.CreateImage("i", 4, 4)
	if err := d.ReadImage(img, make([]byte, 10)); !errors.Is(err, texdecode.ErrBufferSize) {
		t.Errorf("short ReadImage: err = %v", err)
	}

	if err := d.Close(); err != nil {
		t.Fatal(err)
	}
	if err := d.Close(); err != nil {
		t.Errorf("second Close() = %v", err)
	}
	if _, err := d.CreateBuffer("late", 4, 0); !errors.Is(err, ErrClosed) {
		t.Errorf("CreateBuffer after Close: err = %v", err)
	}
}
