// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package kernel

import (
	"errors"

	"github.com/gogpu/texdecode"
	"github.com/gogpu/texdecode/gpucore"
	"github.com/gogpu/texdecode/internal/cache"
)

// Layout is the binding layout of the decode kernel.
var Layout = []gpucore.BindingType{
	gpucore.BindingTypeUniformBuffer,
	gpucore.BindingTypeReadOnlyStorageBuffer,
	gpucore.BindingTypeStorageImage,
}

// ProgramCache compiles each format's kernel at most once per device.
//
// Concurrent first use compiles once; everyone else waits for that result.
// Generated source is deterministic, so a failed compile is cached and
// returned again rather than retried.
type ProgramCache struct {
	device   gpucore.Device
	programs *cache.Cache[texdecode.Format, gpucore.ProgramID]

	// DumpDir, if set, receives bad_<label>.wgsl when a compile fails.
	DumpDir string
}

// NewProgramCache creates an empty cache for device.
func NewProgramCache(device gpucore.Device) *ProgramCache {
	return &ProgramCache{
		device:   device,
		programs: cache.New[texdecode.Format, gpucore.ProgramID](),
	}
}

// Program returns the compiled kernel for format, building it on first use.
func (c *ProgramCache) Program(format texdecode.Format) (gpucore.ProgramID, error) {
	return c.programs.GetOrCreate(format, func() (gpucore.ProgramID, error) {
		return c.build(format)
	})
}

func (c *ProgramCache) build(format texdecode.Format) (gpucore.ProgramID, error) {
	src, err := Source(format, texdecode.TileSize)
	if err != nil {
		return gpucore.InvalidID, err
	}

	id, err := c.device.CompileProgram(gpucore.ProgramSource{
		Label:      ProgramLabel,
		WGSL:       src,
		EntryPoint: "main",
		Layout:     Layout,
		Host:       InvokeTile,
	})
	if err != nil {
		var cerr *texdecode.CompileError
		if !errors.As(err, &cerr) {
			err = &texdecode.CompileError{Label: ProgramLabel, Source: src, Err: err}
		}
		c.dump(err)
		return gpucore.InvalidID, err
	}

	texdecode.Logger().Debug("kernel: program compiled",
		"format", format.String(), "device", c.device.Name(), "source_bytes", len(src))
	return id, nil
}

func (c *ProgramCache) dump(err error) {
	if c.DumpDir == "" {
		return
	}
	var cerr *texdecode.CompileError
	if !errors.As(err, &cerr) || cerr.Source == "" {
		return
	}
	path, derr := DumpSource(c.DumpDir, cerr.Label, cerr.Source)
	if derr != nil {
		texdecode.Logger().Warn("kernel: shader dump failed", "err", derr)
		return
	}
	texdecode.Logger().Error("kernel: compile failed, source dumped", "label", cerr.Label, "path", path)
}

// Len returns the number of formats compiled or attempted.
func (c *ProgramCache) Len() int {
	return c.programs.Len()
}

// Close destroys every compiled program on the device.
func (c *ProgramCache) Close() {
	c.programs.Drain(func(_ texdecode.Format, id gpucore.ProgramID) {
		c.device.DestroyProgram(id)
	})
}
