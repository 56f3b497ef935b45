// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"

	"github.com/gogpu/texdecode"
)

// Session errors.
var (
	// ErrNoAdapter is returned when the instance exposes no adapters.
	ErrNoAdapter = errors.New("wgpu: no GPU adapters found")

	// ErrProviderNotHAL is returned by SessionFromProvider when the provider
	// does not expose hal.Device and hal.Queue.
	ErrProviderNotHAL = errors.New("wgpu: provider does not expose HAL types")
)

// Session owns a HAL instance, device and queue. It replaces any
// process-wide graphics context: everything that needs the device gets the
// Session passed explicitly.
//
// A Session created by Open or OpenNoop owns its device and destroys it on
// Close. A Session adopted from a provider leaves the device to its owner.
type Session struct {
	backend  string
	adapter  string
	instance hal.Instance
	device   hal.Device
	queue    hal.Queue
	external bool
}

// Open creates a session on the first discrete or integrated GPU exposed by
// the Vulkan backend, falling back to the first adapter.
func Open() (*Session, error) {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, fmt.Errorf("wgpu: vulkan backend not available")
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create instance: %w", err)
	}
	return openOn(instance, "vulkan")
}

// OpenNoop creates a session on the HAL noop backend. Every call succeeds
// and nothing is computed; it exercises the full host-side flow without a
// GPU.
func OpenNoop() (*Session, error) {
	instance, err := noop.API{}.CreateInstance(nil)
	if err != nil {
		return nil, fmt.Errorf("wgpu: create noop instance: %w", err)
	}
	return openOn(instance, "noop")
}

// openOn selects an adapter on instance and opens a device. The instance is
// destroyed on failure.
func openOn(instance hal.Instance, name string) (*Session, error) {
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, ErrNoAdapter
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("wgpu: open device: %w", err)
	}

	texdecode.Logger().Info("wgpu: device opened", "backend", name, "adapter", selected.Info.Name)
	return &Session{
		backend:  name,
		adapter:  selected.Info.Name,
		instance: instance,
		device:   openDev.Device,
		queue:    openDev.Queue,
	}, nil
}

// SessionFromProvider adopts the device of a host application. The provider
// must implement HalDevice() any and HalQueue() any returning hal.Device and
// hal.Queue. The returned session does not destroy the device on Close.
func SessionFromProvider(provider gpucontext.DeviceProvider) (*Session, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrProviderNotHAL
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is not hal.Device", ErrProviderNotHAL)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue is not hal.Queue", ErrProviderNotHAL)
	}

	texdecode.Logger().Info("wgpu: adopted external device")
	return &Session{
		backend:  "external",
		device:   device,
		queue:    queue,
		external: true,
	}, nil
}

// Backend returns the backend name ("vulkan", "noop" or "external").
func (s *Session) Backend() string { return s.backend }

// Adapter returns the adapter name, empty for adopted devices.
func (s *Session) Adapter() string { return s.adapter }

// Device returns the HAL device.
func (s *Session) Device() hal.Device { return s.device }

// Queue returns the HAL queue.
func (s *Session) Queue() hal.Queue { return s.queue }

// Close releases the device and instance the session owns.
// Close is safe to call multiple times.
func (s *Session) Close() {
	if s.device != nil && !s.external {
		s.device.Destroy()
	}
	if s.instance != nil {
		s.instance.Destroy()
	}
	s.device = nil
	s.queue = nil
	s.instance = nil
}
