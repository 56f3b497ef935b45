package backend

import (
	"errors"

	"github.com/gogpu/texdecode/gpucore"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not
	// registered or cannot open a device on this machine.
	ErrBackendNotAvailable = errors.New("backend: not available")

	// ErrClosed is returned when a device is used after Close.
	ErrClosed = errors.New("backend: device closed")

	// ErrUnknownResource is returned for IDs the device never issued or
	// already destroyed.
	ErrUnknownResource = errors.New("backend: unknown resource")

	// ErrBindingMismatch is returned when dispatch bindings do not match the
	// program layout.
	ErrBindingMismatch = errors.New("backend: bindings do not match program layout")

	// ErrNoHostKernel is returned by the software backend for programs
	// without a HostKernel.
	ErrNoHostKernel = errors.New("backend: program has no host kernel")
)

// Backend name constants.
const (
	// BackendVulkan is the gogpu/wgpu HAL device on the Vulkan backend.
	BackendVulkan = "vulkan"
	// BackendNoop is the gogpu/wgpu HAL noop backend. It accepts every
	// call and computes nothing; it exists for tests and CI.
	BackendNoop = "noop"
	// BackendSoftware is the CPU device that executes host kernels.
	BackendSoftware = "software"
)

// Factory opens a new device.
type Factory func() (gpucore.Device, error)
