// Package backend provides the device registry and the software device.
//
// Devices are registered by name via init() functions and opened at
// runtime. The software backend is registered on import; GPU backends
// register when their package is imported:
//
//	import _ "github.com/gogpu/texdecode/backend/wgpu"
//
// # Backend Selection
//
// Use OpenDefault() to open the best available device, or Open() to request
// a specific backend by name:
//
//	// Best available: vulkan, then software
//	dev, err := backend.OpenDefault()
//
//	// Or a specific backend
//	dev, err := backend.Open("software")
//
// # Software Device
//
// SoftwareDevice validates WGSL with naga and then runs each program's
// gpucore.HostKernel on a work-stealing worker pool, one call per
// workgroup. Its output is the reference the GPU path is checked against.
package backend
