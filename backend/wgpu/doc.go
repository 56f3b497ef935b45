// Package wgpu provides a compute device backed by gogpu/wgpu.
//
// The device uses the HAL layer of the Pure Go WebGPU implementation:
// WGSL is compiled to SPIR-V with naga, and each program becomes a shader
// module, bind group layout, pipeline layout and compute pipeline.
//
// Key components:
//
//   - Session: owns the HAL instance, device and queue. Open selects a
//     Vulkan adapter, OpenNoop uses the HAL noop backend, and
//     SessionFromProvider adopts the device of a host application.
//   - Device: implements gpucore.Device on a Session.
//
// Importing the package registers the "vulkan" and "noop" backends:
//
//	import _ "github.com/gogpu/texdecode/backend/wgpu"
//
//	dev, err := backend.Open("vulkan")
//
// # Images
//
// Decoded images live in storage buffers of width*height u32 values rather
// than storage textures, so the kernel writes packed RGBA8 words directly
// and readback is a plain buffer copy through a staging buffer.
//
// # Timing
//
// DispatchStats.Elapsed is measured on the device with timestamp queries
// written at the beginning and end of the compute pass. Backends that
// return hal.ErrTimestampsNotSupported fall back to the host time from
// submission to completion, which includes driver and queue latency; a
// warning is logged once. Neither is directly comparable with CPU
// wall-clock timings.
package wgpu
