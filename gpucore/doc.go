// Package gpucore defines the device abstraction used by the decode kernel.
//
// The [Device] interface abstracts over compute backends so the same kernel
// host code works with:
//   - gogpu/wgpu (Pure Go WebGPU via HAL)
//   - the software device, which runs a Go rendition of the kernel
//
// # Resources
//
// Resources are referenced by opaque IDs ([BufferID], [ImageID],
// [ProgramID]). Each backend maps IDs to its own handles. The zero ID is
// never valid.
//
// # Programs
//
// A [ProgramSource] carries WGSL, the binding layout and an optional
// [HostKernel]. GPU backends compile the WGSL; the software backend
// validates it and executes the HostKernel once per workgroup instead.
//
//	id, err := dev.CompileProgram(gpucore.ProgramSource{
//		Label:  "rgb565_decode",
//		WGSL:   src,
//		Layout: []gpucore.BindingType{gpucore.BindingTypeUniformBuffer, ...},
//		Host:   kernel.InvokeTile,
//	})
package gpucore
