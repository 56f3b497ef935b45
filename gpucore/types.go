package gpucore

import "time"

// Resource IDs
//
// These opaque IDs represent device resources. Each backend maintains a
// mapping between IDs and actual backend resources.
// IDs are uint64 to accommodate various backend handle sizes.

// BufferID is an opaque handle to a device buffer.
type BufferID uint64

// ImageID is an opaque handle to a device-writable 2D RGBA8 image.
type ImageID uint64

// ProgramID is an opaque handle to a compiled compute program: shader
// module, bind group layout and pipeline together.
type ProgramID uint64

// InvalidID is the zero value, representing an invalid/null resource.
const InvalidID = 0

// BufferUsage is a bitmask specifying how a buffer will be used.
type BufferUsage uint32

// Buffer usage flags.
const (
	// BufferUsageCopySrc indicates the buffer can be used as a copy source.
	BufferUsageCopySrc BufferUsage = 1 << 0

	// BufferUsageCopyDst indicates the buffer can be written from the host.
	BufferUsageCopyDst BufferUsage = 1 << 1

	// BufferUsageUniform indicates the buffer can be used as a uniform buffer.
	BufferUsageUniform BufferUsage = 1 << 2

	// BufferUsageStorage indicates the buffer can be used as a storage buffer.
	BufferUsageStorage BufferUsage = 1 << 3
)

// BindingType specifies the type of a shader binding.
type BindingType uint32

// Binding types.
const (
	// BindingTypeUniformBuffer is a uniform buffer binding.
	BindingTypeUniformBuffer BindingType = iota + 1

	// BindingTypeReadOnlyStorageBuffer is a read-only storage buffer binding.
	BindingTypeReadOnlyStorageBuffer

	// BindingTypeStorageImage is a write-only RGBA8 image binding.
	BindingTypeStorageImage
)

// String returns the binding type name.
func (t BindingType) String() string {
	switch t {
	case BindingTypeUniformBuffer:
		return "uniform"
	case BindingTypeReadOnlyStorageBuffer:
		return "storage-read"
	case BindingTypeStorageImage:
		return "storage-image"
	default:
		return "unknown"
	}
}

// HostBinding is the CPU view of one bound resource, handed to a HostKernel.
// Buffers populate Data; images populate Pixels (one RGBA8888 value per
// texel, R in the low byte, row-major).
type HostBinding struct {
	Data   []byte
	Pixels []uint32
}

// HostKernel is the CPU rendition of a compute program's entry point.
// It is called once per workgroup with the workgroup ID and the bindings
// in layout order. Calls for different workgroups may run concurrently
// and must only write disjoint parts of the bindings.
type HostKernel func(group [3]uint32, bindings []HostBinding)

// ProgramSource describes a compute program.
type ProgramSource struct {
	// Label names the program in logs, errors and shader dumps.
	Label string

	// WGSL is the shader source.
	WGSL string

	// EntryPoint is the compute entry point. Defaults to "main".
	EntryPoint string

	// Layout lists the binding types of group 0, indexed by binding number.
	Layout []BindingType

	// Host is the CPU rendition of the entry point. Devices that cannot
	// execute WGSL natively run it instead.
	Host HostKernel
}

// Binding references the resource bound at one binding index.
// Exactly one of Buffer or Image is set.
type Binding struct {
	Buffer BufferID
	Image  ImageID
}

// DispatchDesc describes one compute dispatch.
type DispatchDesc struct {
	// Label is an optional debug label.
	Label string

	// Program is the compiled program to run.
	Program ProgramID

	// Bindings are the resources for group 0, in layout order.
	Bindings []Binding

	// Groups is the workgroup grid.
	Groups [3]uint32
}

// DispatchStats reports what a dispatch did and how long it took.
type DispatchStats struct {
	// Elapsed is the device-side execution time, measured with timestamp
	// queries written at the beginning and end of the compute pass. Backends
	// without timestamp queries report the host time from submission to
	// completion, and the software backend reports the wall time of the
	// workgroup loop.
	Elapsed time.Duration

	// Workgroups is the number of workgroups executed.
	Workgroups uint64
}
