package gpucore

// Device is the minimal compute device the decode kernel needs: program
// compilation, buffers, a writable image and synchronous dispatch.
//
// Implementations:
//   - backend/wgpu: gogpu/wgpu HAL (Vulkan, or the noop backend in tests)
//   - backend: software device executing HostKernel on the CPU
//
// Methods are not required to be safe for concurrent use; a Device is
// driven by one goroutine.
type Device interface {
	// Name returns the backend name ("vulkan", "noop", "software").
	Name() string

	// CompileProgram builds a compute program from WGSL.
	CompileProgram(src ProgramSource) (ProgramID, error)

	// DestroyProgram releases a program.
	DestroyProgram(id ProgramID)

	// CreateBuffer allocates a buffer of size bytes.
	CreateBuffer(label string, size uint64, usage BufferUsage) (BufferID, error)

	// WriteBuffer uploads data to the start of a buffer.
	WriteBuffer(id BufferID, data []byte) error

	// DestroyBuffer releases a buffer.
	DestroyBuffer(id BufferID)

	// CreateImage allocates a width x height RGBA8 image writable from
	// compute programs.
	CreateImage(label string, width, height uint32) (ImageID, error)

	// ReadImage copies the image back to the host as little-endian RGBA8
	// rows. dst must hold width*height*4 bytes.
	ReadImage(id ImageID, dst []byte) error

	// DestroyImage releases an image.
	DestroyImage(id ImageID)

	// Dispatch runs a program and blocks until it completes.
	Dispatch(desc DispatchDesc) (DispatchStats, error)

	// Close releases every resource the device still owns.
	Close() error
}
