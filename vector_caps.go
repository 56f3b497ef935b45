//go:build !purego

package texdecode

import "golang.org/x/sys/cpu"

var hasVectorUnit = cpu.X86.HasSSE2 || cpu.ARM64.HasASIMD

// VectorSupported reports whether the CPU has a 128-bit integer vector
// unit the lane types can map onto (SSE2 on amd64, ASIMD on arm64).
func VectorSupported() bool {
	return hasVectorUnit
}
