//go:build purego

package texdecode

// VectorSupported always reports false in purego builds.
func VectorSupported() bool {
	return false
}
