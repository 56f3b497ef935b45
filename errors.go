package texdecode

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	// ErrInvalidDimensions is returned when a width or height is not a
	// positive multiple of TileSize.
	ErrInvalidDimensions = errors.New("texdecode: dimensions must be positive multiples of the tile size")

	// ErrBufferSize is returned when a source or destination buffer does not
	// match the decode dimensions.
	ErrBufferSize = errors.New("texdecode: buffer size does not match dimensions")

	// ErrUnsupportedFormat is returned for any format other than FormatRGB565.
	ErrUnsupportedFormat = errors.New("texdecode: unsupported texel format")
)

// ConfigurationError reports invalid setup input: bad dimensions, a missing
// CLI argument or an out-of-range setting. The process must not proceed to
// decode.
type ConfigurationError struct {
	Field string
	Value string
	Err   error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: %s=%q: %v", e.Field, e.Value, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// CompileError reports that a kernel program could not be generated or
// built. Generated source is deterministic, so this is never retried.
type CompileError struct {
	// Label names the program (e.g. "rgb565_decode").
	Label string

	// Source is the program text that failed, when available.
	Source string

	Err error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("compile %s: %v", e.Label, e.Err)
}

func (e *CompileError) Unwrap() error { return e.Err }

// DeviceError reports a failure at the device boundary: resource creation,
// upload, dispatch, submit wait, timestamp query or readback. Fatal for the
// kernel path.
type DeviceError struct {
	// Op is the failed operation ("create buffer", "dispatch", ...).
	Op string

	// Device is the backend name.
	Device string

	Err error
}

func (e *DeviceError) Error() string {
	if e.Device == "" {
		return fmt.Sprintf("device: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("device %s: %s: %v", e.Device, e.Op, e.Err)
}

func (e *DeviceError) Unwrap() error { return e.Err }
