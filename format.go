package texdecode

import "fmt"

// Format identifies a packed source texel format.
type Format int

const (
	// FormatRGB565 is 16-bit packed color: 5 bits red, 6 bits green,
	// 5 bits blue, stored big-endian.
	FormatRGB565 Format = iota + 1
)

// TileSize is the edge length of a decode tile in texels. Source data is
// laid out tile-major in TileSize x TileSize blocks, and the compute kernel
// runs one invocation per tile.
const TileSize = 4

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatRGB565:
		return "RGB565"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// BytesPerTexel returns the packed size of one source texel.
func (f Format) BytesPerTexel() int {
	switch f {
	case FormatRGB565:
		return 2
	default:
		return 0
	}
}

// Valid reports whether f is a supported format.
func (f Format) Valid() bool {
	return f == FormatRGB565
}

// ValidateDimensions checks that width and height are positive multiples
// of TileSize. The returned error is a *ConfigurationError wrapping
// ErrInvalidDimensions.
func ValidateDimensions(width, height int) error {
	if width <= 0 || height <= 0 || width%TileSize != 0 || height%TileSize != 0 {
		return &ConfigurationError{
			Field: "dimensions",
			Value: fmt.Sprintf("%dx%d", width, height),
			Err:   ErrInvalidDimensions,
		}
	}
	return nil
}

// EncodedSize returns the byte length of an encoded buffer for the given
// dimensions.
func (f Format) EncodedSize(width, height int) int {
	return width * height * f.BytesPerTexel()
}
