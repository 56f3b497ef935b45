package texdecode

import "fmt"

// Kind selects a CPU decode implementation.
type Kind int

const (
	// KindScalar decodes one texel at a time.
	KindScalar Kind = iota

	// KindVector decodes a tile row of four texels per step using 128-bit
	// lane arithmetic.
	KindVector
)

// String returns the kind name used in logs and reports.
func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindVector:
		return "vector"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Decoder converts an EncodedBuffer into a DecodedBuffer.
//
// Every Decoder produces bit-identical output for the same input.
// Decode is a pure function of src; running it twice yields the same dst.
type Decoder interface {
	// Decode writes width*height pixels to dst. It returns a
	// *ConfigurationError for invalid dimensions and ErrBufferSize when a
	// buffer is too short.
	Decode(dst DecodedBuffer, src EncodedBuffer, width, height int) error

	// Kind reports the implementation.
	Kind() Kind
}

// NewDecoder returns a decoder of the requested kind. A vector decoder is
// only returned when VectorSupported reports true; otherwise the scalar
// decoder is used and a warning is logged.
func NewDecoder(kind Kind) Decoder {
	switch kind {
	case KindVector:
		if VectorSupported() {
			Logger().Debug("decoder selected", "kind", KindVector.String())
			return VectorDecoder{}
		}
		Logger().Warn("vector unit unavailable, falling back to scalar decoder")
		return ScalarDecoder{}
	default:
		Logger().Debug("decoder selected", "kind", KindScalar.String())
		return ScalarDecoder{}
	}
}
