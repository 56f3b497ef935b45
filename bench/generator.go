package bench

import (
	"math/bits"

	"github.com/gogpu/texdecode"
)

// Pattern texels, host order.
const (
	// StripeOn is yellow: R=31, G=63, B=0.
	StripeOn uint16 = 0xFFE0
	// StripeOff is cyan: R=0, G=63, B=31.
	StripeOff uint16 = 0x07FF
)

// Generator produces a striped source pattern that changes on every
// refresh, so the decoders never work on constant input.
//
// Column x is StripeOn when x&shift != 0 and StripeOff otherwise. The shift
// starts at 1 and doubles on every refresh, wrapping after log2(width)
// steps: after N refreshes it is 2^(N mod log2(width)).
type Generator struct {
	width, height int
	period        int
	refreshes     int
}

// NewGenerator returns a generator for width x height images.
func NewGenerator(width, height int) (*Generator, error) {
	if err := texdecode.ValidateDimensions(width, height); err != nil {
		return nil, err
	}
	return &Generator{
		width:  width,
		height: height,
		period: bits.Len(uint(width)) - 1,
	}, nil
}

// Refreshes returns how many times Refresh has been called.
func (g *Generator) Refreshes() int { return g.refreshes }

// Shift returns the stripe mask used by the next Fill.
func (g *Generator) Shift() int {
	return 1 << (g.refreshes % g.period)
}

// Fill writes the current pattern into dst, big-endian and tile-major.
func (g *Generator) Fill(dst texdecode.EncodedBuffer) {
	shift := g.Shift()
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			v := StripeOff
			if x&shift != 0 {
				v = StripeOn
			}
			dst.PutTexel(x, y, g.width, v)
		}
	}
}

// Refresh advances the pattern and rewrites dst.
func (g *Generator) Refresh(dst texdecode.EncodedBuffer) {
	g.refreshes++
	g.Fill(dst)
}
