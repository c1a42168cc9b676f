package ledpwm

// Composition is the order in which a color's channels are serialized into
// the duty buffer. The right value for a given strip is in its datasheet: if
// the data structure is R[7:0] | G[7:0] | B[7:0] (| W[7:0]), use RGB; if it
// leads with green, use GRB.
type Composition uint8

const (
	// RGB serializes red first, then green.
	RGB Composition = iota
	// GRB serializes green first, then red.
	GRB
)

// String returns a string representation of the composition.
func (c Composition) String() string {
	switch c {
	case RGB:
		return "rgb"
	case GRB:
		return "grb"
	default:
		return "Composition(?)"
	}
}

// Bit widths of the two sample variants.
const (
	ColorBits  = 8 * 3
	ColorWBits = 8 * 4
)

// Sample is a color sample that knows how to serialize itself into a Buffer.
// It is implemented by Color and ColorW only; the unexported method keeps the
// variant set closed so buffer offset arithmetic can rely on Bits.
type Sample interface {
	// Bits returns the number of duty slots the sample occupies.
	Bits() int
	encode(b *Buffer, offset int)
}

// Color is a 3-channel RGB sample for WS2812-family strips.
type Color struct {
	R, G, B uint8
}

var _ Sample = Color{}

// Bits implements Sample.
func (c Color) Bits() int { return ColorBits }

func (c Color) encode(b *Buffer, offset int) {
	switch b.order {
	case GRB:
		b.writeByte(c.G, offset)
		b.writeByte(c.R, offset+8)
	default:
		b.writeByte(c.R, offset)
		b.writeByte(c.G, offset+8)
	}
	b.writeByte(c.B, offset+16)
}

// ColorW is a 4-channel RGBW sample for SK6812-RGBW-family strips.
type ColorW struct {
	R, G, B, W uint8
}

var _ Sample = ColorW{}

// Bits implements Sample.
func (c ColorW) Bits() int { return ColorWBits }

func (c ColorW) encode(b *Buffer, offset int) {
	switch b.order {
	case GRB:
		b.writeByte(c.G, offset)
		b.writeByte(c.R, offset+8)
	default:
		b.writeByte(c.R, offset)
		b.writeByte(c.G, offset+8)
	}
	b.writeByte(c.B, offset+16)
	b.writeByte(c.W, offset+24)
}
