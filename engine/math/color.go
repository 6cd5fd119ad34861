package math

import m "math"

var (
	ColorWhite = Color{R: 1, G: 1, B: 1, A: 1}
	ColorBlack = Color{A: 1}
	ColorClear = Color{}
)

// WhiteFloatBits is ColorWhite packed with ToFloatBits.
var WhiteFloatBits = ColorWhite.ToFloatBits()

func NewColor(r, g, b, a float32) Color {
	return Color{R: r, G: g, B: b, A: a}
}

// NewColorRGBA8 builds a colour from 8-bit channels.
func NewColorRGBA8(r, g, b, a uint8) Color {
	return Color{
		R: float32(r) / 255,
		G: float32(g) / 255,
		B: float32(b) / 255,
		A: float32(a) / 255,
	}
}

// Clamped returns the colour with every channel clamped to [0, 1].
func (c Color) Clamped() Color {
	return Color{
		R: Clamp(c.R, 0, 1),
		G: Clamp(c.G, 0, 1),
		B: Clamp(c.B, 0, 1),
		A: Clamp(c.A, 0, 1),
	}
}

/**
 * @brief Packs the colour into a 32-bit ABGR integer (alpha in the high
 * byte, red in the low byte). Channels are clamped and rounded to the
 * nearest 8-bit value.
 */
func (c Color) ToABGR8888() uint32 {
	cl := c.Clamped()
	return uint32(Round(255*cl.A))<<24 |
		uint32(Round(255*cl.B))<<16 |
		uint32(Round(255*cl.G))<<8 |
		uint32(Round(255*cl.R))
}

/**
 * @brief Packs the colour into a single float suitable for a vertex
 * attribute. The lowest alpha bit is dropped so the result can never be
 * a NaN bit pattern, which limits alpha to even 8-bit values.
 */
func (c Color) ToFloatBits() float32 {
	return ABGR8888ToFloatBits(c.ToABGR8888())
}

// ABGR8888ToFloatBits reinterprets a packed ABGR integer as a vertex colour.
func ABGR8888ToFloatBits(value uint32) float32 {
	return m.Float32frombits(value & 0xfeffffff)
}

// ColorFromABGR8888 decodes a packed ABGR integer.
func ColorFromABGR8888(value uint32) Color {
	return Color{
		R: float32(value&0xff) / 255,
		G: float32((value>>8)&0xff) / 255,
		B: float32((value>>16)&0xff) / 255,
		A: float32((value>>24)&0xff) / 255,
	}
}

// ColorFromFloatBits decodes a colour packed with ToFloatBits.
func ColorFromFloatBits(packed float32) Color {
	return ColorFromABGR8888(m.Float32bits(packed))
}

// Mul multiplies the colours channel-wise.
func (c Color) Mul(other Color) Color {
	return Color{R: c.R * other.R, G: c.G * other.G, B: c.B * other.B, A: c.A * other.A}
}
