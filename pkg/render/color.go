package render

// Color is an 8-bit RGB color. It implements image/color.Color so it can be
// handed to image and terminal APIs directly.
type Color struct {
	R, G, B uint8
}

// RGB creates a Color.
func RGB(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b}
}

// Hex creates a Color from a 0xRRGGBB value.
func Hex(v uint32) Color {
	return Color{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}
}

// RGBA implements image/color.Color.
func (c Color) RGBA() (r, g, b, a uint32) {
	r = uint32(c.R)
	r |= r << 8
	g = uint32(c.G)
	g |= g << 8
	b = uint32(c.B)
	b |= b << 8
	return r, g, b, 0xffff
}

// Scale multiplies each channel by f, clamped to [0, 255].
func (c Color) Scale(f float64) Color {
	return RGB(clampByte(float64(c.R)*f), clampByte(float64(c.G)*f), clampByte(float64(c.B)*f))
}

// Lerp blends from c to o by t in [0, 1].
func (c Color) Lerp(o Color, t float64) Color {
	mix := func(a, b uint8) uint8 {
		return clampByte(float64(a) + (float64(b)-float64(a))*t)
	}
	return RGB(mix(c.R, o.R), mix(c.G, o.G), mix(c.B, o.B))
}

func clampByte(f float64) uint8 {
	switch {
	case f <= 0:
		return 0
	case f >= 255:
		return 255
	default:
		return uint8(f)
	}
}

// Common colors.
var (
	ColorBlack = RGB(0, 0, 0)
	ColorWhite = RGB(255, 255, 255)
	ColorRed   = RGB(255, 0, 0)
	ColorGreen = RGB(0, 255, 0)
	ColorBlue  = RGB(0, 0, 255)

	// ColorSurface is the default base color for reconstructed surfaces.
	ColorSurface = Hex(0xd8cab0)
	// ColorBackground is the default pane clear color.
	ColorBackground = Hex(0x15171c)
)
