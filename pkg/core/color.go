package core

import (
	"fmt"
	"image/color"

	"github.com/chewxy/math32"
)

// Color is an 8-bit RGB color. It is an immutable value type.
type Color struct {
	R, G, B uint8
}

// NewColor creates a new Color
func NewColor(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b}
}

// Black returns the zero color
func Black() Color {
	return Color{}
}

// ColorFromHex unpacks a 0xRRGGBB value
func ColorFromHex(hex uint32) Color {
	return Color{
		R: uint8((hex >> 16) & 0xFF),
		G: uint8((hex >> 8) & 0xFF),
		B: uint8(hex & 0xFF),
	}
}

// ColorFromFloat builds a color from channel values in [0, 255], clamping out of range values
func ColorFromFloat(r, g, b float32) Color {
	return Color{R: clampChannel(r), G: clampChannel(g), B: clampChannel(b)}
}

// Hex packs the color into 0xRRGGBB, the framebuffer pixel format
func (c Color) Hex() uint32 {
	return uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}

// Add returns the channel-wise sum, saturating at 255
func (c Color) Add(other Color) Color {
	return Color{
		R: saturatingAdd(c.R, other.R),
		G: saturatingAdd(c.G, other.G),
		B: saturatingAdd(c.B, other.B),
	}
}

// Mul scales every channel by factor, clamping the result to [0, 255]
func (c Color) Mul(factor float32) Color {
	return Color{
		R: clampChannel(float32(c.R) * factor),
		G: clampChannel(float32(c.G) * factor),
		B: clampChannel(float32(c.B) * factor),
	}
}

// Lerp linearly interpolates from c to other. t is clamped to [0, 1].
func (c Color) Lerp(other Color, t float32) Color {
	t = Clamp01(t)
	return Color{
		R: lerpChannel(c.R, other.R, t),
		G: lerpChannel(c.G, other.G, t),
		B: lerpChannel(c.B, other.B, t),
	}
}

// RGBA converts to an opaque image/color value
func (c Color) RGBA() color.RGBA {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xFF}
}

// String formats the color as #rrggbb
func (c Color) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func lerpChannel(a, b uint8, t float32) uint8 {
	fa := float32(a)
	return clampChannel(math32.Floor(fa + (float32(b)-fa)*t + 0.5))
}

func saturatingAdd(a, b uint8) uint8 {
	sum := uint16(a) + uint16(b)
	if sum > 255 {
		return 255
	}
	return uint8(sum)
}

func clampChannel(v float32) uint8 {
	if v != v || v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}
