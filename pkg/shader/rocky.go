package shader

import (
	"github.com/chewxy/math32"

	"github.com/df07/go-planet-rasterizer/pkg/core"
)

// MercuryConfig shades a cratered grey surface. Two 3D samples are averaged
// and thresholded into crater, base and highlight bands, then the result is
// pulled toward the highlight by a slowly pulsing light.
type MercuryConfig struct {
	Zoom             float32
	OffsetX, OffsetY float32
	SecondOffset     float32 // Shift of the second sample on every axis
	CraterThreshold  float32
	BaseThreshold    float32
	PulseRate        float32
	Crater           core.Color
	Base             core.Color
	Highlight        core.Color
}

func DefaultMercuryConfig() MercuryConfig {
	return MercuryConfig{
		Zoom:            120,
		OffsetX:         15,
		OffsetY:         15,
		SecondOffset:    30,
		CraterThreshold: 0.25,
		BaseThreshold:   0.7,
		PulseRate:       0.05,
		Crater:          core.NewColor(105, 105, 105),
		Base:            core.NewColor(169, 169, 169),
		Highlight:       core.NewColor(192, 192, 192),
	}
}

func (c MercuryConfig) Shade(f core.Fragment, u *core.Uniforms) core.Color {
	x := f.VertexPosition.X() + c.OffsetX
	y := f.VertexPosition.Y() + c.OffsetY
	depth := f.Depth

	n1 := noise3(u, x*c.Zoom, y*c.Zoom, depth*c.Zoom)
	n2 := noise3(u,
		(x+c.SecondOffset)*c.Zoom,
		(y+c.SecondOffset)*c.Zoom,
		(depth+c.SecondOffset)*c.Zoom)
	n := (n1 + n2) * 0.5

	surface := c.Highlight
	switch {
	case n < c.CraterThreshold:
		surface = c.Crater
	case n < c.BaseThreshold:
		surface = c.Base
	}

	// The light term already includes the intensity, so no final multiply
	light := math32.Sin(frameTime(u)*c.PulseRate)*0.1 + 0.9
	return surface.Lerp(c.Highlight, light*f.Intensity)
}

// CrackedEarthConfig shades green ground split by blue cracks, with a
// drifting cloud layer on top.
type CrackedEarthConfig struct {
	Zoom             float32
	OffsetX, OffsetY float32
	CrackThreshold   float32
	Earth            core.Color
	Crack            core.Color

	CloudZoom      float32
	CloudOffsetX   float32
	CloudOffsetY   float32
	CloudSpeed     float32
	CloudThreshold float32
	CloudBlend     float32
	CloudColor     core.Color
}

func DefaultCrackedEarthConfig() CrackedEarthConfig {
	return CrackedEarthConfig{
		Zoom:           80,
		OffsetX:        50,
		OffsetY:        50,
		CrackThreshold: 0.2,
		Earth:          core.NewColor(34, 139, 34),
		Crack:          core.NewColor(0, 0, 255),
		CloudZoom:      100,
		CloudOffsetX:   100,
		CloudOffsetY:   100,
		CloudSpeed:     0.5,
		CloudThreshold: 0.8,
		CloudBlend:     0.3,
		CloudColor:     core.NewColor(255, 255, 255),
	}
}

func (c CrackedEarthConfig) Shade(f core.Fragment, u *core.Uniforms) core.Color {
	x, y := f.VertexPosition.X(), f.VertexPosition.Y()

	base := c.Earth
	if math32.Abs(noise2(u, x*c.Zoom+c.OffsetX, y*c.Zoom+c.OffsetY)) < c.CrackThreshold {
		base = c.Crack
	}

	t := frameTime(u) * c.CloudSpeed
	cloud := noise2(u, x*c.CloudZoom+c.CloudOffsetX+t, y*c.CloudZoom+c.CloudOffsetY)
	if cloud > c.CloudThreshold {
		base = c.CloudColor.Lerp(base, c.CloudBlend)
	}

	return base.Mul(f.Intensity)
}

// AridConfig shades sand with dark cracks under a pulsing warm light
type AridConfig struct {
	Zoom             float32
	OffsetX, OffsetY float32
	CrackThreshold   float32
	PulseRate        float32
	Sand             core.Color
	Crack            core.Color
	Highlight        core.Color
}

func DefaultAridConfig() AridConfig {
	return AridConfig{
		Zoom:           100,
		OffsetX:        50,
		OffsetY:        50,
		CrackThreshold: 0.2,
		PulseRate:      0.05,
		Sand:           core.NewColor(237, 201, 175),
		Crack:          core.NewColor(117, 76, 36),
		Highlight:      core.NewColor(255, 223, 186),
	}
}

func (c AridConfig) Shade(f core.Fragment, u *core.Uniforms) core.Color {
	x, y := f.VertexPosition.X(), f.VertexPosition.Y()

	base := c.Sand
	if math32.Abs(noise2(u, x*c.Zoom+c.OffsetX, y*c.Zoom+c.OffsetY)) < c.CrackThreshold {
		base = c.Crack
	}

	light := math32.Sin(frameTime(u)*c.PulseRate)*0.1 + 0.9
	return base.Lerp(c.Highlight, light*f.Intensity)
}
