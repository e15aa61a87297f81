package shader

import (
	"github.com/chewxy/math32"

	"github.com/df07/go-planet-rasterizer/pkg/core"
)

// CloudConfig paints white clouds drifting across a blue sky
type CloudConfig struct {
	Zoom             float32
	OffsetX, OffsetY float32
	Speed            float32
	Threshold        float32
	Cloud            core.Color
	Sky              core.Color
}

func DefaultCloudConfig() CloudConfig {
	return CloudConfig{
		Zoom:      100,
		OffsetX:   100,
		OffsetY:   100,
		Speed:     0.5,
		Threshold: 0.5,
		Cloud:     core.NewColor(255, 255, 255),
		Sky:       core.NewColor(30, 97, 145),
	}
}

func (c CloudConfig) Shade(f core.Fragment, u *core.Uniforms) core.Color {
	x, y := f.VertexPosition.X(), f.VertexPosition.Y()
	t := frameTime(u) * c.Speed

	if noise2(u, x*c.Zoom+c.OffsetX+t, y*c.Zoom+c.OffsetY) > c.Threshold {
		return c.Cloud.Mul(f.Intensity)
	}
	return c.Sky.Mul(f.Intensity)
}

// LavaConfig blends dark and bright lava with two 3D samples whose depth
// coordinate pulsates over time.
type LavaConfig struct {
	Zoom           float32
	SecondOffset   float32
	TimeScale      float32
	PulseFrequency float32
	PulseAmplitude float32
	Bright         core.Color
	Dark           core.Color
}

func DefaultLavaConfig() LavaConfig {
	return LavaConfig{
		Zoom:           1000,
		SecondOffset:   1000,
		TimeScale:      0.01,
		PulseFrequency: 0.2,
		PulseAmplitude: 0.5,
		Bright:         core.NewColor(255, 240, 0),
		Dark:           core.NewColor(130, 20, 0),
	}
}

func (c LavaConfig) Shade(f core.Fragment, u *core.Uniforms) core.Color {
	x, y, z := f.VertexPosition.X(), f.VertexPosition.Y(), f.Depth

	t := frameTime(u) * c.TimeScale
	pulsate := math32.Sin(t*c.PulseFrequency) * c.PulseAmplitude

	n1 := noise3(u, x*c.Zoom, y*c.Zoom, (z+pulsate)*c.Zoom)
	n2 := noise3(u,
		(x+c.SecondOffset)*c.Zoom,
		(y+c.SecondOffset)*c.Zoom,
		(z+c.SecondOffset+pulsate)*c.Zoom)

	// Negative averages clamp to the dark color inside Lerp
	return c.Dark.Lerp(c.Bright, (n1+n2)*0.5).Mul(f.Intensity)
}

// WaterConfig shades moving water: shallow to deep by wave height, foam on
// crests and a gentle brightness swell.
type WaterConfig struct {
	Zoom          float32
	Speed         float32
	FoamThreshold float32
	FoamBlend     float32
	Shallow       core.Color
	Deep          core.Color
	Foam          core.Color
}

func DefaultWaterConfig() WaterConfig {
	return WaterConfig{
		Zoom:          50,
		Speed:         0.5,
		FoamThreshold: 0.8,
		FoamBlend:     0.3,
		Shallow:       core.NewColor(64, 164, 223),
		Deep:          core.NewColor(15, 82, 186),
		Foam:          core.NewColor(255, 255, 255),
	}
}

func (c WaterConfig) Shade(f core.Fragment, u *core.Uniforms) core.Color {
	x, y := f.VertexPosition.X(), f.VertexPosition.Y()
	t := frameTime(u) * c.Speed

	wave := noise2(u, x*c.Zoom+t, y*c.Zoom+t)
	depth := (wave*0.5 + 0.5) * f.Intensity

	color := c.Shallow.Lerp(c.Deep, depth)
	if wave > c.FoamThreshold {
		color = c.Foam.Lerp(color, c.FoamBlend)
	}

	brightness := (math32.Sin(t)*0.1 + 0.9) * f.Intensity
	return color.Mul(brightness)
}

// CrystalConfig shades pale blue crystal with refraction shimmer and sparkles
type CrystalConfig struct {
	Zoom             float32
	TimeScale        float32
	Refraction       float32
	SparkleThreshold float32
	SparkleIntensity float32
	Base             core.Color
	Highlight        core.Color
	Sparkle          core.Color
}

func DefaultCrystalConfig() CrystalConfig {
	return CrystalConfig{
		Zoom:             150,
		TimeScale:        0.1,
		Refraction:       0.5,
		SparkleThreshold: 0.8,
		SparkleIntensity: 1.5,
		Base:             core.NewColor(135, 206, 235),
		Highlight:        core.NewColor(173, 216, 230),
		Sparkle:          core.NewColor(255, 255, 255),
	}
}

func (c CrystalConfig) Shade(f core.Fragment, u *core.Uniforms) core.Color {
	x, y, z := f.VertexPosition.X(), f.VertexPosition.Y(), f.Depth
	t := frameTime(u) * c.TimeScale

	n := noise3(u, x*c.Zoom, y*c.Zoom, z*c.Zoom+t)
	color := c.Base.Lerp(c.Highlight, n*c.Refraction)

	if noise2(u, x*c.Zoom+t, y*c.Zoom+t) > c.SparkleThreshold {
		color = color.Add(c.Sparkle.Mul(c.SparkleIntensity))
	}
	return color.Mul(f.Intensity)
}
