package shader

import (
	"math/rand/v2"

	"github.com/chewxy/math32"

	"github.com/df07/go-planet-rasterizer/pkg/core"
)

// BlackAndWhiteConfig paints static-like noise: each fragment draws a number
// in [0, Range] from an RNG seeded by time*x*y and picks Low or High.
type BlackAndWhiteConfig struct {
	Range     uint64
	Threshold uint64
	Low       core.Color
	High      core.Color
}

func DefaultBlackAndWhiteConfig() BlackAndWhiteConfig {
	return BlackAndWhiteConfig{
		Range:     100,
		Threshold: 50,
		Low:       core.NewColor(0, 0, 0),
		High:      core.NewColor(255, 255, 255),
	}
}

func (c BlackAndWhiteConfig) Shade(f core.Fragment, u *core.Uniforms) core.Color {
	seed := frameTime(u) * f.VertexPosition.Y() * f.VertexPosition.X()

	var src rand.PCG
	src.Seed(seedFromFloat(seed), 0)
	n := src.Uint64() % (c.Range + 1)

	if n < c.Threshold {
		return c.Low.Mul(f.Intensity)
	}
	return c.High.Mul(f.Intensity)
}

// seedFromFloat truncates |v| to an integer seed, mapping NaN and Inf to 0
func seedFromFloat(v float32) uint64 {
	if !core.IsFinite(v) {
		return 0
	}
	return uint64(math32.Abs(v))
}

// DalmataConfig paints black spots on white
type DalmataConfig struct {
	Zoom             float32
	OffsetX, OffsetY float32
	SpotThreshold    float32
	Spot             core.Color
	Base             core.Color
}

func DefaultDalmataConfig() DalmataConfig {
	return DalmataConfig{
		Zoom:          100,
		SpotThreshold: 0.5,
		Spot:          core.NewColor(255, 255, 255),
		Base:          core.NewColor(0, 0, 0),
	}
}

func (c DalmataConfig) Shade(f core.Fragment, u *core.Uniforms) core.Color {
	n := noise2(u,
		(f.VertexPosition.X()+c.OffsetX)*c.Zoom,
		(f.VertexPosition.Y()+c.OffsetY)*c.Zoom)

	if n < c.SpotThreshold {
		return c.Spot.Mul(f.Intensity)
	}
	return c.Base.Mul(f.Intensity)
}

// CellularConfig bands |noise| into four shades of green
type CellularConfig struct {
	Zoom             float32
	OffsetX, OffsetY float32
	Thresholds       [3]float32 // Ascending upper bounds of the first three bands
	Colors           [4]core.Color
}

func DefaultCellularConfig() CellularConfig {
	return CellularConfig{
		Zoom:       30,
		OffsetX:    50,
		OffsetY:    50,
		Thresholds: [3]float32{0.15, 0.7, 0.75},
		Colors: [4]core.Color{
			core.NewColor(85, 107, 47),
			core.NewColor(124, 252, 0),
			core.NewColor(34, 139, 34),
			core.NewColor(173, 255, 47),
		},
	}
}

func (c CellularConfig) Shade(f core.Fragment, u *core.Uniforms) core.Color {
	x, y := f.VertexPosition.X(), f.VertexPosition.Y()
	n := math32.Abs(noise2(u, x*c.Zoom+c.OffsetX, y*c.Zoom+c.OffsetY))

	band := len(c.Thresholds)
	for i, limit := range c.Thresholds {
		if n < limit {
			band = i
			break
		}
	}
	return c.Colors[band].Mul(f.Intensity)
}
