// Package noise provides the seeded OpenSimplex source handed to shaders
package noise

import (
	"github.com/ojrac/opensimplex-go"

	"github.com/df07/go-planet-rasterizer/pkg/core"
)

const (
	DefaultSeed      = 1337
	DefaultFrequency = 0.01
)

// Config selects the seed and the coordinate frequency of a Generator
type Config struct {
	Seed      int64   `yaml:"seed" toml:"seed" json:"seed"`
	Frequency float32 `yaml:"frequency" toml:"frequency" json:"frequency"`
}

// DefaultConfig matches the noise the planet shaders were tuned against
func DefaultConfig() Config {
	return Config{Seed: DefaultSeed, Frequency: DefaultFrequency}
}

// Generator samples OpenSimplex noise with its inputs scaled by Frequency.
// The permutation tables are read-only after construction, so a Generator is
// safe for concurrent use.
type Generator struct {
	src       opensimplex.Noise
	frequency float64
}

var _ core.Noise = (*Generator)(nil)

// New creates a generator from cfg. A zero frequency means DefaultFrequency.
func New(cfg Config) *Generator {
	freq := cfg.Frequency
	if freq == 0 {
		freq = DefaultFrequency
	}
	return &Generator{
		src:       opensimplex.New(cfg.Seed),
		frequency: float64(freq),
	}
}

// NewDefault creates a generator with DefaultConfig
func NewDefault() *Generator {
	return New(DefaultConfig())
}

// Noise2 returns 2D noise in roughly [-1, 1]
func (g *Generator) Noise2(x, y float32) float32 {
	return float32(g.src.Eval2(float64(x)*g.frequency, float64(y)*g.frequency))
}

// Noise3 returns 3D noise in roughly [-1, 1]
func (g *Generator) Noise3(x, y, z float32) float32 {
	return float32(g.src.Eval3(
		float64(x)*g.frequency,
		float64(y)*g.frequency,
		float64(z)*g.frequency,
	))
}
