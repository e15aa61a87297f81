// Package shader holds the procedural fragment shaders used to color planets.
//
// Every variant samples the uniform noise source at scaled and offset
// shading-space coordinates, picks or blends palette colors from the result
// and finally scales by the fragment's light intensity. The constants of each
// variant live in its Config struct so they can be inspected and overridden.
package shader

import (
	"errors"
	"fmt"
	"strings"

	"github.com/df07/go-planet-rasterizer/pkg/core"
)

// ErrUnknownShader is returned when a shader name does not match any variant
var ErrUnknownShader = errors.New("unknown shader")

// Shader colors a single fragment. Implementations are pure and safe for
// concurrent use.
type Shader interface {
	Shade(f core.Fragment, u *core.Uniforms) core.Color
}

// ShaderType selects one of the built-in shader variants
type ShaderType int

const (
	Mercury ShaderType = iota
	CrackedEarth
	BlackAndWhite
	Dalmata
	Cloud
	Cellular
	Lava
	Water
	Crystal
	Arid
)

var shaderNames = [...]string{
	Mercury:       "mercury",
	CrackedEarth:  "cracked_earth",
	BlackAndWhite: "black_and_white",
	Dalmata:       "dalmata",
	Cloud:         "cloud",
	Cellular:      "cellular",
	Lava:          "lava",
	Water:         "water",
	Crystal:       "crystal",
	Arid:          "arid",
}

// AllShaderTypes returns every variant in declaration order
func AllShaderTypes() []ShaderType {
	types := make([]ShaderType, len(shaderNames))
	for i := range shaderNames {
		types[i] = ShaderType(i)
	}
	return types
}

func (t ShaderType) String() string {
	if t < 0 || int(t) >= len(shaderNames) {
		return fmt.Sprintf("ShaderType(%d)", int(t))
	}
	return shaderNames[t]
}

// ParseShaderType converts a name such as "lava" or "cracked-earth" to its
// variant. Matching ignores case and treats '-' and ' ' like '_'.
func ParseShaderType(name string) (ShaderType, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	normalized = strings.NewReplacer("-", "_", " ", "_").Replace(normalized)
	for i, n := range shaderNames {
		if n == normalized {
			return ShaderType(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownShader, name)
}

// MarshalText implements encoding.TextMarshaler so scene files can name shaders
func (t ShaderType) MarshalText() ([]byte, error) {
	if t < 0 || int(t) >= len(shaderNames) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownShader, int(t))
	}
	return []byte(shaderNames[t]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (t *ShaderType) UnmarshalText(text []byte) error {
	parsed, err := ParseShaderType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// New returns the variant configured with its default constants
func New(t ShaderType) (Shader, error) {
	switch t {
	case Mercury:
		return DefaultMercuryConfig(), nil
	case CrackedEarth:
		return DefaultCrackedEarthConfig(), nil
	case BlackAndWhite:
		return DefaultBlackAndWhiteConfig(), nil
	case Dalmata:
		return DefaultDalmataConfig(), nil
	case Cloud:
		return DefaultCloudConfig(), nil
	case Cellular:
		return DefaultCellularConfig(), nil
	case Lava:
		return DefaultLavaConfig(), nil
	case Water:
		return DefaultWaterConfig(), nil
	case Crystal:
		return DefaultCrystalConfig(), nil
	case Arid:
		return DefaultAridConfig(), nil
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownShader, int(t))
}

// Built once; every config is a value type so sharing is safe.
var defaults = func() []Shader {
	shaders := make([]Shader, len(shaderNames))
	for _, t := range AllShaderTypes() {
		s, err := New(t)
		if err != nil {
			panic(err)
		}
		shaders[t] = s
	}
	return shaders
}()

// Resolve returns the default-configured shader for t. An unknown variant
// resolves to cracked earth, the same as FragmentShader.
func Resolve(t ShaderType) Shader {
	if t < 0 || int(t) >= len(defaults) {
		return defaults[CrackedEarth]
	}
	return defaults[t]
}

// ApplyShader colors f with the default configuration of variant t
func ApplyShader(f core.Fragment, u *core.Uniforms, t ShaderType) core.Color {
	return Resolve(t).Shade(f, u)
}

// FragmentShader is the shader used when a drawable does not pick one
func FragmentShader(f core.Fragment, u *core.Uniforms) core.Color {
	return defaults[CrackedEarth].Shade(f, u)
}

func noise2(u *core.Uniforms, x, y float32) float32 {
	if u == nil || u.Noise == nil {
		return 0
	}
	return u.Noise.Noise2(x, y)
}

func noise3(u *core.Uniforms, x, y, z float32) float32 {
	if u == nil || u.Noise == nil {
		return 0
	}
	return u.Noise.Noise3(x, y, z)
}

func frameTime(u *core.Uniforms) float32 {
	if u == nil {
		return 0
	}
	return u.FrameTime()
}
