package scene

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/chewxy/math32"

	"github.com/df07/go-planet-rasterizer/pkg/noise"
	"github.com/df07/go-planet-rasterizer/pkg/renderer"
	"github.com/df07/go-planet-rasterizer/pkg/shader"
)

// ErrUnknownScene is returned when a name matches no built-in scene
var ErrUnknownScene = errors.New("unknown scene")

// DefaultSceneName is the scene used when none is requested
const DefaultSceneName = "solar-system"

// planetPrefix selects a single-planet scene, e.g. "planet:lava"
const planetPrefix = "planet:"

// Orbit layout of the solar system
const (
	solarBaseDistance      float32 = 5
	solarDistanceIncrement float32 = 5
)

const (
	solarSystemDescription = "Lava sun circled by five planets on widening orbits"
	showcaseDescription    = "Every planet shader side by side"
)

// builtinScene describes a scene constructor for listing
type builtinScene struct {
	id          string
	name        string
	description string
	create      func(cameraOverrides ...renderer.CameraConfig) *Scene
}

var builtinScenes = []builtinScene{
	{
		id:          DefaultSceneName,
		name:        "Solar System",
		description: solarSystemDescription,
		create:      NewSolarSystemScene,
	},
	{
		id:          "showcase",
		name:        "Shader Showcase",
		description: showcaseDescription,
		create:      NewShowcaseScene,
	},
}

// NewSolarSystemScene creates the default scene: a fixed lava planet at the
// origin with arid, cracked earth, dalmata, crystal and water planets orbiting
// it at radius 5, 10, 15, 20 and 25.
func NewSolarSystemScene(cameraOverrides ...renderer.CameraConfig) *Scene {
	cameraConfig := solarSystemCamera()
	if len(cameraOverrides) > 0 {
		cameraConfig = mergeCameraConfig(cameraConfig, cameraOverrides[0])
	}

	s := &Scene{
		Name:            "Solar System",
		Description:     solarSystemDescription,
		Group:           builtinGroup,
		Background:      DefaultBackground,
		TimeScale:       DefaultTimeScale,
		SpeedMultiplier: DefaultSpeedMultiplier,
		Camera:          cameraConfig,
		Noise:           noise.DefaultConfig(),
	}

	planets := []struct {
		name   string
		shader shader.ShaderType
	}{
		{"sun", shader.Lava},
		{"arid", shader.Arid},
		{"earth", shader.CrackedEarth},
		{"dalmata", shader.Dalmata},
		{"crystal", shader.Crystal},
		{"ocean", shader.Water},
	}

	for i, p := range planets {
		body := Body{
			Name:      p.name,
			Shader:    p.shader,
			Mesh:      SphereMesh,
			Scale:     1,
			SpinPhase: float32(i) * math32.Pi / 4,
		}
		if i > 0 {
			body.OrbitRadius = solarBaseDistance + float32(i-1)*solarDistanceIncrement
			body.OrbitSpeed = DefaultSpeedMultiplier / body.OrbitRadius
		}
		s.Bodies = append(s.Bodies, body)
	}

	mustPreprocess(s)
	return s
}

// solarSystemCamera looks at the origin from 25 units down +Z
func solarSystemCamera() renderer.CameraConfig {
	return renderer.CameraConfig{
		Eye:    [3]float32{0, 0, 25},
		Center: [3]float32{0, 0, 0},
		Up:     [3]float32{0, 1, 0},
	}
}

// NewShowcaseScene lays every shader out on a two-row grid facing the camera
func NewShowcaseScene(cameraOverrides ...renderer.CameraConfig) *Scene {
	cameraConfig := renderer.CameraConfig{
		Eye:    [3]float32{0, 0, 16},
		Center: [3]float32{0, 0, 0},
		Up:     [3]float32{0, 1, 0},
	}
	if len(cameraOverrides) > 0 {
		cameraConfig = mergeCameraConfig(cameraConfig, cameraOverrides[0])
	}

	s := &Scene{
		Name:        "Shader Showcase",
		Description: showcaseDescription,
		Group:       builtinGroup,
		Background:  DefaultBackground,
		Camera:      cameraConfig,
		Noise:       noise.DefaultConfig(),
	}

	const perRow = 5
	const spacing = 2.6
	types := shader.AllShaderTypes()
	for i, st := range types {
		row, col := i/perRow, i%perRow
		s.Bodies = append(s.Bodies, Body{
			Name:      st.String(),
			Shader:    st,
			Mesh:      SphereMesh,
			Position:  [3]float32{(float32(col) - (perRow-1)/2.0) * spacing, (0.5 - float32(row)) * spacing, 0},
			SpinPhase: float32(i) * math32.Pi / 4,
		})
	}

	mustPreprocess(s)
	return s
}

// NewPlanetScene shows a single planet with the given shader up close
func NewPlanetScene(st shader.ShaderType, cameraOverrides ...renderer.CameraConfig) *Scene {
	cameraConfig := renderer.CameraConfig{
		Eye:    [3]float32{0, 0, 4},
		Center: [3]float32{0, 0, 0},
		Up:     [3]float32{0, 1, 0},
	}
	if len(cameraOverrides) > 0 {
		cameraConfig = mergeCameraConfig(cameraConfig, cameraOverrides[0])
	}

	s := &Scene{
		Name:        fmt.Sprintf("Planet: %s", titleCase(st.String())),
		Description: fmt.Sprintf("A single planet with the %s shader", st),
		Group:       planetGroup,
		Background:  DefaultBackground,
		Camera:      cameraConfig,
		Noise:       noise.DefaultConfig(),
		Bodies: []Body{{
			Name:   st.String(),
			Shader: st,
			Mesh:   SphereMesh,
		}},
	}

	mustPreprocess(s)
	return s
}

// Create returns a fresh copy of a built-in scene by id. Besides the ids of
// the listed scenes it accepts "planet:<shader>".
func Create(id string, cameraOverrides ...renderer.CameraConfig) (*Scene, error) {
	if id == "" {
		id = DefaultSceneName
	}
	for _, b := range builtinScenes {
		if b.id == id {
			return b.create(cameraOverrides...), nil
		}
	}
	if name, ok := strings.CutPrefix(id, planetPrefix); ok {
		st, err := shader.ParseShaderType(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrUnknownScene, id, err)
		}
		return NewPlanetScene(st, cameraOverrides...), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownScene, id)
}

// BuiltinIDs returns the id of every built-in scene, planets last
func BuiltinIDs() []string {
	ids := make([]string, 0, len(builtinScenes)+len(shader.AllShaderTypes()))
	for _, b := range builtinScenes {
		ids = append(ids, b.id)
	}
	var planets []string
	for _, st := range shader.AllShaderTypes() {
		planets = append(planets, planetPrefix+st.String())
	}
	sort.Strings(planets)
	return append(ids, planets...)
}

// mergeCameraConfig overlays the non-zero fields of override onto base
func mergeCameraConfig(base, override renderer.CameraConfig) renderer.CameraConfig {
	result := base
	var zero [3]float32
	if override.Eye != zero {
		result.Eye = override.Eye
	}
	if override.Center != zero {
		result.Center = override.Center
	}
	if override.Up != zero {
		result.Up = override.Up
	}
	return result
}

// mustPreprocess finishes a built-in scene. Built-ins only reference the
// procedural sphere, so failure is a programming error.
func mustPreprocess(s *Scene) {
	if err := s.Preprocess(""); err != nil {
		panic(fmt.Sprintf("built-in scene %q: %v", s.Name, err))
	}
}
