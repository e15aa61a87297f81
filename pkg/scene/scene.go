// Package scene describes what gets drawn each frame: the bodies, where they
// sit and spin at a given frame time, the shader each one wears and the
// starting camera.
package scene

import (
	"fmt"
	"sync"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/df07/go-planet-rasterizer/pkg/core"
	"github.com/df07/go-planet-rasterizer/pkg/loaders"
	"github.com/df07/go-planet-rasterizer/pkg/noise"
	"github.com/df07/go-planet-rasterizer/pkg/renderer"
	"github.com/df07/go-planet-rasterizer/pkg/shader"
	"github.com/df07/go-planet-rasterizer/pkg/transform"
)

const (
	// DefaultBackground is the deep blue behind the planets
	DefaultBackground uint32 = 0x333355
	// DefaultTimeScale converts frame counts into radians of motion
	DefaultTimeScale float32 = 0.01
	// DefaultSpeedMultiplier gives orbital speed = multiplier / radius
	DefaultSpeedMultiplier float32 = 4
	// SphereMesh names the procedural sphere in Body.Mesh
	SphereMesh = "sphere"
)

// Body is a mesh placed in the scene. A body with a positive OrbitRadius
// circles Position in the XZ plane; otherwise it stays at Position. Every
// body spins about its Y axis.
type Body struct {
	Name        string            `yaml:"name" toml:"name" json:"name"`
	Shader      shader.ShaderType `yaml:"shader" toml:"shader" json:"shader"`
	Mesh        string            `yaml:"mesh,omitempty" toml:"mesh,omitempty" json:"mesh,omitempty"`
	Position    [3]float32        `yaml:"position" toml:"position" json:"position"`
	Scale       float32           `yaml:"scale,omitempty" toml:"scale,omitempty" json:"scale,omitempty"`
	OrbitRadius float32           `yaml:"orbit_radius,omitempty" toml:"orbit_radius,omitempty" json:"orbitRadius,omitempty"`
	OrbitSpeed  float32           `yaml:"orbit_speed,omitempty" toml:"orbit_speed,omitempty" json:"orbitSpeed,omitempty"`
	OrbitPhase  float32           `yaml:"orbit_phase,omitempty" toml:"orbit_phase,omitempty" json:"orbitPhase,omitempty"`
	SpinRate    float32           `yaml:"spin_rate,omitempty" toml:"spin_rate,omitempty" json:"spinRate,omitempty"`
	SpinPhase   float32           `yaml:"spin_phase,omitempty" toml:"spin_phase,omitempty" json:"spinPhase,omitempty"`
	Tilt        [3]float32        `yaml:"tilt,omitempty" toml:"tilt,omitempty" json:"tilt,omitempty"`
}

// Scene is a set of bodies with the camera, background and noise to draw them with
type Scene struct {
	Name            string                `yaml:"name" toml:"name" json:"name"`
	Description     string                `yaml:"description,omitempty" toml:"description,omitempty" json:"description,omitempty"`
	Group           string                `yaml:"group,omitempty" toml:"group,omitempty" json:"group,omitempty"`
	Background      uint32                `yaml:"background" toml:"background" json:"background"`
	TimeScale       float32               `yaml:"time_scale,omitempty" toml:"time_scale,omitempty" json:"timeScale,omitempty"`
	SpeedMultiplier float32               `yaml:"speed_multiplier,omitempty" toml:"speed_multiplier,omitempty" json:"speedMultiplier,omitempty"`
	Camera          renderer.CameraConfig `yaml:"camera" toml:"camera" json:"camera"`
	Noise           noise.Config          `yaml:"noise" toml:"noise" json:"noise"`
	Bodies          []Body                `yaml:"bodies" toml:"bodies" json:"bodies"`

	// Mesh vertices by Body.Mesh, filled by Preprocess
	meshes map[string][]core.Vertex
}

var _ renderer.FrameSource = (*Scene)(nil)

var sphereVertices = sync.OnceValue(func() []core.Vertex {
	return loaders.DefaultSphere().Vertices()
})

// Preprocess fills in defaults, validates the bodies and loads every mesh
// they reference. Relative mesh paths are resolved against baseDir.
func (s *Scene) Preprocess(baseDir string) error {
	if s.TimeScale == 0 {
		s.TimeScale = DefaultTimeScale
	}
	if s.SpeedMultiplier == 0 {
		s.SpeedMultiplier = DefaultSpeedMultiplier
	}
	if s.Noise.Frequency == 0 {
		s.Noise.Frequency = noise.DefaultFrequency
	}
	if s.Camera.Eye == s.Camera.Center {
		return fmt.Errorf("scene %q: camera eye and center coincide", s.Name)
	}
	if len(s.Bodies) == 0 {
		return fmt.Errorf("scene %q has no bodies", s.Name)
	}

	s.meshes = make(map[string][]core.Vertex)
	for i := range s.Bodies {
		b := &s.Bodies[i]
		if b.Name == "" {
			b.Name = fmt.Sprintf("body%d", i)
		}
		if b.Shader < 0 || int(b.Shader) >= len(shader.AllShaderTypes()) {
			return fmt.Errorf("body %q: %w: %v", b.Name, shader.ErrUnknownShader, b.Shader)
		}
		if b.Scale < 0 || b.OrbitRadius < 0 {
			return fmt.Errorf("body %q: scale and orbit radius must not be negative", b.Name)
		}
		if b.Scale == 0 {
			b.Scale = 1
		}
		if b.OrbitRadius > 0 && b.OrbitSpeed == 0 {
			b.OrbitSpeed = s.SpeedMultiplier / b.OrbitRadius
		}
		if b.Mesh == "" {
			b.Mesh = SphereMesh
		}

		if _, ok := s.meshes[b.Mesh]; ok {
			continue
		}
		vertices, err := loadMesh(b.Mesh, baseDir)
		if err != nil {
			return fmt.Errorf("body %q: %w", b.Name, err)
		}
		s.meshes[b.Mesh] = vertices
	}
	return nil
}

// BodyTransform returns the world position and rotation of body i at frameTime
func (s *Scene) BodyTransform(i int, frameTime uint32) (position, rotation mgl32.Vec3) {
	b := s.Bodies[i]
	t := float32(frameTime) * s.TimeScale

	position = mgl32.Vec3(b.Position)
	if b.OrbitRadius > 0 {
		angle := t*b.OrbitSpeed + b.OrbitPhase
		sin, cos := math32.Sincos(angle)
		position = position.Add(mgl32.Vec3{b.OrbitRadius * cos, 0, b.OrbitRadius * sin})
	}

	spinRate := b.SpinRate
	if spinRate == 0 {
		spinRate = 1
	}
	rotation = mgl32.Vec3{b.Tilt[0], b.Tilt[1] + t*spinRate + b.SpinPhase, b.Tilt[2]}
	return position, rotation
}

// Drawables returns every body placed at frameTime, in declaration order
func (s *Scene) Drawables(frameTime uint32) []renderer.Drawable {
	drawables := make([]renderer.Drawable, 0, len(s.Bodies))
	for i, b := range s.Bodies {
		position, rotation := s.BodyTransform(i, frameTime)
		drawables = append(drawables, renderer.Drawable{
			Name:     b.Name,
			Vertices: s.meshes[b.Mesh],
			Model:    transform.CreateModelMatrix(position, b.Scale, rotation),
			Shader:   b.Shader,
		})
	}
	return drawables
}

// NewCamera returns a camera at the scene's starting pose
func (s *Scene) NewCamera() *renderer.Camera {
	return renderer.NewCameraFromConfig(s.Camera)
}

// NewNoise returns the scene's noise generator
func (s *Scene) NewNoise() core.Noise {
	return noise.New(s.Noise)
}

// FrameConfig returns base with the scene background applied
func (s *Scene) FrameConfig(base renderer.FrameConfig) renderer.FrameConfig {
	base.Background = core.ColorFromHex(s.Background)
	return base
}

// TriangleCount returns the number of triangles drawn per frame
func (s *Scene) TriangleCount() int {
	total := 0
	for _, b := range s.Bodies {
		total += len(s.meshes[b.Mesh]) / 3
	}
	return total
}
