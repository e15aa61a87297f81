package scene

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-planet-rasterizer/pkg/renderer"
	"github.com/df07/go-planet-rasterizer/pkg/shader"
)

func TestSolarSystem_Layout(t *testing.T) {
	s := NewSolarSystemScene()

	require.Len(t, s.Bodies, 6)
	expectedShaders := []shader.ShaderType{shader.Lava, shader.Arid, shader.CrackedEarth, shader.Dalmata, shader.Crystal, shader.Water}
	for i, b := range s.Bodies {
		assert.Equal(t, expectedShaders[i], b.Shader, "body %d", i)
		assert.Equal(t, float32(1), b.Scale)
		if i == 0 {
			assert.Zero(t, b.OrbitRadius, "the sun stays put")
			continue
		}
		radius := float32(5 + 5*(i-1))
		assert.Equal(t, radius, b.OrbitRadius)
		assert.InDelta(t, 4/radius, b.OrbitSpeed, 1e-6)
	}

	assert.Equal(t, uint32(0x333355), s.Background)
	assert.Equal(t, [3]float32{0, 0, 25}, s.Camera.Eye)
	assert.Equal(t, int64(1337), s.Noise.Seed)
}

func TestSolarSystem_Motion(t *testing.T) {
	s := NewSolarSystemScene()

	tests := []struct {
		body      int
		frameTime uint32
	}{
		{0, 0},
		{0, 500},
		{1, 0},
		{1, 123},
		{3, 1000},
		{5, 4321},
	}

	for _, tt := range tests {
		position, rotation := s.BodyTransform(tt.body, tt.frameTime)

		ft := float64(tt.frameTime)
		spin := ft*0.01 + float64(tt.body)*math.Pi/4
		assert.InDelta(t, spin, float64(rotation.Y()), 1e-4, "spin of body %d at %d", tt.body, tt.frameTime)
		assert.Zero(t, rotation.X())
		assert.Zero(t, rotation.Z())

		if tt.body == 0 {
			assert.Equal(t, mgl32.Vec3{}, position)
			continue
		}
		radius := 5 + 5*float64(tt.body-1)
		angle := ft * 0.01 * (4 / radius)
		assert.InDelta(t, radius*math.Cos(angle), float64(position.X()), 1e-3)
		assert.Zero(t, position.Y())
		assert.InDelta(t, radius*math.Sin(angle), float64(position.Z()), 1e-3)
	}
}

func TestScene_Drawables(t *testing.T) {
	s := NewSolarSystemScene()
	drawables := s.Drawables(250)

	require.Len(t, drawables, len(s.Bodies))
	for i, d := range drawables {
		assert.Equal(t, s.Bodies[i].Name, d.Name)
		assert.Equal(t, s.Bodies[i].Shader, d.Shader)
		assert.NotEmpty(t, d.Vertices)
		assert.Zero(t, len(d.Vertices)%3)

		// The model matrix carries the body position in its last column
		position, _ := s.BodyTransform(i, 250)
		assert.True(t, d.Model.Col(3).Vec3().ApproxEqualThreshold(position, 1e-4))
	}
	assert.Equal(t, len(drawables[0].Vertices)/3*len(drawables), s.TriangleCount())
}

func TestScene_FrameConfigAndCamera(t *testing.T) {
	s := NewSolarSystemScene(renderer.CameraConfig{Eye: [3]float32{0, 10, 30}})

	camera := s.NewCamera()
	assert.Equal(t, mgl32.Vec3{0, 10, 30}, camera.Eye)
	assert.Equal(t, mgl32.Vec3{0, 1, 0}, camera.Up, "unset fields keep the default")

	cfg := s.FrameConfig(renderer.DefaultFrameConfig())
	assert.Equal(t, uint32(0x333355), cfg.Background.Hex())
	assert.NotNil(t, s.NewNoise())
}

func TestCreate(t *testing.T) {
	for _, id := range BuiltinIDs() {
		t.Run(id, func(t *testing.T) {
			s, err := Create(id)
			require.NoError(t, err)
			assert.NotEmpty(t, s.Bodies)
			assert.NotEmpty(t, s.Drawables(0)[0].Vertices)
		})
	}

	s, err := Create("")
	require.NoError(t, err)
	assert.Equal(t, "Solar System", s.Name)

	s, err = Create("planet:Cracked-Earth")
	require.NoError(t, err)
	assert.Equal(t, shader.CrackedEarth, s.Bodies[0].Shader)

	_, err = Create("andromeda")
	assert.True(t, errors.Is(err, ErrUnknownScene))

	_, err = Create("planet:gas_giant")
	assert.True(t, errors.Is(err, ErrUnknownScene))
	assert.True(t, errors.Is(err, shader.ErrUnknownShader))
}

func TestBuiltinIDs(t *testing.T) {
	ids := BuiltinIDs()
	assert.Equal(t, DefaultSceneName, ids[0])
	assert.Len(t, ids, 2+len(shader.AllShaderTypes()))
	assert.Contains(t, ids, "planet:lava")
}

func TestCreate_ReturnsIndependentCopies(t *testing.T) {
	a, err := Create("showcase")
	require.NoError(t, err)
	b, err := Create("showcase")
	require.NoError(t, err)

	a.Bodies[0].Scale = 3
	assert.Equal(t, float32(1), b.Bodies[0].Scale)
}

func TestPreprocess_Errors(t *testing.T) {
	camera := renderer.CameraConfig{Eye: [3]float32{0, 0, 5}}
	tests := []struct {
		name  string
		scene Scene
	}{
		{"no bodies", Scene{Camera: camera}},
		{"degenerate camera", Scene{Bodies: []Body{{Shader: shader.Lava}}}},
		{"negative scale", Scene{Camera: camera, Bodies: []Body{{Shader: shader.Lava, Scale: -1}}}},
		{"unknown shader", Scene{Camera: camera, Bodies: []Body{{Shader: shader.ShaderType(99)}}}},
		{"missing mesh", Scene{Camera: camera, Bodies: []Body{{Shader: shader.Lava, Mesh: "missing.obj"}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.scene
			assert.Error(t, s.Preprocess(t.TempDir()))
		})
	}
}

func TestPreprocess_LoadsMeshRelativeToBaseDir(t *testing.T) {
	dir := t.TempDir()
	obj := "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tri.obj"), []byte(obj), 0644))

	s := &Scene{
		Camera: renderer.CameraConfig{Eye: [3]float32{0, 0, 5}},
		Bodies: []Body{
			{Name: "a", Shader: shader.Water, Mesh: "tri.obj"},
			{Name: "b", Shader: shader.Lava, Mesh: "tri.obj", OrbitRadius: 2},
		},
	}
	require.NoError(t, s.Preprocess(dir))

	assert.Equal(t, 2, s.TriangleCount())
	assert.Equal(t, float32(1), s.Bodies[0].Scale)
	assert.Equal(t, DefaultTimeScale, s.TimeScale)
	assert.InDelta(t, DefaultSpeedMultiplier/2, s.Bodies[1].OrbitSpeed, 1e-6)
}
