package scene

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-planet-rasterizer/pkg/shader"
)

const yamlScene = `
name: Twins
background: 0x102030
camera:
  eye: [0, 2, 10]
bodies:
  - name: a
    shader: water
    position: [-2, 0, 0]
  - name: b
    shader: cracked-earth
    orbit_radius: 4
`

const tomlScene = `
name = "Twins"
background = 0x102030

[camera]
eye = [0.0, 2.0, 10.0]

[[bodies]]
name = "a"
shader = "water"
position = [-2.0, 0.0, 0.0]

[[bodies]]
name = "b"
shader = "cracked_earth"
orbit_radius = 4.0
`

func checkTwins(t *testing.T, s *Scene) {
	t.Helper()
	assert.Equal(t, "Twins", s.Name)
	assert.Equal(t, uint32(0x102030), s.Background)
	assert.Equal(t, [3]float32{0, 2, 10}, s.Camera.Eye)
	assert.Equal(t, [3]float32{0, 1, 0}, s.Camera.Up, "camera fields left out keep the default")
	assert.Equal(t, int64(1337), s.Noise.Seed)

	require.Len(t, s.Bodies, 2)
	assert.Equal(t, shader.Water, s.Bodies[0].Shader)
	assert.Equal(t, [3]float32{-2, 0, 0}, s.Bodies[0].Position)
	assert.Equal(t, shader.CrackedEarth, s.Bodies[1].Shader)
	assert.InDelta(t, 1.0, s.Bodies[1].OrbitSpeed, 1e-6)
	assert.Equal(t, SphereMesh, s.Bodies[1].Mesh)
}

func TestParse_Formats(t *testing.T) {
	s, err := Parse([]byte(yamlScene), FormatYAML, "")
	require.NoError(t, err)
	checkTwins(t, s)

	s, err = Parse([]byte(tomlScene), FormatTOML, "")
	require.NoError(t, err)
	checkTwins(t, s)
}

func TestEncode_RoundTrip(t *testing.T) {
	original := NewShowcaseScene()
	for _, format := range []Format{FormatYAML, FormatTOML, FormatJSON} {
		t.Run(string(format), func(t *testing.T) {
			data, err := Encode(original, format)
			require.NoError(t, err)

			decoded, err := Parse(data, format, "")
			require.NoError(t, err)
			assert.Equal(t, original.Name, decoded.Name)
			assert.Equal(t, original.Bodies, decoded.Bodies)
			assert.Equal(t, original.Camera, decoded.Camera)
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		format  Format
		data    string
		message string
	}{
		{"unknown yaml field", FormatYAML, "name: x\ncolour: red\nbodies: [{shader: lava}]\n", "colour"},
		{"unknown shader", FormatYAML, "bodies: [{shader: plasma}]\n", "unknown shader"},
		{"bad toml", FormatTOML, "name = \n", "line 1"},
		{"unknown toml field", FormatTOML, "flavor = 1\n[[bodies]]\nshader = \"lava\"\n", "flavor"},
		{"no bodies", FormatJSON, `{"name": "empty"}`, "no bodies"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data), tt.format, "")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestLoadFile_NameFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lonely-planet.yml")
	require.NoError(t, os.WriteFile(path, []byte("bodies: [{shader: arid}]\n"), 0644))

	s, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Lonely Planet", s.Name)

	_, err = LoadFile(filepath.Join(dir, "scene.txt"))
	assert.Error(t, err)
}

func TestResolve(t *testing.T) {
	s, err := Resolve("showcase")
	require.NoError(t, err)
	assert.Equal(t, "Shader Showcase", s.Name)

	dir := t.TempDir()
	path := filepath.Join(dir, "twins.toml")
	require.NoError(t, os.WriteFile(path, []byte(tomlScene), 0644))
	s, err = Resolve(path)
	require.NoError(t, err)
	assert.Equal(t, "Twins", s.Name)
}

func TestBundledScenesLoad(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("..", "..", "scenes", "*"))
	require.NoError(t, err)

	loaded := 0
	for _, path := range files {
		if !IsSceneFile(path) {
			continue
		}
		_, err := LoadFile(path)
		assert.NoError(t, err, path)
		loaded++
	}
	assert.Positive(t, loaded)
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "watched.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlScene), 0644))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	reloaded := make(chan *Scene, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, 20*time.Millisecond, func(s *Scene, err error) {
			if err == nil {
				reloaded <- s
			}
		})
	}()

	// Keep rewriting until the watcher is up and reports the change
	updated := strings.Replace(yamlScene, "Twins", "Triplets", 1)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case s := <-reloaded:
			assert.Equal(t, "Triplets", s.Name)
			cancel()
			assert.ErrorIs(t, <-done, context.Canceled)
			return
		case <-ticker.C:
			require.NoError(t, os.WriteFile(path, []byte(updated), 0644))
		case <-ctx.Done():
			t.Fatal("Timed out waiting for reload")
		}
	}
}

func TestWatch_RejectsNonSceneFile(t *testing.T) {
	err := Watch(context.Background(), "notes.txt", 0, func(*Scene, error) {})
	assert.Error(t, err)
}
