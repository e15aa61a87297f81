package scene

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/df07/go-planet-rasterizer/pkg/core"
	"github.com/df07/go-planet-rasterizer/pkg/loaders"
	"github.com/df07/go-planet-rasterizer/pkg/noise"
)

// Format is a scene file encoding
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
)

// FormatFromPath picks the format from the file extension
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported scene file extension: %s", path)
	}
}

// IsSceneFile reports whether path has a scene file extension
func IsSceneFile(path string) bool {
	_, err := FormatFromPath(path)
	return err == nil
}

// LoadFile reads a scene file. Meshes are resolved relative to the file.
func LoadFile(path string) (*Scene, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scene file: %w", err)
	}

	s, err := Parse(data, format, filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if s.Name == "" {
		name := filepath.Base(path)
		s.Name = titleCase(strings.TrimSuffix(name, filepath.Ext(name)))
	}
	return s, nil
}

// Parse decodes a scene and preprocesses it. Fields the file leaves out keep
// the solar system's background, camera and noise.
func Parse(data []byte, format Format, baseDir string) (*Scene, error) {
	s := &Scene{
		Background: DefaultBackground,
		Camera:     solarSystemCamera(),
		Noise:      noise.DefaultConfig(),
	}

	if err := decode(data, format, s); err != nil {
		return nil, err
	}
	if err := s.Preprocess(baseDir); err != nil {
		return nil, err
	}
	return s, nil
}

func decode(data []byte, format Format, s *Scene) error {
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(s); err != nil {
			return fmt.Errorf("invalid YAML scene: %w", err)
		}
	case FormatTOML:
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(s); err != nil {
			var serr *toml.StrictMissingError
			if errors.As(err, &serr) {
				return fmt.Errorf("invalid TOML scene: %w\n%s", err, serr.String())
			}
			var derr *toml.DecodeError
			if errors.As(err, &derr) {
				row, col := derr.Position()
				return fmt.Errorf("invalid TOML scene at line %d, column %d: %w", row, col, err)
			}
			return fmt.Errorf("invalid TOML scene: %w", err)
		}
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(s); err != nil {
			return fmt.Errorf("invalid JSON scene: %w", err)
		}
	default:
		return fmt.Errorf("unsupported scene format %q", format)
	}
	return nil
}

// Encode writes s in the given format
func Encode(s *Scene, format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FormatTOML:
		return toml.Marshal(s)
	case FormatJSON:
		return json.MarshalIndent(s, "", "  ")
	default:
		return nil, fmt.Errorf("unsupported scene format %q", format)
	}
}

// Resolve returns a scene by built-in id or by file path
func Resolve(nameOrPath string) (*Scene, error) {
	if IsSceneFile(nameOrPath) {
		return LoadFile(nameOrPath)
	}
	return Create(nameOrPath)
}

// loadMesh returns the vertices of a mesh reference: the procedural sphere
// or a model file.
func loadMesh(name, baseDir string) ([]core.Vertex, error) {
	if name == SphereMesh {
		return sphereVertices(), nil
	}

	path := name
	if !filepath.IsAbs(path) && baseDir != "" {
		path = filepath.Join(baseDir, path)
	}
	model, err := loaders.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load mesh: %w", err)
	}
	return model.VertexArray(), nil
}
