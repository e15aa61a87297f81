// Package loaders reads triangle meshes from OBJ and PLY files and builds
// procedural meshes, producing the flat vertex lists the pipeline consumes.
package loaders

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/df07/go-planet-rasterizer/pkg/core"
)

// defaultNormal is used for vertices whose mesh carries no usable normal
var defaultNormal = mgl32.Vec3{0, 1, 0}

// Mesh is an indexed triangle mesh. Normals and TexCoords are either empty or
// parallel to Positions.
type Mesh struct {
	Name      string
	Positions []mgl32.Vec3
	Normals   []mgl32.Vec3
	TexCoords []mgl32.Vec2
	Indices   []int // 3 per triangle
}

// TriangleCount returns the number of triangles in the mesh
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// GenerateNormals replaces Normals with the normalized sum of the unit face
// normals around each vertex. Degenerate faces contribute nothing.
func (m *Mesh) GenerateNormals() {
	normals := make([]mgl32.Vec3, len(m.Positions))
	for i := 0; i+2 < len(m.Indices); i += 3 {
		i0, i1, i2 := m.Indices[i], m.Indices[i+1], m.Indices[i+2]
		v0, v1, v2 := m.Positions[i0], m.Positions[i1], m.Positions[i2]

		n := v1.Sub(v0).Cross(v2.Sub(v0))
		if l := n.Len(); l > 0 {
			n = n.Mul(1 / l)
			normals[i0] = normals[i0].Add(n)
			normals[i1] = normals[i1].Add(n)
			normals[i2] = normals[i2].Add(n)
		}
	}
	for i, n := range normals {
		if l := n.Len(); l > 0 {
			normals[i] = n.Mul(1 / l)
		} else {
			normals[i] = defaultNormal
		}
	}
	m.Normals = normals
}

// Vertices expands the mesh into a flat vertex list, three per triangle.
// Missing normals default to +Y and missing texture coordinates to zero.
func (m *Mesh) Vertices() []core.Vertex {
	vertices := make([]core.Vertex, 0, len(m.Indices))
	for _, idx := range m.Indices {
		normal := defaultNormal
		if idx < len(m.Normals) {
			normal = m.Normals[idx]
		}
		var uv mgl32.Vec2
		if idx < len(m.TexCoords) {
			uv = m.TexCoords[idx]
		}
		vertices = append(vertices, core.NewVertex(m.Positions[idx], normal, uv))
	}
	return vertices
}

// Bounds returns the axis-aligned bounding box of the positions
func (m *Mesh) Bounds() (lo, hi mgl32.Vec3) {
	if len(m.Positions) == 0 {
		return lo, hi
	}
	lo, hi = m.Positions[0], m.Positions[0]
	for _, p := range m.Positions[1:] {
		for k := 0; k < 3; k++ {
			lo[k] = min(lo[k], p[k])
			hi[k] = max(hi[k], p[k])
		}
	}
	return lo, hi
}

func (m *Mesh) validate() error {
	if len(m.Indices)%3 != 0 {
		return fmt.Errorf("mesh %q: %d indices is not a multiple of 3", m.Name, len(m.Indices))
	}
	for _, idx := range m.Indices {
		if idx < 0 || idx >= len(m.Positions) {
			return fmt.Errorf("mesh %q: index %d out of range [0,%d)", m.Name, idx, len(m.Positions))
		}
	}
	if len(m.Normals) != 0 && len(m.Normals) != len(m.Positions) {
		return fmt.Errorf("mesh %q: %d normals for %d positions", m.Name, len(m.Normals), len(m.Positions))
	}
	return nil
}

// Model is a set of meshes loaded from one file
type Model struct {
	Meshes []*Mesh
}

// VertexArray concatenates the vertex lists of every mesh
func (m *Model) VertexArray() []core.Vertex {
	var vertices []core.Vertex
	for _, mesh := range m.Meshes {
		vertices = append(vertices, mesh.Vertices()...)
	}
	return vertices
}

// TriangleCount returns the number of triangles across all meshes
func (m *Model) TriangleCount() int {
	total := 0
	for _, mesh := range m.Meshes {
		total += mesh.TriangleCount()
	}
	return total
}

// Load reads a model, picking the format from the file extension
func Load(filename string) (*Model, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".obj":
		return LoadOBJ(filename)
	case ".ply":
		mesh, err := LoadPLY(filename)
		if err != nil {
			return nil, err
		}
		return &Model{Meshes: []*Mesh{mesh}}, nil
	default:
		return nil, fmt.Errorf("unsupported model format: %s", filename)
	}
}
