package loaders

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// objCorner is one "v/vt/vn" reference of a face, as 0-based indices.
// Missing texture or normal references are -1.
type objCorner struct {
	v, vt, vn int
}

// objBuilder collects the de-indexed mesh of the current object/group
type objBuilder struct {
	mesh       *Mesh
	corners    map[objCorner]int
	missingVN  bool
	hasAnyFace bool
}

func newOBJBuilder(name string) *objBuilder {
	return &objBuilder{
		mesh:    &Mesh{Name: name},
		corners: make(map[objCorner]int),
	}
}

// LoadOBJ loads a Wavefront OBJ file. Faces are fan-triangulated, each
// object or group becomes its own mesh, texture v is flipped to 1-v and
// normals are generated for meshes that do not provide them.
func LoadOBJ(filename string) (*Model, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open OBJ file: %w", err)
	}
	defer file.Close()

	model, err := ParseOBJ(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return model, nil
}

// ParseOBJ parses OBJ data from r
func ParseOBJ(r io.Reader) (*Model, error) {
	var positions, normals []mgl32.Vec3
	var texCoords []mgl32.Vec2

	model := &Model{}
	current := newOBJBuilder("default")

	flush := func() {
		if current.hasAnyFace {
			model.Meshes = append(model.Meshes, current.finish())
		}
	}

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = strings.TrimSpace(line[:i])
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "v":
			p, err := parseFloats(fields[1:], 3)
			if err != nil {
				return nil, fmt.Errorf("line %d: vertex: %w", lineNo, err)
			}
			positions = append(positions, mgl32.Vec3{p[0], p[1], p[2]})
		case "vn":
			n, err := parseFloats(fields[1:], 3)
			if err != nil {
				return nil, fmt.Errorf("line %d: normal: %w", lineNo, err)
			}
			normals = append(normals, mgl32.Vec3{n[0], n[1], n[2]})
		case "vt":
			uv, err := parseFloats(fields[1:], 1)
			if err != nil {
				return nil, fmt.Errorf("line %d: texture coordinate: %w", lineNo, err)
			}
			v := float32(0)
			if len(uv) > 1 {
				v = uv[1]
			}
			texCoords = append(texCoords, mgl32.Vec2{uv[0], 1 - v})
		case "o", "g":
			flush()
			name := "default"
			if len(fields) > 1 {
				name = strings.Join(fields[1:], " ")
			}
			current = newOBJBuilder(name)
		case "f":
			if len(fields) < 4 {
				return nil, fmt.Errorf("line %d: face needs at least 3 vertices, got %d", lineNo, len(fields)-1)
			}
			corners := make([]objCorner, 0, len(fields)-1)
			for _, ref := range fields[1:] {
				c, err := parseCorner(ref, len(positions), len(texCoords), len(normals))
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", lineNo, err)
				}
				corners = append(corners, c)
			}
			// Fan triangulation
			for i := 1; i+1 < len(corners); i++ {
				for _, c := range []objCorner{corners[0], corners[i], corners[i+1]} {
					current.add(c, positions, texCoords, normals)
				}
			}
		default:
			// mtllib, usemtl, s and friends carry nothing the rasterizer uses
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading OBJ: %w", err)
	}
	flush()

	if len(model.Meshes) == 0 {
		return nil, fmt.Errorf("no faces found")
	}
	return model, nil
}

func (b *objBuilder) add(c objCorner, positions []mgl32.Vec3, texCoords []mgl32.Vec2, normals []mgl32.Vec3) {
	b.hasAnyFace = true
	if idx, ok := b.corners[c]; ok {
		b.mesh.Indices = append(b.mesh.Indices, idx)
		return
	}

	idx := len(b.mesh.Positions)
	b.corners[c] = idx
	b.mesh.Positions = append(b.mesh.Positions, positions[c.v])

	var uv mgl32.Vec2
	if c.vt >= 0 {
		uv = texCoords[c.vt]
	}
	b.mesh.TexCoords = append(b.mesh.TexCoords, uv)

	n := defaultNormal
	if c.vn >= 0 {
		n = normals[c.vn]
	} else {
		b.missingVN = true
	}
	b.mesh.Normals = append(b.mesh.Normals, n)

	b.mesh.Indices = append(b.mesh.Indices, idx)
}

func (b *objBuilder) finish() *Mesh {
	if b.missingVN {
		b.mesh.GenerateNormals()
	}
	return b.mesh
}

// parseCorner parses "v", "v/vt", "v//vn" or "v/vt/vn". Indices are 1-based,
// negative ones count back from the end of the list read so far.
func parseCorner(ref string, numV, numVT, numVN int) (objCorner, error) {
	parts := strings.Split(ref, "/")
	if len(parts) > 3 {
		return objCorner{}, fmt.Errorf("invalid face vertex %q", ref)
	}

	c := objCorner{v: -1, vt: -1, vn: -1}
	targets := []*int{&c.v, &c.vt, &c.vn}
	limits := []int{numV, numVT, numVN}
	for i, part := range parts {
		if part == "" {
			if i == 0 {
				return objCorner{}, fmt.Errorf("face vertex %q has no position", ref)
			}
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return objCorner{}, fmt.Errorf("invalid index in %q: %w", ref, err)
		}
		idx := n - 1
		if n < 0 {
			idx = limits[i] + n
		}
		if n == 0 || idx < 0 || idx >= limits[i] {
			return objCorner{}, fmt.Errorf("index %d in %q out of range", n, ref)
		}
		*targets[i] = idx
	}
	return c, nil
}

func parseFloats(fields []string, minCount int) ([]float32, error) {
	if len(fields) < minCount {
		return nil, fmt.Errorf("expected at least %d values, got %d", minCount, len(fields))
	}
	values := make([]float32, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", f)
		}
		values[i] = float32(v)
	}
	return values, nil
}
