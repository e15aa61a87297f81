package loaders

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Default tessellation of the procedural planet mesh
const (
	DefaultSphereSegments = 32
	DefaultSphereRings    = 16
)

// NewUVSphere builds a sphere of the given radius centered at the origin with
// segments slices around Y and rings stacks from pole to pole. Triangles wind
// counter-clockwise seen from outside and normals point outward.
func NewUVSphere(radius float32, segments, rings int) (*Mesh, error) {
	if segments < 3 || rings < 2 {
		return nil, fmt.Errorf("sphere needs at least 3 segments and 2 rings, got %d and %d", segments, rings)
	}
	if radius <= 0 {
		return nil, fmt.Errorf("sphere radius must be positive, got %v", radius)
	}

	mesh := &Mesh{Name: "sphere"}
	for r := 0; r <= rings; r++ {
		v := float32(r) / float32(rings)
		phi := v * math32.Pi
		sinPhi, cosPhi := math32.Sincos(phi)

		for s := 0; s <= segments; s++ {
			u := float32(s) / float32(segments)
			theta := u * 2 * math32.Pi
			sinTheta, cosTheta := math32.Sincos(theta)

			n := mgl32.Vec3{sinPhi * cosTheta, cosPhi, -sinPhi * sinTheta}
			mesh.Positions = append(mesh.Positions, n.Mul(radius))
			mesh.Normals = append(mesh.Normals, n)
			mesh.TexCoords = append(mesh.TexCoords, mgl32.Vec2{u, v})
		}
	}

	stride := segments + 1
	for r := 0; r < rings; r++ {
		for s := 0; s < segments; s++ {
			a := r*stride + s
			b := a + stride
			// The pole rows collapse to a point, so one triangle per quad there
			if r != 0 {
				mesh.Indices = append(mesh.Indices, a, b, a+1)
			}
			if r != rings-1 {
				mesh.Indices = append(mesh.Indices, a+1, b, b+1)
			}
		}
	}
	return mesh, nil
}

// DefaultSphere returns a unit sphere at the default tessellation
func DefaultSphere() *Mesh {
	mesh, err := NewUVSphere(1, DefaultSphereSegments, DefaultSphereRings)
	if err != nil {
		panic(err)
	}
	return mesh
}
