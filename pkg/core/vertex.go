package core

import "github.com/go-gl/mathgl/mgl32"

// Vertex is a mesh vertex. TransformedPosition and TransformedNormal are only
// meaningful on the copy returned by the vertex shader: TransformedPosition
// holds pixel x,y and NDC depth in z.
type Vertex struct {
	Position  mgl32.Vec3
	Normal    mgl32.Vec3
	TexCoords mgl32.Vec2
	Color     Color

	TransformedPosition mgl32.Vec3
	TransformedNormal   mgl32.Vec3
}

// NewVertex creates an untransformed vertex. The transformed fields start as
// copies of the object-space ones.
func NewVertex(position, normal mgl32.Vec3, texCoords mgl32.Vec2) Vertex {
	return Vertex{
		Position:            position,
		Normal:              normal,
		TexCoords:           texCoords,
		Color:               Black(),
		TransformedPosition: position,
		TransformedNormal:   normal,
	}
}

// NewColoredVertex creates an untransformed vertex with a base color
func NewColoredVertex(position, normal mgl32.Vec3, texCoords mgl32.Vec2, c Color) Vertex {
	v := NewVertex(position, normal, texCoords)
	v.Color = c
	return v
}
