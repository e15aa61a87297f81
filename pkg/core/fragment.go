package core

import "github.com/go-gl/mathgl/mgl32"

// Fragment is a covered pixel produced by the rasterizer.
type Fragment struct {
	X, Y int // Pixel coordinates

	// VertexPosition is the barycentric blend of the three object-space
	// positions. Shaders use it as their sampling coordinates.
	VertexPosition mgl32.Vec3

	Depth     float32    // Interpolated NDC depth, smaller is nearer
	Normal    mgl32.Vec3 // Interpolated and renormalized transformed normal
	Intensity float32    // Lambert term in [0, 1]

	Barycentric mgl32.Vec3 // Weights of v0, v1, v2
}
