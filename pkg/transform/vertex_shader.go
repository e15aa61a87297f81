package transform

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/df07/go-planet-rasterizer/pkg/core"
)

// VertexShader projects v into screen space.
//
// The returned copy carries the pixel position and NDC depth in
// TransformedPosition and the normal-matrix transformed normal in
// TransformedNormal. ok is false when the clip-space w is zero; such a vertex
// has no screen position and the caller must skip its triangle.
func VertexShader(v core.Vertex, u *core.Uniforms) (out core.Vertex, ok bool) {
	position := mgl32.Vec4{v.Position.X(), v.Position.Y(), v.Position.Z(), 1}

	clip := u.Projection.Mul4(u.View).Mul4(u.Model).Mul4x1(position)

	out = v
	out.TransformedNormal = NormalMatrix(u.Model).Mul3x1(v.Normal)

	w := clip.W()
	if w == 0 {
		return out, false
	}

	ndc := mgl32.Vec4{clip.X() / w, clip.Y() / w, clip.Z() / w, 1}
	screen := u.Viewport.Mul4x1(ndc)
	out.TransformedPosition = mgl32.Vec3{screen.X(), screen.Y(), screen.Z()}

	return out, true
}

// TransformVertices runs VertexShader over a vertex list. The returned mask
// reports which vertices have a valid screen position.
func TransformVertices(vertices []core.Vertex, u *core.Uniforms) ([]core.Vertex, []bool) {
	transformed := make([]core.Vertex, len(vertices))
	valid := make([]bool, len(vertices))
	for i, v := range vertices {
		transformed[i], valid[i] = VertexShader(v, u)
	}
	return transformed, valid
}
