// Package transform builds the model, view, projection and viewport matrices
// and runs the vertex stage of the pipeline.
//
// All matrices are mgl32 column-major 4x4 matrices applied to column vectors,
// so a clip-space position is Projection * View * Model * (p, 1).
package transform

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	FieldOfViewDegrees = 45.0
	NearPlane          = 0.1
	FarPlane           = 1000.0
)

// CreateModelMatrix returns ScaleTranslate * Rz * Ry * Rx for a uniform scale.
// rotation holds the Euler angles in radians about X, Y and Z.
func CreateModelMatrix(translation mgl32.Vec3, scale float32, rotation mgl32.Vec3) mgl32.Mat4 {
	rotationMatrix := mgl32.HomogRotate3DZ(rotation.Z()).
		Mul4(mgl32.HomogRotate3DY(rotation.Y())).
		Mul4(mgl32.HomogRotate3DX(rotation.X()))

	transformMatrix := mgl32.Mat4{
		scale, 0, 0, 0,
		0, scale, 0, 0,
		0, 0, scale, 0,
		translation.X(), translation.Y(), translation.Z(), 1,
	}

	return transformMatrix.Mul4(rotationMatrix)
}

// CreateViewMatrix returns a right-handed look-at matrix
func CreateViewMatrix(eye, center, up mgl32.Vec3) mgl32.Mat4 {
	return mgl32.LookAtV(eye, center, up)
}

// CreatePerspectiveMatrix returns a 45 degree vertical field of view projection
// with near 0.1 and far 1000 for the given target size.
func CreatePerspectiveMatrix(width, height float32) mgl32.Mat4 {
	aspect := float32(1)
	if height != 0 {
		aspect = width / height
	}
	return mgl32.Perspective(mgl32.DegToRad(FieldOfViewDegrees), aspect, NearPlane, FarPlane)
}

// CreateViewportMatrix maps NDC x,y in [-1, 1] to pixels in [0, width] x [0, height].
// Y is flipped so that +1 lands on row 0. Z passes through unchanged.
func CreateViewportMatrix(width, height float32) mgl32.Mat4 {
	return mgl32.Mat4{
		width / 2, 0, 0, 0,
		0, -height / 2, 0, 0,
		0, 0, 1, 0,
		width / 2, height / 2, 0, 1,
	}
}

// NormalMatrix returns the inverse transpose of the upper-left 3x3 of model.
// A singular block yields the identity.
func NormalMatrix(model mgl32.Mat4) mgl32.Mat3 {
	transposed := model.Mat3().Transpose()
	det := transposed.Det()
	if det == 0 || math32.IsNaN(det) || math32.IsInf(det, 0) {
		return mgl32.Ident3()
	}
	return transposed.Inv()
}
