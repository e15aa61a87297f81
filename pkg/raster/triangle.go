package raster

import (
	"image"
	"iter"
	"math"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/df07/go-planet-rasterizer/pkg/core"
)

// LightDir is the fixed directional light used for the per-fragment intensity
var LightDir = mgl32.Vec3{0, 0, 1}

// unbounded is the rasterization rectangle used when no clip rect is given
var unbounded = image.Rect(0, 0, math.MaxInt32, math.MaxInt32)

// Triangle returns the fragments whose pixel centers lie inside the screen
// projection of the triangle (v0, v1, v2), in row-major order.
//
// The vertices must already be transformed: TransformedPosition holds pixel
// x,y and depth. Depth and VertexPosition are blended linearly by the
// barycentric weights, without perspective correction. A zero-area
// triangle yields nothing. Fragments never have negative coordinates.
func Triangle(v0, v1, v2 core.Vertex) iter.Seq[core.Fragment] {
	return TriangleInRect(v0, v1, v2, unbounded)
}

// TriangleInRect is Triangle restricted to the pixels of rect. Fragments are
// identical to the ones Triangle emits inside rect.
func TriangleInRect(v0, v1, v2 core.Vertex, rect image.Rectangle) iter.Seq[core.Fragment] {
	return func(yield func(core.Fragment) bool) {
		a, b, c := v0.TransformedPosition, v1.TransformedPosition, v2.TransformedPosition

		area := edgeFunction(a, b, c)
		if area == 0 || !core.IsFinite(area) {
			return
		}

		minX, minY, maxX, maxY, ok := boundingBox(a, b, c, rect)
		if !ok {
			return
		}

		for y := minY; y <= maxY; y++ {
			for x := minX; x <= maxX; x++ {
				p := mgl32.Vec3{float32(x) + 0.5, float32(y) + 0.5, 0}
				w0, w1, w2 := barycentricCoordinates(p, a, b, c, area)
				if !inside(w0) || !inside(w1) || !inside(w2) {
					continue
				}

				if !yield(buildFragment(x, y, w0, w1, w2, v0, v1, v2)) {
					return
				}
			}
		}
	}
}

// Barycentric returns the weights of p relative to the screen-space triangle
// (a, b, c). ok is false for a zero-area triangle.
func Barycentric(p, a, b, c mgl32.Vec3) (w0, w1, w2 float32, ok bool) {
	area := edgeFunction(a, b, c)
	if area == 0 {
		return 0, 0, 0, false
	}
	w0, w1, w2 = barycentricCoordinates(p, a, b, c, area)
	return w0, w1, w2, true
}

func buildFragment(x, y int, w0, w1, w2 float32, v0, v1, v2 core.Vertex) core.Fragment {
	a, b, c := v0.TransformedPosition, v1.TransformedPosition, v2.TransformedPosition

	normal := v0.TransformedNormal.Mul(w0).
		Add(v1.TransformedNormal.Mul(w1)).
		Add(v2.TransformedNormal.Mul(w2))
	if l := normal.Len(); l > 0 {
		normal = normal.Mul(1 / l)
	}

	return core.Fragment{
		X: x,
		Y: y,
		VertexPosition: v0.Position.Mul(w0).
			Add(v1.Position.Mul(w1)).
			Add(v2.Position.Mul(w2)),
		Depth:       a.Z()*w0 + b.Z()*w1 + c.Z()*w2,
		Normal:      normal,
		Intensity:   core.Clamp01(normal.Dot(LightDir)),
		Barycentric: mgl32.Vec3{w0, w1, w2},
	}
}

func inside(w float32) bool {
	return w >= 0 && w <= 1
}

// boundingBox returns the inclusive pixel range of the triangle's bounds
// clipped to rect and to non-negative coordinates.
func boundingBox(a, b, c mgl32.Vec3, rect image.Rectangle) (minX, minY, maxX, maxY int, ok bool) {
	if rect.Empty() {
		return 0, 0, 0, 0, false
	}
	fMinX := math32.Floor(math32.Min(a.X(), math32.Min(b.X(), c.X())))
	fMinY := math32.Floor(math32.Min(a.Y(), math32.Min(b.Y(), c.Y())))
	fMaxX := math32.Ceil(math32.Max(a.X(), math32.Max(b.X(), c.X())))
	fMaxY := math32.Ceil(math32.Max(a.Y(), math32.Max(b.Y(), c.Y())))
	if !core.IsFinite(fMinX) || !core.IsFinite(fMinY) || !core.IsFinite(fMaxX) || !core.IsFinite(fMaxY) {
		return 0, 0, 0, 0, false
	}

	lo := rect.Min
	if lo.X < 0 {
		lo.X = 0
	}
	if lo.Y < 0 {
		lo.Y = 0
	}
	hi := rect.Max.Sub(image.Pt(1, 1))

	// Clamp in float space first so huge coordinates never overflow int.
	minX = int(clampF(fMinX, float32(lo.X), float32(hi.X)+1))
	minY = int(clampF(fMinY, float32(lo.Y), float32(hi.Y)+1))
	maxX = int(clampF(fMaxX, float32(lo.X)-1, float32(hi.X)))
	maxY = int(clampF(fMaxY, float32(lo.Y)-1, float32(hi.Y)))

	minX, minY = max(minX, lo.X), max(minY, lo.Y)
	maxX, maxY = min(maxX, hi.X), min(maxY, hi.Y)

	return minX, minY, maxX, maxY, minX <= maxX && minY <= maxY
}

func barycentricCoordinates(p, a, b, c mgl32.Vec3, area float32) (w0, w1, w2 float32) {
	w0 = edgeFunction(b, c, p) / area
	w1 = edgeFunction(c, a, p) / area
	w2 = edgeFunction(a, b, p) / area
	return w0, w1, w2
}

// edgeFunction is twice the signed area of (a, b, p)
func edgeFunction(a, b, p mgl32.Vec3) float32 {
	return (p.X()-a.X())*(b.Y()-a.Y()) - (p.Y()-a.Y())*(b.X()-a.X())
}

func clampF(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
