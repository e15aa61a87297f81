package raster

import (
	"image"
	"math"
	"slices"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-planet-rasterizer/pkg/core"
)

// screenVertex builds a vertex that is already in screen space
func screenVertex(x, y, z float32) core.Vertex {
	v := core.NewVertex(mgl32.Vec3{x / 100, y / 100, z}, mgl32.Vec3{0, 0, 1}, mgl32.Vec2{})
	v.TransformedPosition = mgl32.Vec3{x, y, z}
	v.TransformedNormal = mgl32.Vec3{0, 0, 1}
	return v
}

func collect(seq func(func(core.Fragment) bool)) []core.Fragment {
	var out []core.Fragment
	for f := range seq {
		out = append(out, f)
	}
	return out
}

func TestTriangle_WeightsAreConvex(t *testing.T) {
	triangles := []struct {
		name       string
		v0, v1, v2 core.Vertex
	}{
		{"right triangle", screenVertex(10, 10, 0.5), screenVertex(20, 10, 0.5), screenVertex(10, 20, 0.5)},
		{"reversed winding", screenVertex(10, 10, 0.5), screenVertex(10, 20, 0.5), screenVertex(20, 10, 0.5)},
		{"sliver", screenVertex(0.2, 0.2, 0), screenVertex(40.7, 3.1, 1), screenVertex(12.5, 6.9, -1)},
		{"subpixel", screenVertex(3.1, 3.1, 0), screenVertex(3.9, 3.2, 0), screenVertex(3.4, 3.95, 0)},
	}

	for _, tt := range triangles {
		t.Run(tt.name, func(t *testing.T) {
			fragments := collect(Triangle(tt.v0, tt.v1, tt.v2))
			require.NotEmpty(t, fragments, "positive-area triangle must cover at least one pixel")

			for _, f := range fragments {
				w := f.Barycentric
				assert.InDelta(t, 1, w[0]+w[1]+w[2], 1e-5)
				for i := 0; i < 3; i++ {
					assert.GreaterOrEqual(t, w[i], float32(0))
					assert.LessOrEqual(t, w[i], float32(1))
				}
				assert.GreaterOrEqual(t, f.X, 0)
				assert.GreaterOrEqual(t, f.Y, 0)
			}
		})
	}
}

func TestTriangle_CoversPixelCenters(t *testing.T) {
	fragments := collect(Triangle(screenVertex(10, 10, 0.5), screenVertex(20, 10, 0.5), screenVertex(10, 20, 0.5)))

	var expected []image.Point
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			cx, cy := float64(x)+0.5, float64(y)+0.5
			if cx >= 10 && cy >= 10 && cx+cy <= 30 {
				expected = append(expected, image.Pt(x, y))
			}
		}
	}

	got := make([]image.Point, 0, len(fragments))
	for _, f := range fragments {
		got = append(got, image.Pt(f.X, f.Y))
		assert.InDelta(t, 0.5, f.Depth, 1e-6)
		assert.InDelta(t, 1, f.Intensity, 1e-6)
	}
	assert.Equal(t, expected, got)
	assert.Len(t, got, 55)
}

func TestTriangle_RowMajorOrder(t *testing.T) {
	fragments := collect(Triangle(screenVertex(0, 0, 0), screenVertex(16, 2, 0), screenVertex(5, 12, 0)))
	require.NotEmpty(t, fragments)

	sorted := slices.IsSortedFunc(fragments, func(a, b core.Fragment) int {
		if a.Y != b.Y {
			return a.Y - b.Y
		}
		return a.X - b.X
	})
	assert.True(t, sorted, "fragments must be emitted in scanline order")

	again := collect(Triangle(screenVertex(0, 0, 0), screenVertex(16, 2, 0), screenVertex(5, 12, 0)))
	assert.Equal(t, fragments, again)
}

func TestTriangle_Degenerate(t *testing.T) {
	tests := []struct {
		name       string
		v0, v1, v2 core.Vertex
	}{
		{"collinear", screenVertex(0, 0, 0), screenVertex(5, 5, 0), screenVertex(10, 10, 0)},
		{"single point", screenVertex(3, 3, 0), screenVertex(3, 3, 0), screenVertex(3, 3, 0)},
		{"nan", screenVertex(float32(math.NaN()), 0, 0), screenVertex(5, 5, 0), screenVertex(0, 10, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Empty(t, collect(Triangle(tt.v0, tt.v1, tt.v2)))
		})
	}
}

func TestTriangle_NegativeCoordinatesClipped(t *testing.T) {
	fragments := collect(Triangle(screenVertex(-20, -20, 0), screenVertex(30, -20, 0), screenVertex(-20, 30, 0)))
	require.NotEmpty(t, fragments)
	assert.Equal(t, 0, fragments[0].X)
	assert.Equal(t, 0, fragments[0].Y)
	for _, f := range fragments {
		assert.GreaterOrEqual(t, f.X, 0)
		assert.GreaterOrEqual(t, f.Y, 0)
	}

	offscreen := collect(Triangle(screenVertex(-30, -30, 0), screenVertex(-10, -30, 0), screenVertex(-30, -10, 0)))
	assert.Empty(t, offscreen)
}

func TestTriangleInRect_MatchesUnclipped(t *testing.T) {
	v0, v1, v2 := screenVertex(1.5, 2, 0.1), screenVertex(30, 7, 0.4), screenVertex(9, 28.5, 0.9)
	all := collect(Triangle(v0, v1, v2))

	rect := image.Rect(8, 8, 16, 16)
	clipped := collect(TriangleInRect(v0, v1, v2, rect))

	var want []core.Fragment
	for _, f := range all {
		if image.Pt(f.X, f.Y).In(rect) {
			want = append(want, f)
		}
	}
	require.NotEmpty(t, want)
	assert.Equal(t, want, clipped)
}

func TestTriangle_LinearInterpolation(t *testing.T) {
	v0 := screenVertex(0, 0, 0)
	v1 := screenVertex(64, 0, 1)
	v2 := screenVertex(0, 64, 1)
	v0.Position = mgl32.Vec3{0, 0, 0}
	v1.Position = mgl32.Vec3{1, 0, 0}
	v2.Position = mgl32.Vec3{0, 1, 0}

	for f := range Triangle(v0, v1, v2) {
		w := f.Barycentric
		assert.InDelta(t, w[1]+w[2], f.Depth, 1e-5)
		assert.InDelta(t, w[1], f.VertexPosition.X(), 1e-5)
		assert.InDelta(t, w[2], f.VertexPosition.Y(), 1e-5)
	}
}

func TestTriangle_IntensityFromNormals(t *testing.T) {
	v0, v1, v2 := screenVertex(0, 0, 0), screenVertex(8, 0, 0), screenVertex(0, 8, 0)
	for _, v := range []*core.Vertex{&v0, &v1, &v2} {
		v.TransformedNormal = mgl32.Vec3{0, 0, -2}
	}
	for f := range Triangle(v0, v1, v2) {
		assert.Equal(t, float32(0), f.Intensity, "back-lit fragments clamp to zero")
	}

	for _, v := range []*core.Vertex{&v0, &v1, &v2} {
		v.TransformedNormal = mgl32.Vec3{0, 3, 3}
	}
	for f := range Triangle(v0, v1, v2) {
		assert.InDelta(t, math.Sqrt2/2, f.Intensity, 1e-5)
		assert.InDelta(t, 1, f.Normal.Len(), 1e-5)
	}
}

func TestTriangle_EarlyStop(t *testing.T) {
	count := 0
	for range Triangle(screenVertex(0, 0, 0), screenVertex(40, 0, 0), screenVertex(0, 40, 0)) {
		count++
		if count == 3 {
			break
		}
	}
	assert.Equal(t, 3, count)
}

func TestBarycentric(t *testing.T) {
	a, b, c := mgl32.Vec3{0, 0, 0}, mgl32.Vec3{4, 0, 0}, mgl32.Vec3{0, 4, 0}
	w0, w1, w2, ok := Barycentric(mgl32.Vec3{1, 1, 0}, a, b, c)
	require.True(t, ok)
	assert.InDelta(t, 0.5, w0, 1e-6)
	assert.InDelta(t, 0.25, w1, 1e-6)
	assert.InDelta(t, 0.25, w2, 1e-6)

	_, _, _, ok = Barycentric(mgl32.Vec3{1, 1, 0}, a, a, c)
	assert.False(t, ok)
}
