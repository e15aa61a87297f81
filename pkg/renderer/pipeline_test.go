package renderer

import (
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-planet-rasterizer/pkg/core"
	"github.com/df07/go-planet-rasterizer/pkg/raster"
	"github.com/df07/go-planet-rasterizer/pkg/shader"
	"github.com/df07/go-planet-rasterizer/pkg/transform"
)

// zeroNoise makes every shader take its "noise == 0" branch
type zeroNoise struct{}

func (zeroNoise) Noise2(x, y float32) float32    { return 0 }
func (zeroNoise) Noise3(x, y, z float32) float32 { return 0 }

var (
	white = core.NewColor(255, 255, 255)
	sky   = core.NewColor(30, 97, 145)
)

// identityUniforms maps NDC straight onto a size x size framebuffer
func identityUniforms(size int) *core.Uniforms {
	return &core.Uniforms{
		Model:      mgl32.Ident4(),
		View:       mgl32.Ident4(),
		Projection: mgl32.Ident4(),
		Viewport:   transform.CreateViewportMatrix(float32(size), float32(size)),
		Noise:      zeroNoise{},
	}
}

// rightTriangle lands on pixels (10,10), (20,10), (10,20) of a 32x32 target
func rightTriangle(depth float32) []core.Vertex {
	n := mgl32.Vec3{0, 0, 1}
	return []core.Vertex{
		core.NewVertex(mgl32.Vec3{-0.375, 0.375, depth}, n, mgl32.Vec2{}),
		core.NewVertex(mgl32.Vec3{0.25, 0.375, depth}, n, mgl32.Vec2{}),
		core.NewVertex(mgl32.Vec3{-0.375, -0.25, depth}, n, mgl32.Vec2{}),
	}
}

func inRightTriangle(x, y int) bool {
	return x >= 10 && y >= 10 && x+y <= 29
}

func TestRenderWithShader_RightTriangle(t *testing.T) {
	fb := raster.NewFramebuffer(32, 32)
	stats := RenderWithShader(fb, identityUniforms(32), rightTriangle(0.5), shader.Dalmata)

	assert.Equal(t, 3, stats.Vertices)
	assert.Equal(t, 1, stats.Triangles)
	assert.Equal(t, 55, stats.Fragments)
	assert.Equal(t, 55, stats.PixelsWritten)

	covered := 0
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			if inRightTriangle(x, y) {
				covered++
				require.Equal(t, white, fb.ColorAt(x, y), "pixel (%d,%d)", x, y)
				require.InDelta(t, 0.5, fb.Depth(x, y), 1e-5)
			} else {
				require.Equal(t, raster.DefaultBackground, fb.ColorAt(x, y), "pixel (%d,%d)", x, y)
			}
		}
	}
	assert.Equal(t, 55, covered)
}

func TestRenderWithShader_NearestWinsInEitherOrder(t *testing.T) {
	type draw struct {
		depth  float32
		shader shader.ShaderType
	}
	orders := []struct {
		name  string
		draws []draw
	}{
		{"far first", []draw{{0.8, shader.Dalmata}, {0.2, shader.Cloud}}},
		{"near first", []draw{{0.2, shader.Cloud}, {0.8, shader.Dalmata}}},
	}

	for _, tt := range orders {
		t.Run(tt.name, func(t *testing.T) {
			fb := raster.NewFramebuffer(32, 32)
			for _, d := range tt.draws {
				RenderWithShader(fb, identityUniforms(32), rightTriangle(d.depth), d.shader)
			}

			for y := 0; y < 32; y++ {
				for x := 0; x < 32; x++ {
					if inRightTriangle(x, y) {
						require.Equal(t, sky, fb.ColorAt(x, y), "pixel (%d,%d)", x, y)
						require.InDelta(t, 0.2, fb.Depth(x, y), 1e-5)
					}
				}
			}
		})
	}
}

func TestRenderWithShader_RedrawIsIdempotent(t *testing.T) {
	fb := raster.NewFramebuffer(32, 32)
	RenderWithShader(fb, identityUniforms(32), rightTriangle(0.5), shader.Cellular)
	before := fb.Snapshot()

	stats := RenderWithShader(fb, identityUniforms(32), rightTriangle(0.5), shader.Cellular)
	assert.Equal(t, 0, stats.PixelsWritten)
	assert.Equal(t, 55, stats.DepthRejected)
	assert.Equal(t, before.Buffer(), fb.Buffer())
}

func TestRenderWithShader_DropsTrailingPartialTriangle(t *testing.T) {
	vertices := append(rightTriangle(0.5), rightTriangle(0.1)[:2]...)

	fb := raster.NewFramebuffer(32, 32)
	stats := RenderWithShader(fb, identityUniforms(32), vertices, shader.Dalmata)

	assert.Equal(t, 5, stats.Vertices)
	assert.Equal(t, 1, stats.Triangles)
	assert.InDelta(t, 0.5, fb.Depth(12, 12), 1e-5)
}

func TestRenderWithShader_SkipsZeroW(t *testing.T) {
	u := identityUniforms(32)
	u.Projection.Set(3, 3, 0)

	fb := raster.NewFramebuffer(32, 32)
	stats := RenderWithShader(fb, u, rightTriangle(0.5), shader.Dalmata)

	assert.Equal(t, 0, stats.Triangles)
	assert.Equal(t, 1, stats.SkippedTriangles)
	assert.Equal(t, raster.NewFramebuffer(32, 32).Buffer(), fb.Buffer())
}

func TestRenderWithShader_OffscreenWritesNothing(t *testing.T) {
	n := mgl32.Vec3{0, 0, 1}
	offscreen := []core.Vertex{
		core.NewVertex(mgl32.Vec3{2, 0.5, 0}, n, mgl32.Vec2{}),
		core.NewVertex(mgl32.Vec3{3, 0.5, 0}, n, mgl32.Vec2{}),
		core.NewVertex(mgl32.Vec3{2, -0.5, 0}, n, mgl32.Vec2{}),
	}

	fb := raster.NewFramebuffer(32, 32)
	stats := RenderWithShader(fb, identityUniforms(32), offscreen, shader.Dalmata)

	assert.Equal(t, 1, stats.Triangles)
	assert.Equal(t, 0, stats.Fragments)
	assert.Equal(t, raster.NewFramebuffer(32, 32).Buffer(), fb.Buffer())
}

func TestRenderWithShader_HugeTriangleIsClippedToFramebuffer(t *testing.T) {
	const size = 32
	// NDC maps onto a 100000 px square; only its top-left 32x32 corner is on screen
	u := identityUniforms(size)
	u.Viewport = transform.CreateViewportMatrix(1e5, 1e5)
	n := mgl32.Vec3{0, 0, 1}
	huge := []core.Vertex{
		core.NewVertex(mgl32.Vec3{-1, 1, 0.5}, n, mgl32.Vec2{}),
		core.NewVertex(mgl32.Vec3{1, 1, 0.5}, n, mgl32.Vec2{}),
		core.NewVertex(mgl32.Vec3{-1, -1, 0.5}, n, mgl32.Vec2{}),
	}

	fb := raster.NewFramebuffer(size, size)
	done := make(chan RenderStats, 1)
	go func() {
		done <- RenderWithShader(fb, u, huge, shader.Lava)
	}()

	var stats RenderStats
	select {
	case stats = <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("rasterizing a huge triangle walked pixels outside the framebuffer")
	}

	assert.Equal(t, 1, stats.Triangles)
	assert.Equal(t, size*size, stats.Fragments)
	assert.Equal(t, size*size, stats.PixelsWritten)

	triangles, _ := AssembleTriangles(huge, u)
	tiled := raster.NewFramebuffer(size, size)
	tr := NewTileRenderer(size, size, TileConfig{TileSize: 8, NumWorkers: 2}, &testLogger{t: t})
	defer tr.Close()
	_, err := tr.Render(tiled, []Batch{{Uniforms: u, Shader: shader.Resolve(shader.Lava), Triangles: triangles}})
	require.NoError(t, err)
	assert.Equal(t, tiled.Buffer(), fb.Buffer())
}

func TestRenderWith_CustomConfig(t *testing.T) {
	cfg := shader.DefaultDalmataConfig()
	cfg.Spot = core.NewColor(255, 0, 0)

	fb := raster.NewFramebuffer(32, 32)
	RenderWith(fb, identityUniforms(32), rightTriangle(0.5), cfg)
	assert.Equal(t, core.NewColor(255, 0, 0), fb.ColorAt(11, 11))
}

func TestAssembleTriangles(t *testing.T) {
	vertices := append(rightTriangle(0.5), rightTriangle(0.3)...)
	triangles, stats := AssembleTriangles(vertices, identityUniforms(32))

	require.Len(t, triangles, 2)
	assert.Equal(t, 6, stats.Vertices)
	assert.InDelta(t, 10, triangles[0][0].TransformedPosition.X(), 1e-5)
	assert.InDelta(t, 0.3, triangles[1][2].TransformedPosition.Z(), 1e-5)
}
