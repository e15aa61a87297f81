package renderer

import (
	"image"

	"github.com/df07/go-planet-rasterizer/pkg/core"
	"github.com/df07/go-planet-rasterizer/pkg/raster"
	"github.com/df07/go-planet-rasterizer/pkg/shader"
	"github.com/df07/go-planet-rasterizer/pkg/transform"
)

// Batch is one drawable after the vertex stage: its screen-space triangles
// together with the uniforms and shader used to color them.
type Batch struct {
	Uniforms  *core.Uniforms
	Shader    shader.Shader
	Triangles [][3]core.Vertex
}

// AssembleTriangles runs the vertex shader over vertices and groups every
// three results into a triangle. A trailing partial triangle is dropped, and
// any triangle with a vertex rejected by the vertex shader is skipped.
func AssembleTriangles(vertices []core.Vertex, u *core.Uniforms) ([][3]core.Vertex, RenderStats) {
	transformed, valid := transform.TransformVertices(vertices, u)

	stats := RenderStats{Vertices: len(vertices)}
	triangles := make([][3]core.Vertex, 0, len(transformed)/3)
	for i := 0; i+2 < len(transformed); i += 3 {
		if !valid[i] || !valid[i+1] || !valid[i+2] {
			stats.SkippedTriangles++
			continue
		}
		triangles = append(triangles, [3]core.Vertex{transformed[i], transformed[i+1], transformed[i+2]})
	}
	stats.Triangles = len(triangles)
	return triangles, stats
}

// RenderWithShader runs the whole pipeline for one drawable: transform,
// assemble, rasterize, shade with the given variant and depth-test into fb.
// This is the sequential reference path.
func RenderWithShader(fb *raster.Framebuffer, u *core.Uniforms, vertices []core.Vertex, st shader.ShaderType) RenderStats {
	return RenderWith(fb, u, vertices, shader.Resolve(st))
}

// RenderWith is RenderWithShader for an arbitrary Shader, such as a variant
// with a customized config.
func RenderWith(fb *raster.Framebuffer, u *core.Uniforms, vertices []core.Vertex, s shader.Shader) RenderStats {
	triangles, stats := AssembleTriangles(vertices, u)
	stats.Merge(drawTriangles(fb, u, s, triangles))
	return stats
}

// drawTriangles rasterizes each triangle within the framebuffer bounds only,
// so the walk never exceeds width x height pixels per triangle.
func drawTriangles(fb *raster.Framebuffer, u *core.Uniforms, s shader.Shader, triangles [][3]core.Vertex) RenderStats {
	bounds := fb.Bounds()
	var stats RenderStats
	for _, tri := range triangles {
		for f := range raster.TriangleInRect(tri[0], tri[1], tri[2], bounds) {
			if !fb.InBounds(f.X, f.Y) {
				continue
			}
			stats.add(fb.Set(f.X, f.Y, f.Depth, s.Shade(f, u)))
		}
	}
	return stats
}

// drawBatchesInRect draws every batch, in order, restricted to rect. Calls with
// disjoint rects touch disjoint pixels and may run concurrently.
func drawBatchesInRect(fb *raster.Framebuffer, batches []Batch, rect image.Rectangle) RenderStats {
	rect = rect.Intersect(fb.Bounds())

	var stats RenderStats
	for _, b := range batches {
		for _, tri := range b.Triangles {
			for f := range raster.TriangleInRect(tri[0], tri[1], tri[2], rect) {
				stats.add(fb.Set(f.X, f.Y, f.Depth, b.Shader.Shade(f, b.Uniforms)))
			}
		}
	}
	return stats
}

func (s *RenderStats) add(written bool) {
	s.Fragments++
	if written {
		s.PixelsWritten++
	} else {
		s.DepthRejected++
	}
}
