package renderer

import (
	"image"

	"github.com/chewxy/math32"

	"github.com/df07/go-planet-rasterizer/pkg/core"
	"github.com/df07/go-planet-rasterizer/pkg/raster"
	"github.com/df07/go-planet-rasterizer/pkg/shader"
)

// Inspection describes the fragment that ends up visible at one pixel
type Inspection struct {
	Drawable int               // Index into the drawables slice
	Name     string            // Drawable name
	Shader   shader.ShaderType // Variant that colored the pixel
	Triangle int               // Index among the drawable's assembled triangles
	Fragment core.Fragment
	Color    core.Color
	Covering int // Fragments generated at the pixel, including hidden ones
}

// Inspect runs the vertex stage and rasterizes only pixel (x, y). It reports
// the fragment that wins the depth test, using the same draw order and strict
// depth comparison as Render, so the color matches the rendered frame.
// ok is false when nothing covers the pixel.
func (fr *FrameRenderer) Inspect(camera *Camera, drawables []Drawable, frameTime uint32, x, y int) (result Inspection, ok bool) {
	if x < 0 || y < 0 || x >= fr.config.Width || y >= fr.config.Height {
		return Inspection{}, false
	}

	batches, _ := fr.Prepare(camera, drawables, frameTime)
	pixel := image.Rect(x, y, x+1, y+1)
	nearest := math32.Inf(1)

	for bi, b := range batches {
		for ti, tri := range b.Triangles {
			for f := range raster.TriangleInRect(tri[0], tri[1], tri[2], pixel) {
				result.Covering++
				if !(f.Depth < nearest) {
					continue
				}
				nearest = f.Depth
				result.Drawable = bi
				result.Name = drawables[bi].Name
				result.Shader = drawables[bi].Shader
				result.Triangle = ti
				result.Fragment = f
				result.Color = b.Shader.Shade(f, b.Uniforms)
				ok = true
			}
		}
	}
	return result, ok
}
