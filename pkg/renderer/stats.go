package renderer

import (
	"image"
	"time"
)

// RenderStats contains statistics about one draw or one frame
type RenderStats struct {
	Vertices         int           // Vertices run through the vertex shader
	Triangles        int           // Triangles assembled and rasterized
	SkippedTriangles int           // Triangles dropped because a vertex had w == 0
	Fragments        int           // In-bounds fragments shaded
	DepthRejected    int           // Fragments that lost the depth test
	PixelsWritten    int           // Fragments that passed the depth test
	Duration         time.Duration // Wall time, filled in by frame-level renderers
}

// Merge accumulates other into s
func (s *RenderStats) Merge(other RenderStats) {
	s.Vertices += other.Vertices
	s.Triangles += other.Triangles
	s.SkippedTriangles += other.SkippedTriangles
	s.Fragments += other.Fragments
	s.DepthRejected += other.DepthRejected
	s.PixelsWritten += other.PixelsWritten
	s.Duration += other.Duration
}

// Overdraw is the number of shaded fragments per written pixel
func (s RenderStats) Overdraw() float64 {
	if s.PixelsWritten == 0 {
		return 0
	}
	return float64(s.Fragments) / float64(s.PixelsWritten)
}

// CalculateAverageLuminance returns the mean Rec. 709 luminance of img in [0, 1]
func CalculateAverageLuminance(img *image.RGBA) float64 {
	bounds := img.Bounds()
	pixels := bounds.Dx() * bounds.Dy()
	if pixels == 0 {
		return 0
	}

	var total float64
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := img.RGBAAt(x, y)
			r := float64(c.R) / 255
			g := float64(c.G) / 255
			b := float64(c.B) / 255
			total += 0.2126*r + 0.7152*g + 0.0722*b
		}
	}
	return total / float64(pixels)
}
