package renderer

import (
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/df07/go-planet-rasterizer/pkg/core"
	"github.com/df07/go-planet-rasterizer/pkg/raster"
	"github.com/df07/go-planet-rasterizer/pkg/shader"
	"github.com/df07/go-planet-rasterizer/pkg/transform"
)

// DefaultLogger implements core.Logger by writing to stdout
type DefaultLogger struct{}

func (dl *DefaultLogger) Printf(format string, args ...interface{}) {
	fmt.Printf(format, args...)
}

// NewDefaultLogger creates a new default logger
func NewDefaultLogger() core.Logger {
	return &DefaultLogger{}
}

// Drawable is one mesh placed in the world with the shader that colors it
type Drawable struct {
	Name     string
	Vertices []core.Vertex
	Model    mgl32.Mat4
	Shader   shader.ShaderType
}

// FrameSource produces the drawables of a frame at a given frame time
type FrameSource interface {
	Drawables(frameTime uint32) []Drawable
}

// FrameConfig contains configuration for whole-frame rendering
type FrameConfig struct {
	Width, Height int
	Background    core.Color
	Parallel      bool       // Use the tile renderer instead of the sequential path
	Tiles         TileConfig // Only used when Parallel is set
}

// DefaultFrameConfig returns the 800x600 tile-parallel setup
func DefaultFrameConfig() FrameConfig {
	return FrameConfig{
		Width:      800,
		Height:     600,
		Background: raster.DefaultBackground,
		Parallel:   true,
		Tiles:      DefaultTileConfig(),
	}
}

// FrameRenderer renders whole frames: it clears the framebuffer, builds the
// uniforms of every drawable from the camera and draws them in order.
type FrameRenderer struct {
	config     FrameConfig
	projection mgl32.Mat4
	viewport   mgl32.Mat4
	noise      core.Noise
	tiles      *TileRenderer // nil for sequential rendering
	logger     core.Logger
}

// NewFrameRenderer creates a frame renderer
func NewFrameRenderer(config FrameConfig, noise core.Noise, logger core.Logger) *FrameRenderer {
	if logger == nil {
		logger = NewDefaultLogger()
	}
	fr := &FrameRenderer{
		config:     config,
		projection: transform.CreatePerspectiveMatrix(float32(config.Width), float32(config.Height)),
		viewport:   transform.CreateViewportMatrix(float32(config.Width), float32(config.Height)),
		noise:      noise,
		logger:     logger,
	}
	if config.Parallel {
		fr.tiles = NewTileRenderer(config.Width, config.Height, config.Tiles, logger)
	}
	return fr
}

// Config returns the renderer configuration
func (fr *FrameRenderer) Config() FrameConfig {
	return fr.config
}

// NewFramebuffer allocates a framebuffer matching the renderer
func (fr *FrameRenderer) NewFramebuffer() *raster.Framebuffer {
	fb := raster.NewFramebuffer(fr.config.Width, fr.config.Height)
	fb.SetBackgroundColor(fr.config.Background)
	fb.Clear()
	return fb
}

// Uniforms builds the uniforms for drawing a mesh with the given model matrix
func (fr *FrameRenderer) Uniforms(camera *Camera, model mgl32.Mat4, frameTime uint32) *core.Uniforms {
	return &core.Uniforms{
		Model:      model,
		View:       camera.ViewMatrix(),
		Projection: fr.projection,
		Viewport:   fr.viewport,
		Time:       frameTime,
		Noise:      fr.noise,
	}
}

// Prepare runs the vertex stage for every drawable
func (fr *FrameRenderer) Prepare(camera *Camera, drawables []Drawable, frameTime uint32) ([]Batch, RenderStats) {
	var stats RenderStats
	batches := make([]Batch, 0, len(drawables))
	for _, d := range drawables {
		u := fr.Uniforms(camera, d.Model, frameTime)
		triangles, s := AssembleTriangles(d.Vertices, u)
		stats.Merge(s)
		batches = append(batches, Batch{
			Uniforms:  u,
			Shader:    shader.Resolve(d.Shader),
			Triangles: triangles,
		})
	}
	return batches, stats
}

// Render clears fb and draws drawables as seen by camera at frameTime
func (fr *FrameRenderer) Render(fb *raster.Framebuffer, camera *Camera, drawables []Drawable, frameTime uint32) (RenderStats, error) {
	start := time.Now()
	fb.Clear()

	batches, stats := fr.Prepare(camera, drawables, frameTime)

	if fr.tiles != nil {
		tileStats, err := fr.tiles.Render(fb, batches)
		if err != nil {
			return stats, fmt.Errorf("render frame %d: %w", frameTime, err)
		}
		stats.Merge(tileStats)
	} else {
		for _, b := range batches {
			stats.Merge(drawTriangles(fb, b.Uniforms, b.Shader, b.Triangles))
		}
	}

	stats.Duration = time.Since(start)
	return stats, nil
}

// RenderFrame renders the drawables src produces at frameTime
func (fr *FrameRenderer) RenderFrame(fb *raster.Framebuffer, camera *Camera, src FrameSource, frameTime uint32) (RenderStats, error) {
	return fr.Render(fb, camera, src.Drawables(frameTime), frameTime)
}

// Close releases the tile workers, if any
func (fr *FrameRenderer) Close() {
	if fr.tiles != nil {
		fr.tiles.Close()
	}
}
