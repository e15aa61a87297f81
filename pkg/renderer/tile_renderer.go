package renderer

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/df07/go-planet-rasterizer/pkg/core"
	"github.com/df07/go-planet-rasterizer/pkg/raster"
)

// ErrRendererClosed is returned by Render after Close
var ErrRendererClosed = errors.New("tile renderer closed")

// TileConfig contains configuration for tile-parallel rendering
type TileConfig struct {
	TileSize   int // Size of each tile (64x64 recommended)
	NumWorkers int // Number of parallel workers (0 = use CPU count)
}

// DefaultTileConfig returns sensible default values
func DefaultTileConfig() TileConfig {
	return TileConfig{
		TileSize:   64,
		NumWorkers: 0, // Auto-detect CPU count
	}
}

// Tile represents a rectangular region of the framebuffer
type Tile struct {
	ID     int             // Unique tile identifier
	Bounds image.Rectangle // Pixel bounds (x0,y0,x1,y1)
}

// NewTileGrid creates a grid of tiles covering the entire image
func NewTileGrid(width, height, tileSize int) []*Tile {
	if tileSize <= 0 {
		tileSize = DefaultTileConfig().TileSize
	}

	var tiles []*Tile
	tileID := 0

	// Calculate number of tiles in each dimension
	tilesX := (width + tileSize - 1) / tileSize // Ceiling division
	tilesY := (height + tileSize - 1) / tileSize

	for tileY := 0; tileY < tilesY; tileY++ {
		for tileX := 0; tileX < tilesX; tileX++ {
			x0 := tileX * tileSize
			y0 := tileY * tileSize
			x1 := min(x0+tileSize, width) // Don't exceed image bounds
			y1 := min(y0+tileSize, height)

			tiles = append(tiles, &Tile{ID: tileID, Bounds: image.Rect(x0, y0, x1, y1)})
			tileID++
		}
	}

	return tiles
}

// TileRenderer draws batches into a framebuffer by splitting it into tiles
// and rasterizing every triangle clipped to each tile on a worker pool. Tiles
// are disjoint, so depth-tested writes never race and the result matches the
// sequential pipeline exactly.
type TileRenderer struct {
	width, height int
	config        TileConfig
	tiles         []*Tile
	workerPool    *WorkerPool
	logger        core.Logger

	mu      sync.Mutex // Serializes Render and Close
	started bool
	closed  bool
}

// NewTileRenderer creates a tile renderer for width x height framebuffers
func NewTileRenderer(width, height int, config TileConfig, logger core.Logger) *TileRenderer {
	if logger == nil {
		logger = NewDefaultLogger()
	}
	tiles := NewTileGrid(width, height, config.TileSize)

	return &TileRenderer{
		width:      width,
		height:     height,
		config:     config,
		tiles:      tiles,
		workerPool: NewWorkerPool(len(tiles), config.NumWorkers),
		logger:     logger,
	}
}

// NumTiles returns the number of tiles per frame
func (tr *TileRenderer) NumTiles() int {
	return len(tr.tiles)
}

// NumWorkers returns the number of workers drawing tiles
func (tr *TileRenderer) NumWorkers() int {
	return tr.workerPool.GetNumWorkers()
}

// Render draws batches into fb, which must match the renderer's size
func (tr *TileRenderer) Render(fb *raster.Framebuffer, batches []Batch) (RenderStats, error) {
	if fb.Width() != tr.width || fb.Height() != tr.height {
		return RenderStats{}, fmt.Errorf("framebuffer is %dx%d, tile renderer expects %dx%d",
			fb.Width(), fb.Height(), tr.width, tr.height)
	}

	tr.mu.Lock()
	defer tr.mu.Unlock()

	if tr.closed {
		return RenderStats{}, ErrRendererClosed
	}
	if !tr.started {
		tr.logger.Printf("Starting %d tile workers for %d tiles\n", tr.workerPool.GetNumWorkers(), len(tr.tiles))
		tr.workerPool.Start()
		tr.started = true
	}

	for i, tile := range tr.tiles {
		tr.workerPool.SubmitTask(TileTask{
			Tile:        tile,
			TaskID:      i,
			Framebuffer: fb,
			Batches:     batches,
		})
	}

	// Drain every result even after a failure so the queues stay empty for
	// the next frame.
	var stats RenderStats
	var errs []error
	for range tr.tiles {
		result, ok := tr.workerPool.GetResult()
		if !ok {
			return stats, fmt.Errorf("worker pool closed unexpectedly")
		}
		if result.Error != nil {
			errs = append(errs, result.Error)
			continue
		}
		stats.Merge(result.Stats)
	}

	return stats, errors.Join(errs...)
}

// Close stops the workers. Render fails after Close.
func (tr *TileRenderer) Close() {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	if tr.closed {
		return
	}
	tr.closed = true
	if tr.started {
		tr.workerPool.Stop()
	}
}
