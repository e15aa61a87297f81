package renderer

import (
	"context"
	"image"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/df07/go-planet-rasterizer/pkg/core"
)

// AnimationConfig contains configuration for offline animation rendering
type AnimationConfig struct {
	Frame       FrameConfig // Per-frame setup; frames always render sequentially inside
	StartTime   uint32      // Frame time of the first frame
	Frames      int         // Number of frames to render
	Step        uint32      // Frame time advance per frame (0 = 1)
	Concurrency int         // Frames rendered at once (0 = use CPU count)
}

// DefaultAnimationConfig returns sensible default values
func DefaultAnimationConfig() AnimationConfig {
	frame := DefaultFrameConfig()
	frame.Parallel = false
	return AnimationConfig{
		Frame:       frame,
		StartTime:   0,
		Frames:      60,
		Step:        1,
		Concurrency: 0, // Auto-detect CPU count
	}
}

// AnimationFrame is one finished frame of an animation
type AnimationFrame struct {
	Index int // 0-based position in the animation
	Time  uint32
	Image *image.RGBA
	Stats RenderStats
}

// RenderAnimation renders config.Frames frames of src with channel-based
// delivery. Frames are rendered concurrently, each into its own framebuffer,
// and delivered in order. The camera is copied up front; src.Drawables must
// be safe for concurrent calls. Cancelling ctx stops scheduling new frames and
// reports ctx.Err() on the error channel.
func RenderAnimation(ctx context.Context, src FrameSource, camera *Camera, noise core.Noise, config AnimationConfig, logger core.Logger) (<-chan AnimationFrame, <-chan error) {
	if logger == nil {
		logger = NewDefaultLogger()
	}
	concurrency := config.Concurrency
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}
	step := config.Step
	if step == 0 {
		step = 1
	}

	frameChan := make(chan AnimationFrame, concurrency)
	errChan := make(chan error, 1)

	cam := *camera
	frameConfig := config.Frame
	frameConfig.Parallel = false
	fr := NewFrameRenderer(frameConfig, noise, logger)

	go func() {
		defer close(frameChan)
		defer close(errChan)

		logger.Printf("Rendering %d frames (%d at a time)...\n", config.Frames, concurrency)
		start := time.Now()

		for first := 0; first < config.Frames; first += concurrency {
			// Check if the caller gave up before starting this batch
			if err := ctx.Err(); err != nil {
				logger.Printf("Animation cancelled before frame %d\n", first)
				errChan <- err
				return
			}

			count := min(concurrency, config.Frames-first)
			results := make([]AnimationFrame, count)

			g, gctx := errgroup.WithContext(ctx)
			g.SetLimit(concurrency)
			for i := 0; i < count; i++ {
				index := first + i
				frameTime := config.StartTime + uint32(index)*step
				g.Go(func() error {
					if err := gctx.Err(); err != nil {
						return err
					}
					fb := fr.NewFramebuffer()
					stats, err := fr.RenderFrame(fb, &cam, src, frameTime)
					if err != nil {
						return err
					}
					results[i] = AnimationFrame{Index: index, Time: frameTime, Image: fb.Image(), Stats: stats}
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				errChan <- err
				return
			}

			for _, frame := range results {
				select {
				case frameChan <- frame:
				case <-ctx.Done():
					errChan <- ctx.Err()
					return
				}
			}
		}

		logger.Printf("Rendered %d frames in %v\n", config.Frames, time.Since(start))
	}()

	return frameChan, errChan
}
