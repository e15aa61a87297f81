package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	xdraw "golang.org/x/image/draw"

	"github.com/df07/go-planet-rasterizer/pkg/core"
	"github.com/df07/go-planet-rasterizer/pkg/renderer"
	"github.com/df07/go-planet-rasterizer/pkg/scene"
	"github.com/df07/go-planet-rasterizer/pkg/viewer"
)

type options struct {
	scene    string
	frames   int
	start    uint
	step     uint
	width    int
	height   int
	out      string
	scale    int
	workers  int
	window   bool
	watch    bool
	logLevel string
}

func main() {
	var opts options
	flag.StringVar(&opts.scene, "scene", scene.DefaultSceneName, "Built-in scene id, planet:<shader>, or a .yaml/.toml/.json scene file")
	flag.IntVar(&opts.frames, "frames", 1, "Number of frames to render")
	flag.UintVar(&opts.start, "start", 0, "Frame time of the first frame")
	flag.UintVar(&opts.step, "step", 1, "Frame time advance between frames")
	flag.IntVar(&opts.width, "width", 800, "Framebuffer width in pixels")
	flag.IntVar(&opts.height, "height", 600, "Framebuffer height in pixels")
	flag.StringVar(&opts.out, "out", "", "Output directory (default output/<scene>)")
	flag.IntVar(&opts.scale, "scale", 1, "Integer upscale factor for saved frames and the window")
	flag.IntVar(&opts.workers, "workers", 0, "Frames rendered at once, or tile workers with -window (0 = CPU count)")
	flag.BoolVar(&opts.window, "window", false, "Open an interactive window instead of writing frames")
	flag.BoolVar(&opts.watch, "watch", false, "Reload the scene file when it changes (with -window)")
	flag.StringVar(&opts.logLevel, "log-level", "info", "Log level: debug, info, warn or error")
	list := flag.Bool("list", false, "List available scenes and exit")
	help := flag.Bool("help", false, "Show help information")
	flag.Parse()

	if *help {
		fmt.Println("Planet Rasterizer")
		fmt.Println("Usage: rasterizer [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		fmt.Println()
		fmt.Println("Frames are saved to <out>/frame_NNNN.png")
		return
	}

	level, err := parseLogLevel(opts.logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if *list {
		if err := listScenes(); err != nil {
			logger.Error("failed to list scenes", "error", err)
			os.Exit(1)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, opts, logger); err != nil {
		logger.Error("render failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, logger *slog.Logger) error {
	if opts.width <= 0 || opts.height <= 0 {
		return fmt.Errorf("invalid size %dx%d", opts.width, opts.height)
	}
	if opts.scale < 1 {
		return fmt.Errorf("scale must be at least 1, got %d", opts.scale)
	}

	s, err := createScene(opts.scene)
	if err != nil {
		return err
	}
	logger.Info("scene ready", "name", s.Name, "bodies", len(s.Bodies), "triangles", s.TriangleCount())

	if opts.window {
		return runWindow(ctx, s, opts, logger)
	}
	return writeFrames(ctx, s, opts, logger)
}

// createScene resolves a built-in scene id or a scene file path
func createScene(sceneType string) (*scene.Scene, error) {
	if sceneType == "" {
		return nil, fmt.Errorf("no scene given")
	}
	s, err := scene.Resolve(sceneType)
	if err != nil {
		return nil, fmt.Errorf("failed to create scene %q: %w", sceneType, err)
	}
	return s, nil
}

// createOutputDir returns output/<name> where name is the scene id or the
// scene file's base name
func createOutputDir(sceneType string) string {
	name := sceneType
	if scene.IsSceneFile(sceneType) {
		base := filepath.Base(sceneType)
		name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	name = strings.NewReplacer(":", "-", "/", "-", "\\", "-").Replace(name)
	if name == "" {
		name = scene.DefaultSceneName
	}
	return filepath.Join("output", name)
}

func parseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}

func listScenes() error {
	response, err := scene.ListAllScenes(scene.FindScenesDir())
	if err != nil {
		return err
	}
	for _, group := range response.Groups {
		fmt.Printf("%s:\n", group.Name)
		for _, info := range group.Scenes {
			fmt.Printf("  %-28s %s\n", info.ID, info.Description)
		}
	}
	return nil
}

func writeFrames(ctx context.Context, s *scene.Scene, opts options, logger *slog.Logger) error {
	if opts.frames <= 0 {
		return fmt.Errorf("frames must be positive, got %d", opts.frames)
	}

	outputDir := opts.out
	if outputDir == "" {
		outputDir = createOutputDir(opts.scene)
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	config := renderer.DefaultAnimationConfig()
	config.Frame.Width = opts.width
	config.Frame.Height = opts.height
	config.Frame = s.FrameConfig(config.Frame)
	config.StartTime = uint32(opts.start)
	config.Step = uint32(opts.step)
	config.Frames = opts.frames
	config.Concurrency = opts.workers

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	start := time.Now()
	frames, errs := renderer.RenderAnimation(ctx, s, s.NewCamera(), s.NewNoise(), config, core.NewSlogLogger(logger))

	bar := progressbar.Default(int64(opts.frames), "rendering")
	var total renderer.RenderStats
	for frame := range frames {
		filename := filepath.Join(outputDir, fmt.Sprintf("frame_%04d.png", frame.Index))
		if err := savePNG(filename, upscale(frame.Image, opts.scale)); err != nil {
			cancel()
			return err
		}
		total.Merge(frame.Stats)
		_ = bar.Add(1)
	}
	if err := <-errs; err != nil {
		return err
	}
	_ = bar.Finish()

	logger.Info("frames saved",
		"dir", outputDir,
		"frames", opts.frames,
		"elapsed", time.Since(start).Round(time.Millisecond),
		"triangles", total.Triangles,
		"pixels", total.PixelsWritten,
		"overdraw", fmt.Sprintf("%.2f", total.Overdraw()))
	return nil
}

// upscale enlarges img by an integer factor with nearest-neighbor sampling
func upscale(img *image.RGBA, factor int) *image.RGBA {
	if factor <= 1 {
		return img
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor))
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}

func savePNG(filename string, img image.Image) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filename, err)
	}
	if err := png.Encode(file, img); err != nil {
		file.Close()
		return fmt.Errorf("failed to encode %s: %w", filename, err)
	}
	return file.Close()
}

func runWindow(ctx context.Context, s *scene.Scene, opts options, logger *slog.Logger) error {
	config := viewer.DefaultConfig()
	config.Frame.Width = opts.width
	config.Frame.Height = opts.height
	config.Frame.Tiles.NumWorkers = opts.workers
	config.Scale = opts.scale
	config.StartTime = uint32(opts.start)
	config.Logger = logger

	v := viewer.New(s, config)

	if opts.watch {
		if !scene.IsSceneFile(opts.scene) {
			return fmt.Errorf("-watch needs a scene file, got %q", opts.scene)
		}
		go func() {
			err := scene.Watch(ctx, opts.scene, scene.DefaultReloadDelay, func(updated *scene.Scene, err error) {
				if err != nil {
					logger.Warn("scene reload failed", "error", err)
					return
				}
				v.QueueScene(updated)
			})
			if err != nil && ctx.Err() == nil {
				logger.Error("scene watcher stopped", "error", err)
			}
		}()
	}

	return viewer.Run(v)
}
