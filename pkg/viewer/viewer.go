// Package viewer shows a scene in a desktop window with interactive camera
// control. Each tick advances the frame time by one, applies the held keys to
// the camera and renders the frame.
package viewer

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/df07/go-planet-rasterizer/pkg/core"
	"github.com/df07/go-planet-rasterizer/pkg/hud"
	"github.com/df07/go-planet-rasterizer/pkg/raster"
	"github.com/df07/go-planet-rasterizer/pkg/renderer"
	"github.com/df07/go-planet-rasterizer/pkg/scene"
)

// Config controls the window and the per-frame render
type Config struct {
	Title     string
	Scale     int                  // Window pixels per framebuffer pixel
	TPS       int                  // Ticks per second; one frame time step per tick
	Frame     renderer.FrameConfig // Background is taken from the scene
	Controls  renderer.Controls
	StartTime uint32
	ShowHUD   bool
	Logger    *slog.Logger
}

// DefaultConfig returns an 800x600 window at 60 ticks per second
func DefaultConfig() Config {
	return Config{
		Title:    "Planet Rasterizer",
		Scale:    1,
		TPS:      60,
		Frame:    renderer.DefaultFrameConfig(),
		Controls: renderer.DefaultControls(),
		ShowHUD:  true,
		Logger:   slog.Default(),
	}
}

// keyBindings maps held keys to camera actions
var keyBindings = []struct {
	key    ebiten.Key
	action renderer.CameraAction
}{
	{ebiten.KeyArrowLeft, renderer.OrbitLeft},
	{ebiten.KeyArrowRight, renderer.OrbitRight},
	{ebiten.KeyW, renderer.OrbitUp},
	{ebiten.KeyS, renderer.OrbitDown},
	{ebiten.KeyA, renderer.PanLeft},
	{ebiten.KeyD, renderer.PanRight},
	{ebiten.KeyQ, renderer.PanUp},
	{ebiten.KeyE, renderer.PanDown},
	{ebiten.KeyArrowUp, renderer.ZoomIn},
	{ebiten.KeyArrowDown, renderer.ZoomOut},
}

// Viewer is the ebiten game that renders a scene every tick
type Viewer struct {
	config   Config
	scene    *scene.Scene
	camera   *renderer.Camera
	renderer *renderer.FrameRenderer
	fb       *raster.Framebuffer
	overlay  *hud.Overlay
	logger   *slog.Logger

	frameTime uint32
	paused    bool
	showHUD   bool
	stats     renderer.RenderStats

	reloads chan *scene.Scene
	pixels  []byte
	image   *ebiten.Image
	actions []renderer.CameraAction
}

// New creates a viewer for s
func New(s *scene.Scene, config Config) *Viewer {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Scale <= 0 {
		config.Scale = 1
	}
	if config.TPS <= 0 {
		config.TPS = 60
	}

	v := &Viewer{
		config:    config,
		overlay:   hud.New(),
		logger:    config.Logger,
		frameTime: config.StartTime,
		showHUD:   config.ShowHUD,
		reloads:   make(chan *scene.Scene, 1),
		pixels:    make([]byte, 4*config.Frame.Width*config.Frame.Height),
	}
	v.setScene(s, true)
	return v
}

// QueueScene replaces the scene on the next tick. It is safe to call from any
// goroutine; a scene still waiting is replaced by the newer one.
func (v *Viewer) QueueScene(s *scene.Scene) {
	for {
		select {
		case v.reloads <- s:
			return
		default:
		}
		select {
		case <-v.reloads:
		default:
		}
	}
}

func (v *Viewer) setScene(s *scene.Scene, resetCamera bool) {
	if v.renderer != nil {
		v.renderer.Close()
	}
	if resetCamera || v.scene == nil || v.scene.Camera != s.Camera {
		v.camera = s.NewCamera()
	}

	frame := s.FrameConfig(v.config.Frame)
	v.renderer = renderer.NewFrameRenderer(frame, s.NewNoise(), core.NewSlogLogger(v.logger))
	v.fb = v.renderer.NewFramebuffer()
	v.scene = s
	v.logger.Info("scene loaded", "name", s.Name, "bodies", len(s.Bodies), "triangles", s.TriangleCount())
}

// Update handles input and renders the next frame
func (v *Viewer) Update() error {
	if ebiten.IsKeyPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}

	select {
	case s := <-v.reloads:
		v.setScene(s, false)
	default:
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		v.paused = !v.paused
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyH) {
		v.showHUD = !v.showHUD
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		v.camera = v.scene.NewCamera()
	}

	v.actions = v.actions[:0]
	for _, b := range keyBindings {
		if ebiten.IsKeyPressed(b.key) {
			v.actions = append(v.actions, b.action)
		}
	}
	v.config.Controls.Apply(v.camera, v.actions...)

	if v.paused && !v.camera.Changed() && v.stats.Triangles > 0 {
		return nil
	}
	if !v.paused {
		v.frameTime++
	}

	stats, err := v.renderer.RenderFrame(v.fb, v.camera, v.scene, v.frameTime)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	v.stats = stats
	v.camera.ResetChanged()

	if v.showHUD {
		info := hud.Info{
			Scene:     v.scene.Name,
			FrameTime: v.frameTime,
			FPS:       ebiten.ActualFPS(),
			Stats:     stats,
			Camera:    v.camera,
			Paused:    v.paused,
		}
		v.overlay.Draw(v.fb, info.Lines()...)
	}
	v.fb.CopyTo(v.pixels)
	return nil
}

// Draw uploads the last rendered frame
func (v *Viewer) Draw(screen *ebiten.Image) {
	w, h := v.fb.Width(), v.fb.Height()
	if v.image == nil || v.image.Bounds().Dx() != w || v.image.Bounds().Dy() != h {
		if v.image != nil {
			v.image.Deallocate()
		}
		v.image = ebiten.NewImage(w, h)
	}
	v.image.WritePixels(v.pixels)
	screen.DrawImage(v.image, nil)
}

// Layout keeps the logical screen at the framebuffer size
func (v *Viewer) Layout(outsideWidth, outsideHeight int) (int, int) {
	return v.fb.Width(), v.fb.Height()
}

// Close releases the render workers
func (v *Viewer) Close() {
	if v.renderer != nil {
		v.renderer.Close()
	}
}

// Run opens the window and blocks until it is closed or Escape is pressed
func Run(v *Viewer) error {
	defer v.Close()

	ebiten.SetWindowTitle(fmt.Sprintf("%s - %s", v.config.Title, v.scene.Name))
	ebiten.SetWindowSize(v.fb.Width()*v.config.Scale, v.fb.Height()*v.config.Scale)
	ebiten.SetTPS(v.config.TPS)

	if err := ebiten.RunGame(v); err != nil && !errors.Is(err, ebiten.Termination) {
		return err
	}
	return nil
}
