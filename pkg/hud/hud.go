// Package hud draws a text overlay with frame statistics onto a framebuffer.
package hud

import (
	"fmt"
	"image/color"

	"tinygo.org/x/drivers"
	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/proggy"

	"github.com/df07/go-planet-rasterizer/pkg/core"
	"github.com/df07/go-planet-rasterizer/pkg/raster"
	"github.com/df07/go-planet-rasterizer/pkg/renderer"
)

const (
	defaultMargin     = 6
	defaultPadding    = 4
	defaultLineHeight = 12
	baselineOffset    = 9
	panelDarken       = 0.55
)

// fbDisplay exposes a framebuffer as a tinyfont display
type fbDisplay struct {
	fb *raster.Framebuffer
}

var _ drivers.Displayer = (*fbDisplay)(nil)

func (d *fbDisplay) Size() (x, y int16) {
	return int16(d.fb.Width()), int16(d.fb.Height())
}

func (d *fbDisplay) SetPixel(x, y int16, c color.RGBA) {
	d.fb.Plot(int(x), int(y), core.NewColor(c.R, c.G, c.B))
}

func (d *fbDisplay) Display() error {
	return nil
}

func (d *fbDisplay) FillRectangle(x, y, width, height int16, c color.RGBA) error {
	fill := core.NewColor(c.R, c.G, c.B)
	for py := int(y); py < int(y)+int(height); py++ {
		for px := int(x); px < int(x)+int(width); px++ {
			d.fb.Plot(px, py, fill)
		}
	}
	return nil
}

func (d *fbDisplay) SetRotation(drivers.Rotation) error {
	return nil
}

// Overlay writes lines of text in the top-left corner over a darkened panel
type Overlay struct {
	Font       tinyfont.Fonter
	Foreground core.Color
	LineHeight int
	Margin     int
	Panel      bool
}

// New returns an overlay using the proggy font in white
func New() *Overlay {
	return &Overlay{
		Font:       &proggy.TinySZ8pt7b,
		Foreground: core.NewColor(0xFF, 0xFF, 0xFF),
		LineHeight: defaultLineHeight,
		Margin:     defaultMargin,
		Panel:      true,
	}
}

// TextWidth returns the rendered width of s in pixels
func (o *Overlay) TextWidth(s string) int {
	_, outbox := tinyfont.LineWidth(o.Font, s)
	return int(outbox)
}

// Bounds returns the panel rectangle lines would occupy as x, y, w, h
func (o *Overlay) Bounds(lines []string) (x, y, w, h int) {
	for _, line := range lines {
		w = max(w, o.TextWidth(line))
	}
	if w == 0 {
		return o.Margin, o.Margin, 0, 0
	}
	return o.Margin, o.Margin, w + 2*defaultPadding, len(lines)*o.LineHeight + 2*defaultPadding
}

// Draw writes lines onto fb. Empty input leaves fb untouched.
func (o *Overlay) Draw(fb *raster.Framebuffer, lines ...string) {
	x, y, w, h := o.Bounds(lines)
	if w == 0 {
		return
	}

	if o.Panel {
		darken(fb, x, y, w, h)
	}

	d := &fbDisplay{fb: fb}
	fg := o.Foreground.RGBA()
	for i, line := range lines {
		baseline := y + defaultPadding + i*o.LineHeight + baselineOffset
		tinyfont.WriteLine(d, o.Font, int16(x+defaultPadding), int16(baseline), line, fg)
	}
}

func darken(fb *raster.Framebuffer, x, y, w, h int) {
	black := core.Black()
	for py := y; py < y+h; py++ {
		for px := x; px < x+w; px++ {
			if !fb.InBounds(px, py) {
				continue
			}
			fb.Plot(px, py, fb.ColorAt(px, py).Lerp(black, panelDarken))
		}
	}
}

// Info is what the overlay reports about a frame
type Info struct {
	Scene     string
	FrameTime uint32
	FPS       float64
	Stats     renderer.RenderStats
	Camera    *renderer.Camera
	Paused    bool
}

// Lines formats info as overlay text
func (info Info) Lines() []string {
	lines := []string{
		info.Scene,
		fmt.Sprintf("t=%d  %.1f fps", info.FrameTime, info.FPS),
		fmt.Sprintf("tris %d  px %d", info.Stats.Triangles, info.Stats.PixelsWritten),
		fmt.Sprintf("render %.1f ms", float64(info.Stats.Duration.Microseconds())/1000),
	}
	if info.Camera != nil {
		eye := info.Camera.Eye
		lines = append(lines, fmt.Sprintf("eye %.1f %.1f %.1f  d=%.1f", eye.X(), eye.Y(), eye.Z(), info.Camera.Distance()))
	}
	if info.Paused {
		lines = append(lines, "paused")
	}
	return lines
}
