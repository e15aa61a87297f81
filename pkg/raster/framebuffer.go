// Package raster holds the pixel store and the triangle rasterizer.
package raster

import (
	"fmt"
	"image"

	"github.com/chewxy/math32"

	"github.com/df07/go-planet-rasterizer/pkg/core"
)

// DefaultBackground is the clear color used when none is configured
var DefaultBackground = core.ColorFromHex(0x333355)

// Framebuffer is a width x height pixel store with a parallel depth store.
//
// Pixels are packed 0xRRGGBB values so Buffer can be handed directly to a
// presenter. Depth uses "smaller is nearer"; a cleared cell holds +Inf.
//
// Set and Point require in-bounds coordinates. Callers check with InBounds
// first; an out-of-bounds write panics.
type Framebuffer struct {
	width, height int
	buffer        []uint32
	depth         []float32
	background    core.Color
	current       core.Color
}

// NewFramebuffer allocates a cleared framebuffer
func NewFramebuffer(width, height int) *Framebuffer {
	if width < 0 || height < 0 {
		panic(fmt.Sprintf("raster: invalid framebuffer size %dx%d", width, height))
	}
	fb := &Framebuffer{
		width:      width,
		height:     height,
		buffer:     make([]uint32, width*height),
		depth:      make([]float32, width*height),
		background: DefaultBackground,
		current:    core.ColorFromHex(0xFFFFFF),
	}
	fb.Clear()
	return fb
}

func (fb *Framebuffer) Width() int  { return fb.width }
func (fb *Framebuffer) Height() int { return fb.height }

// Bounds returns the pixel rectangle covered by the framebuffer
func (fb *Framebuffer) Bounds() image.Rectangle {
	return image.Rect(0, 0, fb.width, fb.height)
}

// SetBackgroundColor sets the color used by Clear
func (fb *Framebuffer) SetBackgroundColor(c core.Color) {
	fb.background = c
}

// BackgroundColor returns the color used by Clear
func (fb *Framebuffer) BackgroundColor() core.Color {
	return fb.background
}

// Clear resets every pixel to the background and every depth cell to +Inf
func (fb *Framebuffer) Clear() {
	if len(fb.buffer) == 0 {
		return
	}
	// copy-doubling fill
	fb.buffer[0] = fb.background.Hex()
	fb.depth[0] = math32.Inf(1)
	for i := 1; i < len(fb.buffer); i *= 2 {
		copy(fb.buffer[i:], fb.buffer[:i])
		copy(fb.depth[i:], fb.depth[:i])
	}
}

// InBounds reports whether (x, y) addresses a pixel
func (fb *Framebuffer) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < fb.width && y < fb.height
}

// SetCurrentColor sets the color used by subsequent Point calls
func (fb *Framebuffer) SetCurrentColor(c core.Color) {
	fb.current = c
}

// CurrentColor returns the color used by Point
func (fb *Framebuffer) CurrentColor() core.Color {
	return fb.current
}

// Point writes the current color at (x, y) if depth passes the depth test
func (fb *Framebuffer) Point(x, y int, depth float32) bool {
	return fb.Set(x, y, depth, fb.current)
}

// Set writes c at (x, y) only if depth is strictly less than the stored
// depth, and reports whether it wrote.
func (fb *Framebuffer) Set(x, y int, depth float32, c core.Color) bool {
	idx := fb.index(x, y)
	if !(depth < fb.depth[idx]) {
		return false
	}
	fb.depth[idx] = depth
	fb.buffer[idx] = c.Hex()
	return true
}

// Plot writes c at (x, y) without a depth test. Out-of-bounds coordinates are
// ignored; it is meant for overlays such as text.
func (fb *Framebuffer) Plot(x, y int, c core.Color) {
	if !fb.InBounds(x, y) {
		return
	}
	fb.buffer[y*fb.width+x] = c.Hex()
}

// ColorAt returns the stored color at (x, y)
func (fb *Framebuffer) ColorAt(x, y int) core.Color {
	return core.ColorFromHex(fb.buffer[fb.index(x, y)])
}

// Depth returns the stored depth at (x, y)
func (fb *Framebuffer) Depth(x, y int) float32 {
	return fb.depth[fb.index(x, y)]
}

// Buffer returns the raw row-major 0xRRGGBB pixels. The slice aliases the
// framebuffer storage.
func (fb *Framebuffer) Buffer() []uint32 {
	return fb.buffer
}

// Image returns an RGBA snapshot of the pixels
func (fb *Framebuffer) Image() *image.RGBA {
	img := image.NewRGBA(fb.Bounds())
	fb.CopyTo(img.Pix)
	return img
}

// CopyTo writes the pixels as RGBA bytes into dst, which must hold at least
// 4*width*height bytes.
func (fb *Framebuffer) CopyTo(dst []byte) {
	for i, p := range fb.buffer {
		j := i * 4
		dst[j+0] = uint8(p >> 16)
		dst[j+1] = uint8(p >> 8)
		dst[j+2] = uint8(p)
		dst[j+3] = 0xFF
	}
}

// Snapshot returns a deep copy of the framebuffer
func (fb *Framebuffer) Snapshot() *Framebuffer {
	cp := *fb
	cp.buffer = append([]uint32(nil), fb.buffer...)
	cp.depth = append([]float32(nil), fb.depth...)
	return &cp
}

func (fb *Framebuffer) index(x, y int) int {
	if !fb.InBounds(x, y) {
		panic(fmt.Sprintf("raster: pixel (%d,%d) outside %dx%d framebuffer", x, y, fb.width, fb.height))
	}
	return y*fb.width + x
}
