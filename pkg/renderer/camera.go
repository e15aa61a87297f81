package renderer

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/df07/go-planet-rasterizer/pkg/transform"
)

// DefaultMinDistance is the closest the eye may get to the center by zooming
const DefaultMinDistance = 0.5

// pitchLimit keeps the eye away from the poles so Up never lines up with the
// view direction.
const pitchLimit = math32.Pi/2 - 0.1

// Camera is a look-at camera that orbits, zooms and pans around its center.
// It is not safe for concurrent mutation; drivers that share it across
// goroutines guard it themselves.
type Camera struct {
	Eye    mgl32.Vec3
	Center mgl32.Vec3
	Up     mgl32.Vec3

	MinDistance float32 // Zoom floor for the eye-center distance

	changed bool
}

// CameraConfig is the serializable form of a camera
type CameraConfig struct {
	Eye    [3]float32 `yaml:"eye" toml:"eye" json:"eye"`
	Center [3]float32 `yaml:"center" toml:"center" json:"center"`
	Up     [3]float32 `yaml:"up" toml:"up" json:"up"`
}

// NewCamera creates a camera. It starts marked as changed so the first frame
// is always drawn.
func NewCamera(eye, center, up mgl32.Vec3) *Camera {
	return &Camera{
		Eye:         eye,
		Center:      center,
		Up:          up,
		MinDistance: DefaultMinDistance,
		changed:     true,
	}
}

// NewCameraFromConfig creates a camera from its serialized form. A zero up
// vector defaults to +Y.
func NewCameraFromConfig(cfg CameraConfig) *Camera {
	up := mgl32.Vec3(cfg.Up)
	if up.Len() == 0 {
		up = mgl32.Vec3{0, 1, 0}
	}
	return NewCamera(mgl32.Vec3(cfg.Eye), mgl32.Vec3(cfg.Center), up)
}

// Config returns the serializable form of the camera
func (c *Camera) Config() CameraConfig {
	return CameraConfig{Eye: c.Eye, Center: c.Center, Up: c.Up}
}

// ViewMatrix returns the world-to-camera transform
func (c *Camera) ViewMatrix() mgl32.Mat4 {
	return transform.CreateViewMatrix(c.Eye, c.Center, c.Up)
}

// Distance returns the eye-center distance
func (c *Camera) Distance() float32 {
	return c.Eye.Sub(c.Center).Len()
}

// Orbit moves the eye over the sphere around Center, keeping the current
// distance. deltaAzimuth turns around the vertical axis and deltaPolar tilts
// toward the poles; the polar angle stays within ±(π/2 - 0.1).
func (c *Camera) Orbit(deltaAzimuth, deltaPolar float32) {
	offset := c.Eye.Sub(c.Center)
	radius := offset.Len()
	if radius == 0 {
		return
	}

	azimuth := math32.Atan2(offset.Z(), offset.X())
	radiusXZ := math32.Sqrt(offset.X()*offset.X() + offset.Z()*offset.Z())
	polar := math32.Atan2(-offset.Y(), radiusXZ)

	azimuth += deltaAzimuth
	polar = clampF32(polar+deltaPolar, -pitchLimit, pitchLimit)

	c.Eye = c.Center.Add(mgl32.Vec3{
		radius * math32.Cos(azimuth) * math32.Cos(polar),
		-radius * math32.Sin(polar),
		radius * math32.Sin(azimuth) * math32.Cos(polar),
	})
	c.changed = true
}

// Zoom moves the eye toward the center by delta (away for a negative delta).
// The distance never drops below MinDistance.
func (c *Camera) Zoom(delta float32) {
	offset := c.Eye.Sub(c.Center)
	dist := offset.Len()
	if dist == 0 {
		return
	}

	minDist := c.MinDistance
	if minDist <= 0 {
		minDist = DefaultMinDistance
	}

	target := max(dist-delta, minDist)
	c.Eye = c.Center.Add(offset.Mul(target / dist))
	c.changed = true
}

// MoveCenter pans the camera: eye and center move by the same offset
func (c *Camera) MoveCenter(offset mgl32.Vec3) {
	c.Eye = c.Eye.Add(offset)
	c.Center = c.Center.Add(offset)
	c.changed = true
}

// Changed reports whether the camera moved since the last ResetChanged
func (c *Camera) Changed() bool {
	return c.changed
}

// ResetChanged clears the changed flag after a redraw
func (c *Camera) ResetChanged() {
	c.changed = false
}

func clampF32(v, lo, hi float32) float32 {
	return math32.Max(lo, math32.Min(v, hi))
}
