package renderer

import (
	"fmt"
	"strings"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// CameraAction is one step of interactive camera control
type CameraAction int

const (
	OrbitLeft CameraAction = iota
	OrbitRight
	OrbitUp
	OrbitDown
	PanLeft
	PanRight
	PanUp
	PanDown
	ZoomIn
	ZoomOut
)

var cameraActionNames = [...]string{
	OrbitLeft:  "orbit-left",
	OrbitRight: "orbit-right",
	OrbitUp:    "orbit-up",
	OrbitDown:  "orbit-down",
	PanLeft:    "pan-left",
	PanRight:   "pan-right",
	PanUp:      "pan-up",
	PanDown:    "pan-down",
	ZoomIn:     "zoom-in",
	ZoomOut:    "zoom-out",
}

func (a CameraAction) String() string {
	if a < 0 || int(a) >= len(cameraActionNames) {
		return fmt.Sprintf("CameraAction(%d)", int(a))
	}
	return cameraActionNames[a]
}

// ParseCameraAction converts a name such as "orbit-left" to its action
func ParseCameraAction(name string) (CameraAction, error) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "-")
	for i, n := range cameraActionNames {
		if n == normalized {
			return CameraAction(i), nil
		}
	}
	return 0, fmt.Errorf("unknown camera action %q", name)
}

// Controls holds the step sizes applied per action and per frame
type Controls struct {
	RotationSpeed float32 // radians per orbit step
	MovementSpeed float32 // world units per pan step
	ZoomSpeed     float32 // world units per zoom step
}

// DefaultControls returns pi/50 orbit steps, unit pans and 0.1 zoom steps
func DefaultControls() Controls {
	return Controls{
		RotationSpeed: math32.Pi / 50,
		MovementSpeed: 1,
		ZoomSpeed:     0.1,
	}
}

// Apply performs every action of one frame on camera. Orbits are applied
// first, then all pans as a single center move, then zooms.
func (c Controls) Apply(camera *Camera, actions ...CameraAction) {
	var movement mgl32.Vec3
	var zoom float32

	for _, a := range actions {
		switch a {
		case OrbitLeft:
			camera.Orbit(c.RotationSpeed, 0)
		case OrbitRight:
			camera.Orbit(-c.RotationSpeed, 0)
		case OrbitUp:
			camera.Orbit(0, -c.RotationSpeed)
		case OrbitDown:
			camera.Orbit(0, c.RotationSpeed)
		case PanLeft:
			movement[0] -= c.MovementSpeed
		case PanRight:
			movement[0] += c.MovementSpeed
		case PanUp:
			movement[1] += c.MovementSpeed
		case PanDown:
			movement[1] -= c.MovementSpeed
		case ZoomIn:
			zoom += c.ZoomSpeed
		case ZoomOut:
			zoom -= c.ZoomSpeed
		}
	}

	if movement.Len() > 0 {
		camera.MoveCenter(movement)
	}
	if zoom != 0 {
		camera.Zoom(zoom)
	}
}
