package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/df07/go-planet-rasterizer/pkg/renderer"
	"github.com/df07/go-planet-rasterizer/pkg/scene"
)

// InspectResponse represents the JSON response for pixel inspection
type InspectResponse struct {
	Hit         bool                   `json:"hit"`
	Body        string                 `json:"body"`
	Shader      string                 `json:"shader"`
	Triangle    int                    `json:"triangle"`
	Position    [3]float32             `json:"position"` // Object-space sampling coordinates
	Normal      [3]float32             `json:"normal"`
	Depth       float32                `json:"depth"`
	Intensity   float32                `json:"intensity"`
	Barycentric [3]float32             `json:"barycentric"`
	Color       string                 `json:"color"`
	Covering    int                    `json:"covering"` // Fragments at the pixel, hidden ones included
	Properties  map[string]interface{} `json:"properties"`
}

// extractBodyInfo describes the placement of the inspected body at frameTime
func extractBodyInfo(sceneObj *scene.Scene, index int, frameTime uint32) map[string]interface{} {
	properties := make(map[string]interface{})
	if index < 0 || index >= len(sceneObj.Bodies) {
		return properties
	}

	b := sceneObj.Bodies[index]
	position, rotation := sceneObj.BodyTransform(index, frameTime)
	properties["mesh"] = b.Mesh
	properties["scale"] = b.Scale
	properties["worldPosition"] = [3]float32{position.X(), position.Y(), position.Z()}
	properties["rotation"] = [3]float32{rotation.X(), rotation.Y(), rotation.Z()}
	if b.OrbitRadius > 0 {
		properties["orbitRadius"] = b.OrbitRadius
		properties["orbitSpeed"] = b.OrbitSpeed
	}
	return properties
}

// inspectPixel finds the visible fragment at a pixel of the scene's frame
func inspectPixel(sceneObj *scene.Scene, req *RenderRequest, frameTime uint32, pixelX, pixelY int) (renderer.Inspection, bool) {
	config := frameConfig(sceneObj, req)
	config.Parallel = false
	fr := renderer.NewFrameRenderer(config, sceneObj.NewNoise(), NewWebLogger("inspect", nil))
	defer fr.Close()

	return fr.Inspect(sceneObj.NewCamera(), sceneObj.Drawables(frameTime), frameTime, pixelX, pixelY)
}

// handleInspect reports which body and fragment is visible at a pixel
func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	// Create request object for parameter parsing
	inspectReq := &RenderRequest{}

	// Parse common scene parameters using shared function
	if err := s.parseCommonSceneParams(r, inspectReq); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid scene parameters: "+err.Error())
		return
	}

	// Parse pixel coordinates
	pixelX, err := strconv.Atoi(r.URL.Query().Get("x"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid x coordinate")
		return
	}

	pixelY, err := strconv.Atoi(r.URL.Query().Get("y"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid y coordinate")
		return
	}

	// Validate pixel coordinates
	if pixelX < 0 || pixelX >= inspectReq.Width || pixelY < 0 || pixelY >= inspectReq.Height {
		writeError(w, http.StatusBadRequest, "Pixel coordinates out of bounds")
		return
	}

	frameTime, err := parseIntParam(r.URL.Query(), "t", 0, 0, 1<<30)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sceneObj, err := s.createScene(inspectReq.Scene)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Unknown scene: "+err.Error())
		return
	}

	result, ok := inspectPixel(sceneObj, inspectReq, uint32(frameTime), pixelX, pixelY)
	if !ok {
		writeJSON(w, http.StatusOK, InspectResponse{Hit: false})
		return
	}

	f := result.Fragment
	response := InspectResponse{
		Hit:         true,
		Body:        result.Name,
		Shader:      result.Shader.String(),
		Triangle:    result.Triangle,
		Position:    [3]float32{f.VertexPosition.X(), f.VertexPosition.Y(), f.VertexPosition.Z()},
		Normal:      [3]float32{f.Normal.X(), f.Normal.Y(), f.Normal.Z()},
		Depth:       f.Depth,
		Intensity:   f.Intensity,
		Barycentric: [3]float32{f.Barycentric.X(), f.Barycentric.Y(), f.Barycentric.Z()},
		Color:       fmt.Sprintf("#%06x", result.Color.Hex()),
		Covering:    result.Covering,
		Properties:  extractBodyInfo(sceneObj, result.Drawable, uint32(frameTime)),
	}
	writeJSON(w, http.StatusOK, response)
}
