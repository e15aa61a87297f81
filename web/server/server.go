package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"

	"github.com/df07/go-planet-rasterizer/pkg/renderer"
	"github.com/df07/go-planet-rasterizer/pkg/scene"
	"github.com/df07/go-planet-rasterizer/pkg/shader"
)

// Request limits shared by every endpoint
const (
	DefaultWidth  = 800
	DefaultHeight = 600
	MinSize       = 16
	MaxSize       = 2000
	DefaultFrames = 120
	MaxFrames     = 10000
)

// Server handles web requests for the planet rasterizer
type Server struct {
	port      int
	scenesDir string
	staticDir string
	logger    *slog.Logger
}

// NewServer creates a new web server. Scene files are only read from
// scenesDir.
func NewServer(port int, scenesDir string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		port:      port,
		scenesDir: scenesDir,
		staticDir: "static/",
		logger:    logger,
	}
}

// RenderRequest represents a render request from the client
type RenderRequest struct {
	Scene  string `json:"scene"`  // Built-in scene id or scene file id
	Width  int    `json:"width"`  // Image width
	Height int    `json:"height"` // Image height
	Frames int    `json:"frames"` // Number of frames to stream
	Start  int    `json:"start"`  // Frame time of the first frame
	Step   int    `json:"step"`   // Frame time advance per frame
}

// Stats represents render statistics
type Stats struct {
	Vertices         int     `json:"vertices"`
	Triangles        int     `json:"triangles"`
	SkippedTriangles int     `json:"skippedTriangles"`
	Fragments        int     `json:"fragments"`
	PixelsWritten    int     `json:"pixelsWritten"`
	DepthRejected    int     `json:"depthRejected"`
	Overdraw         float64 `json:"overdraw"`
	RenderMs         float64 `json:"renderMs"`
}

func newStats(s renderer.RenderStats) Stats {
	return Stats{
		Vertices:         s.Vertices,
		Triangles:        s.Triangles,
		SkippedTriangles: s.SkippedTriangles,
		Fragments:        s.Fragments,
		PixelsWritten:    s.PixelsWritten,
		DepthRejected:    s.DepthRejected,
		Overdraw:         s.Overdraw(),
		RenderMs:         float64(s.Duration.Microseconds()) / 1000,
	}
}

// Handler returns the routes of the server
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Serve static files
	mux.Handle("/", http.FileServer(http.Dir(s.staticDir)))

	// API endpoints
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/scenes", s.handleScenes)
	mux.HandleFunc("/api/scene-config", s.handleSceneConfig)
	mux.HandleFunc("/api/render", s.handleRender)
	mux.HandleFunc("/api/inspect", s.handleInspect)
	mux.HandleFunc("/api/live", s.handleLive)
	return mux
}

// Start starts the web server
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("starting web server", "url", fmt.Sprintf("http://localhost%s", addr), "scenes", s.scenesDir)
	return http.ListenAndServe(addr, s.Handler())
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleScenes lists built-in and file scenes grouped for the scene picker
func (s *Server) handleScenes(w http.ResponseWriter, r *http.Request) {
	response, err := scene.ListAllScenes(s.scenesDir)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list scenes: "+err.Error())
		return
	}

	// Scene files are addressed by file name only
	for gi := range response.Groups {
		for i, info := range response.Groups[gi].Scenes {
			if info.Type == "file" {
				response.Groups[gi].Scenes[i].ID = filepath.Base(info.FilePath)
				response.Groups[gi].Scenes[i].FilePath = ""
			}
		}
	}
	writeJSON(w, http.StatusOK, response)
}

// parseCommonSceneParams parses the scene and image size parameters
func (s *Server) parseCommonSceneParams(r *http.Request, req *RenderRequest) error {
	query := r.URL.Query()

	req.Scene = query.Get("scene")
	if req.Scene == "" {
		req.Scene = scene.DefaultSceneName
	}

	var err error
	if req.Width, err = parseIntParam(query, "width", DefaultWidth, MinSize, MaxSize); err != nil {
		return err
	}
	if req.Height, err = parseIntParam(query, "height", DefaultHeight, MinSize, MaxSize); err != nil {
		return err
	}
	return nil
}

// parseIntParam parses an integer parameter from URL query with validation
func parseIntParam(values url.Values, key string, defaultValue, min, max int) (int, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %d and %d, got: %d", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// parseFloatParam parses a float parameter from URL query with validation
func parseFloatParam(values url.Values, key string, defaultValue, min, max float64) (float64, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %f and %f, got: %f", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// parseBoolParam reports whether key is set to a true value
func parseBoolParam(values url.Values, key string) bool {
	v, err := strconv.ParseBool(values.Get(key))
	return err == nil && v
}

// createScene resolves a scene id. File scenes are looked up by base name in
// the scenes directory so clients cannot reach other paths.
func (s *Server) createScene(name string) (*scene.Scene, error) {
	if scene.IsSceneFile(name) {
		if s.scenesDir == "" {
			return nil, fmt.Errorf("scene files are not available")
		}
		return scene.LoadFile(filepath.Join(s.scenesDir, filepath.Base(name)))
	}
	return scene.Create(name)
}

// frameConfig returns the single-frame setup for a request
func frameConfig(sc *scene.Scene, req *RenderRequest) renderer.FrameConfig {
	cfg := renderer.DefaultFrameConfig()
	cfg.Width = req.Width
	cfg.Height = req.Height
	return sc.FrameConfig(cfg)
}

// handleSceneConfig returns the description and defaults of a scene
func (s *Server) handleSceneConfig(w http.ResponseWriter, r *http.Request) {
	sceneName := r.URL.Query().Get("scene")
	if sceneName == "" {
		sceneName = scene.DefaultSceneName
	}

	sceneObj, err := s.createScene(sceneName)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Unknown scene: "+err.Error())
		return
	}

	type bodyInfo struct {
		Name        string  `json:"name"`
		Shader      string  `json:"shader"`
		Mesh        string  `json:"mesh"`
		OrbitRadius float32 `json:"orbitRadius"`
		OrbitSpeed  float32 `json:"orbitSpeed"`
		Scale       float32 `json:"scale"`
	}
	bodies := make([]bodyInfo, 0, len(sceneObj.Bodies))
	for _, b := range sceneObj.Bodies {
		bodies = append(bodies, bodyInfo{
			Name:        b.Name,
			Shader:      b.Shader.String(),
			Mesh:        b.Mesh,
			OrbitRadius: b.OrbitRadius,
			OrbitSpeed:  b.OrbitSpeed,
			Scale:       b.Scale,
		})
	}

	shaders := make([]string, 0)
	for _, st := range shader.AllShaderTypes() {
		shaders = append(shaders, st.String())
	}

	response := map[string]interface{}{
		"scene":       sceneName,
		"name":        sceneObj.Name,
		"description": sceneObj.Description,
		"background":  fmt.Sprintf("#%06x", sceneObj.Background),
		"camera":      sceneObj.Camera,
		"bodies":      bodies,
		"triangles":   sceneObj.TriangleCount(),
		"shaders":     shaders,
		"defaults": map[string]interface{}{
			"width":  DefaultWidth,
			"height": DefaultHeight,
			"frames": DefaultFrames,
			"start":  0,
			"step":   1,
		},
		"limits": map[string]interface{}{
			"width":  map[string]int{"min": MinSize, "max": MaxSize},
			"height": map[string]int{"min": MinSize, "max": MaxSize},
			"frames": map[string]int{"min": 1, "max": MaxFrames},
		},
	}
	writeJSON(w, http.StatusOK, response)
}

// imageToBase64PNG converts an image to base64-encoded PNG
func imageToBase64PNG(img image.Image) (string, error) {
	data, err := encodePNG(img)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	encoder := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := encoder.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
