package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/df07/go-planet-rasterizer/pkg/hud"
	"github.com/df07/go-planet-rasterizer/pkg/raster"
	"github.com/df07/go-planet-rasterizer/pkg/renderer"
	"github.com/df07/go-planet-rasterizer/pkg/scene"
)

const (
	defaultLiveFPS = 30
	maxLiveFPS     = 60
	writeTimeout   = 5 * time.Second
	// maxCommandSize bounds one client message; commands are a few short names
	maxCommandSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 64 * 1024,
}

// LiveCommand is a client message on the live socket. Actions use the camera
// action names, e.g. "orbit-left" or "zoom-in".
type LiveCommand struct {
	Actions []string `json:"actions"`
	Pause   *bool    `json:"pause,omitempty"`
	Reset   bool     `json:"reset,omitempty"`
}

// LiveStatus is sent as a text message after each command
type LiveStatus struct {
	FrameTime uint32                `json:"frameTime"`
	Paused    bool                  `json:"paused"`
	Camera    renderer.CameraConfig `json:"camera"`
	Error     string                `json:"error,omitempty"`
}

// liveSession is one interactive viewer over a websocket. The read loop
// mutates the camera and the render loop reads it, so both go through mu.
type liveSession struct {
	conn     *websocket.Conn
	scene    *scene.Scene
	renderer *renderer.FrameRenderer
	fb       *raster.Framebuffer
	overlay  *hud.Overlay
	controls renderer.Controls
	interval time.Duration // 0 renders only after commands

	mu        sync.Mutex
	camera    *renderer.Camera
	frameTime uint32
	paused    bool

	redraw   chan struct{}
	statuses chan LiveStatus
}

// handleLive streams PNG frames over a websocket and applies camera commands
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	req := &RenderRequest{}
	if err := s.parseCommonSceneParams(r, req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid scene parameters: "+err.Error())
		return
	}
	fps, err := parseFloatParam(r.URL.Query(), "fps", defaultLiveFPS, 0, maxLiveFPS)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sceneObj, err := s.createScene(req.Scene)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Unknown scene: "+err.Error())
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxCommandSize)

	fr := renderer.NewFrameRenderer(frameConfig(sceneObj, req), sceneObj.NewNoise(), NewWebLogger("live", nil))
	defer fr.Close()

	session := &liveSession{
		conn:     conn,
		scene:    sceneObj,
		renderer: fr,
		fb:       fr.NewFramebuffer(),
		controls: renderer.DefaultControls(),
		camera:   sceneObj.NewCamera(),
		redraw:   make(chan struct{}, 1),
		statuses: make(chan LiveStatus, 8),
	}
	if fps > 0 {
		session.interval = time.Duration(float64(time.Second) / fps)
	}
	if parseBoolParam(r.URL.Query(), "hud") {
		session.overlay = hud.New()
	}

	s.logger.Info("live session started", "scene", sceneObj.Name, "size", fmt.Sprintf("%dx%d", req.Width, req.Height), "fps", fps)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go func() {
		defer cancel()
		session.readCommands(ctx)
	}()

	if err := session.renderLoop(ctx); err != nil && ctx.Err() == nil {
		s.logger.Warn("live session ended", "error", err)
	}
}

// readCommands applies client commands until the connection closes
func (ls *liveSession) readCommands(ctx context.Context) {
	for {
		_, data, err := ls.conn.ReadMessage()
		if err != nil {
			return
		}

		var cmd LiveCommand
		status := LiveStatus{}
		if err := json.Unmarshal(data, &cmd); err != nil {
			status.Error = fmt.Sprintf("invalid command: %v", err)
		} else if err := ls.apply(cmd); err != nil {
			status.Error = err.Error()
		}

		ls.mu.Lock()
		status.FrameTime = ls.frameTime
		status.Paused = ls.paused
		status.Camera = ls.camera.Config()
		ls.mu.Unlock()

		select {
		case ls.statuses <- status:
		case <-ctx.Done():
			return
		}
		select {
		case ls.redraw <- struct{}{}:
		default:
		}
	}
}

// apply runs one command against the session camera. Unknown actions reject
// the whole command.
func (ls *liveSession) apply(cmd LiveCommand) error {
	actions := make([]renderer.CameraAction, 0, len(cmd.Actions))
	for _, name := range cmd.Actions {
		action, err := renderer.ParseCameraAction(name)
		if err != nil {
			return err
		}
		actions = append(actions, action)
	}

	ls.mu.Lock()
	defer ls.mu.Unlock()
	if cmd.Reset {
		ls.camera = ls.scene.NewCamera()
	}
	if cmd.Pause != nil {
		ls.paused = *cmd.Pause
	}
	ls.controls.Apply(ls.camera, actions...)
	return nil
}

// renderLoop sends a frame on every tick, or after every command when the
// session has no frame rate
func (ls *liveSession) renderLoop(ctx context.Context) error {
	var tick <-chan time.Time
	if ls.interval > 0 {
		ticker := time.NewTicker(ls.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	// First frame right away
	if err := ls.sendFrame(false); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case status := <-ls.statuses:
			if err := ls.writeJSON(status); err != nil {
				return err
			}
		case <-ls.redraw:
			if ls.interval == 0 {
				if err := ls.sendFrame(false); err != nil {
					return err
				}
			}
		case <-tick:
			if err := ls.sendFrame(true); err != nil {
				return err
			}
		}
	}
}

// sendFrame renders the current state and writes it as a PNG binary message
func (ls *liveSession) sendFrame(advance bool) error {
	ls.mu.Lock()
	if advance && !ls.paused {
		ls.frameTime++
	}
	camera := *ls.camera
	frameTime := ls.frameTime
	paused := ls.paused
	ls.mu.Unlock()

	stats, err := ls.renderer.RenderFrame(ls.fb, &camera, ls.scene, frameTime)
	if err != nil {
		return err
	}
	if ls.overlay != nil {
		info := hud.Info{Scene: ls.scene.Name, FrameTime: frameTime, Stats: stats, Camera: &camera, Paused: paused}
		ls.overlay.Draw(ls.fb, info.Lines()...)
	}

	data, err := encodePNG(ls.fb.Image())
	if err != nil {
		return err
	}
	ls.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return ls.conn.WriteMessage(websocket.BinaryMessage, data)
}

func (ls *liveSession) writeJSON(v interface{}) error {
	ls.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return ls.conn.WriteJSON(v)
}
