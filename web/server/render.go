package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/df07/go-planet-rasterizer/pkg/core"
	"github.com/df07/go-planet-rasterizer/pkg/renderer"
	"github.com/df07/go-planet-rasterizer/pkg/scene"
)

// FrameUpdate represents a single rendered frame sent via SSE
type FrameUpdate struct {
	FrameIndex  int    `json:"frameIndex"`
	FrameTime   uint32 `json:"frameTime"`
	TotalFrames int    `json:"totalFrames"`
	ImageData   string `json:"imageData"` // Base64 encoded PNG
	Stats       Stats  `json:"stats"`
	ElapsedMs   int64  `json:"elapsedMs"`
}

// SSEEvent represents a unified SSE event for thread-safe writing
type SSEEvent struct {
	Type string `json:"type"` // "console", "frame", "error", "complete"
	Data string `json:"data"` // JSON-encoded data
}

// handleRender renders an animation and streams every frame via SSE
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	// Set SSE headers
	s.setSSEHeaders(w)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Create unified SSE event channel for thread-safe writing
	sseEventChan := make(chan SSEEvent, 100)

	// Start single SSE writer goroutine. It stops writing only when the client
	// disconnects, and the handler waits for it so nothing writes to w after
	// return.
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.writeSSEEvents(w, r.Context(), sseEventChan)
	}()
	defer func() {
		close(sseEventChan)
		<-writerDone
	}()

	// Parse and validate request
	req, err := s.parseRenderRequest(r)
	if err != nil {
		s.handleError(ctx, sseEventChan, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	sceneObj, err := s.createScene(req.Scene)
	if err != nil {
		s.handleError(ctx, sseEventChan, fmt.Sprintf("Unknown scene: %v", err))
		return
	}

	// Setup console logging and streaming
	consoleChan, webLogger := s.setupConsoleLogging()
	consoleDone := make(chan struct{})
	go func() {
		defer close(consoleDone)
		s.streamConsoleMessages(ctx, consoleChan, sseEventChan)
	}()
	defer func() {
		cancel()
		<-consoleDone
	}()

	config := renderer.DefaultAnimationConfig()
	config.Frame = frameConfig(sceneObj, req)
	config.StartTime = uint32(req.Start)
	config.Step = uint32(req.Step)
	config.Frames = req.Frames

	startTime := time.Now()
	frameChan, errChan := renderer.RenderAnimation(ctx, sceneObj, sceneObj.NewCamera(), sceneObj.NewNoise(), config, webLogger)

	s.handleRenderingEvents(ctx, sseEventChan, frameChan, errChan, sceneObj, req, startTime)
}

// setSSEHeaders sets the required headers for Server-Sent Events
func (s *Server) setSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
}

// setupConsoleLogging creates console channel and web logger for a render
func (s *Server) setupConsoleLogging() (chan ConsoleMessage, core.Logger) {
	consoleChan := make(chan ConsoleMessage, 50)
	renderID := fmt.Sprintf("render-%d", time.Now().UnixNano())
	webLogger := NewWebLogger(renderID, consoleChan)
	return consoleChan, webLogger
}

// writeSSEEvents writes events until the channel is closed or the client
// goes away
func (s *Server) writeSSEEvents(w http.ResponseWriter, ctx context.Context, sseEventChan chan SSEEvent) {
	flusher, _ := w.(http.Flusher)
	for event := range sseEventChan {
		if ctx.Err() != nil {
			// Keep draining so senders never block on a gone client
			continue
		}
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, event.Data); err != nil {
			continue
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
}

// streamConsoleMessages forwards render log lines as console events
func (s *Server) streamConsoleMessages(ctx context.Context, consoleChan chan ConsoleMessage, sseEventChan chan SSEEvent) {
	for {
		select {
		case consoleMsg := <-consoleChan:
			data, err := json.Marshal(consoleMsg)
			if err != nil {
				s.logger.Error("failed to marshal console message", "error", err)
				continue
			}

			select {
			case sseEventChan <- SSEEvent{Type: "console", Data: string(data)}:
			case <-ctx.Done():
				return
			default:
				// Channel full, skip message to avoid blocking
			}

		case <-ctx.Done():
			return
		}
	}
}

// handleRenderingEvents forwards frames until the animation finishes
func (s *Server) handleRenderingEvents(ctx context.Context, sseEventChan chan SSEEvent,
	frameChan <-chan renderer.AnimationFrame, errChan <-chan error,
	sceneObj *scene.Scene, req *RenderRequest, startTime time.Time) {

	for frame := range frameChan {
		if err := s.handleFrame(ctx, sseEventChan, frame, req, startTime); err != nil {
			s.handleError(ctx, sseEventChan, err.Error())
			return
		}
	}

	if err := <-errChan; err != nil {
		if ctx.Err() == nil {
			s.handleError(ctx, sseEventChan, fmt.Sprintf("Rendering failed: %v", err))
		}
		return
	}

	s.logger.Info("render complete",
		"scene", sceneObj.Name,
		"frames", req.Frames,
		"size", fmt.Sprintf("%dx%d", req.Width, req.Height),
		"elapsed", time.Since(startTime).Round(time.Millisecond))

	select {
	case sseEventChan <- SSEEvent{Type: "complete", Data: "Rendering completed"}:
	case <-ctx.Done():
	}
}

// handleFrame encodes one frame and queues it as a frame event
func (s *Server) handleFrame(ctx context.Context, sseEventChan chan SSEEvent, frame renderer.AnimationFrame, req *RenderRequest, startTime time.Time) error {
	imageData, err := imageToBase64PNG(frame.Image)
	if err != nil {
		return fmt.Errorf("failed to encode frame %d: %w", frame.Index, err)
	}

	update := FrameUpdate{
		FrameIndex:  frame.Index,
		FrameTime:   frame.Time,
		TotalFrames: req.Frames,
		ImageData:   imageData,
		Stats:       newStats(frame.Stats),
		ElapsedMs:   time.Since(startTime).Milliseconds(),
	}

	data, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("failed to marshal frame %d: %w", frame.Index, err)
	}

	select {
	case sseEventChan <- SSEEvent{Type: "frame", Data: string(data)}:
	case <-ctx.Done():
	}
	return nil
}

// parseRenderRequest parses request parameters
func (s *Server) parseRenderRequest(r *http.Request) (*RenderRequest, error) {
	req := &RenderRequest{}

	// Parse common scene parameters using shared function
	if err := s.parseCommonSceneParams(r, req); err != nil {
		return nil, err
	}

	query := r.URL.Query()
	var err error
	if req.Frames, err = parseIntParam(query, "frames", DefaultFrames, 1, MaxFrames); err != nil {
		return nil, err
	}
	if req.Start, err = parseIntParam(query, "start", 0, 0, 1<<30); err != nil {
		return nil, err
	}
	if req.Step, err = parseIntParam(query, "step", 1, 1, 1000); err != nil {
		return nil, err
	}

	// Performance warning
	if req.Width*req.Height > 800*600 && req.Frames > 600 {
		s.logger.Warn("large render requested", "size", fmt.Sprintf("%dx%d", req.Width, req.Height), "frames", req.Frames)
	}

	return req, nil
}

// handleError sends an error event to the SSE channel
func (s *Server) handleError(ctx context.Context, sseEventChan chan SSEEvent, message string) {
	select {
	case sseEventChan <- SSEEvent{Type: "error", Data: message}:
	case <-ctx.Done():
		// Client disconnected, don't block
	}
}
