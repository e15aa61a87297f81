package server

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/df07/go-planet-rasterizer/pkg/core"
)

// ConsoleMessage is one render log line shown in the browser console
type ConsoleMessage struct {
	RenderID  string    `json:"renderId"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"` // "info", "warning" or "error"
}

// WebLogger is the core.Logger handed to renderers started by a request. Each
// line goes to the process log, tagged with the render id, and is offered to
// the request's console channel without blocking; lines are dropped when the
// channel is full or nil.
type WebLogger struct {
	renderID    string
	consoleChan chan<- ConsoleMessage
	logger      *slog.Logger
}

// NewWebLogger creates a logger for one render that mirrors to slog.Default
func NewWebLogger(renderID string, consoleChan chan<- ConsoleMessage) core.Logger {
	return newWebLogger(renderID, consoleChan, slog.Default())
}

func newWebLogger(renderID string, consoleChan chan<- ConsoleMessage, logger *slog.Logger) *WebLogger {
	return &WebLogger{
		renderID:    renderID,
		consoleChan: consoleChan,
		logger:      logger.With("render", renderID),
	}
}

// consoleLevel classifies a line by its "warning:" or "error:" prefix
func consoleLevel(message string) (string, slog.Level) {
	lower := strings.ToLower(strings.TrimSpace(message))
	switch {
	case strings.HasPrefix(lower, "error"):
		return "error", slog.LevelError
	case strings.HasPrefix(lower, "warning"), strings.HasPrefix(lower, "warn:"):
		return "warning", slog.LevelWarn
	default:
		return "info", slog.LevelDebug
	}
}

func (wl *WebLogger) Printf(format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	level, slogLevel := consoleLevel(message)
	wl.logger.Log(context.Background(), slogLevel, strings.TrimRight(message, "\n"))

	if wl.consoleChan == nil {
		return
	}
	msg := ConsoleMessage{
		RenderID:  wl.renderID,
		Message:   message,
		Timestamp: time.Now(),
		Level:     level,
	}
	select {
	case wl.consoleChan <- msg:
	default:
	}
}
