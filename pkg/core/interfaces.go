package core

import (
	"fmt"
	"log/slog"
	"strings"
)

// Logger interface for renderer logging
type Logger interface {
	Printf(format string, args ...interface{})
}

// Noise is a seeded procedural noise source. Values are roughly in [-1, 1]
// and deterministic for a fixed seed. Implementations must be safe for
// concurrent use since tiles are shaded in parallel.
type Noise interface {
	Noise2(x, y float32) float32
	Noise3(x, y, z float32) float32
}

// slogLogger adapts a *slog.Logger to Logger
type slogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger returns a Logger that emits each Printf call as an info record
func NewSlogLogger(logger *slog.Logger) Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &slogLogger{logger: logger}
}

func (l *slogLogger) Printf(format string, args ...interface{}) {
	l.logger.Info(strings.TrimRight(fmt.Sprintf(format, args...), "\n"))
}
