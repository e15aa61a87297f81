package main

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCreateScene(t *testing.T) {
	tests := []struct {
		name        string
		sceneType   string
		expectError bool
	}{
		// Built-in scenes
		{"solar system", "solar-system", false},
		{"showcase", "showcase", false},
		{"single planet", "planet:water", false},

		// Scene files
		{"yaml scene file", "scenes/binary_planets.yaml", false},
		{"toml scene file", "scenes/crystal_row.toml", false},

		// Invalid scenes
		{"unknown scene", "nonexistent", true},
		{"unknown shader", "planet:plasma", true},
		{"missing scene file", "scenes/nonexistent.yaml", true},
		{"empty scene name", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scene, err := createScene(tt.sceneType)

			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error for scene type '%s', but got none", tt.sceneType)
				}
				if scene != nil {
					t.Errorf("Expected nil scene for invalid scene type '%s'", tt.sceneType)
				}
				return
			}

			if err != nil {
				t.Fatalf("Unexpected error for scene type '%s': %v", tt.sceneType, err)
			}
			if len(scene.Bodies) == 0 {
				t.Errorf("Scene '%s' has no bodies", tt.sceneType)
			}
			if scene.TriangleCount() == 0 {
				t.Errorf("Scene '%s' has no triangles", tt.sceneType)
			}
		})
	}
}

func TestCreateOutputDir(t *testing.T) {
	tests := []struct {
		name      string
		sceneType string
		expected  string
	}{
		{"built-in scene", "solar-system", filepath.Join("output", "solar-system")},
		{"planet scene", "planet:lava", filepath.Join("output", "planet-lava")},
		{"scene file path", "scenes/binary_planets.yaml", filepath.Join("output", "binary_planets")},
		{"nested scene file", "scenes/subdir/my-scene.toml", filepath.Join("output", "my-scene")},
		{"empty", "", filepath.Join("output", "solar-system")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := createOutputDir(tt.sceneType); got != tt.expected {
				t.Errorf("createOutputDir(%q) = %q, want %q", tt.sceneType, got, tt.expected)
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
		wantErr  bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			level, err := parseLogLevel(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected error for %q", tt.input)
				}
				return
			}
			if err != nil || level != tt.expected {
				t.Errorf("parseLogLevel(%q) = %v, %v; want %v", tt.input, level, err, tt.expected)
			}
		})
	}
}

func TestUpscale(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2, 1))
	red := color.RGBA{R: 255, A: 255}
	blue := color.RGBA{B: 255, A: 255}
	src.SetRGBA(0, 0, red)
	src.SetRGBA(1, 0, blue)

	if upscale(src, 1) != src {
		t.Error("Factor 1 should return the source image")
	}

	dst := upscale(src, 3)
	if dst.Bounds().Dx() != 6 || dst.Bounds().Dy() != 3 {
		t.Fatalf("Expected 6x3 image, got %v", dst.Bounds())
	}
	for y := 0; y < 3; y++ {
		for x := 0; x < 6; x++ {
			want := red
			if x >= 3 {
				want = blue
			}
			if got := dst.RGBAAt(x, y); got != want {
				t.Errorf("Pixel (%d,%d) = %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestWriteFrames(t *testing.T) {
	dir := t.TempDir()
	opts := options{
		scene:  "planet:crystal",
		frames: 3,
		start:  10,
		step:   5,
		width:  40,
		height: 30,
		out:    dir,
		scale:  2,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	if err := run(context.Background(), opts, logger); err != nil {
		t.Fatalf("run() error: %v", err)
	}

	for i := 0; i < opts.frames; i++ {
		path := filepath.Join(dir, fmt.Sprintf("frame_%04d.png", i))
		file, err := os.Open(path)
		if err != nil {
			t.Fatalf("Missing frame %d: %v", i, err)
		}
		img, err := png.Decode(file)
		file.Close()
		if err != nil {
			t.Fatalf("Frame %d is not a PNG: %v", i, err)
		}
		if img.Bounds().Dx() != 80 || img.Bounds().Dy() != 60 {
			t.Errorf("Frame %d has size %v, expected 80x60", i, img.Bounds())
		}
	}
}

func TestRun_RejectsBadOptions(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	base := options{scene: "showcase", frames: 1, width: 10, height: 10, scale: 1, out: t.TempDir()}

	tests := []struct {
		name   string
		mutate func(*options)
		msg    string
	}{
		{"zero width", func(o *options) { o.width = 0 }, "invalid size"},
		{"zero scale", func(o *options) { o.scale = 0 }, "scale"},
		{"zero frames", func(o *options) { o.frames = 0 }, "frames"},
		{"unknown scene", func(o *options) { o.scene = "nebula" }, "nebula"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := base
			tt.mutate(&opts)
			err := run(context.Background(), opts, logger)
			if err == nil || !strings.Contains(err.Error(), tt.msg) {
				t.Errorf("Expected error containing %q, got %v", tt.msg, err)
			}
		})
	}
}
