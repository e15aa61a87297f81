package server

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-planet-rasterizer/pkg/scene"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	dir := t.TempDir()
	content := "name: Test Twins\nbodies:\n  - shader: water\n  - shader: lava\n    orbit_radius: 3\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "twins.yaml"), []byte(content), 0644))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ts := httptest.NewServer(NewServer(0, dir, logger).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func getJSON(t *testing.T, url string, v interface{}) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	return resp.StatusCode
}

type sseEvent struct {
	event string
	data  string
}

func readSSE(t *testing.T, body io.Reader) []sseEvent {
	t.Helper()
	var events []sseEvent
	var current sseEvent
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 1024*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			current.event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			current.data = strings.TrimPrefix(line, "data: ")
		case line == "":
			if current.event != "" {
				events = append(events, current)
			}
			current = sseEvent{}
		}
	}
	require.NoError(t, scanner.Err())
	return events
}

func TestHandleHealth(t *testing.T) {
	ts := newTestServer(t)

	var body map[string]string
	status := getJSON(t, ts.URL+"/api/health", &body)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
}

func TestHandleScenes(t *testing.T) {
	ts := newTestServer(t)

	var response scene.ScenesResponse
	status := getJSON(t, ts.URL+"/api/scenes", &response)
	require.Equal(t, http.StatusOK, status)

	var fileScene *scene.SceneInfo
	for gi := range response.Groups {
		for i, info := range response.Groups[gi].Scenes {
			if info.Type == "file" {
				fileScene = &response.Groups[gi].Scenes[i]
			}
		}
	}
	require.NotNil(t, fileScene, "scene file should be listed")
	assert.Equal(t, "twins.yaml", fileScene.ID, "file scenes are addressed by base name")
	assert.Empty(t, fileScene.FilePath, "server paths are not exposed")
	assert.Equal(t, "Test Twins", fileScene.DisplayName)
}

func TestHandleSceneConfig(t *testing.T) {
	ts := newTestServer(t)

	var config map[string]interface{}
	status := getJSON(t, ts.URL+"/api/scene-config?scene=solar-system", &config)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Solar System", config["name"])
	assert.Equal(t, "#333355", config["background"])
	assert.Len(t, config["bodies"], 6)

	status = getJSON(t, ts.URL+"/api/scene-config?scene=twins.yaml", &config)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Test Twins", config["name"])

	var errBody map[string]string
	status = getJSON(t, ts.URL+"/api/scene-config?scene=andromeda", &errBody)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, errBody["error"], "andromeda")

	status = getJSON(t, ts.URL+"/api/scene-config?scene=../../etc/passwd.yaml", &errBody)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestHandleRender_StreamsFrames(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/render?scene=planet:water&width=32&height=24&frames=3&start=5&step=2")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	events := readSSE(t, resp.Body)
	var frames []FrameUpdate
	for _, e := range events {
		switch e.event {
		case "frame":
			var update FrameUpdate
			require.NoError(t, json.Unmarshal([]byte(e.data), &update))
			frames = append(frames, update)
		case "error":
			t.Fatalf("Unexpected error event: %s", e.data)
		}
	}

	require.Len(t, frames, 3)
	for i, f := range frames {
		assert.Equal(t, i, f.FrameIndex)
		assert.Equal(t, uint32(5+2*i), f.FrameTime)
		assert.Equal(t, 3, f.TotalFrames)
		assert.Positive(t, f.Stats.PixelsWritten)

		data, err := base64.StdEncoding.DecodeString(f.ImageData)
		require.NoError(t, err)
		img, err := png.Decode(bytes.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, 32, img.Bounds().Dx())
		assert.Equal(t, 24, img.Bounds().Dy())
	}
	assert.Equal(t, "complete", events[len(events)-1].event)
}

func TestHandleRender_InvalidRequest(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name  string
		query string
		msg   string
	}{
		{"width too small", "width=2", "width must be between"},
		{"bad frames", "frames=abc", "invalid frames"},
		{"unknown scene", "scene=nebula", "Unknown scene"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Get(ts.URL + "/api/render?" + tt.query)
			require.NoError(t, err)
			defer resp.Body.Close()

			events := readSSE(t, resp.Body)
			require.Len(t, events, 1)
			assert.Equal(t, "error", events[0].event)
			assert.Contains(t, events[0].data, tt.msg)
		})
	}
}

func TestHandleInspect(t *testing.T) {
	ts := newTestServer(t)

	var hit InspectResponse
	status := getJSON(t, ts.URL+"/api/inspect?scene=planet:lava&width=64&height=48&x=32&y=24&t=10", &hit)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, hit.Hit)
	assert.Equal(t, "lava", hit.Body)
	assert.Equal(t, "lava", hit.Shader)
	assert.Regexp(t, `^#[0-9a-f]{6}$`, hit.Color)
	assert.InDelta(t, 1, hit.Barycentric[0]+hit.Barycentric[1]+hit.Barycentric[2], 1e-4)
	assert.Positive(t, hit.Covering)
	assert.Contains(t, hit.Properties, "worldPosition")

	var miss InspectResponse
	status = getJSON(t, ts.URL+"/api/inspect?scene=planet:lava&width=64&height=48&x=0&y=0", &miss)
	require.Equal(t, http.StatusOK, status)
	assert.False(t, miss.Hit)

	var errBody map[string]string
	status = getJSON(t, ts.URL+"/api/inspect?scene=planet:lava&width=64&height=48&x=64&y=0", &errBody)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, errBody["error"], "out of bounds")

	status = getJSON(t, ts.URL+"/api/inspect?scene=planet:lava&x=abc&y=0", &errBody)
	assert.Equal(t, http.StatusBadRequest, status)
}

func dialLive(t *testing.T, ts *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/live?" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(10*time.Second)))
	return conn
}

func TestHandleLive_CommandsMoveCamera(t *testing.T) {
	ts := newTestServer(t)
	conn := dialLive(t, ts, "scene=planet:crystal&width=40&height=30&fps=0&hud=true")

	// First frame arrives without any command
	kind, data, err := conn.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, websocket.BinaryMessage, kind)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 40, img.Bounds().Dx())

	require.NoError(t, conn.WriteJSON(LiveCommand{Actions: []string{"zoom-in", "pan-right"}}))

	var status *LiveStatus
	var frames int
	for status == nil || frames == 0 {
		kind, data, err := conn.ReadMessage()
		require.NoError(t, err)
		if kind == websocket.TextMessage {
			status = &LiveStatus{}
			require.NoError(t, json.Unmarshal(data, status))
		} else {
			frames++
		}
	}

	assert.Empty(t, status.Error)
	assert.Equal(t, [3]float32{1, 0, 0}, status.Camera.Center)
	assert.InDelta(t, 1, status.Camera.Eye[0], 1e-5)
	assert.InDelta(t, 3.9, status.Camera.Eye[2], 1e-5)
	assert.Equal(t, uint32(0), status.FrameTime, "frames only advance on ticks")
}

func TestHandleLive_RejectsUnknownAction(t *testing.T) {
	ts := newTestServer(t)
	conn := dialLive(t, ts, "scene=planet:arid&width=20&height=20&fps=0")

	_, _, err := conn.ReadMessage()
	require.NoError(t, err)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"actions":["zoom-in","barrel-roll"]}`)))
	for {
		kind, data, err := conn.ReadMessage()
		require.NoError(t, err)
		if kind != websocket.TextMessage {
			continue
		}
		var status LiveStatus
		require.NoError(t, json.Unmarshal(data, &status))
		assert.Contains(t, status.Error, "barrel-roll")
		assert.Equal(t, [3]float32{0, 0, 4}, status.Camera.Eye, "a rejected command must not move the camera")
		return
	}
}

func TestHandleLive_OversizedCommandClosesSession(t *testing.T) {
	ts := newTestServer(t)
	conn := dialLive(t, ts, "scene=planet:arid&width=20&height=20&fps=0")

	_, _, err := conn.ReadMessage()
	require.NoError(t, err)

	padding := strings.Repeat(" ", 2*maxCommandSize)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"actions":["zoom-in"]}`+padding)))

	_, _, err = conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseMessageTooBig), "unexpected error: %v", err)
}

func TestHandleLive_TicksAdvanceTime(t *testing.T) {
	ts := newTestServer(t)
	conn := dialLive(t, ts, "scene=planet:water&width=16&height=16&fps=60")

	for i := 0; i < 3; i++ {
		kind, _, err := conn.ReadMessage()
		require.NoError(t, err)
		assert.Equal(t, websocket.BinaryMessage, kind)
	}

	require.NoError(t, conn.WriteJSON(LiveCommand{}))
	for {
		kind, data, err := conn.ReadMessage()
		require.NoError(t, err)
		if kind != websocket.TextMessage {
			continue
		}
		var status LiveStatus
		require.NoError(t, json.Unmarshal(data, &status))
		assert.GreaterOrEqual(t, status.FrameTime, uint32(2))
		return
	}
}

func TestHandleLive_BadParams(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/live?fps=500")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
