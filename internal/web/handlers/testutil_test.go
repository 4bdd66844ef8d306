package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/face-overlay/internal/acquire"
	"github.com/kozaktomas/face-overlay/internal/assets"
	"github.com/kozaktomas/face-overlay/internal/detector"
	"github.com/kozaktomas/face-overlay/internal/logging"
	"github.com/kozaktomas/face-overlay/internal/notice"
	"github.com/kozaktomas/face-overlay/internal/overlay"
	"github.com/kozaktomas/face-overlay/internal/session"
	"github.com/kozaktomas/face-overlay/internal/web/middleware"
)

// testEnv bundles a session handler with its router.
type testEnv struct {
	handler *SessionHandler
	session *session.Session
	router  chi.Router
}

// newTestEnv wires a real session and overlay processor around d.
func newTestEnv(t *testing.T, d *detector.Static) *testEnv {
	t.Helper()
	return newTestEnvWithCameras(t, d)
}

// newTestEnvWithCameras is newTestEnv with capture allowed from cameraURLs.
func newTestEnvWithCameras(t *testing.T, d *detector.Static, cameraURLs ...string) *testEnv {
	t.Helper()
	logger := logging.Discard()

	processor, err := overlay.New(assets.Bundled(), d.Factory(), overlay.Options{}, logger)
	if err != nil {
		t.Fatalf("failed to create processor: %v", err)
	}
	sess := session.New(processor, logger)
	t.Cleanup(sess.Close)

	catalog := notice.New("en")
	h := NewSessionHandler(sess, acquire.NewCamera(nil, cameraURLs...), catalog, logger)

	r := chi.NewRouter()
	r.Use(middleware.Language(catalog))
	r.Get("/api/v1/health", HealthCheck)
	r.Get("/api/v1/state", h.State)
	r.Get("/api/v1/photo", h.Photo)
	r.Post("/api/v1/photo", h.Upload)
	r.Post("/api/v1/photo/capture", h.Capture)
	r.Post("/api/v1/process", h.Process)
	r.Post("/api/v1/notice/dismiss", h.DismissNotice)
	r.Post("/api/v1/share", h.Share)
	r.Get("/api/v1/events", h.Events)

	return &testEnv{handler: h, session: sess, router: r}
}

func (e *testEnv) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) waitIdle(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.session.Wait(ctx); err != nil {
		t.Fatalf("session did not become idle: %v", err)
	}
}

// testPNG encodes a w x h grey photo.
func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := range w {
		for y := range h {
			img.Set(x, y, color.RGBA{R: 90, G: 90, B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return buf.Bytes()
}

// uploadRequest builds a multipart upload with data in the "file" field.
func uploadRequest(t *testing.T, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "photo.png")
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("failed to write form file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/photo", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func decodeState(t *testing.T, rec *httptest.ResponseRecorder) StateResponse {
	t.Helper()
	var state StateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil {
		t.Fatalf("failed to unmarshal state: %v (body: %s)", err, rec.Body.String())
	}
	return state
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var result map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to unmarshal error: %v (body: %s)", err, rec.Body.String())
	}
	return result
}
