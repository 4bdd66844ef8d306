package config

import (
	"os"
	"testing"
)

func TestLoad_DefaultDetector(t *testing.T) {
	os.Unsetenv("DETECTOR")

	cfg := Load()

	if cfg.Detector.Backend != "pigo" {
		t.Errorf("expected default detector 'pigo', got '%s'", cfg.Detector.Backend)
	}
}

func TestLoad_DetectorIsLowercased(t *testing.T) {
	t.Setenv("DETECTOR", "InsightFace")

	cfg := Load()

	if cfg.Detector.Backend != "insightface" {
		t.Errorf("expected detector 'insightface', got '%s'", cfg.Detector.Backend)
	}
}

func TestLoad_PigoDefaultsFromEmbeddedYAML(t *testing.T) {
	for _, key := range []string{"PIGO_MIN_SIZE", "PIGO_MAX_SIZE", "PIGO_SHIFT_FACTOR", "PIGO_SCALE_FACTOR", "PIGO_IOU_THRESHOLD", "PIGO_MIN_SCORE"} {
		os.Unsetenv(key)
	}

	cfg := Load()

	if cfg.Pigo.MinSize != 20 {
		t.Errorf("expected min size 20, got %d", cfg.Pigo.MinSize)
	}
	if cfg.Pigo.MaxSize != 1000 {
		t.Errorf("expected max size 1000, got %d", cfg.Pigo.MaxSize)
	}
	if cfg.Pigo.ShiftFactor != 0.1 {
		t.Errorf("expected shift factor 0.1, got %f", cfg.Pigo.ShiftFactor)
	}
	if cfg.Pigo.ScaleFactor != 1.1 {
		t.Errorf("expected scale factor 1.1, got %f", cfg.Pigo.ScaleFactor)
	}
	if cfg.Pigo.IoUThreshold != 0.2 {
		t.Errorf("expected IoU threshold 0.2, got %f", cfg.Pigo.IoUThreshold)
	}
	if cfg.Pigo.MinScore != 5.0 {
		t.Errorf("expected min score 5.0, got %f", cfg.Pigo.MinScore)
	}
}

func TestLoad_PigoOverrides(t *testing.T) {
	t.Setenv("PIGO_CASCADE_PATH", "/opt/cascade/facefinder")
	t.Setenv("PIGO_MIN_SIZE", "40")
	t.Setenv("PIGO_SCALE_FACTOR", "1.25")

	cfg := Load()

	if cfg.Pigo.CascadePath != "/opt/cascade/facefinder" {
		t.Errorf("expected cascade path '/opt/cascade/facefinder', got '%s'", cfg.Pigo.CascadePath)
	}
	if cfg.Pigo.MinSize != 40 {
		t.Errorf("expected min size 40, got %d", cfg.Pigo.MinSize)
	}
	if cfg.Pigo.ScaleFactor != 1.25 {
		t.Errorf("expected scale factor 1.25, got %f", cfg.Pigo.ScaleFactor)
	}
}

func TestLoad_InvalidNumbersFallBack(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"non-numeric int", "PIGO_MIN_SIZE", "invalid"},
		{"negative int", "PIGO_MIN_SIZE", "-10"},
		{"zero int", "PIGO_MIN_SIZE", "0"},
		{"non-numeric float", "PIGO_SHIFT_FACTOR", "abc"},
		{"negative float", "PIGO_SHIFT_FACTOR", "-0.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			cfg := Load()

			if cfg.Pigo.MinSize != 20 {
				t.Errorf("expected default min size 20, got %d", cfg.Pigo.MinSize)
			}
			if cfg.Pigo.ShiftFactor != 0.1 {
				t.Errorf("expected default shift factor 0.1, got %f", cfg.Pigo.ShiftFactor)
			}
		})
	}
}

func TestLoad_OverlayOpacity(t *testing.T) {
	tests := []struct {
		value    string
		expected int
	}{
		{"", 255},
		{"200", 200},
		{"1", 1},
		{"300", 255},
		{"0", 255},
		{"bogus", 255},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("OVERLAY_OPACITY", tt.value)

			cfg := Load()

			if cfg.Overlay.Opacity != tt.expected {
				t.Errorf("OVERLAY_OPACITY=%q: expected %d, got %d", tt.value, tt.expected, cfg.Overlay.Opacity)
			}
		})
	}
}

func TestLoad_RemoteDetectors(t *testing.T) {
	t.Setenv("INSIGHTFACE_URL", "http://faces:9000")
	t.Setenv("GEMINI_API_KEY", "gemini-key")
	t.Setenv("OPENAI_TOKEN", "sk-test")
	t.Setenv("OPENAI_MODEL", "gpt-4o")

	cfg := Load()

	if cfg.InsightFace.URL != "http://faces:9000" {
		t.Errorf("expected InsightFace URL 'http://faces:9000', got '%s'", cfg.InsightFace.URL)
	}
	if cfg.Gemini.APIKey != "gemini-key" {
		t.Errorf("expected Gemini API key 'gemini-key', got '%s'", cfg.Gemini.APIKey)
	}
	if cfg.Gemini.Model != "gemini-2.5-flash" {
		t.Errorf("expected default Gemini model, got '%s'", cfg.Gemini.Model)
	}
	if cfg.OpenAI.Token != "sk-test" {
		t.Errorf("expected OpenAI token 'sk-test', got '%s'", cfg.OpenAI.Token)
	}
	if cfg.OpenAI.Model != "gpt-4o" {
		t.Errorf("expected OpenAI model 'gpt-4o', got '%s'", cfg.OpenAI.Model)
	}
}

func TestLoad_WebAndDebug(t *testing.T) {
	t.Setenv("WEB_PORT", "9090")
	t.Setenv("WEB_HOST", "127.0.0.1")
	t.Setenv("LOG_DEBUG", "true")
	t.Setenv("NOTICE_LANGUAGE", "cs")

	cfg := Load()

	if cfg.Web.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Web.Port)
	}
	if cfg.Web.Host != "127.0.0.1" {
		t.Errorf("expected host '127.0.0.1', got '%s'", cfg.Web.Host)
	}
	if !cfg.Debug {
		t.Error("expected debug to be enabled")
	}
	if cfg.Language != "cs" {
		t.Errorf("expected language 'cs', got '%s'", cfg.Language)
	}
}

func TestLoad_AllowedOrigins(t *testing.T) {
	t.Setenv("WEB_ALLOWED_ORIGINS", " https://faces.example.com, ,https://admin.example.com ")

	cfg := Load()

	expected := []string{"https://faces.example.com", "https://admin.example.com"}
	if len(cfg.Web.AllowedOrigins) != len(expected) {
		t.Fatalf("expected %d origins, got %v", len(expected), cfg.Web.AllowedOrigins)
	}
	for i, origin := range expected {
		if cfg.Web.AllowedOrigins[i] != origin {
			t.Errorf("origin %d: expected '%s', got '%s'", i, origin, cfg.Web.AllowedOrigins[i])
		}
	}
}

func TestLoad_CameraURLs(t *testing.T) {
	t.Setenv("CAMERA_URLS", "http://192.168.1.20/snapshot.jpg, http://door.local/still.png")

	cfg := Load()

	expected := []string{"http://192.168.1.20/snapshot.jpg", "http://door.local/still.png"}
	if len(cfg.Camera.URLs) != len(expected) {
		t.Fatalf("expected %d camera URLs, got %v", len(expected), cfg.Camera.URLs)
	}
	for i, u := range expected {
		if cfg.Camera.URLs[i] != u {
			t.Errorf("camera %d: expected '%s', got '%s'", i, u, cfg.Camera.URLs[i])
		}
	}
}

func TestLoad_NoCameraByDefault(t *testing.T) {
	t.Setenv("CAMERA_URLS", "")

	if urls := Load().Camera.URLs; len(urls) != 0 {
		t.Errorf("expected no camera URLs, got %v", urls)
	}
}
