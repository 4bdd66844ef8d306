package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kozaktomas/face-overlay/internal/notice"
	"github.com/kozaktomas/face-overlay/internal/web/middleware"
	"golang.org/x/text/language"
)

func TestRespondJSON(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		data       any
		wantBody   string
	}{
		{"OK with data", http.StatusOK, map[string]string{"status": "ok"}, "{\"status\":\"ok\"}\n"},
		{"Accepted", http.StatusAccepted, map[string]string{}, "{}\n"},
		{"nil data", http.StatusNoContent, nil, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			respondJSON(recorder, tc.statusCode, tc.data)

			if recorder.Code != tc.statusCode {
				t.Errorf("expected status %d, got %d", tc.statusCode, recorder.Code)
			}
			if ct := recorder.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("expected Content-Type 'application/json', got '%s'", ct)
			}
			if recorder.Body.String() != tc.wantBody {
				t.Errorf("expected body '%s', got '%s'", tc.wantBody, recorder.Body.String())
			}
		})
	}
}

func TestRespondError_ContainsErrorKey(t *testing.T) {
	recorder := httptest.NewRecorder()

	respondError(recorder, http.StatusBadRequest, "something went wrong")

	var result map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if result["error"] != "something went wrong" {
		t.Errorf("expected error 'something went wrong', got '%s'", result["error"])
	}
}

func TestRespondNotice_Localized(t *testing.T) {
	catalog := notice.New("en")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/share", nil)
	req = req.WithContext(middleware.SetLanguageInContext(req.Context(), language.Czech))
	recorder := httptest.NewRecorder()

	respondNotice(recorder, req, catalog, http.StatusNotImplemented, notice.ComingSoon)

	result := decodeError(t, recorder)
	if result["error"] != "Již brzy..." {
		t.Errorf("expected Czech text, got '%s'", result["error"])
	}
	if result["key"] != string(notice.ComingSoon) {
		t.Errorf("expected key '%s', got '%s'", notice.ComingSoon, result["key"])
	}
}

func TestSanitizeForLog(t *testing.T) {
	if got := sanitizeForLog("photo\r\n.jpg"); got != "photo.jpg" {
		t.Errorf("expected 'photo.jpg', got '%s'", got)
	}
}

func TestHealthCheck(t *testing.T) {
	recorder := httptest.NewRecorder()
	HealthCheck(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	if recorder.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", recorder.Code)
	}
	if decodeError(t, recorder)["status"] != "ok" {
		t.Errorf("unexpected body: %s", recorder.Body.String())
	}
}
