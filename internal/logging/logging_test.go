package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNewWithOutput_JSONAtInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithOutput(&buf, false)

	logger.Debug("hidden")
	logger.WithFields(logrus.Fields{"faces": 2}).Info("processed")

	out := strings.TrimSpace(buf.String())
	if strings.Contains(out, "hidden") {
		t.Error("debug message should not be written at info level")
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(out), &entry); err != nil {
		t.Fatalf("expected a JSON line, got %q: %v", out, err)
	}
	if entry["msg"] != "processed" {
		t.Errorf("expected msg 'processed', got %v", entry["msg"])
	}
	if entry["faces"] != float64(2) {
		t.Errorf("expected faces 2, got %v", entry["faces"])
	}
}

func TestNewWithOutput_DebugLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithOutput(&buf, true)

	if logger.GetLevel() != logrus.DebugLevel {
		t.Errorf("expected debug level, got %s", logger.GetLevel())
	}

	logger.Debug("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Error("expected debug message in output")
	}
}
