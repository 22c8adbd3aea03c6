package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"tasks-server/internal/config"
)

func TestNewLoggerLevels(t *testing.T) {
	var buf bytes.Buffer

	logger := NewLogger(false, &buf)
	logger.Debug().Msg("hidden")
	logger.Info().Msg("shown")
	if strings.Contains(buf.String(), "hidden") {
		t.Error("Debug messages should be suppressed without debug mode")
	}
	if !strings.Contains(buf.String(), "shown") {
		t.Error("Info message missing")
	}

	buf.Reset()
	logger = NewLogger(true, &buf)
	logger.Debug().Msg("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Error("Debug message missing in debug mode")
	}
}

func TestFieldHelpers(t *testing.T) {
	var buf bytes.Buffer
	prev := GetLogger()
	SetLogger(NewLogger(true, &buf))
	defer SetLogger(prev)

	InfoWith("request", map[string]interface{}{
		"method":   "GET",
		"status":   200,
		"duration": 1500 * time.Millisecond,
		"error":    errors.New("boom"),
		"tunnel":   true,
	})

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Log line is not JSON: %v (%s)", err, buf.String())
	}
	if entry["level"] != "info" || entry["message"] != "request" {
		t.Errorf("Unexpected entry: %v", entry)
	}
	if entry["method"] != "GET" || entry["status"] != float64(200) || entry["tunnel"] != true {
		t.Errorf("Fields missing: %v", entry)
	}
	if entry["error"] != "boom" {
		t.Errorf("Expected error field 'boom', got %v", entry["error"])
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	prev := GetLogger()
	SetLogger(NewLogger(false, &buf))
	defer SetLogger(prev)

	log := WithComponent("http")
	log.Info().Msg("hello")
	if !strings.Contains(buf.String(), `"component":"http"`) {
		t.Errorf("Component field missing: %s", buf.String())
	}
}

func TestInitGlobalLoggerToFile(t *testing.T) {
	prev := GetLogger()
	defer SetLogger(prev)

	cfg := config.LoadDefault()
	cfg.Logging.LogToFile = true
	cfg.Logging.LogFilePath = filepath.Join(t.TempDir(), "tasks.log")

	InitGlobalLogger(false, cfg)
	Warn("written to file")

	data, err := os.ReadFile(cfg.Logging.LogFilePath)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), "written to file") {
		t.Errorf("Log file missing message: %s", data)
	}
}
