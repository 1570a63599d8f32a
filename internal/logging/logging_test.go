package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/sadopc/planr/internal/config"
)

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "planr.log")
	log, err := New(config.LoggerConfig{Level: "info", Encoding: "json", File: path}, false)
	if err != nil {
		t.Fatal(err)
	}
	log.Debug("hidden")
	log.Info("loaded project", zap.String("dir", "/data/alpha"), zap.Int("tasks", 3))
	log.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line (debug filtered), got %d: %s", len(lines), data)
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("not json: %v", err)
	}
	if entry["msg"] != "loaded project" || entry["dir"] != "/data/alpha" || entry["tasks"] != float64(3) {
		t.Fatalf("unexpected entry %v", entry)
	}
}

func TestNewConsoleEncoding(t *testing.T) {
	path := filepath.Join(t.TempDir(), "planr.log")
	log, err := New(config.LoggerConfig{Level: "warn", File: path}, false)
	if err != nil {
		t.Fatal(err)
	}
	log.Warn("record skipped")
	log.Sync()
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "WARN") || !strings.Contains(string(data), "record skipped") {
		t.Fatalf("unexpected console output %q", data)
	}
}

func TestNewVerboseIgnoresFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "planr.log")
	log, err := New(config.LoggerConfig{Level: "error", Encoding: "console", File: path}, true)
	if err != nil {
		t.Fatal(err)
	}
	if !log.Core().Enabled(zap.DebugLevel) {
		t.Fatal("verbose should enable debug")
	}
	if _, err := os.Stat(path); err == nil {
		t.Fatal("verbose logging should not create the log file")
	}
}

func TestNewBadLevel(t *testing.T) {
	if _, err := New(config.LoggerConfig{Level: "loud"}, false); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestOrNop(t *testing.T) {
	if OrNop(nil) == nil {
		t.Fatal("OrNop(nil) returned nil")
	}
	l := zap.NewExample()
	if OrNop(l) != l {
		t.Fatal("OrNop should return a non-nil logger unchanged")
	}
}
