package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestInit_InvalidLevel(t *testing.T) {
	if err := Init("loud", "json", "stdout"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestInit_WritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	if err := Init("info", "json", path); err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(func() { Log = zap.NewNop() })

	Debug("hidden")
	Info("invoice created", zap.String("invoice_number", "INV-20240101-00001"))
	Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line below debug level, got %d: %q", len(lines), data)
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["message"] != "invoice created" || entry["level"] != "info" {
		t.Errorf("unexpected entry %v", entry)
	}
	if entry["invoice_number"] != "INV-20240101-00001" {
		t.Errorf("missing field in %v", entry)
	}
}
