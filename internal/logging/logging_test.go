package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNew_JSONFieldNames(t *testing.T) {
	var buf bytes.Buffer
	logger := New("json", logrus.InfoLevel, &buf)
	logger.WithField("component", "billing").Info("billing initialized")
	logger.Debug("filtered")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1: %q", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatal(err)
	}
	if entry["severity"] != "info" || entry["message"] != "billing initialized" || entry["component"] != "billing" {
		t.Errorf("entry = %v", entry)
	}
}

func TestConfigure_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")
	logger, closer, err := Configure("text", "warn", path)
	if err != nil {
		t.Fatal(err)
	}
	logger.Info("skipped")
	logger.Warn("kept")
	if err := closer.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "severity=warning") || !strings.Contains(string(data), "message=kept") {
		t.Errorf("log file = %q", data)
	}
	if strings.Contains(string(data), "skipped") {
		t.Error("info entry should be filtered at warn level")
	}
}

func TestConfigure_BadLevel(t *testing.T) {
	if _, _, err := Configure("text", "loud", filepath.Join(t.TempDir(), "x.log")); err == nil {
		t.Error("expected level parse error")
	}
}
