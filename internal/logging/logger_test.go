package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestNewLogger_WritesRotatedFile(t *testing.T) {
	dir := t.TempDir()
	log, err := NewLogger(dir)
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}

	log.Warn("radar_sensor_down", zap.String("locationid", "loc-a"))
	_ = log.Sync()

	data, err := os.ReadFile(filepath.Join(dir, "sensorvitals.log"))
	if err != nil {
		t.Fatalf("expected sensorvitals.log to exist: %v", err)
	}
	entry := string(data)
	if !strings.Contains(entry, "radar_sensor_down") || !strings.Contains(entry, `"locationid":"loc-a"`) {
		t.Fatalf("log entry missing expected fields: %s", entry)
	}
}

func TestNewLogger_DropsDebugEntries(t *testing.T) {
	dir := t.TempDir()
	log, err := NewLogger(dir)
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}

	log.Debug("sweep_complete", zap.Int("locations", 3))
	_ = log.Sync()

	data, _ := os.ReadFile(filepath.Join(dir, "sensorvitals.log"))
	if strings.Contains(string(data), "sweep_complete") {
		t.Fatalf("debug entry leaked into the production log: %s", data)
	}
}
