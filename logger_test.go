package prospectindata

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestZerologLoggerEmitsFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologLogger(zerolog.New(&buf))

	logger.Info("request succeeded", "endpoint", "/member/collect", "status", 200)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not JSON: %v (%s)", err, buf.String())
	}
	if entry["message"] != "request succeeded" {
		t.Errorf("message = %v", entry["message"])
	}
	if entry["endpoint"] != "/member/collect" {
		t.Errorf("endpoint = %v", entry["endpoint"])
	}
	if entry["status"] != float64(200) {
		t.Errorf("status = %v", entry["status"])
	}
	if entry["level"] != "info" {
		t.Errorf("level = %v", entry["level"])
	}
}

func TestZerologLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologLogger(zerolog.New(&buf))

	logger.Debug("d")
	logger.Info("i")
	logger.Warn("w")
	logger.Error("e")

	levels := []string{"debug", "info", "warn", "error"}
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	if len(lines) != len(levels) {
		t.Fatalf("log lines = %d, want %d", len(lines), len(levels))
	}
	for i, line := range lines {
		var entry map[string]any
		if err := json.Unmarshal(line, &entry); err != nil {
			t.Fatalf("line %d is not JSON: %v", i, err)
		}
		if entry["level"] != levels[i] {
			t.Errorf("line %d level = %v, want %s", i, entry["level"], levels[i])
		}
	}
}

func TestZerologLoggerToleratesOddPairs(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologLogger(zerolog.New(&buf))

	// A trailing key with no value must not panic, it is just dropped.
	logger.Info("odd", "key")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not JSON: %v", err)
	}
	if entry["message"] != "odd" {
		t.Errorf("message = %v", entry["message"])
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	// Just exercise the paths; nothing observable should happen.
	NopLogger.Debug("x", "k", "v")
	NopLogger.Info("x")
	NopLogger.Warn("x")
	NopLogger.Error("x")
}
