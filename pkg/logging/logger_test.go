package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

// TestJSONLogger_LevelFiltering tests that entries below the minimum level
// are dropped
func TestJSONLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, WarnLevel)

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 entries, got %d: %q", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], "warn message") {
		t.Errorf("first entry should be the warning, got %s", lines[0])
	}
}

// TestJSONLogger_FieldsRoundTrip tests that fields survive JSON encoding
func TestJSONLogger_FieldsRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel)

	logger.Info("scenario solved",
		ElementID("ac-corridor-a"),
		Outcome("solved"),
		LoadingPct(98.1),
	)

	var entry struct {
		Level   string         `json:"level"`
		Message string         `json:"msg"`
		Fields  map[string]any `json:"fields"`
	}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal log entry: %v", err)
	}
	if entry.Level != "INFO" {
		t.Errorf("expected INFO, got %s", entry.Level)
	}
	if entry.Fields["element_id"] != "ac-corridor-a" {
		t.Errorf("expected element_id field, got %v", entry.Fields)
	}
	if entry.Fields["max_loading_pct"] != 98.1 {
		t.Errorf("expected max_loading_pct 98.1, got %v", entry.Fields["max_loading_pct"])
	}
}

// TestJSONLogger_WithPresetsFields tests child logger field inheritance
func TestJSONLogger_WithPresetsFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel).With(Component("engine"))

	logger.Info("pass complete")

	if !strings.Contains(buf.String(), `"component":"engine"`) {
		t.Errorf("expected preset component field, got %s", buf.String())
	}
}

// TestTimedOperation tests that End and EndError attach a latency field
func TestTimedOperation(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel)

	StartTimer(logger, "contingency sweep finished", Int("workers", 4)).End()

	var entry struct {
		Level  string         `json:"level"`
		Fields map[string]any `json:"fields"`
	}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal log entry: %v", err)
	}
	if entry.Level != "INFO" {
		t.Errorf("End should log at INFO, got %s", entry.Level)
	}
	if _, ok := entry.Fields["latency"]; !ok {
		t.Errorf("expected a latency field, got %v", entry.Fields)
	}
	if entry.Fields["workers"] != float64(4) {
		t.Errorf("expected workers field to survive, got %v", entry.Fields)
	}

	buf.Reset()
	StartTimer(logger, "contingency sweep finished").EndError(errors.New("base case did not converge"))

	if !strings.Contains(buf.String(), `"ERROR"`) {
		t.Errorf("EndError should log at ERROR, got %s", buf.String())
	}
	if !strings.Contains(buf.String(), "base case did not converge") {
		t.Errorf("EndError should carry the error, got %s", buf.String())
	}
}

// TestParseLevel covers the known level names and the default
func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   DebugLevel,
		"INFO":    InfoLevel,
		"warning": WarnLevel,
		"error":   ErrorLevel,
		"bogus":   InfoLevel,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
