package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestLogger(t *testing.T) {
	var buf bytes.Buffer

	logger := New(&Config{
		Level:       DEBUG,
		Format:      TEXT,
		Output:      &buf,
		DefaultTags: map[string]interface{}{"test": true},
	})

	logger.Debug("This is a debug message")
	if !strings.Contains(buf.String(), "DEBUG") || !strings.Contains(buf.String(), "This is a debug message") {
		t.Errorf("Expected debug message in log output, got: %s", buf.String())
	}

	buf.Reset()
	logger.Info("Loaded %d tools", 76)
	if !strings.Contains(buf.String(), "INFO") || !strings.Contains(buf.String(), "Loaded 76 tools") {
		t.Errorf("Expected formatted info message, got: %s", buf.String())
	}
	if !strings.Contains(buf.String(), "logger_test.go") {
		t.Errorf("Expected caller to be the test file, got: %s", buf.String())
	}

	buf.Reset()
	logger.WithContext("serve").Warn("This is a warning")
	if !strings.Contains(buf.String(), "[serve]") {
		t.Errorf("Expected warning with context in log output, got: %s", buf.String())
	}

	buf.Reset()
	logger.WithField("operation", "get_issue").Error("This is an error")
	if !strings.Contains(buf.String(), "operation=get_issue") || !strings.Contains(buf.String(), "test=true") {
		t.Errorf("Expected error with fields in log output, got: %s", buf.String())
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&Config{Level: WARN, Output: &buf})

	logger.Info("hidden")
	if buf.Len() != 0 {
		t.Errorf("Expected INFO to be filtered at WARN, got: %s", buf.String())
	}

	logger.SetLevel(DISABLED)
	logger.Error("also hidden")
	if buf.Len() != 0 {
		t.Errorf("Expected nothing when disabled, got: %s", buf.String())
	}
}

func TestJSONFormatIsValidJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&Config{Level: INFO, Format: JSON, Output: &buf})

	logger.WithContext("call").WithField("subject", `Fix "quoted" <Überschrift>`).Info("JSON message")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Expected valid JSON, got %q: %v", buf.String(), err)
	}
	if entry["level"] != "INFO" || entry["message"] != "JSON message" || entry["context"] != "call" {
		t.Errorf("Unexpected entry: %v", entry)
	}
	if entry["subject"] != `Fix "quoted" <Überschrift>` {
		t.Errorf("Expected field to round-trip, got %v", entry["subject"])
	}
}

func TestDerivedLoggersDoNotShareFields(t *testing.T) {
	var buf bytes.Buffer
	base := New(&Config{Level: INFO, Output: &buf})
	_ = base.WithField("a", 1)

	base.Info("plain")
	if strings.Contains(buf.String(), "a=1") {
		t.Errorf("Expected base logger to be unchanged, got: %s", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"debug":   DEBUG,
		"INFO":    INFO,
		"warning": WARN,
		"error":   ERROR,
		"off":     DISABLED,
		"bogus":   INFO,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
	if ParseFormat("JSON") != JSON || ParseFormat("text") != TEXT || ParseFormat("") != TEXT {
		t.Error("ParseFormat mismatch")
	}
}

func TestNewSlog(t *testing.T) {
	var buf bytes.Buffer
	log := NewSlog("warn", "json", &buf)

	log.Info("dropped")
	if buf.Len() != 0 {
		t.Errorf("Expected info to be filtered at warn, got: %s", buf.String())
	}

	log.Warn("kept", "operation", "list_projects")
	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Expected JSON record, got %q: %v", buf.String(), err)
	}
	if entry["service"] != ServiceName || entry["operation"] != "list_projects" {
		t.Errorf("Unexpected record: %v", entry)
	}

	if SlogLevel("debug") != slog.LevelDebug || SlogLevel("") != slog.LevelInfo {
		t.Error("SlogLevel mismatch")
	}
}
