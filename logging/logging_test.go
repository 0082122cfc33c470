package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"", zapcore.WarnLevel},
		{"DEBUG", zapcore.DebugLevel},
		{" info ", zapcore.InfoLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if err != nil || got != tt.want {
			t.Fatalf("ParseLevel(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatal("ParseLevel(loud) should fail")
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv(EnvLevel, "")
	t.Setenv(EnvFormat, "")

	if got := FromEnv(false, false); got.Level != "warn" || got.Format != "console" {
		t.Fatalf("FromEnv defaults = %+v", got)
	}
	if got := FromEnv(true, false); got.Level != "info" {
		t.Fatalf("verbose level = %q", got.Level)
	}
	if got := FromEnv(true, true); got.Level != "debug" {
		t.Fatalf("debug level = %q", got.Level)
	}

	t.Setenv(EnvLevel, "error")
	t.Setenv(EnvFormat, "json")
	if got := FromEnv(false, true); got.Level != "error" || got.Format != "json" {
		t.Fatalf("env override = %+v", got)
	}
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "info", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	logger.Debug("hidden")
	logger.Info("pulled file", zap.String("language", "en"))
	_ = logger.Sync()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one log line, got %q", buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["msg"] != "pulled file" || entry["language"] != "en" || entry["level"] != "info" {
		t.Fatalf("unexpected entry: %v", entry)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("New should reject unknown format")
	}
}

func TestSetGlobal(t *testing.T) {
	old := L()
	t.Cleanup(func() { SetGlobal(old) })

	l := zap.NewExample()
	SetGlobal(l)
	if L() != l {
		t.Fatal("SetGlobal did not replace the logger")
	}
	SetGlobal(nil)
	if L() == nil || L() == l {
		t.Fatal("SetGlobal(nil) should restore a no-op logger")
	}
}
