package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestLevelString(t *testing.T) {
	tests := []struct {
		level    Level
		expected string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{Level(42), "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := tt.level.String(); got != tt.expected {
			t.Errorf("Level(%d).String() = %s, want %s", tt.level, got, tt.expected)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{"warning", LevelWarn, false},
		{" error ", LevelError, false},
		{"loud", LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLoggerFiltersBelowMinLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	l := New(buf, LevelWarn)

	l.Debug("", "debug message")
	l.Info("", "info message")
	l.Warn("", "warn message")
	l.Error("runner", "error message")

	out := buf.String()
	if strings.Contains(out, "[DEBUG]") || strings.Contains(out, "[INFO]") {
		t.Errorf("expected debug and info to be filtered, got:\n%s", out)
	}
	if !strings.Contains(out, "[WARN] warn message") {
		t.Errorf("expected warn line without component, got:\n%s", out)
	}
	if !strings.Contains(out, "[ERROR] [runner] error message") {
		t.Errorf("expected error line with component, got:\n%s", out)
	}
}

func TestSetLevelAndOutput(t *testing.T) {
	first := &bytes.Buffer{}
	second := &bytes.Buffer{}
	l := New(first, LevelError)

	l.Info("", "dropped")
	l.SetLevel(LevelDebug)
	l.SetOutput(second)
	l.Debug("cli", "kept %d", 7)

	if first.Len() != 0 {
		t.Errorf("expected nothing in first writer, got %q", first.String())
	}
	if !strings.Contains(second.String(), "[DEBUG] [cli] kept 7") {
		t.Errorf("unexpected output %q", second.String())
	}
}
