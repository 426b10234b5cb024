package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestInitWriterHonoursLevel(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, "warn")
	defer func() { Log = nil }()

	Info("hidden_event")
	Warn("shown_event", "key", "value")

	out := buf.String()
	if strings.Contains(out, "hidden_event") {
		t.Fatalf("info record written at warn level: %s", out)
	}
	if !strings.Contains(out, "shown_event") || !strings.Contains(out, "key=value") {
		t.Fatalf("warn record missing: %s", out)
	}
}

func TestMaskedValue(t *testing.T) {
	if got := maskedValue("secret-token"); got != "s*****n" {
		t.Fatalf("maskedValue = %q", got)
	}
	if got := maskedValue("ab"); got != "<redacted>" {
		t.Fatalf("short value not redacted: %q", got)
	}
	if got := redactHeaderValue("Content-Type", "application/json"); got != "application/json" {
		t.Fatalf("non-sensitive header was masked: %q", got)
	}
}

func TestNilLoggerIsSafe(t *testing.T) {
	Log = nil
	Debug("x")
	Info("x")
	Warn("x")
	Error("x")
}
