package logger

import (
	"context"
	"log/slog"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		level string
		debug bool
		want  slog.Level
	}{
		{"info", false, slog.LevelInfo},
		{"debug", false, slog.LevelDebug},
		{"warn", false, slog.LevelWarn},
		{"warning", false, slog.LevelWarn},
		{"error", false, slog.LevelError},
		{"ERROR", false, slog.LevelError},
		{"", false, slog.LevelInfo},
		{"verbose", false, slog.LevelInfo},
		{"error", true, slog.LevelDebug}, // debug flag wins
	}
	for _, tc := range cases {
		if got := parseLevel(tc.level, tc.debug); got != tc.want {
			t.Errorf("parseLevel(%q, %v) = %v, expected %v", tc.level, tc.debug, got, tc.want)
		}
	}
}

func TestSetLevel(t *testing.T) {
	defer SetLevel("info", false)

	SetLevel("warn", false)
	if Get().Enabled(context.Background(), slog.LevelInfo) {
		t.Error("Info should be suppressed at level warn")
	}
	if !Get().Enabled(context.Background(), slog.LevelWarn) {
		t.Error("Warn should be enabled at level warn")
	}

	SetLevel("warn", true)
	if !Get().Enabled(context.Background(), slog.LevelDebug) {
		t.Error("Debug flag should enable debug logging")
	}
}
