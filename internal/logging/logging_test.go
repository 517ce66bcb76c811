package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestNew_TextHandler(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, Options{Level: slog.LevelInfo})

	log.Debug("hidden")
	log.Warn("plan mismatch", "file", "a.tap", "expected", 4)

	got := buf.String()
	if strings.Contains(got, "hidden") {
		t.Errorf("debug record written at info level: %q", got)
	}
	want := "level=warn msg=\"plan mismatch\" file=a.tap expected=4\n"
	if got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestNew_TerminalHandler(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, Options{Level: slog.LevelDebug, Terminal: true})

	log.Debug("parsed", "file", "a.tap")

	got := buf.String()
	if !strings.Contains(got, "parsed") || !strings.Contains(got, "a.tap") {
		t.Errorf("output = %q, want message and attribute", got)
	}
}

func TestDiscard(t *testing.T) {
	log := Discard()
	if log.Enabled(t.Context(), slog.LevelError) {
		t.Error("Discard() logger is enabled")
	}
	if OrDiscard(nil) == nil {
		t.Error("OrDiscard(nil) = nil")
	}
	if OrDiscard(log) != log {
		t.Error("OrDiscard() replaced a non-nil logger")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name   string
		want   slog.Level
		wantOK bool
	}{
		{"debug", slog.LevelDebug, true},
		{"INFO", slog.LevelInfo, true},
		{"", slog.LevelInfo, true},
		{"warning", slog.LevelWarn, true},
		{"err", slog.LevelError, true},
		{"verbose", slog.LevelInfo, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseLevel(tt.name)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ParseLevel(%q) = %v, %v, want %v, %v", tt.name, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
