package logging

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want log.Level
	}{
		{"", log.InfoLevel},
		{"info", log.InfoLevel},
		{"DEBUG", log.DebugLevel},
		{"warning", log.WarnLevel},
		{"error", log.ErrorLevel},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if err != nil {
			t.Fatalf("ParseLevel(%q) error = %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	if _, err := ParseLevel("verbose"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestInit_Output(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(Options{Level: "warn", Output: &buf}); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer Init(Options{})

	Info("hidden")
	WithPrefix("dispatch").Warn("drag released", "state", "idle")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info message should be filtered at warn level: %q", out)
	}
	if !strings.Contains(out, "dispatch") || !strings.Contains(out, "drag released") {
		t.Errorf("expected prefixed warning, got %q", out)
	}
}

func TestInit_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "gestos.log")
	if err := Init(Options{File: path}); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	Close()
	Init(Options{})
}
