package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInitWriterLevels(t *testing.T) {
	defer func() { Logger = nil }()

	var buf bytes.Buffer
	if err := InitWriter(&buf, Config{}); err != nil {
		t.Fatalf("InitWriter() error = %v", err)
	}

	Info("hidden at warn level")
	Warn("toggle rejected", "habit", "abc")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info message written at warn level: %q", out)
	}
	if !strings.Contains(out, "toggle rejected") || !strings.Contains(out, "habit=abc") {
		t.Errorf("warn message missing: %q", out)
	}
}

func TestInitWriterExplicitLevel(t *testing.T) {
	defer func() { Logger = nil }()

	var buf bytes.Buffer
	if err := InitWriter(&buf, Config{Level: "info"}); err != nil {
		t.Fatalf("InitWriter() error = %v", err)
	}
	Info("agenda computed")
	if !strings.Contains(buf.String(), "agenda computed") {
		t.Errorf("info message missing: %q", buf.String())
	}

	if err := InitWriter(&buf, Config{Level: "loud"}); err == nil {
		t.Error("InitWriter() error = nil for unknown level")
	}
}

func TestInitWriterJSON(t *testing.T) {
	defer func() { Logger = nil }()

	var buf bytes.Buffer
	if err := InitWriter(&buf, Config{JSON: true}); err != nil {
		t.Fatalf("InitWriter() error = %v", err)
	}
	Error("storage failed", "op", "mutate")
	if !strings.HasPrefix(strings.TrimSpace(buf.String()), "{") {
		t.Errorf("expected JSON line, got %q", buf.String())
	}
}

func TestInitCreatesLogDir(t *testing.T) {
	defer func() { Logger = nil }()

	dir := t.TempDir()
	if err := Init(Config{ConfigDir: dir}); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "logs")); err != nil {
		t.Errorf("logs directory missing: %v", err)
	}
}

func TestNilLoggerIsSafe(t *testing.T) {
	Logger = nil
	Debug("no-op")
	Info("no-op")
	Warn("no-op")
	Error("no-op")
}
