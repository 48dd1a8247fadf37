package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ambulancewatch/internal/config"
)

func setupLogger(t *testing.T) *Logger {
	t.Helper()
	l := NewLogger(&config.Config{LogDirectory: t.TempDir(), LogLevel: "debug"})
	t.Cleanup(func() { l.Close() })
	return l
}

func readLog(t *testing.T, l *Logger, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(l.Dir(), name))
	if err != nil {
		t.Fatalf("Failed to read %s: %v", name, err)
	}
	return string(data)
}

func TestLevelsGoToTheirFiles(t *testing.T) {
	l := setupLogger(t)

	l.Info("hello %s", "info")
	l.Warning("hello %s", "warning")
	l.Error("hello %s", "error")

	if got := readLog(t, l, InfoFile); !strings.Contains(got, "hello info") || strings.Contains(got, "hello warning") {
		t.Errorf("Unexpected info log: %q", got)
	}
	if got := readLog(t, l, WarningFile); !strings.Contains(got, "hello warning") || strings.Contains(got, "hello error") {
		t.Errorf("Unexpected warning log: %q", got)
	}
	if got := readLog(t, l, ErrorFile); !strings.Contains(got, "hello error") {
		t.Errorf("Unexpected error log: %q", got)
	}
}

func TestCleanLogs(t *testing.T) {
	l := setupLogger(t)
	l.Warning("to be removed")

	if err := l.CleanLogs(WarningFile); err != nil {
		t.Fatalf("CleanLogs failed: %v", err)
	}
	if got := readLog(t, l, WarningFile); got != "" {
		t.Errorf("Expected empty warning log, got %q", got)
	}
}

func TestCleanLogsThenWrite(t *testing.T) {
	l := setupLogger(t)
	for i := 0; i < 20; i++ {
		l.Info("line %d before clear", i)
	}

	if err := l.CleanLogs(InfoFile); err != nil {
		t.Fatalf("CleanLogs failed: %v", err)
	}
	l.Info("after clear")

	got := readLog(t, l, InfoFile)
	if strings.Contains(got, "\x00") {
		t.Errorf("Info log contains NUL padding: %d bytes", len(got))
	}
	if strings.Contains(got, "before clear") {
		t.Errorf("Old entries survived the clear: %q", got)
	}
	if !strings.Contains(got, "after clear") {
		t.Errorf("Expected new entry in info log, got %q", got)
	}
}

func TestCleanLogsMissingFile(t *testing.T) {
	l := setupLogger(t)
	if err := l.CleanLogs("missing.log"); err == nil {
		t.Error("Expected error for missing log file")
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]string{"debug": "debug", "WARN": "warn", "warning": "warn", "error": "error", "": "info", "bogus": "info"}
	for in, want := range tests {
		if got := parseLevel(in).String(); got != want {
			t.Errorf("parseLevel(%q) = %s, want %s", in, got, want)
		}
	}
}
