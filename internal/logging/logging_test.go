package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewWritesToFileAtLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "snyft.log")
	logger, closer, err := New(Options{Path: path, Level: slog.LevelWarn})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("dropped")
	logger.Warn("kept", "note", "abc123")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(data)
	if strings.Contains(out, "dropped") || !strings.Contains(out, "msg=kept") || !strings.Contains(out, "note=abc123") {
		t.Fatalf("unexpected log contents:\n%s", out)
	}
}

func TestNewWithoutPathDiscards(t *testing.T) {
	logger, closer, err := New(Options{})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Error("nowhere")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
}
