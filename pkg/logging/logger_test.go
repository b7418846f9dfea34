package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"wikiroam/pkg/config"
)

func TestInit(t *testing.T) {
	tempDir := t.TempDir()
	serverLog := filepath.Join(tempDir, "server.log")
	requestLog := filepath.Join(tempDir, "requests.log")

	// A previous run's log must be rotated away.
	if err := os.WriteFile(serverLog, []byte("previous run\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := &config.LogConfig{
		Server:   config.LogSettings{Path: serverLog, Level: "DEBUG"},
		Requests: config.LogSettings{Path: requestLog, Level: "INFO"},
	}

	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	cleanup, err := Init(cfg)
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	slog.Debug("geo fetch issued", "key", "48.857,2.352,8000,en")
	RequestLogger.Info("GET", "host", "en.wikipedia.org")
	cleanup()

	old, err := os.ReadFile(serverLog + ".old")
	if err != nil {
		t.Fatalf("expected rotated log: %v", err)
	}
	if string(old) != "previous run\n" {
		t.Errorf("rotated log content = %q", old)
	}

	server, err := os.ReadFile(serverLog)
	if err != nil {
		t.Fatalf("server log not created: %v", err)
	}
	if !strings.Contains(string(server), "geo fetch issued") {
		t.Error("debug line missing from server log")
	}

	requests, err := os.ReadFile(requestLog)
	if err != nil {
		t.Fatalf("request log not created: %v", err)
	}
	if !strings.Contains(string(requests), "en.wikipedia.org") {
		t.Error("request line missing from request log")
	}
	if strings.Contains(string(server), "en.wikipedia.org") {
		t.Error("request logger must not write to the server log")
	}
}

func TestParseLevel(t *testing.T) {
	t.Cleanup(func() { EnableTrace = false })

	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"bogus", slog.LevelInfo},
		{"trace", slog.LevelDebug},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if !EnableTrace {
		t.Error("TRACE level should enable trace logging")
	}
}
