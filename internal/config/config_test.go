package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vango-dev/urlstate/internal/errors"
)

func writeConfig(t *testing.T, dir, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestNew(t *testing.T) {
	cfg := New()

	if cfg.Server.Port != DefaultPort {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, DefaultPort)
	}
	if cfg.Server.Host != DefaultHost {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, DefaultHost)
	}
	if cfg.QuietWindow() != 100*time.Millisecond {
		t.Errorf("QuietWindow() = %v, want 100ms", cfg.QuietWindow())
	}
	if !cfg.MetricsEnabled() {
		t.Error("metrics should be enabled by default")
	}
	if cfg.LogLevel() != slog.LevelInfo {
		t.Errorf("LogLevel() = %v, want info", cfg.LogLevel())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()

	if _, err := Load(tmpDir); !errors.HasCode(err, "E100") {
		t.Fatalf("Load() on empty dir error = %v, want E100", err)
	}

	writeConfig(t, tmpDir, `{
  "server": {"host": "0.0.0.0", "port": 8080},
  "commit": {"quietWindow": "250ms"},
  "metrics": {"enabled": false, "namespace": "shop"},
  "tracing": {"includeSearch": true},
  "log": {"level": "debug"}
}
`)

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if got := cfg.Address(); got != "0.0.0.0:8080" {
		t.Errorf("Address() = %q", got)
	}
	if cfg.QuietWindow() != 250*time.Millisecond {
		t.Errorf("QuietWindow() = %v", cfg.QuietWindow())
	}
	if cfg.MetricsEnabled() {
		t.Error("metrics.enabled=false was ignored")
	}
	if cfg.Metrics.Namespace != "shop" {
		t.Errorf("Metrics.Namespace = %q", cfg.Metrics.Namespace)
	}
	if cfg.Tracing.TracerName != DefaultTracerName {
		t.Errorf("Tracing.TracerName = %q, want default", cfg.Tracing.TracerName)
	}
	if !cfg.Tracing.IncludeSearch {
		t.Error("Tracing.IncludeSearch should be true")
	}
	if cfg.LogLevel() != slog.LevelDebug {
		t.Errorf("LogLevel() = %v", cfg.LogLevel())
	}
	if cfg.Path() != filepath.Join(tmpDir, ConfigFileName) {
		t.Errorf("Path() = %q", cfg.Path())
	}
}

func TestLoadOrDefault(t *testing.T) {
	cfg, err := LoadOrDefault(t.TempDir())
	if err != nil {
		t.Fatalf("LoadOrDefault error: %v", err)
	}
	if cfg.Server.Port != DefaultPort {
		t.Errorf("Server.Port = %d", cfg.Server.Port)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		code string
	}{
		{"malformed json", `{"server": `, "E101"},
		{"port out of range", `{"server": {"port": 70000}}`, "E102"},
		{"negative port", `{"server": {"port": -1}}`, "E102"},
		{"bad duration", `{"commit": {"quietWindow": "soon"}}`, "E103"},
		{"zero duration", `{"commit": {"quietWindow": "0s"}}`, "E103"},
		{"bad level", `{"log": {"level": "loud"}}`, "E104"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeConfig(t, dir, tt.body)
			_, err := Load(dir)
			if !errors.HasCode(err, tt.code) {
				t.Errorf("Load() error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestSaveTo(t *testing.T) {
	dir := t.TempDir()
	cfg := New()
	cfg.Server.Port = 9000
	cfg.Commit.QuietWindow = "50ms"

	path := filepath.Join(dir, ConfigFileName)
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo error: %v", err)
	}
	if !Exists(dir) {
		t.Fatal("Exists() = false after SaveTo")
	}

	loaded, err := Load(dir)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if loaded.Server.Port != 9000 || loaded.QuietWindow() != 50*time.Millisecond {
		t.Errorf("round trip lost values: %+v", loaded)
	}
}
