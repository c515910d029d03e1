package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Run.FPS != 60 {
		t.Errorf("expected default fps 60, got %d", cfg.Run.FPS)
	}
	if cfg.Run.Output != OutputText {
		t.Errorf("expected default output text, got %q", cfg.Run.Output)
	}
	if cfg.Run.ProgressInterval != time.Second {
		t.Errorf("expected default progress interval 1s, got %v", cfg.Run.ProgressInterval)
	}
	if cfg.Thresholds != nil {
		t.Errorf("expected no default thresholds, got %+v", cfg.Thresholds)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected default config to validate, got %v", err)
	}
}

func TestLoadConfig_Full(t *testing.T) {
	content := `
run:
  fps: 30
  output: json
  quiet: true
  progress_interval: 250ms
  frame_delta: 10ms
monitor:
  addr: ":8089"
trace:
  path: "run.sqlite3"
thresholds:
  max_total_latency: 20000
  max_mean_latency: 20
  min_transitions: 900
`
	cfg := loadConfigFromString(t, content)

	if cfg.Run.FPS != 30 {
		t.Errorf("expected fps 30, got %d", cfg.Run.FPS)
	}
	if cfg.Run.Output != OutputJSON {
		t.Errorf("expected output json, got %q", cfg.Run.Output)
	}
	if !cfg.Run.Quiet {
		t.Error("expected quiet true")
	}
	if cfg.Run.ProgressInterval != 250*time.Millisecond {
		t.Errorf("expected progress interval 250ms, got %v", cfg.Run.ProgressInterval)
	}
	if cfg.Run.FrameDelta != 10*time.Millisecond {
		t.Errorf("expected frame delta 10ms, got %v", cfg.Run.FrameDelta)
	}
	if cfg.Monitor.Addr != ":8089" {
		t.Errorf("expected monitor addr :8089, got %q", cfg.Monitor.Addr)
	}
	if cfg.Trace.Path != "run.sqlite3" {
		t.Errorf("expected trace path run.sqlite3, got %q", cfg.Trace.Path)
	}
	if cfg.Thresholds == nil {
		t.Fatal("expected thresholds to be parsed")
	}
	if cfg.Thresholds.MaxTotalLatency != 20000 {
		t.Errorf("expected max total latency 20000, got %v", cfg.Thresholds.MaxTotalLatency)
	}
	if cfg.Thresholds.MaxMeanLatency != 20 {
		t.Errorf("expected max mean latency 20, got %v", cfg.Thresholds.MaxMeanLatency)
	}
	if cfg.Thresholds.MinTransitions != 900 {
		t.Errorf("expected min transitions 900, got %d", cfg.Thresholds.MinTransitions)
	}
}

func TestLoadConfig_PartialKeepsDefaults(t *testing.T) {
	cfg := loadConfigFromString(t, "run:\n  fps: 24\n")

	if cfg.Run.FPS != 24 {
		t.Errorf("expected fps 24, got %d", cfg.Run.FPS)
	}
	if cfg.Run.Output != OutputText {
		t.Errorf("expected default output to survive, got %q", cfg.Run.Output)
	}
	if cfg.Run.ProgressInterval != time.Second {
		t.Errorf("expected default progress interval to survive, got %v", cfg.Run.ProgressInterval)
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	_, err := LoadConfig("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("expected error for missing file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected wrapped not-exist error, got %v", err)
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	path := createTempFile(t, "run:\n  fps: [not, a, number\n")

	_, err := LoadConfig(path)
	if err == nil {
		t.Fatal("expected error for invalid YAML")
	}
	if !strings.Contains(err.Error(), "parsing config file") {
		t.Errorf("expected parse error context, got %v", err)
	}
}

func TestLoadConfig_EmptyFile(t *testing.T) {
	cfg := loadConfigFromString(t, "")

	if cfg.Run.FPS != 60 {
		t.Errorf("expected defaults for empty file, got fps %d", cfg.Run.FPS)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"zero fps", func(c *Config) { c.Run.FPS = 0 }, ErrInvalidFPS},
		{"too many fps", func(c *Config) { c.Run.FPS = 5000 }, ErrInvalidFPS},
		{"unknown output", func(c *Config) { c.Run.Output = "xml" }, ErrInvalidOutput},
		{"zero frame delta", func(c *Config) { c.Run.FrameDelta = 0 }, ErrInvalidFrameDelta},
		{"valid", func(c *Config) { c.Run.FPS = 1000 }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvFPS, "120")
	t.Setenv(EnvMonitorAddr, "127.0.0.1:9000")
	t.Setenv(EnvTracePath, "env.sqlite3")

	cfg := Default()
	if err := cfg.ApplyEnv(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Run.FPS != 120 {
		t.Errorf("expected fps 120, got %d", cfg.Run.FPS)
	}
	if cfg.Monitor.Addr != "127.0.0.1:9000" {
		t.Errorf("expected monitor addr from env, got %q", cfg.Monitor.Addr)
	}
	if cfg.Trace.Path != "env.sqlite3" {
		t.Errorf("expected trace path from env, got %q", cfg.Trace.Path)
	}
}

func TestApplyEnv_InvalidFPS(t *testing.T) {
	t.Setenv(EnvFPS, "fast")

	err := Default().ApplyEnv()
	if !errors.Is(err, ErrInvalidFPS) {
		t.Errorf("expected ErrInvalidFPS, got %v", err)
	}
}

func TestLoadEnvFiles(t *testing.T) {
	// Register the variables with t.Setenv first so they are restored
	// after the test, then clear them for godotenv to fill in.
	t.Setenv(EnvTracePath, "")
	os.Unsetenv(EnvTracePath)
	t.Setenv(EnvMonitorAddr, "already-set:1")

	path := filepath.Join(t.TempDir(), ".env")
	content := EnvTracePath + "=from-dotenv.sqlite3\n" + EnvMonitorAddr + "=from-dotenv:2\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	if err := LoadEnvFiles(path, filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := os.Getenv(EnvTracePath); got != "from-dotenv.sqlite3" {
		t.Errorf("expected trace path from .env, got %q", got)
	}
	if got := os.Getenv(EnvMonitorAddr); got != "already-set:1" {
		t.Errorf("expected existing variable to win, got %q", got)
	}
}

func loadConfigFromString(t *testing.T, content string) *Config {
	t.Helper()
	cfg, err := LoadConfig(createTempFile(t, content))
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func createTempFile(t *testing.T, content string) string {
	t.Helper()
	tmpFile := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(tmpFile, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return tmpFile
}
