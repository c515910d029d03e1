// Package config handles YAML configuration parsing for the simulation
// runner. None of these settings change the simulation constants; they
// only shape how the clock is driven and observed.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"lightsync/internal/collector"
)

const (
	OutputText = "text"
	OutputJSON = "json"

	maxFPS = 1000
)

var (
	ErrInvalidFPS        = errors.New("invalid fps")
	ErrInvalidOutput     = errors.New("invalid output format")
	ErrInvalidFrameDelta = errors.New("invalid frame delta")
)

// Environment variables that override file values.
const (
	EnvFPS         = "LIGHTSYNC_FPS"
	EnvMonitorAddr = "LIGHTSYNC_MONITOR_ADDR"
	EnvTracePath   = "LIGHTSYNC_TRACE_PATH"
)

// Config is the root configuration structure.
type Config struct {
	Run        RunConfig             `yaml:"run"`
	Monitor    MonitorConfig         `yaml:"monitor,omitempty"`
	Trace      TraceConfig           `yaml:"trace,omitempty"`
	Thresholds *collector.Thresholds `yaml:"thresholds,omitempty"`
}

// RunConfig controls how frames are produced and reported.
type RunConfig struct {
	FPS              int           `yaml:"fps"`
	Output           string        `yaml:"output"`
	Quiet            bool          `yaml:"quiet"`
	ProgressInterval time.Duration `yaml:"progress_interval"`
	FrameDelta       time.Duration `yaml:"frame_delta"` // replay only
}

// MonitorConfig enables the HTTP monitor when Addr is set.
type MonitorConfig struct {
	Addr string `yaml:"addr"`
}

// TraceConfig enables SQLite transition tracing when Path is set.
type TraceConfig struct {
	Path string `yaml:"path"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Run: RunConfig{
			FPS:              60,
			Output:           OutputText,
			ProgressInterval: time.Second,
			FrameDelta:       time.Second / 60,
		},
	}
}

// LoadConfig reads and parses a YAML configuration file. Values missing
// from the file keep their defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return cfg, nil
}

// LoadEnvFiles loads KEY=VALUE files into the process environment without
// overriding variables that are already set. Missing files are ignored.
func LoadEnvFiles(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("loading env file %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overrides cfg with any LIGHTSYNC_* variables that are set.
func (c *Config) ApplyEnv() error {
	if v, ok := os.LookupEnv(EnvFPS); ok {
		fps, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidFPS, EnvFPS, v)
		}
		c.Run.FPS = fps
	}
	if v, ok := os.LookupEnv(EnvMonitorAddr); ok {
		c.Monitor.Addr = v
	}
	if v, ok := os.LookupEnv(EnvTracePath); ok {
		c.Trace.Path = v
	}
	return nil
}

// Validate checks that the configuration can drive a run.
func (c *Config) Validate() error {
	if c.Run.FPS <= 0 || c.Run.FPS > maxFPS {
		return fmt.Errorf("%w: %d (must be 1..%d)", ErrInvalidFPS, c.Run.FPS, maxFPS)
	}
	if c.Run.Output != OutputText && c.Run.Output != OutputJSON {
		return fmt.Errorf("%w: %q (must be %q or %q)", ErrInvalidOutput, c.Run.Output, OutputText, OutputJSON)
	}
	if c.Run.FrameDelta <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidFrameDelta, c.Run.FrameDelta)
	}
	return nil
}
