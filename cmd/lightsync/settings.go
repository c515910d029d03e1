package main

import (
	"github.com/spf13/cobra"

	"lightsync/internal/config"
)

// runFlags are the per-command overrides shared by run and replay.
type runFlags struct {
	fps     int
	output  string
	quiet   bool
	monitor string
	trace   string
}

func (f *runFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.IntVar(&f.fps, "fps", 0, "frames per second (overrides config)")
	fl.StringVar(&f.output, "output", "", "output format: text, json")
	fl.StringVar(&f.trace, "trace", "", "record transitions to this SQLite file ('auto' picks a name)")
}

// loadSettings resolves the effective configuration. Precedence, lowest
// first: defaults, config file, env files and LIGHTSYNC_* variables,
// then flags the user actually set.
func loadSettings(cmd *cobra.Command, g *globalFlags, f *runFlags) (*config.Config, error) {
	if err := config.LoadEnvFiles(g.envFiles...); err != nil {
		return nil, err
	}

	cfg := config.Default()
	if g.configPath != "" {
		var err error
		if cfg, err = config.LoadConfig(g.configPath); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	if f != nil {
		fl := cmd.Flags()
		if fl.Changed("fps") {
			cfg.Run.FPS = f.fps
		}
		if fl.Changed("output") {
			cfg.Run.Output = f.output
		}
		if fl.Changed("quiet") {
			cfg.Run.Quiet = f.quiet
		}
		if fl.Changed("monitor") {
			cfg.Monitor.Addr = f.monitor
		}
		if fl.Changed("trace") {
			cfg.Trace.Path = f.trace
		}
		if fl.Changed("frame-delta") {
			d, err := fl.GetDuration("frame-delta")
			if err != nil {
				return nil, err
			}
			cfg.Run.FrameDelta = d
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
