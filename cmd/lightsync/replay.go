package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"lightsync/internal/collector"
	"lightsync/internal/config"
	"lightsync/internal/core"
	"lightsync/internal/loop"
)

func newReplayCmd(g *globalFlags) *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Run the whole day headless with a fixed frame delta.",
		Long: `replay steps the clock without pacing, advancing every frame by ` +
			`--frame-delta of real time. Results are identical to a real-time run ` +
			`at the matching frame rate with no jitter.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadSettings(cmd, g, f)
			if err != nil {
				return &exitError{code: ExitError, err: err}
			}
			logger, err := newLogger(g.verbose)
			if err != nil {
				return &exitError{code: ExitError, err: err}
			}
			defer func() { _ = logger.Sync() }()

			return runReplay(cmd.Context(), cfg, logger, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	f.register(cmd)
	cmd.Flags().Duration("frame-delta", time.Second/60, "real time per replayed frame")
	return cmd
}

func runReplay(ctx context.Context, cfg *config.Config, logger *zap.Logger, stdout, stderr io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	coll := collector.NewCollector()
	defer coll.Close()

	reporters := core.MultiReporter{coll}
	rec, err := openTrace(cfg.Trace.Path, logger)
	if err != nil {
		return &exitError{code: ExitError, err: err}
	}
	if rec != nil {
		defer closeTrace(rec, logger)
		reporters = append(reporters, rec)
	}

	driver := loop.NewDriver(reporters, nil, logger)
	frames, err := driver.Replay(ctx, cfg.Run.FrameDelta)
	coll.Close()

	interrupted := errors.Is(err, context.Canceled)
	if err != nil && !interrupted {
		return &exitError{code: ExitError, err: err}
	}
	logger.Info("replay finished",
		zap.Int64("frames", frames),
		zap.Bool("interrupted", interrupted))

	return report(cfg, coll.Compute(), driver.Snapshot(), interrupted, stdout, stderr)
}
