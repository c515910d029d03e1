package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"lightsync/internal/collector"
	"lightsync/internal/config"
	"lightsync/internal/core"
	"lightsync/internal/loop"
	"lightsync/internal/monitor"
	"lightsync/internal/progress"
	"lightsync/internal/ratelimit"
	"lightsync/internal/sim"
	"lightsync/internal/trace"
)

const autoTracePath = "auto"

func newRunCmd(g *globalFlags) *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the simulation in real time until the day completes.",
		Args:  cobra.NoArgs,
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

			return runRealtime(cmd.Context(), cfg, logger, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	f.register(cmd)
	cmd.Flags().BoolVar(&f.quiet, "quiet", false, "suppress progress output during the run")
	cmd.Flags().StringVar(&f.monitor, "monitor", "", "serve live state over HTTP on this address")
	return cmd
}

func runRealtime(ctx context.Context, cfg *config.Config, logger *zap.Logger, stdout, stderr io.Writer) error {
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

	driver := loop.NewDriver(reporters, ratelimit.NewFrameLimiter(cfg.Run.FPS), logger)

	// The monitor is bound before the first frame so a bad address fails
	// the run up front. If it stops serving mid-run the run is cancelled.
	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()
	monitorCtx, stopMonitor := context.WithCancel(ctx)
	defer stopMonitor()
	monitorDone := make(chan error, 1)
	if cfg.Monitor.Addr != "" {
		srv := monitor.New(monitor.Config{Addr: cfg.Monitor.Addr}, driver, coll, logger)
		if err := srv.Listen(); err != nil {
			return &exitError{code: ExitError, err: err}
		}
		go func() {
			err := srv.Serve(monitorCtx)
			if err != nil {
				cancelRun()
			}
			monitorDone <- err
		}()
	} else {
		monitorDone <- nil
	}

	prog := progress.NewProgress(driver, cfg.Run.Quiet)
	prog.SetOutput(stderr)
	prog.SetInterval(cfg.Run.ProgressInterval)
	prog.Printf("Light Sync starting: run %s, %d fps, %gx speedup",
		driver.RunID(), cfg.Run.FPS, sim.SpeedupFactor)
	prog.Start()

	runErr := driver.Run(runCtx)
	prog.Stop()
	coll.Close()

	stopMonitor()
	if err := <-monitorDone; err != nil {
		return &exitError{code: ExitError, err: err}
	}

	interrupted := errors.Is(runErr, context.Canceled)
	if runErr != nil && !interrupted {
		return &exitError{code: ExitError, err: runErr}
	}
	if interrupted {
		prog.Print("\nReceived interrupt signal, shutting down...")
	}

	prog.PrintFixtures()
	return report(cfg, coll.Compute(), driver.Snapshot(), interrupted, stdout, stderr)
}

// report prints the results and maps threshold failures to an exit code.
// An interrupted run still reports but never fails its thresholds.
func report(cfg *config.Config, metrics *collector.Metrics, final sim.Snapshot, interrupted bool, stdout, stderr io.Writer) error {
	var results *collector.ThresholdResults
	if cfg.Thresholds != nil {
		results = cfg.Thresholds.Check(metrics)
	}

	if cfg.Run.Output == config.OutputJSON {
		collector.FormatJSON(stdout, metrics, final, results)
	} else {
		collector.FormatText(stdout, metrics, final, results)
	}

	if interrupted || results == nil || results.Passed {
		return nil
	}
	if cfg.Run.Output == config.OutputText {
		fmt.Fprintln(stderr, "\nThreshold check failed!")
	}
	return &exitError{code: ExitThresholdFailed, err: errThresholdFailed}
}

func openTrace(path string, logger *zap.Logger) (*trace.Recorder, error) {
	if path == "" {
		return nil, nil
	}
	if path == autoTracePath {
		path = trace.DefaultPath()
	}
	rec, err := trace.Open(path, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("recording transitions", zap.String("path", path))
	return rec, nil
}

func closeTrace(rec *trace.Recorder, logger *zap.Logger) {
	if err := rec.Close(); err != nil {
		logger.Error("closing trace", zap.Error(err))
	}
}
