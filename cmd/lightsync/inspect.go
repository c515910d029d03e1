package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"lightsync/internal/collector"
	"lightsync/internal/config"
	"lightsync/internal/core"
	"lightsync/internal/sim"
	"lightsync/internal/trace"
)

var errEmptyTrace = errors.New("trace has no recorded runs")

func newInspectCmd(g *globalFlags) *cobra.Command {
	var (
		runID  string
		list   bool
		output string
	)
	cmd := &cobra.Command{
		Use:   "inspect <trace.sqlite3>",
		Short: "Recompute metrics from a recorded transition trace.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadSettings(cmd, g, nil)
			if err != nil {
				return &exitError{code: ExitError, err: err}
			}
			if cmd.Flags().Changed("output") {
				cfg.Run.Output = output
				if err := cfg.Validate(); err != nil {
					return &exitError{code: ExitError, err: err}
				}
			}
			logger, err := newLogger(g.verbose)
			if err != nil {
				return &exitError{code: ExitError, err: err}
			}
			defer func() { _ = logger.Sync() }()

			rec, err := trace.OpenExisting(args[0], logger)
			if err != nil {
				return &exitError{code: ExitError, err: err}
			}
			defer closeTrace(rec, logger)

			runs, err := rec.Runs(cmd.Context())
			if err != nil {
				return &exitError{code: ExitError, err: err}
			}
			if list {
				for _, id := range runs {
					fmt.Fprintln(cmd.OutOrStdout(), id)
				}
				return nil
			}
			if len(runs) == 0 {
				return &exitError{code: ExitError, err: errEmptyTrace}
			}
			if runID == "" {
				runID = runs[len(runs)-1]
			}

			events, err := rec.Events(cmd.Context(), runID)
			if err != nil {
				return &exitError{code: ExitError, err: err}
			}
			if len(events) == 0 {
				return &exitError{code: ExitError, err: fmt.Errorf("run %s not found in trace", runID)}
			}
			logger.Debug("loaded trace", zap.String("run_id", runID), zap.Int("transitions", len(events)))

			return inspectEvents(cfg, events, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	cmd.Flags().StringVar(&runID, "run", "", "run ID to inspect (defaults to the latest)")
	cmd.Flags().BoolVar(&list, "list", false, "list recorded run IDs and exit")
	cmd.Flags().StringVar(&output, "output", config.OutputText, "output format: text, json")
	return cmd
}

func inspectEvents(cfg *config.Config, events []core.Event, stdout, stderr io.Writer) error {
	wall := events[len(events)-1].Timestamp.Sub(events[0].Timestamp)
	metrics := collector.ComputeMetrics(events, wall)
	return report(cfg, metrics, finalSnapshot(events), false, stdout, stderr)
}

// finalSnapshot reconstructs the clock state just after the last recorded
// transition. The phase timer is not traced and reads as zero.
func finalSnapshot(events []core.Event) sim.Snapshot {
	last := events[len(events)-1]
	s := sim.NewClockAt(last.To, last.SimulatedSeconds).Snapshot()
	s.TotalLatencySeconds = last.TotalLatency
	s.Transitions = len(events)
	return s
}
