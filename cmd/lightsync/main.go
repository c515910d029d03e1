// Command lightsync drives the two-light simulation clock in real time
// or headless, and reports phase transition metrics.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	ExitSuccess         = 0
	ExitThresholdFailed = 1
	ExitError           = 2
)

// exitError carries a process exit code out of a command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

var errThresholdFailed = errors.New("threshold check failed")

type globalFlags struct {
	configPath string
	envFiles   []string
	verbose    bool
}

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}

func execute(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	if err == nil {
		return ExitSuccess
	}

	var exitErr *exitError
	if errors.As(err, &exitErr) {
		if !errors.Is(exitErr.err, errThresholdFailed) {
			fmt.Fprintf(stderr, "error: %v\n", exitErr.err)
		}
		return exitErr.code
	}
	fmt.Fprintf(stderr, "error: %v\n", err)
	return ExitError
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "lightsync",
		Short: "Simulate a pair of synchronized traffic lights over one day.",
		Long: `lightsync advances two traffic lights through a fixed four-phase ` +
			`cycle, compressing 24 simulated hours into a couple of real minutes. ` +
			`Phases last 60 simulated seconds before noon and 180 after.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "path to YAML config file")
	pf.StringSliceVar(&flags.envFiles, "env-file", []string{".env"}, "env files to load before reading LIGHTSYNC_* variables")
	pf.BoolVar(&flags.verbose, "verbose", false, "enable debug logging")

	root.AddCommand(
		newRunCmd(flags),
		newReplayCmd(flags),
		newInspectCmd(flags),
	)
	return root
}

// newLogger builds the process logger. Logs go to stderr so that stdout
// stays clean for results.
func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}
