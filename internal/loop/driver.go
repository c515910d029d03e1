// Package loop runs the frame tick loop that drives the simulation clock.
package loop

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"lightsync/internal/core"
	"lightsync/internal/ratelimit"
	"lightsync/internal/sim"
)

var (
	// ErrAlreadyRunning is returned when Run or Replay is called on a driver
	// that is already running.
	ErrAlreadyRunning = errors.New("driver already running")

	// ErrInvalidFrameDelta is returned by Replay for a non-positive delta.
	ErrInvalidFrameDelta = errors.New("frame delta must be positive")
)

// replayCheckInterval is how many replayed frames run between context checks.
const replayCheckInterval = 256

// Driver owns the simulation clock and advances it once per frame.
//
// Only the goroutine calling Tick, Run or Replay mutates the clock. Other
// goroutines observe it through Snapshot, which always returns the state
// after a completed step.
type Driver struct {
	wall     core.Clock
	limiter  *ratelimit.FrameLimiter
	reporter core.Reporter
	logger   *zap.Logger
	runID    string

	state         sim.Clock
	start         time.Time
	last          time.Time
	illegalLogged bool

	frames  atomic.Int64
	running atomic.Bool
	snap    atomic.Pointer[sim.Snapshot]
}

// NewDriver creates a driver that measures frames with the real clock.
// A nil reporter, limiter or logger is replaced by a no-op equivalent.
func NewDriver(reporter core.Reporter, limiter *ratelimit.FrameLimiter, logger *zap.Logger) *Driver {
	return NewDriverWithClock(reporter, limiter, logger, core.RealClock{})
}

// NewDriverWithClock creates a driver with a custom wall clock (for testing).
func NewDriverWithClock(reporter core.Reporter, limiter *ratelimit.FrameLimiter, logger *zap.Logger, clock core.Clock) *Driver {
	if reporter == nil {
		reporter = core.NullReporter
	}
	if limiter == nil {
		limiter = ratelimit.NewFrameLimiter(0)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	runID := uuid.NewString()
	d := &Driver{
		wall:     clock,
		limiter:  limiter,
		reporter: reporter,
		logger:   logger.With(zap.String("run_id", runID)),
		runID:    runID,
		state:    sim.NewClock(),
	}
	d.start = clock.Now()
	d.last = d.start
	d.publish()
	return d
}

func (d *Driver) RunID() string { return d.runID }

// Frames returns the number of frames processed so far.
func (d *Driver) Frames() int64 { return d.frames.Load() }

// Elapsed returns the wall time since the driver started.
func (d *Driver) Elapsed() time.Duration { return d.wall.Since(d.start) }

// Snapshot returns the state published by the most recent frame. Safe for
// concurrent use.
func (d *Driver) Snapshot() sim.Snapshot {
	return *d.snap.Load()
}

// Tick processes one frame using the wall time elapsed since the previous
// frame. It must not be called concurrently with itself, Run or Replay.
func (d *Driver) Tick() sim.Snapshot {
	now := d.wall.Now()
	delta := now.Sub(d.last)
	d.last = now

	if delta < 0 {
		d.logger.Warn("wall clock moved backwards, treating frame as zero length",
			zap.Duration("delta", delta))
		delta = 0
	}
	return d.advance(delta, now)
}

func (d *Driver) advance(delta time.Duration, now time.Time) sim.Snapshot {
	frame := d.frames.Add(1)
	prev := d.state
	next := prev.Step(delta.Seconds())
	d.state = next

	if next.Transitions() != prev.Transitions() {
		e := core.Event{
			RunID:            d.runID,
			Frame:            frame,
			Timestamp:        now,
			From:             prev.Phase(),
			To:               next.Phase(),
			SimulatedSeconds: next.SimulatedSeconds(),
			PhaseDuration:    sim.PhaseDuration(next.SimulatedSeconds()),
			Latency:          next.TotalLatencySeconds() - prev.TotalLatencySeconds(),
			TotalLatency:     next.TotalLatencySeconds(),
		}
		d.reporter.Report(e)
		d.logger.Debug("phase transition",
			zap.Int64("frame", frame),
			zap.Stringer("from", e.From),
			zap.Stringer("to", e.To),
			zap.Float64("simulated_seconds", e.SimulatedSeconds),
			zap.Float64("total_latency", e.TotalLatency))
	}

	if !next.Phase().Valid() && !d.illegalLogged {
		d.illegalLogged = true
		d.logger.Error("illegal light state, transitions suspended",
			zap.Stringer("phase", next.Phase()),
			zap.Int64("frame", frame))
	}

	if next.Complete() && !prev.Complete() {
		d.logger.Info("simulation complete",
			zap.Int64("frames", frame),
			zap.Int("transitions", next.Transitions()),
			zap.Float64("total_latency", next.TotalLatencySeconds()),
			zap.Duration("wall", d.Elapsed()))
	}

	return d.publish()
}

func (d *Driver) publish() sim.Snapshot {
	s := d.state.Snapshot()
	d.snap.Store(&s)
	return s
}

// Run paces frames with the limiter until the simulation completes or ctx
// is done. It returns nil on completion and the context error on
// cancellation.
func (d *Driver) Run(ctx context.Context) error {
	if !d.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer d.running.Store(false)

	d.logger.Info("simulation started",
		zap.Int("fps", d.limiter.Rate()),
		zap.Float64("speedup", sim.SpeedupFactor))

	// Time spent before Run is not part of the simulation.
	d.last = d.wall.Now()

	for {
		if err := d.limiter.Wait(ctx); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				d.logger.Info("simulation interrupted",
					zap.Int64("frames", d.Frames()),
					zap.Float64("simulated_seconds", d.Snapshot().SimulatedSeconds))
				return ctxErr
			}
			return fmt.Errorf("waiting for frame: %w", err)
		}
		if snap := d.Tick(); snap.Complete {
			return nil
		}
	}
}

// Replay runs the simulation to completion without pacing, stepping every
// frame by frameDelta of real time. Event timestamps are synthesised
// forward from the previous frame. It returns the number of frames replayed.
func (d *Driver) Replay(ctx context.Context, frameDelta time.Duration) (int64, error) {
	if frameDelta <= 0 {
		return 0, fmt.Errorf("%w: %v", ErrInvalidFrameDelta, frameDelta)
	}
	if !d.running.CompareAndSwap(false, true) {
		return 0, ErrAlreadyRunning
	}
	defer d.running.Store(false)

	d.logger.Info("replay started", zap.Duration("frame_delta", frameDelta))

	first := d.Frames()
	for i := 0; ; i++ {
		if i%replayCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return d.Frames() - first, err
			}
		}
		d.last = d.last.Add(frameDelta)
		if snap := d.advance(frameDelta, d.last); snap.Complete {
			return d.Frames() - first, nil
		}
	}
}
