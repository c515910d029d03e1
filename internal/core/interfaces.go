// Package core defines the types shared by the tick loop and the
// components that consume its output.
package core

import (
	"time"

	"lightsync/internal/sim"
)

//go:generate mockgen -destination mock_reporter.go -package core lightsync/internal/core Reporter

// Event records a single phase transition observed by the tick loop.
type Event struct {
	RunID     string
	Frame     int64
	Timestamp time.Time // wall clock at the frame that observed the transition
	From      sim.Phase
	To        sim.Phase

	SimulatedSeconds float64 // simulated time at expiry
	PhaseDuration    float64 // target duration of the phase that expired
	Latency          float64 // latency accrued by this transition
	TotalLatency     float64
}

// Night reports whether the expired phase ran with the night duration.
func (e Event) Night() bool {
	return e.PhaseDuration == sim.NightPhaseDuration
}

// Reporter receives transition events from the tick loop.
type Reporter interface {
	Report(Event)
}

// NullReporter discards all events.
var NullReporter Reporter = nullReporter{}

type nullReporter struct{}

func (nullReporter) Report(Event) {}

// MultiReporter fans each event out to every reporter in order.
type MultiReporter []Reporter

func (m MultiReporter) Report(e Event) {
	for _, r := range m {
		r.Report(e)
	}
}
