package collector

import (
	"time"

	"lightsync/internal/sim"
)

// Metrics summarises the transitions of a run.
type Metrics struct {
	Transitions      int               `json:"transitions"`
	DayTransitions   int               `json:"dayTransitions"`
	NightTransitions int               `json:"nightTransitions"`
	ByPhase          map[sim.Phase]int `json:"byPhase"` // keyed by the phase that expired

	TotalLatency      float64 `json:"totalLatencySeconds"`
	MeanLatency       float64 `json:"meanLatencySeconds"`
	MeanPhaseDuration float64 `json:"meanPhaseDurationSeconds"`
	LastSimulated     float64 `json:"lastTransitionSimulatedSeconds"`

	FirstFrame        int64         `json:"firstFrame"`
	LastFrame         int64         `json:"lastFrame"`
	WallDuration      time.Duration `json:"wallDuration"`
	TransitionsPerSec float64       `json:"transitionsPerSec"`
}
