package collector

import (
	"time"

	"lightsync/internal/core"
	"lightsync/internal/sim"
)

// ComputeMetrics computes metrics from events. Pure function, no side effects.
func ComputeMetrics(events []core.Event, wallDuration time.Duration) *Metrics {
	m := &Metrics{
		ByPhase:      make(map[sim.Phase]int),
		WallDuration: wallDuration,
	}

	if len(events) == 0 {
		return m
	}

	var durationSum float64
	m.FirstFrame = events[0].Frame
	for _, e := range events {
		m.Transitions++
		if e.Night() {
			m.NightTransitions++
		} else {
			m.DayTransitions++
		}
		m.ByPhase[e.From]++

		m.TotalLatency += e.Latency
		durationSum += e.PhaseDuration

		if e.SimulatedSeconds > m.LastSimulated {
			m.LastSimulated = e.SimulatedSeconds
		}
		if e.Frame < m.FirstFrame {
			m.FirstFrame = e.Frame
		}
		if e.Frame > m.LastFrame {
			m.LastFrame = e.Frame
		}
	}

	m.MeanLatency = m.TotalLatency / float64(m.Transitions)
	m.MeanPhaseDuration = durationSum / float64(m.Transitions)

	if wallDuration > 0 {
		m.TransitionsPerSec = float64(m.Transitions) / wallDuration.Seconds()
	}

	return m
}
