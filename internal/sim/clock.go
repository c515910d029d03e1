package sim

import "math"

const (
	// SpeedupFactor converts real seconds into simulated seconds.
	SpeedupFactor = 720.0

	// DayThreshold is the simulated time at which phases lengthen.
	DayThreshold = 12 * 60 * 60.0

	// Horizon is the simulated time at which the run completes.
	Horizon = 24 * 60 * 60.0

	DayPhaseDuration   = 60.0
	NightPhaseDuration = 180.0

	// LatencyFactor is the fixed overhead applied to every completed phase.
	LatencyFactor = 1.2
)

// PhaseDuration returns the target phase length at the given simulated time.
func PhaseDuration(simulated float64) float64 {
	if simulated < DayThreshold {
		return DayPhaseDuration
	}
	return NightPhaseDuration
}

// Clock is the complete simulation state. The zero value equals NewClock().
//
// Clock is a value type: Step returns the next state and never mutates the
// receiver, so a Clock can be copied and handed to readers freely.
type Clock struct {
	phase       Phase
	simulated   float64
	phaseTimer  float64
	latency     float64
	transitions int
	complete    bool
}

// NewClock returns a clock at the start of a run: A green, B red, all
// counters zero.
func NewClock() Clock {
	return Clock{phase: GreenRed}
}

// NewClockAt returns a clock whose phase p has just started at the given
// simulated time, with no latency accrued. Times past Horizon yield a
// complete clock.
func NewClockAt(p Phase, simulatedSeconds float64) Clock {
	c := Clock{phase: p, simulated: math.Max(simulatedSeconds, 0)}
	if c.simulated >= Horizon {
		c.simulated = Horizon
		c.complete = true
	}
	return c
}

// Step advances the clock by realDelta real seconds and returns the new
// state. At most one phase transition happens per call; any overshoot
// stays in the phase timer for the next call. A clock holding an invalid
// phase keeps advancing time but never transitions.
func (c Clock) Step(realDelta float64) Clock {
	if c.complete {
		return c
	}
	if realDelta < 0 || math.IsNaN(realDelta) {
		realDelta = 0
	}

	simDelta := realDelta * SpeedupFactor
	c.simulated += simDelta
	c.phaseTimer += simDelta

	target := PhaseDuration(c.simulated)
	if c.phaseTimer >= target && c.phase.Valid() {
		c.latency += target * (LatencyFactor - 1)
		c.phaseTimer -= target
		c.phase = c.phase.Next()
		c.transitions++
	}

	if c.simulated >= Horizon {
		c.simulated = Horizon
		c.complete = true
	}
	return c
}

func (c Clock) Phase() Phase                 { return c.phase }
func (c Clock) SimulatedSeconds() float64    { return c.simulated }
func (c Clock) PhaseTimerSeconds() float64   { return c.phaseTimer }
func (c Clock) TotalLatencySeconds() float64 { return c.latency }
func (c Clock) Transitions() int             { return c.transitions }
func (c Clock) Complete() bool               { return c.complete }

// Snapshot is the read-only view handed to renderers.
type Snapshot struct {
	ColorA              Color   `json:"colorA"`
	ColorB              Color   `json:"colorB"`
	Phase               Phase   `json:"phase"`
	SimulatedSeconds    float64 `json:"simulatedSeconds"`
	PhaseTimerSeconds   float64 `json:"phaseTimerSeconds"`
	TotalLatencySeconds float64 `json:"totalLatencySeconds"`
	Transitions         int     `json:"transitions"`
	Complete            bool    `json:"complete"`

	// Illegal is set when the clock holds an out-of-range phase. ColorA and
	// ColorB carry no meaning then and renderers should show the fault.
	Illegal bool `json:"illegal,omitempty"`
}

// Snapshot captures the observable state of c.
func (c Clock) Snapshot() Snapshot {
	a, b := c.phase.Colors()
	return Snapshot{
		ColorA:              a,
		ColorB:              b,
		Phase:               c.phase,
		SimulatedSeconds:    c.simulated,
		PhaseTimerSeconds:   c.phaseTimer,
		TotalLatencySeconds: c.latency,
		Transitions:         c.transitions,
		Complete:            c.complete,
		Illegal:             !c.phase.Valid(),
	}
}
