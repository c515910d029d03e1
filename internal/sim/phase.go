// Package sim implements the two-light simulation clock.
package sim

import "fmt"

// Color is a single lamp color.
type Color uint8

const (
	Red Color = iota
	Yellow
	Green
)

func (c Color) String() string {
	switch c {
	case Red:
		return "red"
	case Yellow:
		return "yellow"
	case Green:
		return "green"
	default:
		return fmt.Sprintf("color(%d)", uint8(c))
	}
}

// MarshalText lets colors appear by name in JSON output.
func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Color) UnmarshalText(text []byte) error {
	for _, candidate := range []Color{Red, Yellow, Green} {
		if candidate.String() == string(text) {
			*c = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown color %q", text)
}

// Phase is one of the four legal (A, B) color pairs.
type Phase uint8

const (
	GreenRed Phase = iota
	YellowRed
	RedGreen
	RedYellow

	numPhases
)

// Phases lists every legal phase in cycle order.
var Phases = [numPhases]Phase{GreenRed, YellowRed, RedGreen, RedYellow}

var phaseColors = [numPhases][2]Color{
	GreenRed:  {Green, Red},
	YellowRed: {Yellow, Red},
	RedGreen:  {Red, Green},
	RedYellow: {Red, Yellow},
}

// Valid reports whether p is one of the four legal pairs.
func (p Phase) Valid() bool {
	return p < numPhases
}

// Next returns the phase that follows p in the cycle.
// An invalid phase is returned unchanged.
func (p Phase) Next() Phase {
	if !p.Valid() {
		return p
	}
	return (p + 1) % numPhases
}

// Colors returns the colors of light A and light B. An invalid phase
// shows red on both lights.
func (p Phase) Colors() (a, b Color) {
	if !p.Valid() {
		return Red, Red
	}
	c := phaseColors[p]
	return c[0], c[1]
}

func (p Phase) String() string {
	if !p.Valid() {
		return fmt.Sprintf("phase(%d)", uint8(p))
	}
	a, b := p.Colors()
	return a.String() + "/" + b.String()
}

// MarshalText lets phases appear by name in JSON output.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText accepts the names produced by MarshalText. Only legal
// phases are accepted.
func (p *Phase) UnmarshalText(text []byte) error {
	for _, candidate := range Phases {
		if candidate.String() == string(text) {
			*p = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", text)
}

// PhaseOf maps a color pair to its phase. It reports false for pairs
// outside the cycle.
func PhaseOf(a, b Color) (Phase, bool) {
	for _, p := range Phases {
		if phaseColors[p] == ([2]Color{a, b}) {
			return p, true
		}
	}
	return 0, false
}
