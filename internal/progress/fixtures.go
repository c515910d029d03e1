package progress

import (
	"fmt"
	"io"

	"lightsync/internal/collector"
	"lightsync/internal/sim"
)

// lampOrder is the top-to-bottom order of lamps in a fixture.
var lampOrder = [3]sim.Color{sim.Red, sim.Yellow, sim.Green}

var lampGlyph = map[sim.Color]string{
	sim.Red:    "R",
	sim.Yellow: "Y",
	sim.Green:  "G",
}

// RenderFixtures paints light A and light B as two vertical three-lamp
// fixtures, lit lamps shown by their initial, followed by status text. An
// illegal state lights no lamp and is called out instead.
func RenderFixtures(w io.Writer, s sim.Snapshot) {
	fmt.Fprintln(w, "   A     B")
	fmt.Fprintln(w, "  .-.   .-.")
	for _, lamp := range lampOrder {
		if s.Illegal {
			fmt.Fprintln(w, "  |?|   |?|")
			continue
		}
		fmt.Fprintf(w, "  |%s|   |%s|\n", lampFace(s.ColorA, lamp), lampFace(s.ColorB, lamp))
	}
	fmt.Fprintln(w, "  '-'   '-'")
	fmt.Fprintf(w, "  time %s  latency %s\n",
		collector.FormatSimTime(s.SimulatedSeconds), collector.FormatSeconds(s.TotalLatencySeconds))
	if s.Illegal {
		fmt.Fprintf(w, "  illegal light state (%s)\n", s.Phase)
	}
	if s.Complete {
		fmt.Fprintln(w, "  simulation complete")
	}
}

func lampFace(active, lamp sim.Color) string {
	if active == lamp {
		return lampGlyph[lamp]
	}
	return " "
}
