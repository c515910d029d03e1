package collector_test

import (
	"fmt"

	"lightsync/internal/collector"
	"lightsync/internal/core"
	"lightsync/internal/sim"
)

func ExampleNewCollector() {
	c := collector.NewCollector()

	// The tick loop reports one event per phase transition.
	c.Report(core.Event{From: sim.GreenRed, To: sim.YellowRed, PhaseDuration: 60, Latency: 12})
	c.Report(core.Event{From: sim.YellowRed, To: sim.RedGreen, PhaseDuration: 60, Latency: 12})
	c.Close()

	m := c.Compute()
	fmt.Printf("%d transitions, %s latency\n", m.Transitions, collector.FormatSeconds(m.TotalLatency))
	// Output: 2 transitions, 24.0s latency
}

func ExampleFormatSimTime() {
	fmt.Println(collector.FormatSimTime(sim.DayThreshold + 90))
	// Output: 12:01:30
}
