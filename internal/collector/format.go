package collector

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"lightsync/internal/sim"
)

// FormatText writes metrics and the final clock state in human-readable
// format.
func FormatText(w io.Writer, m *Metrics, final sim.Snapshot, thresholds *ThresholdResults) {
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Light Sync - Simulation Results")
	fmt.Fprintln(w, "===============================")
	fmt.Fprintln(w, "")
	fmt.Fprintf(w, "Wall Time:      %v\n", m.WallDuration.Round(time.Millisecond))
	fmt.Fprintf(w, "Simulated Time: %s", FormatSimTime(final.SimulatedSeconds))
	if final.Complete {
		fmt.Fprint(w, " (complete)")
	}
	fmt.Fprintln(w, "")
	fmt.Fprintf(w, "Final Lights:   A=%s B=%s\n", final.ColorA, final.ColorB)

	if m.Transitions == 0 {
		fmt.Fprintln(w, "No transitions recorded")
		writeThresholds(w, thresholds)
		return
	}

	fmt.Fprintf(w, "Transitions:    %s (day %s, night %s)\n",
		formatNumber(m.Transitions), formatNumber(m.DayTransitions), formatNumber(m.NightTransitions))
	fmt.Fprintf(w, "Transitions/s:  %.1f\n", m.TransitionsPerSec)
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Latency:")
	fmt.Fprintf(w, "  Total:  %s\n", FormatSeconds(m.TotalLatency))
	fmt.Fprintf(w, "  Mean:   %s\n", FormatSeconds(m.MeanLatency))
	fmt.Fprintf(w, "  Phase:  %s mean target\n", FormatSeconds(m.MeanPhaseDuration))
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "By Phase:")
	for _, p := range sim.Phases {
		fmt.Fprintf(w, "  %-15s %s\n", p, formatNumber(m.ByPhase[p]))
	}

	writeThresholds(w, thresholds)
}

func writeThresholds(w io.Writer, thresholds *ThresholdResults) {
	if thresholds == nil || len(thresholds.Results) == 0 {
		return
	}
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Thresholds:")
	for _, result := range thresholds.Results {
		symbol := "✓"
		if !result.Passed {
			symbol = "✗"
		}
		fmt.Fprintf(w, "  %s %s %s (actual: %s)\n",
			symbol, result.Name, result.Threshold, result.Actual)
	}
}

// FormatJSON writes metrics and the final clock state in JSON format.
func FormatJSON(w io.Writer, m *Metrics, final sim.Snapshot, thresholds *ThresholdResults) {
	output := struct {
		WallDuration string            `json:"wallDuration"`
		Final        sim.Snapshot      `json:"final"`
		Metrics      *Metrics          `json:"metrics"`
		Thresholds   *ThresholdResults `json:"thresholds,omitempty"`
	}{
		WallDuration: m.WallDuration.Round(time.Millisecond).String(),
		Final:        final,
		Metrics:      m,
		Thresholds:   thresholds,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	_ = encoder.Encode(output) // stdout errors are unrecoverable
}

// FormatSimTime renders simulated seconds as a time of day, HH:MM:SS.
// The end of the run renders as 24:00:00.
func FormatSimTime(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(math.Floor(seconds))
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, total/60%60, total%60)
}

// FormatSeconds renders a simulated duration with one decimal and
// thousands separators.
func FormatSeconds(seconds float64) string {
	whole := int(seconds)
	frac := int(math.Round((seconds - float64(whole)) * 10))
	if frac == 10 {
		whole++
		frac = 0
	}
	return fmt.Sprintf("%s.%ds", formatNumber(whole), frac)
}

func formatNumber(n int) string {
	if n < 0 {
		return "-" + formatNumber(-n)
	}
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
