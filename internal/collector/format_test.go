package collector

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"lightsync/internal/sim"
)

func sampleMetrics() *Metrics {
	return &Metrics{
		Transitions:       959,
		DayTransitions:    719,
		NightTransitions:  240,
		ByPhase:           map[sim.Phase]int{sim.GreenRed: 240, sim.YellowRed: 240, sim.RedGreen: 240, sim.RedYellow: 239},
		TotalLatency:      17268,
		MeanLatency:       18.006,
		MeanPhaseDuration: 90.03,
		WallDuration:      2 * time.Minute,
		TransitionsPerSec: 7.99,
	}
}

func finalSnapshot() sim.Snapshot {
	return sim.Snapshot{
		ColorA:              sim.Red,
		ColorB:              sim.Yellow,
		Phase:               sim.RedYellow,
		SimulatedSeconds:    sim.Horizon,
		TotalLatencySeconds: 17268,
		Transitions:         959,
		Complete:            true,
	}
}

func TestFormatText_BasicOutput(t *testing.T) {
	var buf bytes.Buffer
	FormatText(&buf, sampleMetrics(), finalSnapshot(), nil)

	output := buf.String()
	for _, want := range []string{
		"Light Sync - Simulation Results",
		"Simulated Time: 24:00:00 (complete)",
		"Final Lights:   A=red B=yellow",
		"Transitions:    959 (day 719, night 240)",
		"Total:  17,268.0s",
		"green/red",
		"red/yellow      239",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got:\n%s", want, output)
		}
	}
	if strings.Contains(output, "Thresholds:") {
		t.Errorf("did not expect thresholds section, got:\n%s", output)
	}
}

func TestFormatText_NoTransitions(t *testing.T) {
	var buf bytes.Buffer
	FormatText(&buf, &Metrics{}, sim.NewClock().Snapshot(), nil)

	output := buf.String()
	if !strings.Contains(output, "No transitions recorded") {
		t.Errorf("expected empty notice, got:\n%s", output)
	}
	if strings.Contains(output, "(complete)") {
		t.Errorf("did not expect completion marker, got:\n%s", output)
	}
}

func TestFormatText_WithThresholds(t *testing.T) {
	th := &Thresholds{MaxTotalLatency: 10000, MinTransitions: 900}
	m := sampleMetrics()

	var buf bytes.Buffer
	FormatText(&buf, m, finalSnapshot(), th.Check(m))

	output := buf.String()
	if !strings.Contains(output, "✗ latency.total <= 10,000.0s (actual: 17,268.0s)") {
		t.Errorf("expected failed latency threshold, got:\n%s", output)
	}
	if !strings.Contains(output, "✓ transitions >= 900 (actual: 959)") {
		t.Errorf("expected passed transitions threshold, got:\n%s", output)
	}
}

func TestFormatJSON(t *testing.T) {
	var buf bytes.Buffer
	FormatJSON(&buf, sampleMetrics(), finalSnapshot(), nil)

	var decoded struct {
		WallDuration string `json:"wallDuration"`
		Final        struct {
			ColorA   string `json:"colorA"`
			Complete bool   `json:"complete"`
		} `json:"final"`
		Metrics struct {
			Transitions int            `json:"transitions"`
			ByPhase     map[string]int `json:"byPhase"`
		} `json:"metrics"`
		Thresholds *ThresholdResults `json:"thresholds"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}

	if decoded.WallDuration != "2m0s" {
		t.Errorf("expected wallDuration 2m0s, got %q", decoded.WallDuration)
	}
	if decoded.Final.ColorA != "red" || !decoded.Final.Complete {
		t.Errorf("unexpected final state: %+v", decoded.Final)
	}
	if decoded.Metrics.Transitions != 959 {
		t.Errorf("expected 959 transitions, got %d", decoded.Metrics.Transitions)
	}
	if decoded.Metrics.ByPhase["red/yellow"] != 239 {
		t.Errorf("expected phase keys by name, got %v", decoded.Metrics.ByPhase)
	}
	if decoded.Thresholds != nil {
		t.Errorf("expected thresholds omitted, got %+v", decoded.Thresholds)
	}
}

func TestFormatSimTime(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0, "00:00:00"},
		{59.9, "00:00:59"},
		{3661, "01:01:01"},
		{sim.DayThreshold, "12:00:00"},
		{sim.Horizon, "24:00:00"},
		{-5, "00:00:00"},
	}
	for _, tt := range tests {
		if got := FormatSimTime(tt.seconds); got != tt.want {
			t.Errorf("FormatSimTime(%v) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestFormatSeconds(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0, "0.0s"},
		{12, "12.0s"},
		{11.999999999999998, "12.0s"},
		{1234.56, "1,234.6s"},
		{17268, "17,268.0s"},
		{1234567, "1,234,567.0s"},
	}
	for _, tt := range tests {
		if got := FormatSeconds(tt.seconds); got != tt.want {
			t.Errorf("FormatSeconds(%v) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}
