package collector

import (
	"fmt"
)

// Thresholds defines pass/fail criteria for a run. Zero values are not
// checked.
type Thresholds struct {
	MaxTotalLatency float64 `yaml:"max_total_latency"` // simulated seconds
	MaxMeanLatency  float64 `yaml:"max_mean_latency"`  // simulated seconds
	MinTransitions  int     `yaml:"min_transitions"`
}

// ThresholdResult represents the outcome of a single threshold check.
type ThresholdResult struct {
	Name      string `json:"name"`
	Passed    bool   `json:"passed"`
	Threshold string `json:"threshold"`
	Actual    string `json:"actual"`
}

// ThresholdResults contains all threshold check results.
type ThresholdResults struct {
	Passed  bool              `json:"passed"`
	Results []ThresholdResult `json:"results"`
}

// Check evaluates all thresholds against computed metrics.
func (t *Thresholds) Check(m *Metrics) *ThresholdResults {
	if t == nil {
		return &ThresholdResults{Passed: true, Results: nil}
	}

	results := &ThresholdResults{
		Passed:  true,
		Results: make([]ThresholdResult, 0),
	}

	latencyChecks := []struct {
		name      string
		threshold float64
		actual    float64
	}{
		{"latency.total", t.MaxTotalLatency, m.TotalLatency},
		{"latency.mean", t.MaxMeanLatency, m.MeanLatency},
	}
	for _, check := range latencyChecks {
		if check.threshold == 0 {
			continue
		}
		results.add(ThresholdResult{
			Name:      check.name,
			Passed:    check.actual <= check.threshold,
			Threshold: "<= " + FormatSeconds(check.threshold),
			Actual:    FormatSeconds(check.actual),
		})
	}

	if t.MinTransitions > 0 {
		results.add(ThresholdResult{
			Name:      "transitions",
			Passed:    m.Transitions >= t.MinTransitions,
			Threshold: fmt.Sprintf(">= %s", formatNumber(t.MinTransitions)),
			Actual:    formatNumber(m.Transitions),
		})
	}

	return results
}

func (r *ThresholdResults) add(result ThresholdResult) {
	if !result.Passed {
		r.Passed = false
	}
	r.Results = append(r.Results, result)
}

// Violations returns only the failed threshold results.
func (r *ThresholdResults) Violations() []ThresholdResult {
	violations := make([]ThresholdResult, 0)
	for _, result := range r.Results {
		if !result.Passed {
			violations = append(violations, result)
		}
	}
	return violations
}
