package evaluation

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// DefaultThreshold is the minimum per-metric mean required to pass the
// CI gate.
const DefaultThreshold = 4.0

// Report aggregates per-record scores into per-metric means.
type Report struct {
	Rows  []RecordScores     `json:"rows"`
	Means map[string]float64 `json:"means"`
}

// newReport computes the per-metric means over rows.
func newReport(rows []RecordScores) *Report {
	sums := map[string]int{}
	counts := map[string]int{}

	for _, row := range rows {
		for metric, score := range row.Scores {
			sums[metric] += score
			counts[metric]++
		}
	}

	means := make(map[string]float64, len(sums))
	for metric, sum := range sums {
		means[metric] = float64(sum) / float64(counts[metric])
	}

	return &Report{Rows: rows, Means: means}
}

// Metrics returns the metric names in the report, sorted.
func (r *Report) Metrics() []string {
	metrics := make([]string, 0, len(r.Means))
	for metric := range r.Means {
		metrics = append(metrics, metric)
	}
	sort.Strings(metrics)

	return metrics
}

// Failing returns the metrics whose mean is below threshold, sorted.
func (r *Report) Failing(threshold float64) []string {
	var failing []string
	for _, metric := range r.Metrics() {
		if r.Means[metric] < threshold {
			failing = append(failing, metric)
		}
	}

	return failing
}

// Passes reports whether every metric mean meets threshold.
func (r *Report) Passes(threshold float64) bool {
	return len(r.Failing(threshold)) == 0
}

// WriteFile persists the report as indented JSON.
func (r *Report) WriteFile(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}

	return nil
}
