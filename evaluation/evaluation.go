// Package evaluation scores generated content with LLM judges and gates
// CI runs on the aggregate quality of a dataset.
package evaluation

import (
	"context"
	"fmt"

	"github.com/geektime/contentpipe/logging"
)

// Record pairs a query with the response to be judged.
type Record struct {
	Query    string `json:"query"`
	Response string `json:"response"`
}

// Evaluator scores a single record on one quality dimension. Scores are
// integers on a 1..5 scale.
type Evaluator interface {
	// Name returns the metric name, e.g. "coherence".
	Name() string

	// Evaluate scores the record. Implementations return an error when
	// the score cannot be produced, never a sentinel score.
	Evaluate(ctx context.Context, record Record) (int, error)
}

// RecordScores holds the per-metric scores of a single record.
type RecordScores struct {
	Query    string         `json:"query"`
	Response string         `json:"response"`
	Scores   map[string]int `json:"scores"`
}

// RunnerOptions configures an evaluation runner.
type RunnerOptions struct {
	// Logger receives per-record progress logs.
	Logger logging.Logger
}

// Runner applies a fixed set of evaluators to every record of a dataset
// and aggregates the results into a report.
type Runner struct {
	evaluators []Evaluator
	logger     logging.Logger
}

// NewRunner creates a runner over the given evaluators.
func NewRunner(evaluators []Evaluator, optFns ...func(o *RunnerOptions)) (*Runner, error) {
	if len(evaluators) == 0 {
		return nil, fmt.Errorf("evaluation: at least one evaluator is required")
	}

	opts := RunnerOptions{
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Runner{evaluators: evaluators, logger: opts.Logger}, nil
}

// Run evaluates every record with every evaluator. A single failing
// judgment aborts the run: partial reports would silently skew the
// means the CI gate depends on.
func (r *Runner) Run(ctx context.Context, records []Record) (*Report, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("evaluation: dataset is empty")
	}

	rows := make([]RecordScores, 0, len(records))

	for i, record := range records {
		scores := make(map[string]int, len(r.evaluators))

		for _, ev := range r.evaluators {
			score, err := ev.Evaluate(ctx, record)
			if err != nil {
				return nil, fmt.Errorf("evaluation: record %d, metric %s: %w", i, ev.Name(), err)
			}
			scores[ev.Name()] = score
		}

		r.logger.Info("record evaluated", "record", i, "scores", scores)

		rows = append(rows, RecordScores{
			Query:    record.Query,
			Response: record.Response,
			Scores:   scores,
		})
	}

	return newReport(rows), nil
}
