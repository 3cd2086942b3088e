package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/geektime/contentpipe/evaluation"
)

var (
	evalDataset   string
	evalOutput    string
	evalThreshold float64
)

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Score generated content with LLM judges",
}

var evalRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Evaluate a dataset and write the report",
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := runEvaluation(cmd.Context())
		if err != nil {
			return err
		}

		printReport(report)

		return nil
	},
}

var evalCICmd = &cobra.Command{
	Use:   "ci",
	Short: "Evaluate a dataset and fail when any metric mean is below the threshold",
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := runEvaluation(cmd.Context())
		if err != nil {
			// Anything short of a scored dataset is an infrastructure
			// failure, distinct from a failed quality gate.
			return &exitError{code: 2, err: err}
		}

		printReport(report)

		if failing := report.Failing(evalThreshold); len(failing) > 0 {
			return &exitError{
				code: 1,
				err:  fmt.Errorf("quality gate failed: %v below threshold %.1f", failing, evalThreshold),
			}
		}

		fmt.Printf("Quality gate passed (threshold %.1f).\n", evalThreshold)

		return nil
	},
}

// runEvaluation loads the dataset, scores it with the standard judges,
// and persists the report.
func runEvaluation(ctx context.Context) (*evaluation.Report, error) {
	settings, logger, err := bootstrap()
	if err != nil {
		return nil, err
	}

	records, err := evaluation.LoadDataset(evalDataset)
	if err != nil {
		return nil, err
	}

	output := evalOutput
	if output == "" {
		output = defaultReportPath(evalDataset)
	}

	llm, err := buildModel(settings)
	if err != nil {
		return nil, err
	}

	runner, err := evaluation.NewRunner(evaluation.DefaultEvaluators(llm), func(o *evaluation.RunnerOptions) {
		o.Logger = logger
	})
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithTimeout(ctx, settings.PipelineTimeout)
	defer cancel()

	report, err := runner.Run(runCtx, records)
	if err != nil {
		return nil, err
	}

	if err := report.WriteFile(output); err != nil {
		return nil, err
	}

	logger.Info("evaluation report written", "path", output, "records", len(report.Rows))

	return report, nil
}

// defaultReportPath places the report next to the dataset it scored.
func defaultReportPath(dataset string) string {
	return filepath.Join(filepath.Dir(dataset), "results.json")
}

func printReport(report *evaluation.Report) {
	fmt.Printf("Evaluated %d records:\n", len(report.Rows))
	for _, metric := range report.Metrics() {
		fmt.Printf("  %-10s %.2f\n", metric, report.Means[metric])
	}
}

func init() {
	for _, cmd := range []*cobra.Command{evalRunCmd, evalCICmd} {
		cmd.Flags().StringVar(&evalDataset, "dataset", "dataset.jsonl", "path to the JSONL dataset")
		cmd.Flags().StringVar(&evalOutput, "output", "", "path for the JSON report (default: results.json next to the dataset)")
	}
	evalCICmd.Flags().Float64Var(&evalThreshold, "threshold", evaluation.DefaultThreshold, "minimum per-metric mean")

	evalCmd.AddCommand(evalRunCmd)
	evalCmd.AddCommand(evalCICmd)
}
