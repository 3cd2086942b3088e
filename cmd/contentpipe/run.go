package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/geektime/contentpipe/api"
	"github.com/geektime/contentpipe/core"
	"github.com/geektime/contentpipe/prompts"
	"github.com/geektime/contentpipe/tracing"
)

var runTopic string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline once and print the streamed output",
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, logger, err := bootstrap()
		if err != nil {
			return err
		}

		ctx := cmd.Context()

		shutdown, err := tracing.Setup(ctx, settings)
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				logger.Warn("tracing shutdown", "error", err)
			}
		}()

		pipe, cleanup, err := buildPipeline(ctx, settings, logger)
		if err != nil {
			return err
		}
		defer cleanup()

		topic := runTopic
		if topic == "" {
			topic = api.DefaultTopic
		}

		message, err := prompts.Render("pipeline_message", map[string]string{"topic": topic})
		if err != nil {
			return err
		}

		runCtx, cancel := context.WithTimeout(ctx, settings.PipelineTimeout)
		defer cancel()

		fmt.Printf("Topic: %s\n", topic)

		for event := range pipe.Run(runCtx, message) {
			printEvent(event)
			if event.Kind == core.EventError {
				return fmt.Errorf("pipeline run failed: %w", event.Err)
			}
		}

		return nil
	},
}

// printEvent renders a stream event for terminal output: a banner per
// agent, raw text deltas, and a closing status line.
func printEvent(event core.StreamEvent) {
	switch event.Kind {
	case core.EventAgentStarted:
		fmt.Printf("\n\n%s\n%s\n", event.Agent, strings.Repeat("=", len(event.Agent)))
	case core.EventTextDelta:
		fmt.Print(event.Text)
	case core.EventDone:
		fmt.Printf("\n\nPipeline %s.\n", event.Status)
	case core.EventError:
		fmt.Fprintf(os.Stderr, "\nerror: %v\n", event.Err)
	}
}

func init() {
	runCmd.Flags().StringVar(&runTopic, "topic", "", "article topic (default: "+api.DefaultTopic+")")
}
