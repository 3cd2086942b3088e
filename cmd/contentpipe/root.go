package main

import (
	"github.com/spf13/cobra"

	"github.com/geektime/contentpipe/config"
	"github.com/geektime/contentpipe/logging"
)

var rootCmd = &cobra.Command{
	Use:           "contentpipe",
	Short:         "Multi-agent content pipeline: research, write, review",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(a2aCmd)
	rootCmd.AddCommand(evalCmd)
}

// bootstrap loads settings and builds the logger every subcommand shares.
func bootstrap() (config.Settings, logging.Logger, error) {
	settings, err := config.Load()
	if err != nil {
		return config.Settings{}, nil, err
	}

	logger := logging.NewSlogLogger(logging.ParseLevel(settings.LogLevel), "text")

	return settings, logger, nil
}
