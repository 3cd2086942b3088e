package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/geektime/contentpipe/api"
	"github.com/geektime/contentpipe/tracing"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the streaming HTTP API",
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

		addr := serveAddr
		if addr == "" {
			addr = settings.APIAddr
		}

		server := api.NewServer(pipe, func(o *api.Options) {
			o.Logger = logger
			o.RunTimeout = settings.PipelineTimeout
		})

		return server.ListenAndServe(ctx, addr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default: API_ADDR or :8000)")
}
