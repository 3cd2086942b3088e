package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/geektime/contentpipe/a2a"
	"github.com/geektime/contentpipe/agent"
)

var (
	a2aServeAddr string
	a2aPeerURL   string
)

var a2aCmd = &cobra.Command{
	Use:   "a2a",
	Short: "Host or call agents over the A2A protocol",
}

var a2aServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Expose the reviewer agent to remote peers",
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, logger, err := bootstrap()
		if err != nil {
			return err
		}

		llm, err := buildModel(settings)
		if err != nil {
			return err
		}

		reviewer := agent.NewReviewer(llm, func(o *agent.ModelAgentOptions) { o.Logger = logger })

		addr := a2aServeAddr
		if addr == "" {
			addr = settings.A2AAddr
		}

		server := a2a.NewServer(reviewer, a2a.ReviewerCard(settings.A2APeerURL), func(o *a2a.ServerOptions) {
			o.Logger = logger
		})

		return server.ListenAndServe(cmd.Context(), addr)
	},
}

var a2aSendCmd = &cobra.Command{
	Use:   "send <message>",
	Short: "Send a message to a remote agent and print its reply",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, logger, err := bootstrap()
		if err != nil {
			return err
		}

		peer := a2aPeerURL
		if peer == "" {
			peer = settings.A2APeerURL
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), settings.PipelineTimeout)
		defer cancel()

		remote, err := a2a.NewRemoteAgent(ctx, peer, func(o *a2a.RemoteAgentOptions) {
			o.Logger = logger
		})
		if err != nil {
			return err
		}

		fmt.Printf("Sending to %s at %s\n\n", remote.Name(), peer)

		out, errCh := remote.Invoke(ctx, strings.Join(args, " "), nil)
		for fragment := range out {
			fmt.Print(fragment)
		}
		fmt.Println()

		return <-errCh
	},
}

func init() {
	a2aServeCmd.Flags().StringVar(&a2aServeAddr, "addr", "", "listen address (default: A2A_ADDR or :9000)")
	a2aSendCmd.Flags().StringVar(&a2aPeerURL, "peer", "", "base URL of the remote agent (default: A2A_PEER_URL)")

	a2aCmd.AddCommand(a2aServeCmd)
	a2aCmd.AddCommand(a2aSendCmd)
}
