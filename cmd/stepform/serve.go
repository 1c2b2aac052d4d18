package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/stepform/internal/cli"
)

var serveCmd = &cobra.Command{
	Use:   "serve [path]",
	Short: "Start the HTTP server",
	Long: `Serves form sessions over a JSON API, with SSE and WebSocket streams
of frame updates and Prometheus metrics on /metrics.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		port, _ := cmd.Flags().GetInt("port")
		debug, _ := cmd.Flags().GetBool("debug")
		return cli.RunServe(cli.ServeOptions{
			Path:  pathArg(cmd, args),
			Port:  port,
			Store: storeOptions(cmd),
			Debug: debug,
			Out:   cmd.OutOrStdout(),
		})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on")
	serveCmd.Flags().Bool("debug", false, "Log lifecycle events to stderr")
}
