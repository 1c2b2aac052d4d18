package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/stepform/internal/cli"
)

var graphCmd = &cobra.Command{
	Use:   "graph [path]",
	Short: "Export the dependency graph of a form",
	Long: `Outputs a Mermaid diagram (graph TD) with one subgraph per step and one
arrow per visibility, enablement or derivation edge. With --session the live
state of that session is highlighted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("form")
		id, _ := cmd.Flags().GetString("session")
		return cli.RunGraph(cmd.Context(), cmd.OutOrStdout(), cli.GraphOptions{
			Path:      pathArg(cmd, args),
			Form:      name,
			SessionID: id,
			Store:     storeOptions(cmd),
		})
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringP("form", "f", "", "Form to draw when the path holds several")
	graphCmd.Flags().StringP("session", "s", "", "Overlay the state of this session")
}
