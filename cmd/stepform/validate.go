package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/stepform/internal/cli"
)

var validateCmd = &cobra.Command{
	Use:   "validate [path]",
	Short: "Check form definitions for consistency",
	Long: `Loads every definition under the path and reports structural problems,
unknown control references, dependency cycles and rules that do not compile.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if err := cli.RunValidate(cmd.Context(), out, pathArg(cmd, args)); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		fmt.Fprintln(out, "All forms are valid! ✅")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
