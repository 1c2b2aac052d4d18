package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/stepform/internal/cli"
)

var rootCmd = &cobra.Command{
	Use:   "stepform",
	Short: "stepform fills multi-step forms in the terminal",
	Long: `stepform loads form definitions (YAML, JSON, HCL or Markdown front matter)
and walks you through them step by step, with conditional controls, derived values
and resumable sessions.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("path", ".", "Form definition file or directory")
	flags.String("store", cli.StoreFile, "Session store: memory, file or redis")
	flags.String("session-dir", cli.DefaultSessionDir, "Directory of the file session store")
	flags.String("redis-addr", "", "Redis address for --store=redis")
	flags.StringSlice("mask", nil, "Control path patterns whose values are redacted at rest")
}

// pathArg resolves the definition path: --path wins, then the first argument.
func pathArg(cmd *cobra.Command, args []string) string {
	path, _ := cmd.Flags().GetString("path")
	if !cmd.Flags().Changed("path") && len(args) > 0 {
		path = args[0]
	}
	return path
}

func storeOptions(cmd *cobra.Command) cli.StoreOptions {
	kind, _ := cmd.Flags().GetString("store")
	dir, _ := cmd.Flags().GetString("session-dir")
	addr, _ := cmd.Flags().GetString("redis-addr")
	mask, _ := cmd.Flags().GetStringSlice("mask")
	return cli.StoreOptions{Kind: kind, Dir: dir, RedisAddr: addr, Mask: mask}
}
