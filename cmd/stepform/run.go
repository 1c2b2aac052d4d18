package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/stepform/internal/cli"
)

var runCmd = &cobra.Command{
	Use:   "run [path]",
	Short: "Fill a form interactively",
	Long: `Starts a form session. On a terminal the full-screen interface is used;
with piped input, --plain or --headless the form is answered one line at a time,
and --json speaks newline-delimited JSON events.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		opts := cli.RunOptions{Path: pathArg(cmd, args), Store: storeOptions(cmd)}
		opts.Form, _ = flags.GetString("form")
		opts.SessionID, _ = flags.GetString("session")
		opts.Fresh, _ = flags.GetBool("fresh")
		opts.JSON, _ = flags.GetBool("json")
		opts.Headless, _ = flags.GetBool("headless")
		opts.Plain, _ = flags.GetBool("plain")
		opts.Watch, _ = flags.GetBool("watch")
		opts.Debug, _ = flags.GetBool("debug")
		opts.Values, _ = flags.GetString("values")
		return cli.Execute(opts)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	flags := runCmd.Flags()
	flags.StringP("form", "f", "", "Form to fill when the path holds several")
	flags.StringP("session", "s", "", "Session ID to persist and resume")
	flags.Bool("fresh", false, "Discard the stored session and start over")
	flags.Bool("headless", false, "Run in headless mode (no prompts, strict IO)")
	flags.Bool("json", false, "Run in JSON mode (NDJSON input/output)")
	flags.Bool("plain", false, "Use line prompts even on a terminal")
	flags.BoolP("watch", "w", false, "Run in development mode with hot-reload")
	flags.Bool("debug", false, "Log lifecycle events to stderr")
	flags.String("values", "", "JSON object of control paths to prefill")

	rootCmd.Args = runCmd.Args
	rootCmd.RunE = runCmd.RunE
	rootCmd.Flags().AddFlagSet(runCmd.Flags())
}
