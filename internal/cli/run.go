package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// RunOptions contains all the configuration for the run command.
type RunOptions struct {
	Path      string
	Form      string
	SessionID string
	Fresh     bool
	Store     StoreOptions
	JSON      bool
	Headless  bool
	Plain     bool
	Watch     bool
	Debug     bool
	// Values is a JSON object of control paths prefilled on a new session.
	Values string

	In  io.Reader
	Out io.Writer
}

func (o RunOptions) stdin() io.Reader {
	if o.In != nil {
		return o.In
	}
	return os.Stdin
}

func (o RunOptions) stdout() io.Writer {
	if o.Out != nil {
		return o.Out
	}
	return os.Stdout
}

// quiet reports whether human-oriented chatter must stay off stdout.
func (o RunOptions) quiet() bool {
	return o.JSON || o.Headless
}

// Execute handles the run command, dispatching to session or watch mode.
func Execute(opts RunOptions) error {
	var values map[string]any
	if opts.Values != "" {
		if err := json.Unmarshal([]byte(opts.Values), &values); err != nil {
			return fmt.Errorf("error parsing --values JSON: %w", err)
		}
	}

	if opts.Watch {
		if opts.quiet() {
			return fmt.Errorf("--watch cannot be combined with --headless or --json")
		}
		return RunWatch(opts, values)
	}
	return RunSession(opts, values)
}
