/*
Package runner turns input events into form edits and frame diffs.

A Session owns one form and the UI state around it (text drafts, cursors,
highlighted options). Session.Handle processes one event to completion and
returns the diff to draw. The Runner loop pulls events from an IOHandler,
feeds them to a Session and draws the diffs until the form is submitted or
cancelled, optionally checkpointing through a session.Manager.

# Key Components

  - Session: event and key handling over a form.
  - Runner: the interactive loop, with signal handling and event middleware.
  - TextHandler: a line-oriented handler for terminals and pipes.
  - JSONHandler: JSON-Lines frames out, events in.
  - HandleAndRender: the stateless variant used by the HTTP and MCP adapters.

# Usage

	r := runner.NewRunner(
		runner.WithInputHandler(runner.NewTextHandler(os.Stdout, runner.WithStdin())),
		runner.WithManager(manager),
	)

	res, err := r.Run(ctx, runner.NewSession(f))
	if err != nil {
		log.Fatal(err)
	}
*/
package runner
