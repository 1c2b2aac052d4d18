package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/aretw0/stepform/internal/presentation/graph"
	"github.com/aretw0/stepform/pkg/definition"
)

// ListSessions prints the stored session IDs.
func ListSessions(ctx context.Context, w io.Writer, opts StoreOptions) error {
	store, _, err := openStore(opts)
	if err != nil {
		return err
	}
	ids, err := store.List(ctx)
	if err != nil {
		return fmt.Errorf("error listing sessions: %w", err)
	}
	if len(ids) == 0 {
		fmt.Fprintln(w, "No active sessions found.")
		return nil
	}
	sort.Strings(ids)
	fmt.Fprintln(w, "Active Sessions:")
	for _, id := range ids {
		fmt.Fprintln(w, "- "+id)
	}
	return nil
}

// InspectSession prints a stored snapshot as indented JSON.
func InspectSession(ctx context.Context, w io.Writer, opts StoreOptions, id string) error {
	store, _, err := openStore(opts)
	if err != nil {
		return err
	}
	snap, err := store.Load(ctx, id)
	if err != nil {
		return fmt.Errorf("error loading session '%s': %w", id, err)
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshaling snapshot: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}

// RemoveSessions deletes the given sessions, or every stored one when all
// is set. It keeps going past failures and reports them together.
func RemoveSessions(ctx context.Context, w io.Writer, opts StoreOptions, ids []string, all bool) error {
	store, _, err := openStore(opts)
	if err != nil {
		return err
	}
	if all {
		if ids, err = store.List(ctx); err != nil {
			return fmt.Errorf("error listing sessions: %w", err)
		}
	}
	var errs []error
	for _, id := range ids {
		if err := store.Delete(ctx, id); err != nil {
			errs = append(errs, fmt.Errorf("error removing '%s': %w", id, err))
			continue
		}
		fmt.Fprintf(w, "Removed session '%s'\n", id)
	}
	return errors.Join(errs...)
}

// GraphOptions selects the form to draw and, optionally, a session whose
// live state is overlaid.
type GraphOptions struct {
	Path      string
	Form      string
	SessionID string
	Store     StoreOptions
}

// RunGraph prints the Mermaid diagram of a form.
func RunGraph(ctx context.Context, w io.Writer, opts GraphOptions) error {
	logger := CreateLogger(false)
	eng, err := NewEngine(opts.Path, logger)
	if err != nil {
		return err
	}
	bp, err := eng.Blueprint(ctx, opts.Form)
	if err != nil {
		return err
	}

	var overlay *graph.Overlay
	if opts.SessionID != "" {
		mgr, err := NewManager(opts.Store, logger)
		if err != nil {
			return err
		}
		snap, err := mgr.Load(ctx, opts.SessionID)
		if err != nil {
			return fmt.Errorf("error loading session '%s': %w", opts.SessionID, err)
		}
		f := bp.NewForm(ctx)
		if err := f.Restore(ctx, snap); err != nil {
			return err
		}
		overlay = graph.OverlayOf(f)
	}
	fmt.Fprint(w, graph.GenerateMermaid(bp, overlay))
	return nil
}

// RunValidate checks every definition under path and prints one line per
// problem. It fails when any definition is broken.
func RunValidate(ctx context.Context, w io.Writer, path string) error {
	eng, err := NewEngine(path, CreateLogger(false))
	if err != nil {
		return err
	}
	results, err := eng.Validate(ctx)
	if err != nil {
		return err
	}

	names, err := eng.Forms(ctx)
	if err != nil {
		return err
	}
	sort.Strings(names)

	broken := 0
	for _, name := range names {
		problems := definition.Problems(results[name])
		if len(problems) == 0 {
			fmt.Fprintf(w, "ok    %s\n", name)
			continue
		}
		broken++
		fmt.Fprintf(w, "FAIL  %s\n", name)
		for _, p := range problems {
			fmt.Fprintf(w, "      - %v\n", p)
		}
	}
	if broken > 0 {
		return fmt.Errorf("%d of %d forms are invalid", broken, len(names))
	}
	return nil
}
