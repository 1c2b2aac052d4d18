package form

import (
	"context"
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/aretw0/stepform/pkg/domain"
)

// Snapshot captures the runtime state of the form for persistence.
func (f *Form) Snapshot() *domain.Snapshot {
	snap := &domain.Snapshot{
		SessionID: f.sessionID,
		Form:      f.bp.name,
		Phase:     f.phase,
		Current:   f.current,
		Statuses:  f.Statuses(),
		Values:    f.store.Flat(),
		UpdatedAt: time.Now().UTC(),
	}
	if errs := f.store.Errors(); len(errs) > 0 {
		snap.Errors = errs
	}
	if c, ok := f.bp.Control(f.focus); ok {
		snap.Focus = c.Path
	}
	return snap
}

// Restore replaces the runtime state of the form with a snapshot taken from
// a form of the same definition. Values are revalidated on the way in;
// paths the definition no longer has are dropped.
func (f *Form) Restore(ctx context.Context, snap *domain.Snapshot) error {
	if snap == nil {
		return fmt.Errorf("%w: nil snapshot", domain.ErrInvalidDefinition)
	}
	if snap.Form != f.bp.name {
		return fmt.Errorf("%w: snapshot of form %q cannot restore %q", domain.ErrInvalidDefinition, snap.Form, f.bp.name)
	}
	if len(snap.Statuses) != len(f.bp.steps) {
		return fmt.Errorf("%w: snapshot has %d steps, form has %d", domain.ErrInvalidDefinition, len(snap.Statuses), len(f.bp.steps))
	}
	if !snap.Phase.Terminal() && snap.Phase != domain.PhaseAllStepsComplete {
		if snap.Current < 0 || snap.Current >= len(f.bp.steps) || snap.Statuses[snap.Current] != domain.StepActive {
			return fmt.Errorf("%w: snapshot current step %d is not active", domain.ErrInvalidDefinition, snap.Current)
		}
	}

	f.store.reset()
	for path, raw := range snap.Values {
		id, ok := f.bp.Lookup(path)
		if !ok {
			f.logger.Warn("dropping value of unknown control", "control", path)
			continue
		}
		v, err := coerce(f.bp.controls[id], raw)
		if err != nil {
			f.logger.Warn("dropping undecodable value", "control", path, "err", err)
			continue
		}
		f.store.assign(id, v)
	}
	for path, verr := range snap.Errors {
		if id, ok := f.bp.Lookup(path); ok {
			e := verr
			f.store.markInvalid(id, &e)
		}
	}

	if snap.SessionID != "" {
		f.sessionID = snap.SessionID
	}
	f.statuses = append([]domain.StepStatus(nil), snap.Statuses...)
	f.current = snap.Current
	f.phase = snap.Phase
	f.propagateAll(ctx)

	f.focus = domain.NoControl
	if id, ok := f.bp.Lookup(snap.Focus); ok {
		f.focus = id
	}
	f.fixFocus()
	return nil
}

// coerce maps decoded JSON values onto the Go types controls hold.
func coerce(c *Control, raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	switch c.Kind {
	case domain.KindMultiSelect:
		var out []string
		if err := mapstructure.Decode(raw, &out); err != nil {
			return nil, err
		}
		return out, nil
	case domain.KindBoolean:
		var out bool
		if err := mapstructure.WeakDecode(raw, &out); err != nil {
			return nil, err
		}
		return out, nil
	case domain.KindKeyValue:
		var out map[string]string
		if err := mapstructure.Decode(raw, &out); err != nil {
			return nil, err
		}
		return out, nil
	case domain.KindText, domain.KindSingleSelect:
		var out string
		if err := mapstructure.Decode(raw, &out); err != nil {
			return nil, err
		}
		return out, nil
	}
	return raw, nil
}
