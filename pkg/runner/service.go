package runner

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/stepform/pkg/domain"
	"github.com/aretw0/stepform/pkg/form"
	"github.com/aretw0/stepform/pkg/registry"
	"github.com/aretw0/stepform/pkg/session"
)

// ErrFormMismatch is returned when a session id is reused for another form.
var ErrFormMismatch = errors.New("session belongs to another form")

// Service drives stored sessions one event at a time for request/response
// hosts (HTTP, MCP). Forms are resolved by name through the registry, and
// every event runs under the session lock and is persisted before the
// response is returned.
type Service struct {
	Registry *registry.Registry
	Sessions *session.Manager
	// Options are applied to every form the service opens.
	Options []form.Option
}

// Start opens the session id for formName, creating it when absent. An
// empty id gets a fresh one. resumed reports whether it already existed.
func (s *Service) Start(ctx context.Context, formName, id string) (string, *RichResponse, bool, error) {
	bp, err := s.Registry.Blueprint(ctx, formName)
	if err != nil {
		return "", nil, false, err
	}
	if id == "" {
		id = session.NewID()
	} else if snap, err := s.Sessions.Load(ctx, id); err == nil && snap.Form != formName {
		return "", nil, false, fmt.Errorf("%w: session %s belongs to form %s", ErrFormMismatch, id, snap.Form)
	}
	f, resumed, err := s.Sessions.LoadOrStart(ctx, id, bp, s.Options...)
	if err != nil {
		return "", nil, false, err
	}
	return id, Render(f), resumed, nil
}

// Open restores a stored session without taking its lock. Changes to the
// returned form are not persisted.
func (s *Service) Open(ctx context.Context, id string) (*form.Form, error) {
	snap, err := s.Sessions.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	bp, err := s.Registry.Blueprint(ctx, snap.Form)
	if err != nil {
		return nil, err
	}
	opts := append(append([]form.Option(nil), s.Options...), form.WithSessionID(id))
	f := bp.NewForm(ctx, opts...)
	if err := f.Restore(ctx, snap); err != nil {
		return nil, fmt.Errorf("failed to restore session %s: %w", id, err)
	}
	return f, nil
}

// Get describes a stored session.
func (s *Service) Get(ctx context.Context, id string) (*RichResponse, error) {
	f, err := s.Open(ctx, id)
	if err != nil {
		return nil, err
	}
	return Render(f), nil
}

// Apply handles one event for a stored session. Unknown sessions fail with
// domain.ErrSessionNotFound rather than being started.
func (s *Service) Apply(ctx context.Context, id string, ev domain.Event) (*RichResponse, error) {
	snap, err := s.Sessions.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	bp, err := s.Registry.Blueprint(ctx, snap.Form)
	if err != nil {
		return nil, err
	}
	var resp *RichResponse
	err = s.Sessions.Update(ctx, id, bp, func(ctx context.Context, f *form.Form) error {
		var err error
		resp, err = HandleAndRender(ctx, f, ev)
		return err
	}, s.Options...)
	if err != nil {
		return nil, err
	}
	return resp, nil
}
