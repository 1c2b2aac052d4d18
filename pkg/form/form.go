package form

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/stepform/internal/logging"
	"github.com/aretw0/stepform/pkg/domain"
)

// Form is one running instance of a Blueprint: a value store plus the
// step navigation state machine. A Form is not safe for concurrent use;
// hosts serialise access (see session.Manager).
type Form struct {
	bp        *Blueprint
	store     *ValueStore
	statuses  []domain.StepStatus
	current   int
	phase     domain.Phase
	focus     domain.ControlID
	sessionID string

	hooks  domain.LifecycleHooks
	logger *slog.Logger
	last   Pass
}

// Option configures a Form.
type Option func(*Form)

// WithLogger sets the logger used for rule evaluation failures and tracing.
func WithLogger(l *slog.Logger) Option {
	return func(f *Form) {
		f.logger = l
	}
}

// WithLifecycleHooks registers observability callbacks.
func WithLifecycleHooks(h domain.LifecycleHooks) Option {
	return func(f *Form) {
		f.hooks = h
	}
}

// WithSessionID tags lifecycle events and snapshots with a session id.
func WithSessionID(id string) Option {
	return func(f *Form) {
		f.sessionID = id
	}
}

// NewForm starts a form at its first non-skipped step.
// A form whose steps are all skipped starts in AllStepsComplete.
func (bp *Blueprint) NewForm(ctx context.Context, opts ...Option) *Form {
	f := &Form{
		bp:       bp,
		store:    bp.newStore(),
		statuses: make([]domain.StepStatus, len(bp.steps)),
		phase:    domain.PhaseActive,
		focus:    domain.NoControl,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	for i := range f.statuses {
		f.statuses[i] = domain.StepNotVisited
	}

	f.propagateAll(ctx)
	if next := f.scanForward(0); next >= 0 {
		f.enter(ctx, next)
	} else {
		f.setPhase(ctx, domain.PhaseAllStepsComplete)
	}
	return f
}

// Blueprint returns the definition this form runs.
func (f *Form) Blueprint() *Blueprint { return f.bp }

// Name returns the form name.
func (f *Form) Name() string { return f.bp.name }

// SessionID returns the session id given with WithSessionID.
func (f *Form) SessionID() string { return f.sessionID }

// Phase returns the navigation phase.
func (f *Form) Phase() domain.Phase { return f.phase }

// CurrentIndex returns the index of the current step.
func (f *Form) CurrentIndex() int { return f.current }

// CurrentStep returns the current step.
func (f *Form) CurrentStep() *Step { return f.bp.steps[f.current] }

// Statuses returns a copy of every step status.
func (f *Form) Statuses() []domain.StepStatus {
	return append([]domain.StepStatus(nil), f.statuses...)
}

// Store returns the value store. Callers must treat it as read-only.
func (f *Form) Store() *ValueStore { return f.store }

// State returns the observable state of a control.
func (f *Form) State(id domain.ControlID) domain.ControlState { return f.store.State(id) }

// Lookup resolves a control path.
func (f *Form) Lookup(path string) (domain.ControlID, bool) { return f.bp.Lookup(path) }

// LastPass returns the most recent propagation pass.
func (f *Form) LastPass() Pass { return f.last }

// Edit sets the value of a control and propagates the change.
// Validation failures are recorded on the control, not returned: the
// only errors are ErrFormClosed, ErrUnknownControl and ErrTypeMismatch for
// static text, which holds no value.
func (f *Form) Edit(ctx context.Context, id domain.ControlID, v any) error {
	if f.phase.Terminal() {
		return &domain.NavigationError{Code: domain.FormClosed}
	}
	c, ok := f.bp.Control(id)
	if !ok {
		return fmt.Errorf("%w: #%d", domain.ErrUnknownControl, id)
	}
	if c.Kind == domain.KindStatic {
		return fmt.Errorf("%w: %s is static text", domain.ErrTypeMismatch, c.Path)
	}

	written, verr := f.store.assign(id, v)
	if verr != nil {
		f.logger.Debug("edit rejected", "control", c.Path, "code", verr.Code, "reason", verr.Reason)
	}
	f.emitEdit(ctx, c, verr)

	if len(written) > 0 {
		seeds := append([]domain.ControlID(nil), written...)
		for p := c.Parent; p != domain.NoControl; p = f.bp.controls[p].Parent {
			seeds = append(seeds, p)
		}
		if c.Kind == domain.KindGroup {
			seeds = append(seeds, id)
		}
		start := time.Now()
		f.record(ctx, f.bp.graph.Propagate(f.store, seeds...), start)
	}
	f.fixFocus()
	return nil
}

// EditPath is Edit addressed by control path.
func (f *Form) EditPath(ctx context.Context, path string, v any) error {
	id, ok := f.bp.Lookup(path)
	if !ok {
		if f.phase.Terminal() {
			return &domain.NavigationError{Code: domain.FormClosed}
		}
		return fmt.Errorf("%w: %q", domain.ErrUnknownControl, path)
	}
	return f.Edit(ctx, id, v)
}

// Advance completes the current step and enters the next non-skipped one.
// Past the last step the form enters AllStepsComplete.
func (f *Form) Advance(ctx context.Context) error {
	switch f.phase {
	case domain.PhaseSubmitted, domain.PhaseCancelled:
		return &domain.NavigationError{Code: domain.FormClosed}
	case domain.PhaseAllStepsComplete:
		return nil
	}

	st := f.CurrentStep()
	if ok, blocker := f.checkStep(st); !ok {
		return f.incomplete(st, blocker)
	}
	f.leave(ctx, f.current, domain.StepCompleted)

	if next := f.scanForward(f.current + 1); next >= 0 {
		f.enter(ctx, next)
		return nil
	}
	f.focus = domain.NoControl
	f.setPhase(ctx, domain.PhaseAllStepsComplete)
	return nil
}

// Retreat returns to the nearest prior step whose skip rule does not hold
// and runs a full propagation pass. Skip rules are evaluated again on the
// way back. The step being left keeps Completed only if it is complete.
func (f *Form) Retreat(ctx context.Context) error {
	switch f.phase {
	case domain.PhaseSubmitted, domain.PhaseCancelled:
		return &domain.NavigationError{Code: domain.FormClosed}
	}

	from := f.current - 1
	if f.phase == domain.PhaseAllStepsComplete {
		from = len(f.statuses) - 1
	}
	f.propagateAll(ctx)
	target := f.scanBackward(from)
	if target < 0 {
		e := &domain.NavigationError{Code: domain.AtFirstStep}
		if f.phase == domain.PhaseActive {
			e.Step = f.CurrentStep().ID
		}
		return e
	}

	if f.phase == domain.PhaseAllStepsComplete {
		f.setPhase(ctx, domain.PhaseActive)
	} else {
		status := domain.StepNotVisited
		if ok, _ := f.checkStep(f.CurrentStep()); ok {
			status = domain.StepCompleted
		}
		f.leave(ctx, f.current, status)
	}
	f.enter(ctx, target)
	return nil
}

// Submit finalises the form. It succeeds only from AllStepsComplete, after
// every step has been checked again: skip rules are re-evaluated and each
// step that is not skipped must be Completed and still complete. The first
// step failing that check becomes current and is named in the error.
func (f *Form) Submit(ctx context.Context) (*domain.Result, error) {
	switch f.phase {
	case domain.PhaseSubmitted, domain.PhaseCancelled:
		return nil, &domain.NavigationError{Code: domain.FormClosed}
	case domain.PhaseActive:
		st := f.CurrentStep()
		if ok, blocker := f.checkStep(st); !ok {
			return nil, f.incomplete(st, blocker)
		}
		return nil, &domain.NavigationError{Code: domain.StepsRemaining, Step: st.ID}
	}

	for i, st := range f.bp.steps {
		if f.skipped(st) {
			f.statuses[i] = domain.StepSkipped
			continue
		}
		ok, blocker := f.checkStep(st)
		if ok && f.statuses[i] == domain.StepCompleted {
			continue
		}
		f.logger.Debug("submit reopened step", "step", st.ID, "status", f.statuses[i])
		f.setPhase(ctx, domain.PhaseActive)
		f.enter(ctx, i)
		return nil, f.incomplete(st, blocker)
	}
	res := f.Result()
	f.setPhase(ctx, domain.PhaseSubmitted)
	return res, nil
}

// Cancel abandons the form. No result is produced.
func (f *Form) Cancel(ctx context.Context) error {
	if f.phase.Terminal() {
		return &domain.NavigationError{Code: domain.FormClosed}
	}
	f.setPhase(ctx, domain.PhaseCancelled)
	return nil
}

// Focus returns the focused control, or NoControl.
func (f *Form) Focus() domain.ControlID { return f.focus }

// Focusable returns the controls of the current step that can take focus,
// in display order.
func (f *Form) Focusable() []domain.ControlID {
	if f.phase != domain.PhaseActive {
		return nil
	}
	var out []domain.ControlID
	for _, id := range f.CurrentStep().members {
		if f.bp.controls[id].Focusable() && f.store.Visible(id) && f.store.Enabled(id) {
			out = append(out, id)
		}
	}
	return out
}

// FocusOn moves focus to a control of the current step.
func (f *Form) FocusOn(id domain.ControlID) error {
	for _, fid := range f.Focusable() {
		if fid == id {
			f.focus = id
			return nil
		}
	}
	return fmt.Errorf("%w: #%d is not focusable", domain.ErrUnknownControl, id)
}

// FocusNext moves focus forward. It reports false when focus is already on
// the last focusable control.
func (f *Form) FocusNext() bool {
	ids := f.Focusable()
	i := indexOf(ids, f.focus)
	if i+1 >= len(ids) {
		return false
	}
	f.focus = ids[i+1]
	return true
}

// FocusPrev moves focus backward. It reports false at the first control.
func (f *Form) FocusPrev() bool {
	ids := f.Focusable()
	i := indexOf(ids, f.focus)
	if i <= 0 {
		return false
	}
	f.focus = ids[i-1]
	return true
}

// IsLastFocus reports whether the focused control is the last one of the step.
func (f *Form) IsLastFocus() bool {
	ids := f.Focusable()
	return len(ids) == 0 || indexOf(ids, f.focus) == len(ids)-1
}

func indexOf(ids []domain.ControlID, id domain.ControlID) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

func (f *Form) fixFocus() {
	ids := f.Focusable()
	if indexOf(ids, f.focus) >= 0 {
		return
	}
	if len(ids) == 0 {
		f.focus = domain.NoControl
		return
	}
	members := f.CurrentStep().members
	pos := indexOf(members, f.focus)
	for _, id := range ids {
		if indexOf(members, id) > pos {
			f.focus = id
			return
		}
	}
	f.focus = ids[len(ids)-1]
}

func (f *Form) checkStep(st *Step) (bool, domain.ControlID) {
	ok, blocker, err := st.check(f.store)
	if err != nil {
		f.logger.Warn("step predicate failed", "step", st.ID, "err", err)
	}
	return ok, blocker
}

func (f *Form) incomplete(st *Step, blocker domain.ControlID) error {
	e := &domain.NavigationError{Code: domain.StepIncomplete, Step: st.ID}
	if blocker != domain.NoControl {
		e.Control = f.bp.controls[blocker].Path
	}
	return e
}

// scanForward returns the first step at or after i that is not skipped,
// marking passed-over steps Skipped, or -1.
func (f *Form) scanForward(i int) int {
	for ; i < len(f.bp.steps); i++ {
		if f.skipped(f.bp.steps[i]) {
			f.statuses[i] = domain.StepSkipped
			continue
		}
		return i
	}
	return -1
}

// scanBackward is scanForward in the other direction. Skip rules are asked
// again, since edits made since the step was passed may change the answer.
func (f *Form) scanBackward(i int) int {
	for ; i >= 0; i-- {
		if f.skipped(f.bp.steps[i]) {
			f.statuses[i] = domain.StepSkipped
			continue
		}
		return i
	}
	return -1
}

func (f *Form) skipped(st *Step) bool {
	skip, err := st.skip(f.store)
	if err != nil {
		f.logger.Warn("step predicate failed", "step", st.ID, "err", err)
	}
	return skip
}

func (f *Form) enter(ctx context.Context, i int) {
	f.current = i
	f.statuses[i] = domain.StepActive
	f.focus = domain.NoControl
	if ids := f.Focusable(); len(ids) > 0 {
		f.focus = ids[0]
	}
	st := f.bp.steps[i]
	f.logger.Debug("step entered", "step", st.ID, "index", i)
	if f.hooks.OnStepEnter != nil {
		f.hooks.OnStepEnter(ctx, &domain.StepEvent{
			EventBase: f.base(domain.LifecycleStepEnter),
			StepID:    st.ID,
			Index:     i,
			Status:    domain.StepActive,
		})
	}
}

func (f *Form) leave(ctx context.Context, i int, status domain.StepStatus) {
	f.statuses[i] = status
	st := f.bp.steps[i]
	if f.hooks.OnStepLeave != nil {
		f.hooks.OnStepLeave(ctx, &domain.StepEvent{
			EventBase: f.base(domain.LifecycleStepLeave),
			StepID:    st.ID,
			Index:     i,
			Status:    status,
		})
	}
}

func (f *Form) setPhase(ctx context.Context, to domain.Phase) {
	from := f.phase
	f.phase = to
	f.logger.Debug("phase changed", "from", from, "to", to)
	if f.hooks.OnPhaseChange != nil && from != to {
		f.hooks.OnPhaseChange(ctx, &domain.PhaseEvent{
			EventBase: f.base(domain.LifecyclePhaseChange),
			From:      from,
			To:        to,
		})
	}
}

func (f *Form) propagateAll(ctx context.Context) {
	start := time.Now()
	f.record(ctx, f.bp.graph.PropagateAll(f.store), start)
}

func (f *Form) record(ctx context.Context, p Pass, start time.Time) {
	f.last = p
	for _, err := range p.Errors {
		f.logger.Warn("rule evaluation failed", "err", err)
	}
	if f.hooks.OnPropagate != nil {
		f.hooks.OnPropagate(ctx, &domain.PassEvent{
			EventBase: f.base(domain.LifecyclePropagate),
			Seeds:     p.Seeds,
			Visited:   p.Visited,
			Full:      p.Full,
			Duration:  time.Since(start),
		})
	}
}

func (f *Form) emitEdit(ctx context.Context, c *Control, verr *domain.ValidationError) {
	if f.hooks.OnEdit == nil {
		return
	}
	ev := &domain.EditEvent{
		EventBase: f.base(domain.LifecycleEdit),
		Control:   c.Path,
		ID:        c.ID,
		Value:     f.store.Value(c.ID),
	}
	if verr != nil {
		ev.Err = verr
	}
	f.hooks.OnEdit(ctx, ev)
}

func (f *Form) base(t domain.LifecycleEventType) domain.EventBase {
	return domain.EventBase{
		Timestamp: time.Now(),
		Type:      t,
		Form:      f.bp.name,
		SessionID: f.sessionID,
	}
}
