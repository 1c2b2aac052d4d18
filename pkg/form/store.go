package form

import (
	"sort"

	"github.com/aretw0/stepform/pkg/domain"
	"github.com/aretw0/stepform/pkg/schema"
)

// Values is the read-only view of a form's values handed to conditions,
// derivations and step predicates.
type Values interface {
	// Get returns the value at a control path ("name" or "group.child").
	Get(path string) (any, bool)
	// Env returns every top-level value keyed by name; groups nest as maps.
	Env() map[string]any
}

type entry struct {
	value   any
	valid   bool
	visible bool
	enabled bool
	err     *domain.ValidationError
}

// ValueStore holds the runtime state of every control of one form.
// It is the single writer of values: the form and the dependency graph
// both commit through it.
type ValueStore struct {
	controls []*Control
	index    map[string]domain.ControlID
	entries  []entry
}

func newValueStore(controls []*Control, index map[string]domain.ControlID) *ValueStore {
	s := &ValueStore{
		controls: controls,
		index:    index,
		entries:  make([]entry, len(controls)),
	}
	s.reset()
	return s
}

func (s *ValueStore) reset() {
	for i := range s.entries {
		s.entries[i] = entry{valid: true, visible: true, enabled: true}
	}
}

// Len returns the number of controls.
func (s *ValueStore) Len() int { return len(s.entries) }

// Lookup resolves a control path.
func (s *ValueStore) Lookup(path string) (domain.ControlID, bool) {
	id, ok := s.index[path]
	return id, ok
}

func (s *ValueStore) has(id domain.ControlID) bool {
	return id >= 0 && int(id) < len(s.entries)
}

// Value returns the current value of a control. Group values are maps of
// their set children; an all-empty group reads as nil.
func (s *ValueStore) Value(id domain.ControlID) any {
	if !s.has(id) {
		return nil
	}
	c := s.controls[id]
	if c.Kind != domain.KindGroup {
		return s.entries[id].value
	}
	out := make(map[string]any, len(c.children))
	for _, child := range c.children {
		if v := s.Value(child.ID); v != nil {
			out[child.Name] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// State returns the observable state of a control.
func (s *ValueStore) State(id domain.ControlID) domain.ControlState {
	if !s.has(id) {
		return domain.ControlState{ID: domain.NoControl}
	}
	c := s.controls[id]
	e := s.entries[id]
	st := domain.ControlState{
		ID:      id,
		Path:    c.Path,
		Kind:    c.Kind,
		Value:   s.Value(id),
		Valid:   e.valid,
		Visible: e.visible,
		Enabled: e.enabled,
	}
	if e.err != nil {
		st.ValidationError = e.err.Reason
	}
	return st
}

// Err returns the validation failure recorded for a control, if any.
func (s *ValueStore) Err(id domain.ControlID) *domain.ValidationError {
	if !s.has(id) {
		return nil
	}
	return s.entries[id].err
}

// Visible reports the computed visibility of a control.
func (s *ValueStore) Visible(id domain.ControlID) bool {
	return s.has(id) && s.entries[id].visible
}

// Enabled reports the computed enablement of a control.
func (s *ValueStore) Enabled(id domain.ControlID) bool {
	return s.has(id) && s.entries[id].enabled
}

// Valid reports whether a control and, for groups, all of its children are valid.
func (s *ValueStore) Valid(id domain.ControlID) bool {
	if !s.has(id) || !s.entries[id].valid {
		return false
	}
	for _, child := range s.controls[id].Children {
		if !s.Valid(child) {
			return false
		}
	}
	return true
}

// Get implements Values.
func (s *ValueStore) Get(path string) (any, bool) {
	id, ok := s.index[path]
	if !ok {
		return nil, false
	}
	return s.Value(id), true
}

// Env implements Values. Unset controls are present with a nil value so that
// expressions can reference them without failing.
func (s *ValueStore) Env() map[string]any {
	env := make(map[string]any)
	for _, c := range s.controls {
		if c.Parent != domain.NoControl {
			continue
		}
		env[c.Name] = s.envValue(c)
	}
	return env
}

func (s *ValueStore) envValue(c *Control) any {
	if c.Kind != domain.KindGroup {
		return s.entries[c.ID].value
	}
	m := make(map[string]any, len(c.children))
	for _, child := range c.children {
		m[child.Name] = s.envValue(child)
	}
	return m
}

// Flat returns the set values of every non-group control keyed by path.
func (s *ValueStore) Flat() map[string]any {
	out := make(map[string]any)
	for _, c := range s.controls {
		if c.Kind == domain.KindGroup {
			continue
		}
		if v := s.entries[c.ID].value; v != nil {
			out[c.Path] = clone(v)
		}
	}
	return out
}

// Errors returns every recorded validation failure keyed by path.
func (s *ValueStore) Errors() map[string]domain.ValidationError {
	out := make(map[string]domain.ValidationError)
	for i, e := range s.entries {
		if e.err != nil {
			out[s.controls[i].Path] = *e.err
		}
	}
	return out
}

// assign validates v and commits it to id.
// Non-empty failures leave the previous value in place and record the
// error. Clearing always commits; a required control is then marked invalid.
// It returns the ids whose stored value was written.
func (s *ValueStore) assign(id domain.ControlID, v any) ([]domain.ControlID, *domain.ValidationError) {
	c := s.controls[id]
	if c.Kind == domain.KindGroup {
		return s.assignGroup(c, v)
	}

	norm, err := c.Validate(v)
	if err != nil {
		verr := err.(*domain.ValidationError)
		if IsClear(v) {
			s.entries[id].value = nil
			s.markInvalid(id, verr)
			s.settle(id)
			return []domain.ControlID{id}, verr
		}
		s.markInvalid(id, verr)
		return nil, verr
	}
	s.commit(id, norm)
	s.settle(id)
	return []domain.ControlID{id}, nil
}

// assignGroup commits a group value only once the whole tree below the
// group, nested groups included, has passed validation.
func (s *ValueStore) assignGroup(c *Control, v any) ([]domain.ControlID, *domain.ValidationError) {
	if IsClear(v) {
		var written []domain.ControlID
		var first *domain.ValidationError
		for _, child := range c.children {
			ids, verr := s.assign(child.ID, nil)
			written = append(written, ids...)
			if first == nil {
				first = verr
			}
		}
		s.entries[c.ID].valid = true
		s.entries[c.ID].err = nil
		return written, first
	}

	if verr := checkGroup(c, v); verr != nil {
		if verr.Control == c.Path {
			s.markInvalid(c.ID, verr)
		} else {
			s.markInvalid(c.ID, c.violation(verr.Code, verr.Control+": "+verr.Reason))
		}
		return nil, verr
	}

	m := v.(map[string]any)
	var written []domain.ControlID
	var first *domain.ValidationError
	for _, child := range c.children {
		cv, ok := m[child.Name]
		if !ok {
			continue
		}
		ids, verr := s.assign(child.ID, cv)
		written = append(written, ids...)
		if first == nil {
			first = verr
		}
	}
	s.entries[c.ID].valid = true
	s.entries[c.ID].err = nil
	return written, first
}

// checkGroup validates a group value without touching runtime state. The
// returned error names the control that rejected its part of the value.
func checkGroup(c *Control, v any) *domain.ValidationError {
	if IsClear(v) {
		return nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return c.violation(domain.TypeMismatch, schema.Map().Validate(v).Error())
	}

	shape := make(schema.Schema, len(c.children))
	byName := make(map[string]*Control, len(c.children))
	for _, child := range c.children {
		shape[child.Name] = child.Shape()
		byName[child.Name] = child
	}
	if err := schema.Validate(shape, coerceLists(m)); err != nil {
		first := schema.ValidationErrors(err)[0]
		return c.violation(domain.TypeMismatch, first.Error())
	}

	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		child := byName[name]
		if child.Kind == domain.KindGroup {
			if verr := checkGroup(child, m[name]); verr != nil {
				return verr
			}
			continue
		}
		if IsClear(m[name]) {
			continue
		}
		if _, err := child.Validate(m[name]); err != nil {
			return err.(*domain.ValidationError)
		}
	}
	return nil
}

// settle drops the rejection recorded on the groups above id. Writing any
// part of a group changes the group value, so an earlier rejected group edit
// no longer describes it; children keep their own errors.
func (s *ValueStore) settle(id domain.ControlID) {
	for p := s.controls[id].Parent; p != domain.NoControl; p = s.controls[p].Parent {
		e := &s.entries[p]
		e.valid = true
		e.err = nil
	}
}

// clone copies the list and map values controls hold so callers cannot
// reach into the store.
func clone(v any) any {
	switch t := v.(type) {
	case []string:
		return append([]string(nil), t...)
	case map[string]string:
		out := make(map[string]string, len(t))
		for k, s := range t {
			out[k] = s
		}
		return out
	}
	return v
}

func coerceLists(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if list, ok := schema.StringList(v); ok {
			v = list
		}
		out[k] = v
	}
	return out
}

func (s *ValueStore) commit(id domain.ControlID, v any) {
	e := &s.entries[id]
	e.value = v
	e.valid = true
	e.err = nil
}

func (s *ValueStore) markInvalid(id domain.ControlID, err *domain.ValidationError) {
	e := &s.entries[id]
	e.valid = false
	e.err = err
}

func (s *ValueStore) setFlags(id domain.ControlID, visible, enabled bool) {
	e := &s.entries[id]
	e.visible = visible
	e.enabled = enabled
}
