package form

import (
	"fmt"

	"github.com/aretw0/stepform/pkg/domain"
)

// Predicate decides step completion or skipping from the current values.
type Predicate func(values Values) (bool, error)

// StepSpec declares a step.
type StepSpec struct {
	ID          string
	Title       string
	Description string
	// Controls lists the top-level controls of the step in display order.
	// Children of groups belong to their group's step implicitly.
	Controls []domain.ControlID
	// Complete overrides the default completion rule.
	Complete Predicate
	// Skip, when true at navigation time, passes over the step.
	Skip Predicate
}

// Step is a compiled step.
type Step struct {
	StepSpec
	Index int

	// members is Controls expanded with group descendants, in display order.
	members []domain.ControlID
}

// Members returns every control of the step, group descendants included,
// in display order.
func (st *Step) Members() []domain.ControlID {
	return append([]domain.ControlID(nil), st.members...)
}

// IsComplete reports whether the step may be left forward.
func (st *Step) IsComplete(s *ValueStore) bool {
	ok, _, _ := st.check(s)
	return ok
}

// ShouldSkip reports whether navigation passes over the step.
func (st *Step) ShouldSkip(s *ValueStore) bool {
	skip, _ := st.skip(s)
	return skip
}

// check returns completion, the first blocking control when known, and a
// predicate evaluation error. A failing predicate counts as incomplete.
func (st *Step) check(s *ValueStore) (bool, domain.ControlID, error) {
	if st.Complete != nil {
		ok, err := st.Complete(s)
		if err != nil {
			return false, domain.NoControl, fmt.Errorf("step %q completion: %w", st.ID, err)
		}
		if !ok {
			return false, domain.NoControl, nil
		}
	}
	for _, id := range st.members {
		if !s.Visible(id) || !s.Enabled(id) || s.controls[id].Kind == domain.KindStatic {
			continue
		}
		if !s.entries[id].valid {
			return false, id, nil
		}
		c := s.controls[id]
		if c.Required && c.Kind != domain.KindGroup && IsClear(s.entries[id].value) {
			return false, id, nil
		}
	}
	return true, domain.NoControl, nil
}

func (st *Step) skip(s *ValueStore) (bool, error) {
	if st.Skip == nil {
		return false, nil
	}
	skip, err := st.Skip(s)
	if err != nil {
		return false, fmt.Errorf("step %q skip: %w", st.ID, err)
	}
	return skip, nil
}
