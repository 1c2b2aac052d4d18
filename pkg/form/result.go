package form

import (
	"strings"

	"github.com/aretw0/stepform/pkg/domain"
)

// Result builds the final result from the current values. Submit calls it
// on success; hosts may call it earlier for previews.
func (f *Form) Result() *domain.Result {
	res := &domain.Result{
		Form:      f.bp.name,
		SessionID: f.sessionID,
		Entries:   make([]domain.ResultEntry, 0, len(f.bp.controls)),
	}
	for _, c := range f.bp.controls {
		if c.Kind == domain.KindStatic {
			continue
		}
		step := ""
		if i := f.bp.StepOf(c.ID); i >= 0 {
			step = f.bp.steps[i].ID
		}
		v := clone(f.store.Value(c.ID))
		res.Entries = append(res.Entries, domain.ResultEntry{
			ID:      c.ID,
			Path:    c.Path,
			Label:   c.Label,
			Kind:    c.Kind,
			Step:    step,
			Visible: f.store.Visible(c.ID),
			Value:   v,
		})
	}
	res.Summary = f.Summary()
	return res
}

// Summary renders the visible answers of every non-skipped step as
// "Label: value" lines. Groups print as a header line with their members
// indented below.
func (f *Form) Summary() string {
	var lines []string
	for i, st := range f.bp.steps {
		if f.statuses[i] == domain.StepSkipped {
			continue
		}
		for _, id := range st.members {
			c := f.bp.controls[id]
			if !f.store.Visible(id) {
				continue
			}
			indent := strings.Repeat("  ", c.Depth)
			if c.Kind == domain.KindGroup {
				lines = append(lines, indent+c.Label+":")
				continue
			}
			v := f.store.Value(id)
			if v == nil {
				continue
			}
			if c.Kind == domain.KindBoolean && c.OmitIfFalse && v == false {
				continue
			}
			lines = append(lines, indent+c.Label+": "+c.RenderText(v))
		}
	}
	return strings.Join(lines, "\n")
}
