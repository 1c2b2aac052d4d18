// Package form is the form engine: controls, the value store, the
// dependency graph that keeps visibility, enablement and derived values in
// sync, and the step navigation state machine.
//
// A Blueprint is built once with a Builder and is immutable; each running
// session gets its own Form from Blueprint.NewForm.
//
//	b := form.NewBuilder("signup")
//	plan, _ := b.AddControl(form.ControlSpec{Name: "plan", Kind: domain.KindSingleSelect, Choices: choices})
//	card, _ := b.AddControl(form.ControlSpec{Name: "card", Kind: domain.KindText, Required: true})
//	_ = b.RegisterEdge(form.Edge{From: plan, To: card, Effect: domain.EffectVisibility, When: form.WhenEquals("pro", form.Show)})
//	_ = b.AddStep(form.StepSpec{ID: "plan", Controls: []domain.ControlID{plan, card}})
//	bp, err := b.Build()
//
//	f := bp.NewForm(ctx)
//	_ = f.Edit(ctx, plan, "pro")
//	err = f.Advance(ctx) // StepIncomplete: card is now visible and required
//
// Edits never fail on bad values: validation failures are recorded on the
// control and surface through State and the render bridge.
package form
