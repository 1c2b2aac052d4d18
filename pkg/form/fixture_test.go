package form_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aretw0/stepform/pkg/domain"
	"github.com/aretw0/stepform/pkg/form"
)

type signup struct {
	bp *form.Blueprint

	username, plan, card      domain.ControlID
	address, street, city     domain.ControlID
	newsletter, topics, badge domain.ControlID
}

// newSignup builds a three step form:
//
//	account: username (required, lowercase), plan (free|pro, default free)
//	billing: card (required), skipped unless plan is pro
//	profile: address{street (required), city}, newsletter, topics (shown
//	         when newsletter), badge (derived from username)
func newSignup(t *testing.T) *signup {
	t.Helper()
	s := &signup{}
	b := form.NewBuilder("signup")
	var err error

	s.username, err = b.AddControl(form.ControlSpec{Name: "username", Kind: domain.KindText, Required: true, ForceLowercase: true, Pattern: `^[a-z]+$`, MaxLength: 12})
	require.NoError(t, err)
	s.plan, err = b.AddControl(form.ControlSpec{Name: "plan", Kind: domain.KindSingleSelect, Default: "free", Choices: []form.Choice{{Value: "free"}, {Value: "pro", Description: "Paid tier"}}})
	require.NoError(t, err)
	s.card, err = b.AddControl(form.ControlSpec{Name: "card", Label: "Card number", Kind: domain.KindText, Required: true})
	require.NoError(t, err)
	s.address, err = b.AddControl(form.ControlSpec{Name: "address", Kind: domain.KindGroup})
	require.NoError(t, err)
	s.street, err = b.AddChild(s.address, form.ControlSpec{Name: "street", Kind: domain.KindText, Required: true})
	require.NoError(t, err)
	s.city, err = b.AddChild(s.address, form.ControlSpec{Name: "city", Kind: domain.KindText})
	require.NoError(t, err)
	s.newsletter, err = b.AddControl(form.ControlSpec{Name: "newsletter", Kind: domain.KindBoolean, Default: false, OmitIfFalse: true})
	require.NoError(t, err)
	s.topics, err = b.AddControl(form.ControlSpec{Name: "topics", Kind: domain.KindMultiSelect, MinSelected: 1, Required: true, Choices: []form.Choice{{Value: "go"}, {Value: "rust"}, {Value: "zig"}}})
	require.NoError(t, err)
	s.badge, err = b.AddControl(form.ControlSpec{Name: "badge", Kind: domain.KindText})
	require.NoError(t, err)

	require.NoError(t, b.RegisterEdge(form.Edge{From: s.plan, To: s.card, Effect: domain.EffectVisibility, When: form.WhenEquals("pro", form.Show)}))
	require.NoError(t, b.RegisterEdge(form.Edge{From: s.newsletter, To: s.topics, Effect: domain.EffectVisibility, When: form.WhenEquals(true, form.Show)}))
	require.NoError(t, b.RegisterEdge(form.Edge{From: s.username, To: s.badge, Effect: domain.EffectValueDerivation, Derive: form.DeriveWith(func(v any) (any, error) {
		if v == nil {
			return nil, nil
		}
		return "@" + strings.ToUpper(v.(string)), nil
	})}))

	require.NoError(t, b.AddStep(form.StepSpec{ID: "account", Controls: []domain.ControlID{s.username, s.plan}}))
	require.NoError(t, b.AddStep(form.StepSpec{ID: "billing", Controls: []domain.ControlID{s.card}, Skip: func(v form.Values) (bool, error) {
		plan, _ := v.Get("plan")
		return plan != "pro", nil
	}}))
	require.NoError(t, b.AddStep(form.StepSpec{ID: "profile", Controls: []domain.ControlID{s.address, s.newsletter, s.topics, s.badge}}))

	s.bp, err = b.Build()
	require.NoError(t, err)
	return s
}

func (s *signup) start(t *testing.T, opts ...form.Option) *form.Form {
	t.Helper()
	return s.bp.NewForm(context.Background(), opts...)
}
