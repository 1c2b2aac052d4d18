package form_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/stepform/pkg/domain"
	"github.com/aretw0/stepform/pkg/form"
)

func TestBuilder_DefinitionErrors(t *testing.T) {
	tests := []struct {
		name  string
		build func(b *form.Builder) error
		want  error
	}{
		{
			name: "duplicate control",
			build: func(b *form.Builder) error {
				_, _ = b.AddControl(form.ControlSpec{Name: "a", Kind: domain.KindText})
				_, err := b.AddControl(form.ControlSpec{Name: "a", Kind: domain.KindBoolean})
				return err
			},
			want: domain.ErrDuplicateControl,
		},
		{
			name: "bad name",
			build: func(b *form.Builder) error {
				_, err := b.AddControl(form.ControlSpec{Name: "a.b", Kind: domain.KindText})
				return err
			},
			want: domain.ErrInvalidDefinition,
		},
		{
			name: "bad pattern",
			build: func(b *form.Builder) error {
				_, err := b.AddControl(form.ControlSpec{Name: "a", Kind: domain.KindText, Pattern: "("})
				return err
			},
			want: domain.ErrInvalidRule,
		},
		{
			name: "select without choices",
			build: func(b *form.Builder) error {
				_, err := b.AddControl(form.ControlSpec{Name: "a", Kind: domain.KindSingleSelect})
				return err
			},
			want: domain.ErrInvalidDefinition,
		},
		{
			name: "child of non group",
			build: func(b *form.Builder) error {
				id, _ := b.AddControl(form.ControlSpec{Name: "a", Kind: domain.KindText})
				_, err := b.AddChild(id, form.ControlSpec{Name: "b", Kind: domain.KindText})
				return err
			},
			want: domain.ErrInvalidDefinition,
		},
		{
			name: "control in two steps",
			build: func(b *form.Builder) error {
				id, _ := b.AddControl(form.ControlSpec{Name: "a", Kind: domain.KindText})
				_ = b.AddStep(form.StepSpec{ID: "one", Controls: []domain.ControlID{id}})
				return b.AddStep(form.StepSpec{ID: "two", Controls: []domain.ControlID{id}})
			},
			want: domain.ErrControlInTwoSteps,
		},
		{
			name: "unknown control in step",
			build: func(b *form.Builder) error {
				return b.AddStep(form.StepSpec{ID: "one", Controls: []domain.ControlID{4}})
			},
			want: domain.ErrUnknownControl,
		},
		{
			name: "group member listed in step",
			build: func(b *form.Builder) error {
				g, _ := b.AddControl(form.ControlSpec{Name: "g", Kind: domain.KindGroup})
				c, _ := b.AddChild(g, form.ControlSpec{Name: "c", Kind: domain.KindText})
				return b.AddStep(form.StepSpec{ID: "one", Controls: []domain.ControlID{c}})
			},
			want: domain.ErrInvalidDefinition,
		},
		{
			name: "duplicate step",
			build: func(b *form.Builder) error {
				_ = b.AddStep(form.StepSpec{ID: "one"})
				return b.AddStep(form.StepSpec{ID: "one"})
			},
			want: domain.ErrInvalidDefinition,
		},
		{
			name: "no steps",
			build: func(b *form.Builder) error {
				_, err := b.Build()
				return err
			},
			want: domain.ErrInvalidDefinition,
		},
		{
			name: "unplaced control",
			build: func(b *form.Builder) error {
				_, _ = b.AddControl(form.ControlSpec{Name: "a", Kind: domain.KindText})
				_ = b.AddStep(form.StepSpec{ID: "one"})
				_, err := b.Build()
				return err
			},
			want: domain.ErrInvalidDefinition,
		},
		{
			name: "invalid default",
			build: func(b *form.Builder) error {
				id, _ := b.AddControl(form.ControlSpec{Name: "a", Kind: domain.KindSingleSelect, Default: "c", Choices: []form.Choice{{Value: "x"}}})
				_ = b.AddStep(form.StepSpec{ID: "one", Controls: []domain.ControlID{id}})
				_, err := b.Build()
				return err
			},
			want: domain.ErrInvalidDefault,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.build(form.NewBuilder("t"))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestBuilder_StepMembersIncludeGroupDescendants(t *testing.T) {
	s := newSignup(t)
	steps := s.bp.Steps()
	require.Len(t, steps, 3)
	assert.Equal(t, []domain.ControlID{s.address, s.street, s.city, s.newsletter, s.topics, s.badge}, steps[2].Members())
	assert.Equal(t, 2, s.bp.StepOf(s.city))

	id, ok := s.bp.Lookup("address.city")
	require.True(t, ok)
	assert.Equal(t, s.city, id)
}
