package rules_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/stepform/pkg/domain"
	"github.com/aretw0/stepform/pkg/form"
	"github.com/aretw0/stepform/pkg/rules"
)

type staticValues map[string]any

func (v staticValues) Get(path string) (any, bool) {
	x, ok := v[path]
	return x, ok
}

func (v staticValues) Env() map[string]any {
	out := make(map[string]any, len(v))
	for k, x := range v {
		out[k] = x
	}
	return out
}

var vars = []string{"plan", "topics", "username", rules.VarValue, rules.VarCurrent}

func TestRegistry_Engines(t *testing.T) {
	reg := rules.NewRegistry()
	values := staticValues{"plan": "pro", "topics": []string{"go", "zig"}, "username": "ada"}

	tests := []struct {
		name string
		expr string
		want bool
	}{
		{"expr", `plan == "pro"`, true},
		{"expr prefix", `expr: len(topics) > 2`, false},
		{"cel", `cel: plan == "pro" && size(topics) == 2`, true},
		{"js", `js: topics.indexOf("zig") >= 0`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prg, err := reg.Compile(tt.expr, vars)
			require.NoError(t, err)
			got, err := rules.Predicate(prg)(values)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRegistry_Split(t *testing.T) {
	reg := rules.NewRegistry()

	engine, src := reg.Split(" cel: a > 1 ")
	assert.Equal(t, rules.EngineCEL, engine)
	assert.Equal(t, "a > 1", src)

	// A ternary is not a prefix.
	engine, src = reg.Split(`a ? "x:y" : "z"`)
	assert.Equal(t, rules.EngineExpr, engine)
	assert.Equal(t, `a ? "x:y" : "z"`, src)
}

func TestRegistry_CompileErrors(t *testing.T) {
	reg := rules.NewRegistry()

	for _, expr := range []string{"", "plan ==", "cel: plan ==", "js: (("} {
		_, err := reg.Compile(expr, vars)
		assert.ErrorIs(t, err, domain.ErrInvalidRule, expr)
	}
	_, err := reg.Compile("cel: missing == 1", vars)
	assert.ErrorIs(t, err, domain.ErrInvalidRule, "cel checks declared variables")
}

func TestRegistry_CachesPrograms(t *testing.T) {
	reg := rules.NewRegistry()
	a, err := reg.Compile(`plan == "pro"`, vars)
	require.NoError(t, err)
	b, err := reg.Compile(`plan == "pro"`, vars)
	require.NoError(t, err)
	assert.Same(t, a, b)
}

func TestCondition_NonBoolResult(t *testing.T) {
	reg := rules.NewRegistry()
	prg, err := reg.Compile(`plan`, vars)
	require.NoError(t, err)

	_, err = rules.Condition(prg)("pro", staticValues{"plan": "pro"})
	var evalErr *rules.EvaluationError
	assert.ErrorAs(t, err, &evalErr)

	nilPrg, err := reg.Compile(`nil`, vars)
	require.NoError(t, err)
	ok, err := rules.Condition(nilPrg)(nil, staticValues{})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDerivation_BindsValueAndCurrent(t *testing.T) {
	reg := rules.NewRegistry()
	values := staticValues{"username": "ada"}

	prg, err := reg.Compile(`js: value.toUpperCase() + (current ? "!" : "")`, vars)
	require.NoError(t, err)
	out, err := rules.Derivation(prg)("ada", "x", values)
	require.NoError(t, err)
	assert.Equal(t, "ADA!", out)

	list, err := reg.Compile(`cel: [value, "b"]`, vars)
	require.NoError(t, err)
	out, err = rules.Derivation(list)("a", nil, values)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, out)
}

func TestDependencies(t *testing.T) {
	known := []string{"plan", "address", "address.city", "topics"}

	assert.Equal(t, []string{"address.city", "plan"}, rules.Dependencies(`plan == "topics" && address.city != ""`, known))
	assert.Equal(t, []string{"topics"}, rules.Dependencies(`cel: size(topics) > 0`, known))
	assert.Equal(t, []string{"address"}, rules.Dependencies(`address.street == 'x'`, known))
	assert.Empty(t, rules.Dependencies(`true`, known))
}

func TestRules_DriveAForm(t *testing.T) {
	reg := rules.NewRegistry()
	b := form.NewBuilder("rules")
	plan, err := b.AddControl(form.ControlSpec{Name: "plan", Kind: domain.KindSingleSelect, Choices: []form.Choice{{Value: "free"}, {Value: "pro"}}})
	require.NoError(t, err)
	seats, err := b.AddControl(form.ControlSpec{Name: "seats", Kind: domain.KindText})
	require.NoError(t, err)

	names := []string{"plan", "seats", rules.VarValue, rules.VarCurrent}
	shown, err := reg.Compile(`cel: plan == "pro"`, names)
	require.NoError(t, err)
	derived, err := reg.Compile(`value == "pro" ? "5" : current`, names)
	require.NoError(t, err)
	require.NoError(t, b.RegisterEdge(form.Edge{From: plan, To: seats, Effect: domain.EffectVisibility, When: rules.Condition(shown)}))
	require.NoError(t, b.RegisterEdge(form.Edge{From: plan, To: seats, Effect: domain.EffectValueDerivation, Derive: rules.Derivation(derived)}))
	require.NoError(t, b.AddStep(form.StepSpec{ID: "s", Controls: []domain.ControlID{plan, seats}}))
	bp, err := b.Build()
	require.NoError(t, err)

	ctx := context.Background()
	f := bp.NewForm(ctx)
	assert.False(t, f.State(seats).Visible)

	require.NoError(t, f.Edit(ctx, plan, "pro"))
	assert.True(t, f.State(seats).Visible)
	assert.Equal(t, "5", f.State(seats).Value)
}
