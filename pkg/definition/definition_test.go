package definition_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/stepform/pkg/definition"
	"github.com/aretw0/stepform/pkg/domain"
)

func TestLoadFile_FormatsAgree(t *testing.T) {
	fromYAML, err := definition.LoadFile("testdata/signup.yaml")
	require.NoError(t, err)
	fromHCL, err := definition.LoadFile("testdata/signup.hcl")
	require.NoError(t, err)

	assert.Equal(t, fromYAML, fromHCL)

	require.Len(t, fromYAML.Steps, 3)
	plan := fromYAML.Steps[0].Controls[1]
	assert.Equal(t, []definition.Option{{Value: "free"}, {Value: "pro", Description: "Paid plan"}}, plan.Options)
	assert.Equal(t, "pro", fromYAML.Steps[1].Controls[0].VisibleWhen.Equals)
	assert.Equal(t, []string{"go", "rust", "zig"}, optionValues(fromYAML.Steps[2].Controls[2].Options))
}

func optionValues(opts []definition.Option) []string {
	out := make([]string, len(opts))
	for i, o := range opts {
		out[i] = o.Value
	}
	return out
}

func TestLoadFile_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tiny.json")
	data := `{"name":"tiny","steps":[{"id":"s","controls":[{"name":"ok","kind":"bool","default":true}]}]}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	def, err := definition.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "tiny", def.Name)
	assert.Equal(t, true, def.Steps[0].Controls[0].Default)
}

func TestLoadFile_Errors(t *testing.T) {
	_, err := definition.LoadFile("testdata/signup.toml")
	assert.Error(t, err)

	_, err = definition.LoadFile("testdata/missing.yaml")
	assert.Error(t, err)

	_, err = definition.Parse([]byte("name: x\nstepz: []\n"), definition.FormatYAML, "typo.yaml")
	assert.ErrorContains(t, err, "stepz")

	_, err = definition.Parse([]byte(`step "a" {`), definition.FormatHCL, "broken.hcl")
	assert.Error(t, err)
}

func TestCompile_Signup(t *testing.T) {
	def, err := definition.LoadFile("testdata/signup.yaml")
	require.NoError(t, err)
	bp, err := definition.Compile(def)
	require.NoError(t, err)

	ctx := context.Background()
	f := bp.NewForm(ctx)
	require.NoError(t, f.EditPath(ctx, "username", "Alice"))

	id, _ := f.Lookup("badge")
	assert.Equal(t, "@ALICE", f.State(id).Value)

	require.NoError(t, f.Advance(ctx))
	assert.Equal(t, []domain.StepStatus{domain.StepCompleted, domain.StepSkipped, domain.StepActive}, f.Statuses())

	topics, _ := f.Lookup("topics")
	assert.False(t, f.State(topics).Visible)
	require.NoError(t, f.EditPath(ctx, "newsletter", true))
	assert.True(t, f.State(topics).Visible)

	require.NoError(t, f.EditPath(ctx, "address.street", "Main St"))
	require.ErrorIs(t, f.Advance(ctx), domain.ErrStepIncomplete)
	require.NoError(t, f.EditPath(ctx, "topics", []string{"zig", "go"}))
	require.NoError(t, f.Advance(ctx))

	res, err := f.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "zig"}, res.ByPath()["topics"])
}

func TestCompile_BillingShownForPro(t *testing.T) {
	def, err := definition.LoadFile("testdata/signup.hcl")
	require.NoError(t, err)
	bp, err := definition.Compile(def)
	require.NoError(t, err)

	ctx := context.Background()
	f := bp.NewForm(ctx)
	require.NoError(t, f.EditPath(ctx, "username", "bob"))
	require.NoError(t, f.EditPath(ctx, "plan", "pro"))
	require.NoError(t, f.Advance(ctx))

	assert.Equal(t, "billing", f.CurrentStep().ID)
	card, _ := f.Lookup("card")
	assert.True(t, f.State(card).Visible)
}

func tiny(controls ...definition.Control) *definition.Definition {
	return &definition.Definition{Name: "tiny", Steps: []definition.Step{{ID: "only", Controls: controls}}}
}

func TestCompile_Errors(t *testing.T) {
	cycle, err := definition.LoadFile("testdata/cycle.yaml")
	require.NoError(t, err)

	tests := []struct {
		name string
		def  *definition.Definition
		want error
	}{
		{"Cycle", cycle, domain.ErrCycleDetected},
		{"Unknown Kind", tiny(definition.Control{Name: "a", Kind: "slider"}), domain.ErrInvalidDefinition},
		{"Duplicate Control", tiny(definition.Control{Name: "a", Kind: "text"}, definition.Control{Name: "a", Kind: "text"}), domain.ErrDuplicateControl},
		{"Bad Expression", tiny(definition.Control{Name: "a", Kind: "text"}, definition.Control{Name: "b", Kind: "text", VisibleIf: "a ==="}), domain.ErrInvalidRule},
		{"Rule Without Reference", tiny(definition.Control{Name: "a", Kind: "text", VisibleIf: "1 == 1"}), domain.ErrInvalidRule},
		{"Unknown Dependency", tiny(definition.Control{Name: "a", Kind: "text", VisibleIf: "true", DependsOn: []string{"ghost"}}), domain.ErrUnknownControl},
		{"Invalid Default", tiny(definition.Control{Name: "a", Kind: "select", Default: "c", Options: []definition.Option{{Value: "b"}}}), domain.ErrInvalidDefault},
		{"Unknown When Source", tiny(definition.Control{Name: "a", Kind: "text", VisibleWhen: &definition.When{Control: "ghost"}}), domain.ErrUnknownControl},
		{"Bad Edge Effect", &definition.Definition{
			Name:  "tiny",
			Steps: []definition.Step{{ID: "only", Controls: []definition.Control{{Name: "a", Kind: "text"}, {Name: "b", Kind: "text"}}}},
			Edges: []definition.Edge{{From: "a", To: "b", Effect: "teleport"}},
		}, domain.ErrInvalidRule},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := definition.Compile(tt.def)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCompile_ExplicitEdges(t *testing.T) {
	def := &definition.Definition{
		Name: "edges",
		Steps: []definition.Step{{ID: "only", Controls: []definition.Control{
			{Name: "source", Kind: "text"},
			{Name: "mirror", Kind: "text"},
			{Name: "shout", Kind: "text"},
		}}},
		Edges: []definition.Edge{
			{From: "source", To: "mirror", Effect: "derive"},
			{From: "source", To: "shout", Effect: "derive", Derive: "upper(value)"},
			{From: "source", To: "shout", Effect: "enabled", When: `source != "off"`},
		},
	}
	bp, err := definition.Compile(def)
	require.NoError(t, err)

	ctx := context.Background()
	f := bp.NewForm(ctx)
	require.NoError(t, f.EditPath(ctx, "source", "off"))

	mirror, _ := f.Lookup("mirror")
	shout, _ := f.Lookup("shout")
	assert.Equal(t, "off", f.State(mirror).Value)
	assert.Equal(t, "OFF", f.State(shout).Value)
	assert.False(t, f.State(shout).Enabled)
}

func TestCompile_HideAction(t *testing.T) {
	def := tiny(
		definition.Control{Name: "anonymous", Kind: "bool"},
		definition.Control{Name: "email", Kind: "text", VisibleWhen: &definition.When{Control: "anonymous", Equals: true, Action: "hide"}},
	)
	bp, err := definition.Compile(def)
	require.NoError(t, err)

	ctx := context.Background()
	f := bp.NewForm(ctx)
	email, _ := f.Lookup("email")
	assert.True(t, f.State(email).Visible)
	require.NoError(t, f.EditPath(ctx, "anonymous", true))
	assert.False(t, f.State(email).Visible)
}

func TestCompile_StaticAndKeyValue(t *testing.T) {
	src := `
name: deploy
steps:
  - id: target
    controls:
      - name: mode
        kind: select
        default: simple
        options: [simple, custom]
      - name: hint
        kind: note
        text: Custom mode reads extra variables.
        visible_when: {control: mode, equals: custom}
      - name: vars
        kind: key_value
        max_entries: 3
        visible_if: mode == "custom"
        default: {REGION: eu}
`
	def, err := definition.Parse([]byte(src), definition.FormatYAML, "deploy.yaml")
	require.NoError(t, err)
	require.NoError(t, definition.Check(def))
	bp, err := definition.Compile(def)
	require.NoError(t, err)

	ctx := context.Background()
	f := bp.NewForm(ctx)
	hint, _ := f.Lookup("hint")
	vars, _ := f.Lookup("vars")
	assert.False(t, f.State(hint).Visible)
	assert.Equal(t, map[string]string{"REGION": "eu"}, f.State(vars).Value)

	require.NoError(t, f.EditPath(ctx, "mode", "custom"))
	assert.True(t, f.State(hint).Visible)
	require.NoError(t, f.EditPath(ctx, "vars", "REGION=us; TIER=gold"))
	assert.Equal(t, map[string]string{"REGION": "us", "TIER": "gold"}, f.State(vars).Value)
}

func TestCompile_MultiSourceRuleSharesOneEvaluation(t *testing.T) {
	def := tiny(
		definition.Control{Name: "first", Kind: "text"},
		definition.Control{Name: "last", Kind: "text"},
		definition.Control{Name: "full", Kind: "text", Derive: `(first ?? "") + " " + (last ?? "")`},
	)
	bp, err := definition.Compile(def)
	require.NoError(t, err)

	full, _ := bp.Lookup("full")
	edges := bp.Graph().Incoming(full)
	require.Len(t, edges, 2)
	assert.Equal(t, edges[0].Rule, edges[1].Rule)
	assert.NotEmpty(t, edges[0].Rule)

	ctx := context.Background()
	f := bp.NewForm(ctx)
	require.NoError(t, f.EditPath(ctx, "first", "Ada"))
	require.NoError(t, f.EditPath(ctx, "last", "Lovelace"))
	assert.Equal(t, "Ada Lovelace", f.State(full).Value)
	assert.Equal(t, []domain.ControlID{full}, f.LastPass().Visited)
}
