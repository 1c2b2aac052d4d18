package runner_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/stepform/pkg/domain"
	"github.com/aretw0/stepform/pkg/runner"
)

func TestRender(t *testing.T) {
	resp := runner.Render(newForm(t))
	require.NotNil(t, resp.Frame)
	assert.Equal(t, "account", resp.Frame.Header.StepID)
	assert.Nil(t, resp.Diff)
	assert.False(t, resp.Terminal)
	assert.Equal(t, "profile", resp.Snapshot.Form)
}

func TestHandleAndRender(t *testing.T) {
	ctx := context.Background()
	f := newForm(t)

	resp, err := runner.HandleAndRender(ctx, f, domain.SelectionChange("name", "ada"))
	require.NoError(t, err)
	require.NotNil(t, resp.Diff)
	assert.False(t, resp.Diff.Full, "the diff is relative to the state before the event")
	require.Len(t, resp.Diff.Instructions, 1)
	assert.Equal(t, "ada", resp.Diff.Instructions[0].RenderedText)
	assert.Equal(t, "ada", resp.Snapshot.Values["name"])

	resp, err = runner.HandleAndRender(ctx, f, domain.Event{Type: domain.EventRetreat})
	require.NoError(t, err, "navigation refusals are not errors")
	assert.Equal(t, "Already at the first step.", resp.Notice)

	_, err = runner.HandleAndRender(ctx, f, domain.Event{Type: domain.EventAdvance})
	require.NoError(t, err)
	_, err = runner.HandleAndRender(ctx, f, domain.Event{Type: domain.EventAdvance})
	require.NoError(t, err)
	resp, err = runner.HandleAndRender(ctx, f, domain.SubmitRequested())
	require.NoError(t, err)
	assert.True(t, resp.Terminal)
	require.NotNil(t, resp.Result)
	assert.Equal(t, "ada", resp.Result.ByPath()["name"])

	// Later calls still describe the submitted result.
	assert.NotNil(t, runner.Render(f).Result)
}
