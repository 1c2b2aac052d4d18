package ports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/stepform/pkg/domain"
)

func contractSnapshot(sessionID string) *domain.Snapshot {
	return &domain.Snapshot{
		SessionID: sessionID,
		Form:      "contract",
		Phase:     domain.PhaseActive,
		Current:   1,
		Statuses:  []domain.StepStatus{domain.StepCompleted, domain.StepActive},
		Values: map[string]any{
			"name":   "alice",
			"tags":   []string{"a", "b"},
			"agreed": true,
		},
		Errors: map[string]domain.ValidationError{
			"email": {Code: domain.ConstraintViolated, Control: "email", Reason: "a value is required"},
		},
		Focus:     "email",
		UpdatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

// RunSessionStoreContract runs a suite of tests to verify that a SessionStore implementation
// adheres to the defined interface contract.
func RunSessionStoreContract(t *testing.T, store SessionStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		snap := contractSnapshot(sessionID)

		err := store.Save(ctx, sessionID, snap)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, snap.Form, loaded.Form)
		assert.Equal(t, snap.Phase, loaded.Phase)
		assert.Equal(t, snap.Current, loaded.Current)
		assert.Equal(t, snap.Statuses, loaded.Statuses)
		assert.Equal(t, "alice", loaded.Values["name"])
		assert.Equal(t, true, loaded.Values["agreed"])
		// Serialising stores may hand lists back as []any; restore coerces them.
		assert.Len(t, loaded.Values["tags"], 2)
		assert.Equal(t, snap.Errors, loaded.Errors)
		assert.Equal(t, "email", loaded.Focus)
		assert.True(t, snap.UpdatedAt.Equal(loaded.UpdatedAt))
	})

	t.Run("Load Returns A Copy", func(t *testing.T) {
		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		loaded.Values["name"] = "mallory"

		again, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, "alice", again.Values["name"])
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, sessionID, contractSnapshot(sessionID))
		require.NoError(t, err)

		err = store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = store.Save(ctx, id1, contractSnapshot(id1))
		_ = store.Save(ctx, id2, contractSnapshot(id2))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}

// RunDefinitionLoaderContract verifies that a DefinitionLoader serves exactly
// the named definitions.
func RunDefinitionLoaderContract(t *testing.T, loader DefinitionLoader, names []string) {
	ctx := context.Background()

	t.Run("List", func(t *testing.T) {
		got, err := loader.ListDefinitions(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t, names, got)
	})

	t.Run("Get", func(t *testing.T) {
		for _, name := range names {
			def, err := loader.GetDefinition(ctx, name)
			require.NoError(t, err, "GetDefinition(%q)", name)
			assert.Equal(t, name, def.Name)
			assert.NotEmpty(t, def.Steps)
		}
	})

	t.Run("Get Missing", func(t *testing.T) {
		_, err := loader.GetDefinition(ctx, "definitely-not-there")
		assert.Error(t, err)
	})
}
