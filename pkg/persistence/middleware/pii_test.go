package middleware_test

import (
	"context"
	"testing"

	"github.com/aretw0/stepform/pkg/adapters/memory"
	"github.com/aretw0/stepform/pkg/domain"
	"github.com/aretw0/stepform/pkg/persistence/middleware"
)

func TestPIIMiddleware_Masking(t *testing.T) {
	underlyingStore := memory.NewStore()
	// Mask paths containing "password" or "ssn"
	mw := middleware.NewPIIMiddleware([]string{"password", "ssn"})
	secureStore := mw(underlyingStore)

	ctx := context.Background()
	sessionID := "pii-session"
	snap := snapshot(map[string]any{
		"username":        "jdoe",
		"user_password":   "secret123",
		"details.address": "123 St",
		"details.ssn":     "999-99-9999",
		"safe_data":       "public",
	})
	snap.Errors = map[string]domain.ValidationError{
		"details.ssn": {Code: domain.ConstraintViolated, Control: "details.ssn", Reason: `"999-99-9999" does not match`},
	}

	// 1. Save
	if err := secureStore.Save(ctx, sessionID, snap); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// Verify In-Memory snapshot is NOT MODIFIED (Immutability check)
	if snap.Values["user_password"] != "secret123" {
		t.Error("Middleware modified original snapshot in memory!")
	}

	// 2. Load from Underlying Store (Should be masked)
	stored, err := underlyingStore.Load(ctx, sessionID)
	if err != nil {
		t.Fatalf("Underlying load failed: %v", err)
	}

	if stored.Values["username"] != "jdoe" {
		t.Error("Username shouldn't be masked")
	}
	if stored.Values["user_password"] != middleware.Mask {
		t.Errorf("Password should be masked, got: %v", stored.Values["user_password"])
	}
	if stored.Values["details.ssn"] != middleware.Mask {
		t.Errorf("Nested SSN should be masked, got: %v", stored.Values["details.ssn"])
	}
	if got := stored.Errors["details.ssn"]; got.Reason != middleware.Mask || got.Code != domain.ConstraintViolated {
		t.Errorf("SSN error should be masked, got: %+v", got)
	}
}

func TestChain(t *testing.T) {
	underlyingStore := memory.NewStore()
	key := generateKey(t)
	store := middleware.Chain(underlyingStore,
		middleware.NewPIIMiddleware([]string{"password"}),
		middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key}),
	)

	ctx := context.Background()
	if err := store.Save(ctx, "s", snapshot(map[string]any{"password": "hunter2", "name": "ada"})); err != nil {
		t.Fatal(err)
	}
	loaded, err := store.Load(ctx, "s")
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Values["password"] != middleware.Mask || loaded.Values["name"] != "ada" {
		t.Errorf("unexpected values: %v", loaded.Values)
	}
	ids, _ := store.List(ctx)
	if len(ids) != 1 {
		t.Errorf("List() = %v", ids)
	}
}
