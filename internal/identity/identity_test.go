package identity_test

import (
	"context"
	"testing"
	"time"

	"github.com/ErlanBelekov/dist-job-scheduler/internal/identity"
)

func TestJWTTrustIssuer_AddTrustID_MutatesInPlace(t *testing.T) {
	issuer := identity.NewJWTTrustIssuer([]byte("test-secret"), time.Hour)
	ctx := identity.WithIdentity(context.Background(), identity.Identity{
		TrustID:   "caller-trust",
		ProjectID: "proj-1",
	})

	values := map[string]any{"foo": "bar"}
	if err := issuer.AddTrustID(ctx, values); err != nil {
		t.Fatalf("AddTrustID: %v", err)
	}

	trustID, ok := values["trust_id"].(string)
	if !ok || trustID == "" {
		t.Fatalf("expected trust_id to be set in values, got %+v", values)
	}
	if values["foo"] != "bar" {
		t.Fatalf("expected other keys preserved, got %+v", values)
	}

	projectID, err := issuer.ValidateTrustID(trustID)
	if err != nil {
		t.Fatalf("ValidateTrustID: %v", err)
	}
	if projectID != "proj-1" {
		t.Errorf("ValidateTrustID projectID = %q, want %q", projectID, "proj-1")
	}
}

func TestJWTTrustIssuer_AddTrustID_NoIdentity(t *testing.T) {
	issuer := identity.NewJWTTrustIssuer([]byte("test-secret"), time.Hour)
	err := issuer.AddTrustID(context.Background(), map[string]any{})
	if err == nil {
		t.Fatal("expected an error when context carries no identity")
	}
}

func TestJWTTrustIssuer_ValidateTrustID_Rejects_Tampered(t *testing.T) {
	issuer := identity.NewJWTTrustIssuer([]byte("test-secret"), time.Hour)
	other := identity.NewJWTTrustIssuer([]byte("other-secret"), time.Hour)

	ctx := identity.WithIdentity(context.Background(), identity.Identity{ProjectID: "proj-1"})
	values := map[string]any{}
	if err := issuer.AddTrustID(ctx, values); err != nil {
		t.Fatalf("AddTrustID: %v", err)
	}

	if _, err := other.ValidateTrustID(values["trust_id"].(string)); err == nil {
		t.Fatal("expected validation against a different key to fail")
	}
}
