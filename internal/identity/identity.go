// Package identity models the caller security context the DTW and cron
// trigger services act under. It is deliberately explicit context
// propagation rather than ambient thread-local state: the Python source
// pushes/pops a global context stack, but the periodic runner needs to
// hand each DTW its own identity inside a single goroutine's tick, so the
// context carries it instead (see the internal/identity and
// internal/runner entries in DESIGN.md).
package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is the caller security context a trust token resolves to.
type Identity struct {
	TrustID   string
	ProjectID string
}

type ctxKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext extracts the Identity set by WithIdentity. ok is false if
// none was set.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}

// TrustIssuer mints and validates the trust tokens DTWs and cron triggers
// carry so delayed/periodic re-execution can still act on the creator's
// behalf.
type TrustIssuer interface {
	// CreateContext issues an Identity for a previously-created trust.
	CreateContext(trustID, projectID string) Identity

	// AddTrustID mints a trust token for the caller identity present in
	// ctx and writes it into values["trust_id"], mutating the map in
	// place. This mirrors the source's delay_tolerant_workload.py
	// mutation of the params dict before validation.
	AddTrustID(ctx context.Context, values map[string]any) error
}

// JWTTrustIssuer signs opaque, short-purpose trust tokens with a shared
// HMAC key. Unlike the HTTP-facing JWKS-verified tokens in the ops
// surface, these never leave the process boundary: they round-trip
// through the DTW/cron_trigger rows and back into this issuer.
type JWTTrustIssuer struct {
	key []byte
	ttl time.Duration
}

func NewJWTTrustIssuer(key []byte, ttl time.Duration) *JWTTrustIssuer {
	return &JWTTrustIssuer{key: key, ttl: ttl}
}

func (i *JWTTrustIssuer) CreateContext(trustID, projectID string) Identity {
	return Identity{TrustID: trustID, ProjectID: projectID}
}

func (i *JWTTrustIssuer) AddTrustID(ctx context.Context, values map[string]any) error {
	id, ok := FromContext(ctx)
	if !ok {
		return fmt.Errorf("identity: no caller identity in context")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"project_id": id.ProjectID,
		"iat":        now.Unix(),
		"exp":        now.Add(i.ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.key)
	if err != nil {
		return fmt.Errorf("sign trust token: %w", err)
	}

	values["trust_id"] = signed
	return nil
}

// ValidateTrustID parses and verifies a previously-issued trust token,
// returning the project ID it was scoped to.
func (i *JWTTrustIssuer) ValidateTrustID(trustID string) (string, error) {
	token, err := jwt.Parse(trustID, func(t *jwt.Token) (any, error) {
		return i.key, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return "", fmt.Errorf("identity: invalid trust token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("identity: unexpected trust token claims")
	}
	projectID, _ := claims["project_id"].(string)
	return projectID, nil
}
