// Package workflowdef stands in for the workflow-definition registry and
// input validator the DTW service façade depends on. Resolving and
// validating workflow definitions is a workflow-engine concern external to
// this scheduler; this package only the narrow contract the façade (C8)
// needs from it.
package workflowdef

import (
	"context"
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("workflow definition not found")

// Definition is the subset of a workflow definition the façade needs: its
// canonical ID/name pair and the input schema used to validate a DTW's
// workflow_input before it is persisted.
type Definition struct {
	ID       string
	Name     string
	Required []string
}

// Resolver looks up a workflow definition by ID or by name — the DTW API
// accepts either (spec §4.8 step 2).
type Resolver interface {
	ResolveByID(ctx context.Context, id string) (*Definition, error)
	ResolveByName(ctx context.Context, name string) (*Definition, error)
}

// Validator checks workflow_input against a definition's declared schema.
type Validator interface {
	ValidateInput(def *Definition, input map[string]any) error
}

// StaticResolver resolves against an in-memory registry. Production
// deployments would back this with the workflow engine's own definition
// store; this adapter is enough to exercise the façade end to end.
type StaticResolver struct {
	byID   map[string]*Definition
	byName map[string]*Definition
}

func NewStaticResolver(defs ...*Definition) *StaticResolver {
	r := &StaticResolver{
		byID:   make(map[string]*Definition, len(defs)),
		byName: make(map[string]*Definition, len(defs)),
	}
	for _, d := range defs {
		r.byID[d.ID] = d
		r.byName[d.Name] = d
	}
	return r
}

func (r *StaticResolver) ResolveByID(_ context.Context, id string) (*Definition, error) {
	d, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return d, nil
}

func (r *StaticResolver) ResolveByName(_ context.Context, name string) (*Definition, error) {
	d, ok := r.byName[name]
	if !ok {
		return nil, ErrNotFound
	}
	return d, nil
}

// RequiredFieldsValidator checks that every field the definition declares
// required is present in input, matching the shape of Mistral's
// utils.validate_input without pulling in a full JSON-schema engine.
type RequiredFieldsValidator struct{}

func (RequiredFieldsValidator) ValidateInput(def *Definition, input map[string]any) error {
	for _, field := range def.Required {
		if _, ok := input[field]; !ok {
			return fmt.Errorf("workflow input missing required field %q", field)
		}
	}
	return nil
}
