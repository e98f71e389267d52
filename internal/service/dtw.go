// Package service implements the DTW service façade (C8): the single
// entry point that validates and persists a new delay-tolerant workload,
// grounded on the original create_delay_tolerant_workload procedure.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ErlanBelekov/dist-job-scheduler/internal/domain"
	"github.com/ErlanBelekov/dist-job-scheduler/internal/identity"
	"github.com/ErlanBelekov/dist-job-scheduler/internal/repository"
	"github.com/ErlanBelekov/dist-job-scheduler/internal/workflowdef"
)

const minDeadlineLead = 60 * time.Second

// CreateDTWInput is the user-facing request to create a new DTW.
type CreateDTWInput struct {
	Name           string
	WorkflowID     string
	WorkflowName   string
	WorkflowInput  map[string]any
	WorkflowParams map[string]any
	Deadline       string // RFC3339
	JobDurationMin int
	ProjectID      string
}

// DTWService is the façade create_delay_tolerant_workload's steps are
// translated onto.
type DTWService struct {
	DTWs      repository.DTWRepository
	Workflows workflowdef.Resolver
	Validator workflowdef.Validator
	Trust     identity.TrustIssuer
}

// Create implements spec §4.8 steps 1-8:
//  1. parse the deadline (RFC3339)
//  2. reject it unless it is at least a minute in the future
//  3. resolve the workflow definition by ID if given, else by name
//  4. validate workflow_input against that definition
//  5. build the persisted value set, defaulting params to {}, scope to
//     private, executed/scheduled to false
//  6. mint and attach a trust_id
//  7. persist the row
//  8. return the created DTW
func (s *DTWService) Create(ctx context.Context, in CreateDTWInput) (*domain.DTW, error) {
	deadline, err := time.Parse(time.RFC3339, in.Deadline)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid deadline: %v", domain.ErrInvalidModel, err)
	}
	if deadline.Before(time.Now().Add(minDeadlineLead)) {
		return nil, fmt.Errorf("%w: deadline must be at least 1 minute in the future", domain.ErrInvalidModel)
	}

	var (
		def *workflowdef.Definition
	)
	if in.WorkflowID != "" {
		def, err = s.Workflows.ResolveByID(ctx, in.WorkflowID)
	} else {
		def, err = s.Workflows.ResolveByName(ctx, in.WorkflowName)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrWorkflowNotFound, err)
	}

	input := in.WorkflowInput
	if input == nil {
		input = map[string]any{}
	}
	if err := s.Validator.ValidateInput(def, input); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidModel, err)
	}

	params := in.WorkflowParams
	if params == nil {
		params = map[string]any{}
	}

	values := map[string]any{}
	if err := s.Trust.AddTrustID(ctx, values); err != nil {
		return nil, fmt.Errorf("issue trust id: %w", err)
	}
	trustID, _ := values["trust_id"].(string)

	d := &domain.DTW{
		Name:           in.Name,
		WorkflowID:     def.ID,
		WorkflowName:   def.Name,
		WorkflowInput:  input,
		WorkflowParams: params,
		Deadline:       deadline,
		JobDurationMin: in.JobDurationMin,
		Scope:          domain.ScopePrivate,
		TrustID:        trustID,
		Executed:       false,
		Scheduled:      false,
		ProjectID:      in.ProjectID,
	}

	created, err := s.DTWs.Create(ctx, d)
	if err != nil {
		return nil, fmt.Errorf("create dtw: %w", err)
	}
	return created, nil
}
