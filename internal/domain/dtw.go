package domain

import (
	"errors"
	"time"
)

var (
	ErrDTWNotFound     = errors.New("delay tolerant workload not found")
	ErrDuplicateDTW    = errors.New("delay tolerant workload with this name already exists in the project")
	ErrInvalidModel    = errors.New("delay tolerant workload model is invalid")
	ErrWorkflowNotFound = errors.New("workflow definition not found")
)

type Scope string

const (
	ScopePrivate Scope = "private"
	ScopePublic  Scope = "public"
)

// DTW is a delay-tolerant workload: a deferrable workflow execution that
// must complete by Deadline. The scheduler picks the dispatch time within
// [now, Deadline - JobDurationMin].
type DTW struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	WorkflowID     string         `json:"workflowId,omitempty"`
	WorkflowName   string         `json:"workflowName"`
	WorkflowInput  map[string]any `json:"workflowInput"`
	WorkflowParams map[string]any `json:"workflowParams"`

	Deadline      time.Time `json:"deadline"`
	JobDurationMin int      `json:"jobDurationMinutes"`

	Scope   Scope  `json:"scope"`
	TrustID string `json:"trustId,omitempty"`

	Executed  bool `json:"executed"`
	Scheduled bool `json:"scheduled"`

	ProjectID string `json:"projectId"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
