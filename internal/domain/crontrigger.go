package domain

import (
	"errors"
	"time"
)

var (
	ErrCronTriggerNotFound  = errors.New("cron trigger not found")
	ErrCronTriggerNameTaken = errors.New("cron trigger with this name already exists")
)

// CronTrigger is a persistent record describing a future, possibly
// recurring, workflow execution. It fires when NextExecutionTime elapses.
type CronTrigger struct {
	ID   string
	Name string

	// Pattern is a standard cron expression. Nil for one-shot triggers,
	// where RemainingExecutions is always 1.
	Pattern *string

	NextExecutionTime time.Time

	// RemainingExecutions is nil for an unbounded (recurring) trigger.
	RemainingExecutions *int

	WorkflowID     string
	WorkflowName   string
	WorkflowInput  map[string]any
	WorkflowParams map[string]any

	TrustID   string
	ProjectID string
}
