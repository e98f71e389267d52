// Package policy implements the three delay-tolerant workload placement
// policies (C5): Immediate, LastMinute, and EnergyAware. Each answers the
// same question — when should this DTW's workflow actually run — using a
// different strategy, selected by the scheduler's configured mode.
package policy

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ErlanBelekov/dist-job-scheduler/internal/dispatch"
	"github.com/ErlanBelekov/dist-job-scheduler/internal/domain"
	"github.com/ErlanBelekov/dist-job-scheduler/internal/priceoracle"
	"github.com/ErlanBelekov/dist-job-scheduler/internal/repository"
	"github.com/ErlanBelekov/dist-job-scheduler/internal/solver"
)

// Mode names the configured scheduler mode, resolved per the §9 open
// question: dtw_scheduler_mode takes precedence over the legacy
// dtw_scheduler_last_minute boolean when both are set.
type Mode string

const (
	ModeImmediate   Mode = "immediately"
	ModeLastMinute  Mode = "last-minute"
	ModeEnergyAware Mode = "energy-aware"
)

// ResolveMode implements the precedence rule: an explicit mode wins; an
// empty mode falls back to the legacy boolean; an unrecognised explicit
// mode is a ConfigError rather than a silent default. cmd/scheduler calls
// ResolveMode once at startup and exits the process on that error.
func ResolveMode(configuredMode string, legacyLastMinute bool) (Mode, error) {
	switch Mode(configuredMode) {
	case ModeImmediate, ModeLastMinute, ModeEnergyAware:
		return Mode(configuredMode), nil
	case "":
		if legacyLastMinute {
			return ModeLastMinute, nil
		}
		return ModeImmediate, nil
	default:
		return "", &domain.ConfigError{Msg: fmt.Sprintf("unknown dtw_scheduler_mode %q", configuredMode)}
	}
}

// PlacementPolicy decides what happens to an unscheduled, unexecuted DTW
// on a given tick: dispatch it now, or arrange a one-shot cron trigger to
// dispatch it later.
type PlacementPolicy interface {
	Handle(ctx context.Context, d *domain.DTW) error
}

// energyLongTermThreshold is the job duration above which EnergyAware
// degrades to Immediate placement: long jobs cannot fit a bounded
// optimal-start window and are better run as soon as possible (spec §4.5).
const energyLongTermThreshold = 360 * time.Minute

// Immediate dispatches the workflow right away: it CAS-flips executed and,
// only if it won that race, starts the workflow.
type Immediate struct {
	DTWs       repository.DTWRepository
	Dispatcher dispatch.Dispatcher
	Logger     *slog.Logger
}

func (p *Immediate) Handle(ctx context.Context, d *domain.DTW) error {
	won, err := p.DTWs.CASSetExecuted(ctx, d.Name, true)
	if err != nil {
		return fmt.Errorf("immediate: cas set executed: %w", err)
	}
	if !won {
		p.Logger.DebugContext(ctx, "dtw already claimed by another placement", "dtw_name", d.Name)
		return nil
	}

	if err := p.Dispatcher.StartWorkflow(ctx, d.WorkflowName, d.WorkflowInput, d.WorkflowParams, "DTW Workflow execution created."); err != nil {
		p.Logger.ErrorContext(ctx, "immediate dispatch failed", "dtw_name", d.Name, "error", err)
		return err
	}
	return nil
}

// LastMinute schedules the workflow to fire at deadline - duration via a
// one-shot cron trigger, CAS-flipping scheduled so it is only created once.
type LastMinute struct {
	DTWs          repository.DTWRepository
	CronTriggers  repository.CronTriggerRepository
	Logger        *slog.Logger
}

func (p *LastMinute) Handle(ctx context.Context, d *domain.DTW) error {
	won, err := p.DTWs.CASSetScheduled(ctx, d.Name, true)
	if err != nil {
		return fmt.Errorf("last_minute: cas set scheduled: %w", err)
	}
	if !won {
		p.Logger.DebugContext(ctx, "dtw already scheduled by another placement", "dtw_name", d.Name)
		return nil
	}

	fireAt := d.Deadline.Add(-time.Duration(d.JobDurationMin) * time.Minute)
	return createOneShotTrigger(ctx, p.CronTriggers, d, fireAt)
}

// EnergyAware minimises energy cost for short jobs by consulting the price
// oracle and the optimal-start solver; long jobs (> 360 minutes) are
// treated as Immediate since they cannot usefully be confined to a bounded
// start window. If the oracle is unavailable or the solver finds no valid
// start time, it falls back to firing two minutes from now.
type EnergyAware struct {
	DTWs         repository.DTWRepository
	CronTriggers repository.CronTriggerRepository
	Dispatcher   dispatch.Dispatcher
	Oracle       priceoracle.Oracle
	Logger       *slog.Logger
	Now          func() time.Time
}

func (p *EnergyAware) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func (p *EnergyAware) Handle(ctx context.Context, d *domain.DTW) error {
	if time.Duration(d.JobDurationMin)*time.Minute > energyLongTermThreshold {
		immediate := &Immediate{DTWs: p.DTWs, Dispatcher: p.Dispatcher, Logger: p.Logger}
		return immediate.Handle(ctx, d)
	}

	won, err := p.DTWs.CASSetScheduled(ctx, d.Name, true)
	if err != nil {
		return fmt.Errorf("energy_aware: cas set scheduled: %w", err)
	}
	if !won {
		p.Logger.DebugContext(ctx, "dtw already scheduled by another placement", "dtw_name", d.Name)
		return nil
	}

	now := p.now()
	fireAt := now.Add(2 * time.Minute)

	curve, err := p.Oracle.GetPrices(ctx)
	if err != nil {
		return fmt.Errorf("energy_aware: price oracle: %w", err)
	}
	if curve != nil {
		if start, ok := solver.OptimalStart(now, *curve, d.JobDurationMin, d.Deadline); ok {
			fireAt = start
		} else {
			p.Logger.WarnContext(ctx, "solver found no valid start time, falling back", "dtw_name", d.Name)
		}
	} else {
		p.Logger.WarnContext(ctx, "price oracle unavailable, falling back", "dtw_name", d.Name)
	}

	return createOneShotTrigger(ctx, p.CronTriggers, d, fireAt)
}

// createOneShotTrigger creates a pattern-less cron trigger: one
// remaining execution, no recurrence, firing once at fireAt. The periodic
// runner's cron-trigger task calls Advance, which deletes it, and then
// dispatches it.
func createOneShotTrigger(ctx context.Context, triggers repository.CronTriggerRepository, d *domain.DTW, fireAt time.Time) error {
	one := 1
	_, err := triggers.Create(ctx, &domain.CronTrigger{
		Name:                 d.Name,
		Pattern:              nil,
		NextExecutionTime:    fireAt,
		RemainingExecutions:  &one,
		WorkflowID:           d.WorkflowID,
		WorkflowName:         d.WorkflowName,
		WorkflowInput:        d.WorkflowInput,
		WorkflowParams:       d.WorkflowParams,
		TrustID:              d.TrustID,
		ProjectID:            d.ProjectID,
	})
	if err != nil {
		return fmt.Errorf("create placement trigger: %w", err)
	}
	return nil
}
