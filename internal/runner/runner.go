// Package runner implements the periodic runner (C6): a single ticker
// driving two serialized tasks — advancing due cron triggers, and placing
// newly-created delay-tolerant workloads. Grounded on the teacher
// scheduler's ticker shape, generalized to run_immediately semantics and
// an overlap guard per task.
package runner

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/ErlanBelekov/dist-job-scheduler/internal/cronexpr"
	"github.com/ErlanBelekov/dist-job-scheduler/internal/dispatch"
	"github.com/ErlanBelekov/dist-job-scheduler/internal/identity"
	"github.com/ErlanBelekov/dist-job-scheduler/internal/policy"
	"github.com/ErlanBelekov/dist-job-scheduler/internal/repository"
	"github.com/ErlanBelekov/dist-job-scheduler/internal/requestid"
)

// Runner drives process_cron_triggers and process_delay_tolerant_workload
// once per tick, each guarded against overlapping with its own previous
// invocation.
type Runner struct {
	CronTriggers repository.CronTriggerRepository
	DTWs         repository.DTWRepository
	Dispatcher   dispatch.Dispatcher
	Policy       policy.PlacementPolicy
	Logger       *slog.Logger
	Interval     time.Duration

	cronBusy atomic.Bool
	dtwBusy  atomic.Bool
}

// Start runs both tasks once immediately (run_immediately semantics), then
// on every tick of Interval, until ctx is cancelled.
func (r *Runner) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval())
	defer ticker.Stop()

	r.logger().Info("periodic runner started", "interval", r.interval())

	r.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			r.logger().Info("periodic runner shut down")
			return
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

func (r *Runner) interval() time.Duration {
	if r.Interval <= 0 {
		return time.Second
	}
	return r.Interval
}

func (r *Runner) logger() *slog.Logger {
	return r.Logger.With("component", "runner")
}

func (r *Runner) tick(ctx context.Context) {
	ctx = identity.WithIdentity(ctx, identity.Identity{})
	ctx = requestid.WithRequestID(ctx, requestid.New())

	if r.cronBusy.CompareAndSwap(false, true) {
		go func() {
			defer r.cronBusy.Store(false)
			r.processCronTriggers(ctx)
		}()
	} else {
		r.logger().Warn("process_cron_triggers still running, skipping this tick")
	}

	if r.dtwBusy.CompareAndSwap(false, true) {
		go func() {
			defer r.dtwBusy.Store(false)
			r.processDelayTolerantWorkloads(ctx)
		}()
	} else {
		r.logger().Warn("process_delay_tolerant_workload still running, skipping this tick")
	}
}

func (r *Runner) processCronTriggers(ctx context.Context) {
	due, err := r.CronTriggers.ListDue(ctx, time.Now())
	if err != nil {
		r.logger().ErrorContext(ctx, "list due cron triggers failed", "error", err)
		return
	}

	for _, trig := range due {
		itemCtx := ctx
		if trig.TrustID != "" {
			itemCtx = identity.WithIdentity(ctx, identity.Identity{TrustID: trig.TrustID, ProjectID: trig.ProjectID})
		}

		advanced, err := r.CronTriggers.Advance(itemCtx, trig, cronexpr.NextFireTime)
		if err != nil {
			r.logger().ErrorContext(itemCtx, "advance cron trigger failed", "trigger_name", trig.Name, "error", err)
			continue
		}
		if !advanced {
			r.logger().DebugContext(itemCtx, "cron trigger advanced by another runner already", "trigger_name", trig.Name)
			continue
		}

		if err := r.Dispatcher.StartWorkflow(itemCtx, trig.WorkflowName, trig.WorkflowInput, trig.WorkflowParams, "Workflow execution created by cron trigger."); err != nil {
			r.logger().ErrorContext(itemCtx, "cron trigger dispatch failed", "trigger_name", trig.Name, "error", err)
			continue
		}
	}
}

func (r *Runner) processDelayTolerantWorkloads(ctx context.Context) {
	unscheduled, err := r.DTWs.GetUnscheduled(ctx, true)
	if err != nil {
		r.logger().ErrorContext(ctx, "list unscheduled dtws failed", "error", err)
		return
	}

	for _, d := range unscheduled {
		itemCtx := ctx
		if d.TrustID != "" {
			itemCtx = identity.WithIdentity(ctx, identity.Identity{TrustID: d.TrustID, ProjectID: d.ProjectID})
		}

		if err := r.Policy.Handle(itemCtx, d); err != nil {
			r.logger().ErrorContext(itemCtx, "placement policy failed", "dtw_name", d.Name, "error", err)
			continue
		}
	}
}
