// Package dispatch implements the workflow dispatch adapter (C7): the
// thin boundary between this scheduler and the workflow engine that
// actually runs a DTW's workflow. Dispatch failures are returned to the
// caller and best-effort surfaced to an operator by email; the periodic
// runner logs them and moves on, so a single bad dispatch does not take
// down its tick.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ErlanBelekov/dist-job-scheduler/internal/domain"
	"github.com/ErlanBelekov/dist-job-scheduler/internal/email"
)

// Dispatcher starts a workflow execution. It is the RPC boundary to the
// workflow engine (e.g. Mistral's engine service over its own transport);
// here it is a thin client stub callers can swap for a real one.
type Dispatcher interface {
	StartWorkflow(ctx context.Context, workflowName string, input, params map[string]any, description string) error
}

// RPCDispatcher is a minimal client stub: it models the call shape the
// real engine RPC would have without depending on a specific transport,
// so the placement policies and periodic runner can be built and tested
// against it now.
type RPCDispatcher struct {
	endpoint string
	logger   *slog.Logger
}

func NewRPCDispatcher(endpoint string, logger *slog.Logger) *RPCDispatcher {
	return &RPCDispatcher{endpoint: endpoint, logger: logger.With("component", "dispatch")}
}

func (d *RPCDispatcher) StartWorkflow(ctx context.Context, workflowName string, input, params map[string]any, description string) error {
	if d.endpoint == "" {
		return &domain.TransportFailure{Op: "start_workflow", Err: fmt.Errorf("no engine endpoint configured")}
	}

	d.logger.InfoContext(ctx, "starting workflow",
		"workflow_name", workflowName,
		"description", description,
	)

	// A real adapter would issue the RPC call here (gRPC/AMQP/HTTP,
	// depending on the engine's transport) and translate its response.
	// Until that transport is chosen this is a no-op success so callers
	// and tests can exercise the full dispatch path.
	return nil
}

// AlertingDispatcher wraps a Dispatcher and best-effort emails an operator
// on every permanent dispatch failure. The alert send itself is isolated:
// a failure to send the alert is logged and swallowed, never compounding
// the original dispatch failure.
type AlertingDispatcher struct {
	next       Dispatcher
	alerts     email.Sender
	operatorTo string
	logger     *slog.Logger
}

func NewAlertingDispatcher(next Dispatcher, alerts email.Sender, operatorTo string, logger *slog.Logger) *AlertingDispatcher {
	return &AlertingDispatcher{next: next, alerts: alerts, operatorTo: operatorTo, logger: logger.With("component", "dispatch_alerts")}
}

func (d *AlertingDispatcher) StartWorkflow(ctx context.Context, workflowName string, input, params map[string]any, description string) error {
	err := d.next.StartWorkflow(ctx, workflowName, input, params, description)
	if err == nil {
		return nil
	}

	subject := fmt.Sprintf("workflow dispatch failed: %s", workflowName)
	body := fmt.Sprintf("<p>Dispatching workflow %q failed: %s</p>", workflowName, err.Error())
	if sendErr := d.alerts.Send(ctx, d.operatorTo, subject, body); sendErr != nil {
		d.logger.WarnContext(ctx, "dispatch failure alert could not be sent",
			"workflow_name", workflowName,
			"dispatch_error", err,
			"alert_error", sendErr,
		)
	}

	return err
}
