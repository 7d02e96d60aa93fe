package workflows

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"

	"github.com/communityeye/communityeye/internal/core/domain"
)

// Starter is the part of client.Client the dispatcher needs.
type Starter interface {
	ExecuteWorkflow(ctx context.Context, options client.StartWorkflowOptions, workflow interface{}, args ...interface{}) (client.WorkflowRun, error)
}

// Dispatcher starts one NotifyAuthorityWorkflow per report.
type Dispatcher struct {
	starter   Starter
	taskQueue string
}

// NewDispatcher creates a Dispatcher. An empty taskQueue means TaskQueue.
func NewDispatcher(starter Starter, taskQueue string) *Dispatcher {
	if taskQueue == "" {
		taskQueue = TaskQueue
	}
	return &Dispatcher{starter: starter, taskQueue: taskQueue}
}

// Dispatch starts the workflow for n. A report that already has an
// execution is not notified again.
func (d *Dispatcher) Dispatch(ctx context.Context, n *domain.AuthorityNotification) error {
	if n.ReportID == "" {
		return fmt.Errorf("notification without report id")
	}

	opts := client.StartWorkflowOptions{
		ID:                    WorkflowID(n.ReportID),
		TaskQueue:             d.taskQueue,
		WorkflowIDReusePolicy: enumspb.WORKFLOW_ID_REUSE_POLICY_REJECT_DUPLICATE,
	}
	run, err := d.starter.ExecuteWorkflow(ctx, opts, NotifyAuthorityWorkflow, *n)
	if err != nil {
		var started *serviceerror.WorkflowExecutionAlreadyStarted
		if errors.As(err, &started) {
			slog.Info("notification already dispatched", "report_id", n.ReportID)
			return nil
		}
		return fmt.Errorf("start notification workflow: %w", err)
	}

	slog.Info("notification dispatched", "report_id", n.ReportID,
		"workflow_id", run.GetID(), "run_id", run.GetRunID())
	return nil
}
