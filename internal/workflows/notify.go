package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/communityeye/communityeye/internal/core/domain"
)

// TaskQueue is the default queue the notifier worker polls.
const TaskQueue = "authority-notifications"

// WorkflowID is the execution id for a report's notification. One report
// maps to one execution, so a duplicate start is rejected by the server.
func WorkflowID(reportID string) string {
	return "notify-" + reportID
}

// NotifyAuthorityWorkflow emails the routed authority about a new report.
// The email is attempted once; a failure is logged and the workflow ends
// with the error, never resending.
func NotifyAuthorityWorkflow(ctx workflow.Context, n domain.AuthorityNotification) error {
	logger := workflow.GetLogger(ctx)
	logger.Info("Notifying authority", "reportID", n.ReportID, "authority", n.AuthorityName)

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	var a *NotificationActivities
	if err := workflow.ExecuteActivity(ctx, a.SendAuthorityEmail, n).Get(ctx, nil); err != nil {
		logger.Warn("authority notification failed", "reportID", n.ReportID, "error", err)
		return err
	}

	logger.Info("Authority notified", "reportID", n.ReportID)
	return nil
}
