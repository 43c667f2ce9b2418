package notification

import (
	"context"
	"fmt"
	"time"

	port "github.com/tigerroll/surfin-backuprestore/pkg/batch/core/application/port"
	model "github.com/tigerroll/surfin-backuprestore/pkg/batch/core/domain/model"
	logger "github.com/tigerroll/surfin-backuprestore/pkg/batch/support/util/logger"
)

// Notifier reports the result of a finished run to an external party.
type Notifier interface {
	NotifyRunCompletion(ctx context.Context, execution *model.JobExecution)
}

// LogNotifier only logs notifications.
type LogNotifier struct{}

// NewLogNotifier creates a new instance of LogNotifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

// Summary formats the one-line report of a finished run.
func Summary(execution *model.JobExecution) string {
	duration := time.Duration(0)
	if execution.EndTime != nil {
		duration = execution.EndTime.Sub(execution.StartTime)
	}
	return fmt.Sprintf(
		"Run '%s' (ID: %s) finished with Status: %s, ExitStatus: %s. Duration: %s, Warnings: %d, Failures: %d",
		execution.JobName,
		execution.ID,
		execution.Status,
		execution.ExitStatus,
		duration,
		len(execution.Warnings),
		len(execution.Failures),
	)
}

// NotifyRunCompletion implements Notifier.
func (n *LogNotifier) NotifyRunCompletion(ctx context.Context, execution *model.JobExecution) {
	if execution.Status == model.BatchStatusCompleted && len(execution.Warnings) == 0 {
		logger.Infof("Notification: %s", Summary(execution))
		return
	}
	logger.Warnf("Notification: %s", Summary(execution))
}

var _ Notifier = (*LogNotifier)(nil)

// NotificationListener sends a notification when a run finishes.
type NotificationListener struct {
	notifier Notifier
}

// NewNotificationListener creates a new instance of NotificationListener.
func NewNotificationListener(notifier Notifier) *NotificationListener {
	return &NotificationListener{notifier: notifier}
}

// BeforeJob does nothing.
func (l *NotificationListener) BeforeJob(ctx context.Context, jobExecution *model.JobExecution) {}

// AfterJob notifies the completion of the run.
func (l *NotificationListener) AfterJob(ctx context.Context, jobExecution *model.JobExecution) {
	l.notifier.NotifyRunCompletion(ctx, jobExecution)
}

var _ port.JobExecutionListener = (*NotificationListener)(nil)
