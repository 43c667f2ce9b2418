package notification_test

import (
	"context"
	"errors"
	"testing"

	model "github.com/tigerroll/surfin-backuprestore/pkg/batch/core/domain/model"
	"github.com/tigerroll/surfin-backuprestore/pkg/batch/listener/notification"
	"github.com/tigerroll/surfin-backuprestore/pkg/batch/test"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	notified []*model.JobExecution
}

func (n *recordingNotifier) NotifyRunCompletion(ctx context.Context, execution *model.JobExecution) {
	n.notified = append(n.notified, execution)
}

func TestNotificationListener_NotifiesAfterJob(t *testing.T) {
	n := &recordingNotifier{}
	l := notification.NewNotificationListener(n)
	je := test.NewTestJobExecution("catalogBackup", nil)

	l.BeforeJob(context.Background(), je)
	assert.Empty(t, n.notified)

	l.AfterJob(context.Background(), je)
	require.Len(t, n.notified, 1)
	assert.Same(t, je, n.notified[0])
}

func TestSummary(t *testing.T) {
	je := test.NewTestJobExecution("catalogRestore", nil)
	je.MarkAsStarted()
	je.AddWarningException(errors.New("skipped sf:roads"))
	je.MarkAsCompleted()

	s := notification.Summary(je)
	assert.Contains(t, s, "Run 'catalogRestore'")
	assert.Contains(t, s, "Status: COMPLETED")
	assert.Contains(t, s, "Warnings: 1, Failures: 0")

	// Must not panic on a run that never ended.
	notification.NewLogNotifier().NotifyRunCompletion(context.Background(), test.NewTestJobExecution("x", nil))
}
