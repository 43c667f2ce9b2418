package logging_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/tigerroll/surfin-backuprestore/pkg/batch/listener/logging"
	logger "github.com/tigerroll/surfin-backuprestore/pkg/batch/support/util/logger"
	"github.com/tigerroll/surfin-backuprestore/pkg/batch/test"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingJobListener_MasksParameters(t *testing.T) {
	var buf bytes.Buffer
	restore := logger.SetOutput(&buf)
	defer restore()

	je := test.NewTestJobExecution("catalogRestore", map[string]interface{}{
		"BK_PASSWORD_TOKENS": "${sf.sf.passwd}=hunter2",
	})
	l := logging.NewLoggingJobListener()
	l.BeforeJob(context.Background(), je)
	assert.NotContains(t, buf.String(), "hunter2")
	assert.Contains(t, buf.String(), je.ID)

	je.MarkAsStarted()
	je.MarkAsFailed(assert.AnError)
	l.AfterJob(context.Background(), je)
	assert.Contains(t, buf.String(), "Failures: 1")
}

func TestLoggingStepListener_LogsCounters(t *testing.T) {
	var buf bytes.Buffer
	restore := logger.SetOutput(&buf)
	defer restore()

	se := test.NewTestStepExecution(test.NewTestJobExecution("catalogBackup", nil), "backupCatalog")
	se.ReadCount, se.WriteCount, se.FilterCount = 5, 3, 2

	l := logging.NewLoggingStepListener()
	require.NoError(t, l.BeforeStep(context.Background(), se))
	l.AfterStep(context.Background(), se)
	assert.Contains(t, buf.String(), "Read: 5, Written: 3, Filtered: 2, Skipped: 0")
}
