package backuprestore_test

import (
	"context"
	"errors"
	"testing"

	"github.com/tigerroll/surfin-backuprestore/pkg/batch/core/backuprestore"
	model "github.com/tigerroll/surfin-backuprestore/pkg/batch/core/domain/model"
	"github.com/tigerroll/surfin-backuprestore/pkg/batch/test"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestExecutionLedger(t *testing.T) {
	ctx := context.Background()
	se := test.NewTestStepExecution(test.NewTestJobExecution("catalogRestore", nil), "restoreCatalog")
	ledger := backuprestore.NewExecutionLedger(se.JobExecution)
	assert.NoError(t, ledger.Err())

	first := errors.New("workspace 'x' does not exist")
	second := errors.New("store 'y' already exists")
	assert.NoError(t, ledger.Record(ctx, model.NewLedgerEntry(se, model.LedgerWarning, "x", first)))
	assert.NoError(t, ledger.Record(ctx, model.NewLedgerEntry(se, model.LedgerFailure, "y", second)))

	assert.Len(t, ledger.Entries(), 2)
	assert.Equal(t, 1, ledger.Count(model.LedgerWarning))
	assert.Equal(t, 1, ledger.Count(model.LedgerFailure))
	assert.Equal(t, []string{first.Error()}, []string(se.JobExecution.Warnings))
	assert.Equal(t, []string{second.Error()}, []string(se.JobExecution.Failures))
	assert.ErrorIs(t, ledger.Err(), first)
	assert.ErrorIs(t, ledger.Err(), second)
}

func TestMultiLedger_AttemptsEveryLedger(t *testing.T) {
	ctx := context.Background()
	broken := new(test.MockRunLedger)
	broken.On("Record", mock.Anything, mock.Anything).Return(errors.New("disk full"))
	recording := &test.RecordingLedger{}

	err := backuprestore.MultiLedger{broken, nil, recording}.Record(ctx, model.LedgerEntry{Kind: model.LedgerWarning})
	assert.ErrorContains(t, err, "disk full")
	assert.Equal(t, 1, recording.Count(model.LedgerWarning))
	broken.AssertNumberOfCalls(t, "Record", 1)
}
