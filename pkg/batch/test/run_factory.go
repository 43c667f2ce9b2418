package test

import (
	"testing"

	"github.com/tigerroll/surfin-backuprestore/pkg/batch/catalog"
	model "github.com/tigerroll/surfin-backuprestore/pkg/batch/core/domain/model"
	"github.com/tigerroll/surfin-backuprestore/pkg/batch/infrastructure/repository/inmemory"

	"github.com/stretchr/testify/require"
)

// NewTestBackupRun registers a backup run over cat and returns its first step.
func NewTestBackupRun(t *testing.T, registry *inmemory.RunRegistry, cat catalog.Catalog, params map[string]interface{}) *model.StepExecution {
	t.Helper()
	je := NewTestJobExecution("catalogBackup", params)
	_, err := registry.RegisterBackup(je, cat)
	require.NoError(t, err)
	return NewTestStepExecution(je, "backupCatalog")
}

// NewTestRestoreRun registers a restore run into cat and returns its first step.
func NewTestRestoreRun(t *testing.T, registry *inmemory.RunRegistry, cat catalog.Catalog, params map[string]interface{}) *model.StepExecution {
	t.Helper()
	je := NewTestJobExecution("catalogRestore", params)
	_, err := registry.RegisterRestore(je, cat)
	require.NoError(t, err)
	return NewTestStepExecution(je, "restoreCatalog")
}
