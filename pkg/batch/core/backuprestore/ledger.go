package backuprestore

import (
	"context"
	"sync"

	model "github.com/tigerroll/surfin-backuprestore/pkg/batch/core/domain/model"
	repository "github.com/tigerroll/surfin-backuprestore/pkg/batch/core/domain/repository"

	"github.com/hashicorp/go-multierror"
)

// ExecutionLedger appends entries to the failures and warnings of a job
// execution and keeps them for the run report.
type ExecutionLedger struct {
	mu        sync.Mutex
	execution *model.JobExecution
	entries   []model.LedgerEntry
	errs      *multierror.Error
}

// NewExecutionLedger creates a ledger writing into execution.
func NewExecutionLedger(execution *model.JobExecution) *ExecutionLedger {
	return &ExecutionLedger{execution: execution}
}

// Record implements repository.RunLedger.
func (l *ExecutionLedger) Record(ctx context.Context, entry model.LedgerEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.execution != nil {
		switch entry.Kind {
		case model.LedgerFailure:
			l.execution.AddFailureException(entry.Err)
		case model.LedgerWarning:
			l.execution.AddWarningException(entry.Err)
		}
	}
	l.entries = append(l.entries, entry)
	if entry.Err != nil {
		l.errs = multierror.Append(l.errs, entry.Err)
	}
	return nil
}

// Entries returns a copy of the recorded entries.
func (l *ExecutionLedger) Entries() []model.LedgerEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]model.LedgerEntry(nil), l.entries...)
}

// Count returns the number of entries of the given kind.
func (l *ExecutionLedger) Count(kind model.LedgerEntryKind) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.entries {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// Err aggregates every recorded error, or returns nil.
func (l *ExecutionLedger) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.errs.ErrorOrNil()
}

// MultiLedger records every entry into each of its ledgers.
type MultiLedger []repository.RunLedger

// Record implements repository.RunLedger. Every ledger is attempted; errors are combined.
func (m MultiLedger) Record(ctx context.Context, entry model.LedgerEntry) error {
	var merr *multierror.Error
	for _, l := range m {
		if l == nil {
			continue
		}
		if err := l.Record(ctx, entry); err != nil {
			merr = multierror.Append(merr, err)
		}
	}
	return merr.ErrorOrNil()
}

var (
	_ repository.RunLedger = (*ExecutionLedger)(nil)
	_ repository.RunLedger = MultiLedger(nil)
)
