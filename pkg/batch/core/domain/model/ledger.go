package model

import (
	"time"

	"github.com/tigerroll/surfin-backuprestore/pkg/batch/support/util/exception"
)

// LedgerEntryKind classifies a ledger entry.
type LedgerEntryKind string

const (
	// LedgerFailure is recorded for a resource that aborts the step (strict mode).
	LedgerFailure LedgerEntryKind = "FAILURE"
	// LedgerWarning is recorded for a resource skipped in best-effort mode.
	LedgerWarning LedgerEntryKind = "WARNING"
)

// LedgerEntry is one audit record of a validation problem within a run.
type LedgerEntry struct {
	ID         string
	RunID      string
	StepName   string
	Kind       LedgerEntryKind
	Resource   string
	Message    string
	Err        error `json:"-"`
	RecordedAt time.Time
}

// NewLedgerEntry builds an entry for the step's run.
func NewLedgerEntry(stepExecution *StepExecution, kind LedgerEntryKind, resource string, err error) LedgerEntry {
	entry := LedgerEntry{
		ID:         NewID(),
		Kind:       kind,
		Resource:   resource,
		Message:    exception.ExtractErrorMessage(err),
		Err:        err,
		RecordedAt: time.Now(),
	}
	if stepExecution != nil {
		entry.RunID = stepExecution.RunID()
		entry.StepName = stepExecution.StepName
	}
	return entry
}
