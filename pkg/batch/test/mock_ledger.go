package test

import (
	"context"
	"sync"

	model "github.com/tigerroll/surfin-backuprestore/pkg/batch/core/domain/model"
	repository "github.com/tigerroll/surfin-backuprestore/pkg/batch/core/domain/repository"

	"github.com/stretchr/testify/mock"
)

// MockRunLedger is a testify mock of repository.RunLedger.
type MockRunLedger struct {
	mock.Mock
}

// Record mocks the Record method.
func (m *MockRunLedger) Record(ctx context.Context, entry model.LedgerEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

// RecordingLedger keeps every entry it is given.
type RecordingLedger struct {
	mu      sync.Mutex
	Entries []model.LedgerEntry
}

// Record implements repository.RunLedger.
func (l *RecordingLedger) Record(ctx context.Context, entry model.LedgerEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Entries = append(l.Entries, entry)
	return nil
}

// Count returns the number of recorded entries of kind.
func (l *RecordingLedger) Count(kind model.LedgerEntryKind) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.Entries {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

var (
	_ repository.RunLedger = (*MockRunLedger)(nil)
	_ repository.RunLedger = (*RecordingLedger)(nil)
)
