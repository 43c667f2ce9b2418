package sql

import (
	"context"
	"fmt"

	"github.com/tigerroll/surfin-backuprestore/pkg/batch/adapter/database"
	model "github.com/tigerroll/surfin-backuprestore/pkg/batch/core/domain/model"
	repository "github.com/tigerroll/surfin-backuprestore/pkg/batch/core/domain/repository"
	"github.com/tigerroll/surfin-backuprestore/pkg/batch/support/util/exception"
)

// GormLedgerStore keeps a durable copy of the failures and warnings of every run.
type GormLedgerStore struct {
	conn database.DBConnection
}

// NewGormLedgerStore creates a ledger store on conn. The tables must exist, see Migrate.
func NewGormLedgerStore(conn database.DBConnection) *GormLedgerStore {
	return &GormLedgerStore{conn: conn}
}

// Record implements repository.RunLedger. Recording the same entry twice is a no-op.
func (s *GormLedgerStore) Record(ctx context.Context, entry model.LedgerEntry) error {
	const op = "GormLedgerStore.Record"
	if entry.ID == "" {
		entry.ID = model.NewID()
	}
	if _, err := s.conn.ExecuteUpsert(ctx, fromDomainLedgerEntry(entry), []string{"id"}, nil); err != nil {
		return exception.NewBatchError(op, fmt.Sprintf("failed to record %s for %s", entry.Kind, entry.Resource), err, false, true)
	}
	return nil
}

// FindByRun returns the entries of a run in the order they were recorded.
func (s *GormLedgerStore) FindByRun(ctx context.Context, runID string) ([]model.LedgerEntry, error) {
	const op = "GormLedgerStore.FindByRun"
	var entities []LedgerEntryEntity

	err := s.conn.ExecuteQueryAdvanced(ctx, &entities, map[string]interface{}{"run_id": runID}, "recorded_at asc", 0)
	if err != nil {
		if s.conn.IsTableNotExistError(err) {
			return []model.LedgerEntry{}, nil
		}
		return nil, exception.NewBatchError(op, fmt.Sprintf("failed to read ledger of run %s", runID), err, false, true)
	}

	entries := make([]model.LedgerEntry, len(entities))
	for i := range entities {
		entries[i] = toDomainLedgerEntry(&entities[i])
	}
	return entries, nil
}

// CountByRun counts the entries of one kind recorded for a run.
func (s *GormLedgerStore) CountByRun(ctx context.Context, runID string, kind model.LedgerEntryKind) (int, error) {
	const op = "GormLedgerStore.CountByRun"
	count, err := s.conn.Count(ctx, &LedgerEntryEntity{}, map[string]interface{}{"run_id": runID, "kind": string(kind)})
	if err != nil {
		if s.conn.IsTableNotExistError(err) {
			return 0, nil
		}
		return 0, exception.NewBatchError(op, fmt.Sprintf("failed to count ledger of run %s", runID), err, false, true)
	}
	return int(count), nil
}

// Runs lists the IDs of the runs that recorded at least one entry.
func (s *GormLedgerStore) Runs(ctx context.Context) ([]string, error) {
	const op = "GormLedgerStore.Runs"
	var ids []string
	if err := s.conn.Pluck(ctx, &LedgerEntryEntity{}, "run_id", &ids, nil); err != nil {
		if s.conn.IsTableNotExistError(err) {
			return []string{}, nil
		}
		return nil, exception.NewBatchError(op, "failed to list ledger runs", err, false, true)
	}
	return ids, nil
}

var _ repository.RunLedger = (*GormLedgerStore)(nil)
