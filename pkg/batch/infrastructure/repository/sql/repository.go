package sql

import (
	"context"
	"fmt"
	"time"

	"github.com/tigerroll/surfin-backuprestore/pkg/batch/adapter/database"
	model "github.com/tigerroll/surfin-backuprestore/pkg/batch/core/domain/model"
	repository "github.com/tigerroll/surfin-backuprestore/pkg/batch/core/domain/repository"
	"github.com/tigerroll/surfin-backuprestore/pkg/batch/support/util/exception"
	logger "github.com/tigerroll/surfin-backuprestore/pkg/batch/support/util/logger"
)

var (
	jobExecutionUpdateColumns = []string{
		"end_time", "status", "exit_status", "failures", "warnings",
		"last_updated", "execution_context", "current_step_name",
	}
	stepExecutionUpdateColumns = []string{
		"end_time", "status", "exit_status", "failures", "read_count", "write_count",
		"filter_count", "skip_process_count", "execution_context", "last_updated",
	}
)

// SQLJobRepository implements repository.JobRepository on a database connection.
type SQLJobRepository struct {
	conn database.DBConnection
}

// NewSQLJobRepository creates a new instance of SQLJobRepository.
func NewSQLJobRepository(conn database.DBConnection) *SQLJobRepository {
	return &SQLJobRepository{conn: conn}
}

func (r *SQLJobRepository) SaveJobExecution(ctx context.Context, jobExecution *model.JobExecution) error {
	const op = "SQLJobRepository.SaveJobExecution"
	entity := fromDomainJobExecution(jobExecution)

	if _, err := r.conn.ExecuteInsert(ctx, entity); err != nil {
		return exception.NewBatchError(op, fmt.Sprintf("failed to save JobExecution (ID: %s)", jobExecution.ID), err, false, true)
	}
	return nil
}

func (r *SQLJobRepository) UpdateJobExecution(ctx context.Context, jobExecution *model.JobExecution) error {
	const op = "SQLJobRepository.UpdateJobExecution"
	jobExecution.LastUpdated = time.Now()
	entity := fromDomainJobExecution(jobExecution)

	if _, err := r.conn.ExecuteUpsert(ctx, entity, []string{"id"}, jobExecutionUpdateColumns); err != nil {
		return exception.NewBatchError(op, fmt.Sprintf("failed to update JobExecution (ID: %s)", jobExecution.ID), err, false, true)
	}
	return nil
}

func (r *SQLJobRepository) FindJobExecutionByID(ctx context.Context, executionID string) (*model.JobExecution, error) {
	const op = "SQLJobRepository.FindJobExecutionByID"
	var entities []JobExecutionEntity

	err := r.conn.ExecuteQueryAdvanced(ctx, &entities, map[string]interface{}{"id": executionID}, "", 1)
	if err != nil {
		if r.conn.IsTableNotExistError(err) {
			return nil, repository.ErrJobExecutionNotFound
		}
		return nil, exception.NewBatchError(op, fmt.Sprintf("failed to find JobExecution by ID: %s", executionID), err, false, true)
	}
	if len(entities) == 0 {
		return nil, repository.ErrJobExecutionNotFound
	}

	domainExecution := toDomainJobExecution(&entities[0])
	stepExecutions, err := r.FindStepExecutionsByJobExecutionID(ctx, executionID)
	if err != nil {
		logger.Errorf("%s: Failed to load StepExecutions for JobExecution (ID: %s): %v", op, executionID, err)
		return domainExecution, nil
	}
	for _, se := range stepExecutions {
		se.JobExecution = domainExecution
	}
	domainExecution.StepExecutions = stepExecutions
	return domainExecution, nil
}

// FindStepExecutionsByJobExecutionID retrieves the steps of a run in start order.
func (r *SQLJobRepository) FindStepExecutionsByJobExecutionID(ctx context.Context, jobExecutionID string) ([]*model.StepExecution, error) {
	const op = "SQLJobRepository.FindStepExecutionsByJobExecutionID"
	var entities []StepExecutionEntity

	err := r.conn.ExecuteQueryAdvanced(ctx, &entities, map[string]interface{}{"job_execution_id": jobExecutionID}, "start_time asc", 0)
	if err != nil {
		if r.conn.IsTableNotExistError(err) {
			return []*model.StepExecution{}, nil
		}
		return nil, exception.NewBatchError(op, fmt.Sprintf("failed to find StepExecutions by JobExecution ID: %s", jobExecutionID), err, false, true)
	}

	domainExecutions := make([]*model.StepExecution, len(entities))
	for i := range entities {
		domainExecutions[i] = toDomainStepExecution(&entities[i])
	}
	return domainExecutions, nil
}

// FindJobExecutionsByJobName returns the latest runs of jobName, newest first.
func (r *SQLJobRepository) FindJobExecutionsByJobName(ctx context.Context, jobName string, limit int) ([]*model.JobExecution, error) {
	const op = "SQLJobRepository.FindJobExecutionsByJobName"
	var entities []JobExecutionEntity

	err := r.conn.ExecuteQueryAdvanced(ctx, &entities, map[string]interface{}{"job_name": jobName}, "create_time desc", limit)
	if err != nil {
		if r.conn.IsTableNotExistError(err) {
			return []*model.JobExecution{}, nil
		}
		return nil, exception.NewBatchError(op, fmt.Sprintf("failed to list runs of %s", jobName), err, false, true)
	}

	runs := make([]*model.JobExecution, len(entities))
	for i := range entities {
		runs[i] = toDomainJobExecution(&entities[i])
	}
	return runs, nil
}


func (r *SQLJobRepository) SaveStepExecution(ctx context.Context, stepExecution *model.StepExecution) error {
	const op = "SQLJobRepository.SaveStepExecution"
	entity := fromDomainStepExecution(stepExecution)

	if _, err := r.conn.ExecuteInsert(ctx, entity); err != nil {
		return exception.NewBatchError(op, fmt.Sprintf("failed to save StepExecution (ID: %s)", stepExecution.ID), err, false, true)
	}
	return nil
}

func (r *SQLJobRepository) UpdateStepExecution(ctx context.Context, stepExecution *model.StepExecution) error {
	const op = "SQLJobRepository.UpdateStepExecution"
	stepExecution.LastUpdated = time.Now()
	entity := fromDomainStepExecution(stepExecution)

	if _, err := r.conn.ExecuteUpsert(ctx, entity, []string{"id"}, stepExecutionUpdateColumns); err != nil {
		return exception.NewBatchError(op, fmt.Sprintf("failed to update StepExecution (ID: %s)", stepExecution.ID), err, false, true)
	}
	return nil
}

func (r *SQLJobRepository) FindStepExecutionByID(ctx context.Context, executionID string) (*model.StepExecution, error) {
	const op = "SQLJobRepository.FindStepExecutionByID"
	var entities []StepExecutionEntity

	err := r.conn.ExecuteQueryAdvanced(ctx, &entities, map[string]interface{}{"id": executionID}, "", 1)
	if err != nil {
		if r.conn.IsTableNotExistError(err) {
			return nil, repository.ErrStepExecutionNotFound
		}
		return nil, exception.NewBatchError(op, fmt.Sprintf("failed to find StepExecution by ID: %s", executionID), err, false, true)
	}
	if len(entities) == 0 {
		return nil, repository.ErrStepExecutionNotFound
	}
	return toDomainStepExecution(&entities[0]), nil
}

// Close implements repository.JobRepository. The connection is closed by its owner.
func (r *SQLJobRepository) Close() error {
	return nil
}

var _ repository.JobRepository = (*SQLJobRepository)(nil)
