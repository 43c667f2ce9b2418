package sql

import (
	model "github.com/tigerroll/surfin-backuprestore/pkg/batch/core/domain/model"
	logger "github.com/tigerroll/surfin-backuprestore/pkg/batch/support/util/logger"
	"github.com/tigerroll/surfin-backuprestore/pkg/batch/support/util/serialization"
)

func encodeContext(ec model.ExecutionContext) string {
	data, err := serialization.MarshalExecutionContext(ec)
	if err != nil {
		logger.Warnf("Failed to encode ExecutionContext: %v", err)
		return "{}"
	}
	return string(data)
}

func decodeContext(data string) model.ExecutionContext {
	ec := model.NewExecutionContext()
	if data == "" {
		return ec
	}
	m := map[string]interface{}(ec)
	if err := serialization.UnmarshalExecutionContext([]byte(data), &m); err != nil {
		logger.Warnf("Failed to decode ExecutionContext: %v", err)
		return model.NewExecutionContext()
	}
	return model.ExecutionContext(m)
}

func fromDomainJobExecution(je *model.JobExecution) *JobExecutionEntity {
	params, err := serialization.MarshalJobParameters(je.Parameters.Params)
	if err != nil {
		logger.Warnf("Failed to encode parameters of JobExecution (ID: %s): %v", je.ID, err)
		params = []byte("{}")
	}
	return &JobExecutionEntity{
		ID:               je.ID,
		JobName:          je.JobName,
		Parameters:       string(params),
		StartTime:        je.StartTime,
		EndTime:          je.EndTime,
		Status:           je.Status,
		ExitStatus:       je.ExitStatus,
		Failures:         je.Failures,
		Warnings:         je.Warnings,
		CreateTime:       je.CreateTime,
		LastUpdated:      je.LastUpdated,
		ExecutionContext: encodeContext(je.ExecutionContext),
		CurrentStepName:  je.CurrentStepName,
	}
}

func toDomainJobExecution(entity *JobExecutionEntity) *model.JobExecution {
	params := model.NewJobParameters()
	for k, v := range decodeContext(entity.Parameters) {
		params.Put(k, v)
	}
	return &model.JobExecution{
		ID:               entity.ID,
		JobName:          entity.JobName,
		Parameters:       params,
		StartTime:        entity.StartTime,
		EndTime:          entity.EndTime,
		Status:           entity.Status,
		ExitStatus:       entity.ExitStatus,
		Failures:         entity.Failures,
		Warnings:         entity.Warnings,
		CreateTime:       entity.CreateTime,
		LastUpdated:      entity.LastUpdated,
		ExecutionContext: decodeContext(entity.ExecutionContext),
		CurrentStepName:  entity.CurrentStepName,
		StepExecutions:   make([]*model.StepExecution, 0),
	}
}

func fromDomainStepExecution(se *model.StepExecution) *StepExecutionEntity {
	return &StepExecutionEntity{
		ID:               se.ID,
		StepName:         se.StepName,
		JobExecutionID:   se.RunID(),
		StartTime:        se.StartTime,
		EndTime:          se.EndTime,
		Status:           se.Status,
		ExitStatus:       se.ExitStatus,
		Failures:         se.Failures,
		ReadCount:        se.ReadCount,
		WriteCount:       se.WriteCount,
		FilterCount:      se.FilterCount,
		SkipProcessCount: se.SkipProcessCount,
		ExecutionContext: encodeContext(se.ExecutionContext),
		LastUpdated:      se.LastUpdated,
	}
}

func toDomainStepExecution(entity *StepExecutionEntity) *model.StepExecution {
	return &model.StepExecution{
		ID:               entity.ID,
		StepName:         entity.StepName,
		JobExecutionID:   entity.JobExecutionID,
		StartTime:        entity.StartTime,
		EndTime:          entity.EndTime,
		Status:           entity.Status,
		ExitStatus:       entity.ExitStatus,
		Failures:         entity.Failures,
		ReadCount:        entity.ReadCount,
		WriteCount:       entity.WriteCount,
		FilterCount:      entity.FilterCount,
		SkipProcessCount: entity.SkipProcessCount,
		ExecutionContext: decodeContext(entity.ExecutionContext),
		LastUpdated:      entity.LastUpdated,
		// JobExecution is hydrated by the caller.
	}
}

func fromDomainLedgerEntry(e model.LedgerEntry) *LedgerEntryEntity {
	return &LedgerEntryEntity{
		ID:         e.ID,
		RunID:      e.RunID,
		StepName:   e.StepName,
		Kind:       string(e.Kind),
		Resource:   e.Resource,
		Message:    e.Message,
		RecordedAt: e.RecordedAt,
	}
}

func toDomainLedgerEntry(entity *LedgerEntryEntity) model.LedgerEntry {
	return model.LedgerEntry{
		ID:         entity.ID,
		RunID:      entity.RunID,
		StepName:   entity.StepName,
		Kind:       model.LedgerEntryKind(entity.Kind),
		Resource:   entity.Resource,
		Message:    entity.Message,
		RecordedAt: entity.RecordedAt,
	}
}
