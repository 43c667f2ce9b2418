package sql

import (
	"time"

	model "github.com/tigerroll/surfin-backuprestore/pkg/batch/core/domain/model"
)

// The tables are created by the versioned scripts under migrations/, which
// must be kept in step with the entities below.

// JobExecutionEntity is the persisted form of a backup or restore run.
// Parameters are stored masked.
type JobExecutionEntity struct {
	ID               string `gorm:"primaryKey;size:64"`
	JobName          string `gorm:"index;size:128"`
	Parameters       string `gorm:"type:text"`
	StartTime        time.Time
	EndTime          *time.Time
	Status           model.JobStatus   `gorm:"size:32"`
	ExitStatus       model.ExitStatus  `gorm:"size:32"`
	Failures         model.FailureList `gorm:"serializer:json"`
	Warnings         model.FailureList `gorm:"serializer:json"`
	CreateTime       time.Time
	LastUpdated      time.Time
	ExecutionContext string `gorm:"type:text"`
	CurrentStepName  string `gorm:"size:128"`
}

func (JobExecutionEntity) TableName() string {
	return "br_job_execution"
}

// StepExecutionEntity is the persisted form of a step execution.
type StepExecutionEntity struct {
	ID               string `gorm:"primaryKey;size:64"`
	StepName         string `gorm:"size:128"`
	JobExecutionID   string `gorm:"index;size:64"`
	StartTime        time.Time
	EndTime          *time.Time
	Status           model.JobStatus   `gorm:"size:32"`
	ExitStatus       model.ExitStatus  `gorm:"size:32"`
	Failures         model.FailureList `gorm:"serializer:json"`
	ReadCount        int
	WriteCount       int
	FilterCount      int
	SkipProcessCount int
	ExecutionContext string `gorm:"type:text"`
	LastUpdated      time.Time
}

func (StepExecutionEntity) TableName() string {
	return "br_step_execution"
}

// LedgerEntryEntity is one failure or warning recorded during a run.
type LedgerEntryEntity struct {
	ID         string `gorm:"primaryKey;size:64"`
	RunID      string `gorm:"index;size:64"`
	StepName   string `gorm:"size:128"`
	Kind       string `gorm:"index;size:16"`
	Resource   string `gorm:"size:512"`
	Message    string `gorm:"type:text"`
	RecordedAt time.Time
}

func (LedgerEntryEntity) TableName() string {
	return "br_run_ledger"
}
