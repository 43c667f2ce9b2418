// Package test holds factories and mocks shared by the package tests.
package test

import (
	"time"

	model "github.com/tigerroll/surfin-backuprestore/pkg/batch/core/domain/model"
)

// NewTestJobParameters creates JobParameters for testing.
func NewTestJobParameters(params map[string]interface{}) model.JobParameters {
	jp := model.NewJobParameters()
	for k, v := range params {
		jp.Put(k, v)
	}
	return jp
}

// NewTestJobExecution creates a JobExecution for testing.
func NewTestJobExecution(jobName string, params map[string]interface{}) *model.JobExecution {
	return model.NewJobExecution(jobName, NewTestJobParameters(params))
}

// NewTestStepExecution creates a StepExecution attached to jobExecution.
func NewTestStepExecution(jobExecution *model.JobExecution, stepName string) *model.StepExecution {
	se := model.NewStepExecution(model.NewID(), jobExecution, stepName)
	jobExecution.AddStepExecution(se)
	return se
}

// MarkStepAsCompleted sets the StepExecution to a completed state.
func MarkStepAsCompleted(se *model.StepExecution) {
	se.MarkAsCompleted(model.ExitStatusCompleted)
}

// NewTestExecutionContext creates an ExecutionContext for testing.
func NewTestExecutionContext(data map[string]interface{}) model.ExecutionContext {
	ec := model.NewExecutionContext()
	for k, v := range data {
		ec.Put(k, v)
	}
	return ec
}

// NewTimePtr returns a pointer to time.Time.
func NewTimePtr(t time.Time) *time.Time {
	return &t
}
