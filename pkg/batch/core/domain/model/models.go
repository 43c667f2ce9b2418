package model

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tigerroll/surfin-backuprestore/pkg/batch/support/util/exception"
	logger "github.com/tigerroll/surfin-backuprestore/pkg/batch/support/util/logger"
	"github.com/tigerroll/surfin-backuprestore/pkg/batch/support/util/serialization"
)

// JobStatus is the lifecycle state of a run or of one of its steps.
// Runs move STARTING -> STARTED -> COMPLETED | FAILED | STOPPED.
type JobStatus string

const (
	BatchStatusStarting  JobStatus = "STARTING"
	BatchStatusStarted   JobStatus = "STARTED"
	BatchStatusCompleted JobStatus = "COMPLETED"
	BatchStatusFailed    JobStatus = "FAILED"
	BatchStatusStopped   JobStatus = "STOPPED"
)

func (s JobStatus) String() string {
	return string(s)
}

// IsFinished reports whether no further transition is possible.
func (s JobStatus) IsFinished() bool {
	return s == BatchStatusCompleted || s == BatchStatusFailed || s == BatchStatusStopped
}

// canTransition is shared by runs and steps.
func canTransition(current, next JobStatus) bool {
	switch current {
	case BatchStatusStarting:
		return next == BatchStatusStarted || next == BatchStatusFailed || next == BatchStatusStopped
	case BatchStatusStarted:
		return next.IsFinished()
	default:
		return false
	}
}

// ExitStatus is the outcome a finished step or run reports.
type ExitStatus string

const (
	ExitStatusUnknown   ExitStatus = "UNKNOWN"
	ExitStatusCompleted ExitStatus = "COMPLETED"
	ExitStatusFailed    ExitStatus = "FAILED"
	ExitStatusStopped   ExitStatus = "STOPPED"
	// ExitStatusNoOp marks a step that completed without persisting anything (dry-run).
	ExitStatusNoOp ExitStatus = "NO_OP"
)

func (s ExitStatus) String() string {
	return string(s)
}

// ExecutionContext is the state a step shares with its run. Values must
// survive a JSON round trip when the run history is stored in a database.
type ExecutionContext map[string]interface{}

func NewExecutionContext() ExecutionContext {
	return make(ExecutionContext)
}

func (ec ExecutionContext) Put(key string, value interface{}) {
	ec[key] = value
}

func (ec ExecutionContext) Get(key string) (interface{}, bool) {
	val, ok := ec[key]
	return val, ok
}

func (ec ExecutionContext) GetString(key string) (string, bool) {
	str, ok := ec[key].(string)
	return str, ok
}

// GetInt also accepts float64, the type JSON numbers decode to.
func (ec ExecutionContext) GetInt(key string) (int, bool) {
	switch v := ec[key].(type) {
	case int:
		return v, true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func (ec ExecutionContext) GetBool(key string) (bool, bool) {
	b, ok := ec[key].(bool)
	return b, ok
}

// Copy returns a shallow copy.
func (ec ExecutionContext) Copy() ExecutionContext {
	out := make(ExecutionContext, len(ec))
	for k, v := range ec {
		out[k] = v
	}
	return out
}

// JobParameters are the raw parameters a run was launched with, such as
// BK_DRY_RUN or BK_PASSWORD_TOKENS. Values are usually strings.
type JobParameters struct {
	Params map[string]interface{}
}

func NewJobParameters() JobParameters {
	return JobParameters{Params: make(map[string]interface{})}
}

func (jp JobParameters) Put(key string, value interface{}) {
	jp.Params[key] = value
}

// Get returns nil when key is not set.
func (jp JobParameters) Get(key string) interface{} {
	if jp.Params == nil {
		return nil
	}
	return jp.Params[key]
}

func (jp JobParameters) GetString(key string) (string, bool) {
	str, ok := jp.Params[key].(string)
	return str, ok
}

// String renders the parameters as JSON with sensitive values masked.
func (jp JobParameters) String() string {
	data, err := json.Marshal(serialization.GetMaskedJobParametersMap(jp.Params))
	if err != nil {
		return fmt.Sprintf("{[ERROR: Failed to marshal masked parameters: %v]}", err)
	}
	return string(data)
}

// FailureList holds error messages in the order they were raised.
type FailureList []string

// NewID generates a new UUID string.
func NewID() string {
	return uuid.New().String()
}

// JobExecution is a single backup or restore run.
type JobExecution struct {
	ID               string
	JobName          string
	Parameters       JobParameters
	StartTime        time.Time
	EndTime          *time.Time
	Status           JobStatus
	ExitStatus       ExitStatus
	Failures         FailureList
	Warnings         FailureList
	CreateTime       time.Time
	LastUpdated      time.Time
	StepExecutions   []*StepExecution
	ExecutionContext ExecutionContext
	CurrentStepName  string
	CancelFunc       context.CancelFunc
}

// StepExecution is a single execution of one step of a run.
type StepExecution struct {
	ID               string
	StepName         string
	JobExecution     *JobExecution
	JobExecutionID   string
	StartTime        time.Time
	EndTime          *time.Time
	Status           JobStatus
	ExitStatus       ExitStatus
	Failures         FailureList
	ReadCount        int
	WriteCount       int
	FilterCount      int
	SkipProcessCount int
	ExecutionContext ExecutionContext
	LastUpdated      time.Time
}

// NewJobExecution creates a STARTING run.
func NewJobExecution(jobName string, params JobParameters) *JobExecution {
	now := time.Now()
	return &JobExecution{
		ID:               NewID(),
		JobName:          jobName,
		Parameters:       params,
		StartTime:        now,
		Status:           BatchStatusStarting,
		ExitStatus:       ExitStatusUnknown,
		CreateTime:       now,
		LastUpdated:      now,
		Failures:         make(FailureList, 0),
		Warnings:         make(FailureList, 0),
		StepExecutions:   make([]*StepExecution, 0),
		ExecutionContext: NewExecutionContext(),
	}
}

// TransitionTo changes the status, rejecting moves out of a finished state.
func (je *JobExecution) TransitionTo(newStatus JobStatus) error {
	if !canTransition(je.Status, newStatus) {
		return fmt.Errorf("JobExecution (ID: %s): Invalid state transition: %s -> %s", je.ID, je.Status, newStatus)
	}
	je.Status = newStatus
	return nil
}

// force applies next even when the transition is invalid, logging the violation.
func (je *JobExecution) force(next JobStatus) {
	if err := je.TransitionTo(next); err != nil {
		logger.Warnf("%v", err)
		je.Status = next
	}
	je.LastUpdated = time.Now()
}

func (je *JobExecution) end(next JobStatus, exit ExitStatus) {
	je.force(next)
	je.ExitStatus = exit
	now := je.LastUpdated
	je.EndTime = &now
}

func (je *JobExecution) MarkAsStarted() {
	je.force(BatchStatusStarted)
}

func (je *JobExecution) MarkAsCompleted() {
	je.end(BatchStatusCompleted, ExitStatusCompleted)
}

// MarkAsFailed finishes the run as FAILED and records err, if any.
func (je *JobExecution) MarkAsFailed(err error) {
	je.end(BatchStatusFailed, ExitStatusFailed)
	je.AddFailureException(err)
}

// MarkAsStopped finishes a run that was cancelled through the launcher.
func (je *JobExecution) MarkAsStopped() {
	je.end(BatchStatusStopped, ExitStatusStopped)
}

// AddFailureException records err once; repeated messages are dropped.
func (je *JobExecution) AddFailureException(err error) {
	if err == nil {
		return
	}
	je.Failures = appendUnique(je.Failures, exception.ExtractErrorMessage(err))
	je.LastUpdated = time.Now()
}

// AddWarningException records a non-fatal problem reported while the run kept going.
// Warnings are not de-duplicated: every downgraded resource is reported.
func (je *JobExecution) AddWarningException(err error) {
	if err == nil {
		return
	}
	je.Warnings = append(je.Warnings, exception.ExtractErrorMessage(err))
	je.LastUpdated = time.Now()
}

func (je *JobExecution) AddStepExecution(se *StepExecution) {
	je.StepExecutions = append(je.StepExecutions, se)
}

// NewStepExecution creates a STARTING step of jobExecution.
func NewStepExecution(id string, jobExecution *JobExecution, stepName string) *StepExecution {
	now := time.Now()
	return &StepExecution{
		ID:               id,
		StepName:         stepName,
		JobExecutionID:   jobExecution.ID,
		JobExecution:     jobExecution,
		StartTime:        now,
		Status:           BatchStatusStarting,
		ExitStatus:       ExitStatusUnknown,
		Failures:         make(FailureList, 0),
		ExecutionContext: NewExecutionContext(),
		LastUpdated:      now,
	}
}

// RunID returns the identifier of the run this step belongs to.
func (se *StepExecution) RunID() string {
	if se.JobExecution != nil && se.JobExecution.ID != "" {
		return se.JobExecution.ID
	}
	return se.JobExecutionID
}

// TransitionTo changes the status, rejecting moves out of a finished state.
func (se *StepExecution) TransitionTo(newStatus JobStatus) error {
	if !canTransition(se.Status, newStatus) {
		return fmt.Errorf("StepExecution (ID: %s): Invalid state transition: %s -> %s", se.ID, se.Status, newStatus)
	}
	se.Status = newStatus
	return nil
}

func (se *StepExecution) force(next JobStatus) {
	if err := se.TransitionTo(next); err != nil {
		logger.Warnf("%v", err)
		se.Status = next
	}
	se.LastUpdated = time.Now()
}

func (se *StepExecution) end(next JobStatus, exit ExitStatus) {
	se.force(next)
	se.ExitStatus = exit
	now := se.LastUpdated
	se.EndTime = &now
}

func (se *StepExecution) MarkAsStarted() {
	se.force(BatchStatusStarted)
}

// MarkAsCompleted finishes the step; an empty exitStatus means COMPLETED.
func (se *StepExecution) MarkAsCompleted(exitStatus ExitStatus) {
	if exitStatus == "" {
		exitStatus = ExitStatusCompleted
	}
	se.end(BatchStatusCompleted, exitStatus)
}

func (se *StepExecution) MarkAsFailed(err error) {
	se.end(BatchStatusFailed, ExitStatusFailed)
	se.AddFailureException(err)
}

func (se *StepExecution) MarkAsStopped() {
	se.end(BatchStatusStopped, ExitStatusStopped)
}

func (se *StepExecution) AddFailureException(err error) {
	if err == nil {
		return
	}
	se.Failures = appendUnique(se.Failures, exception.ExtractErrorMessage(err))
	se.LastUpdated = time.Now()
}

func appendUnique(list FailureList, msg string) FailureList {
	for _, existing := range list {
		if existing == msg {
			return list
		}
	}
	return append(list, msg)
}
