package metrics

import (
	"context"
	"time"

	metrics "github.com/tigerroll/surfin-backuprestore/pkg/batch/core/metrics"
	model "github.com/tigerroll/surfin-backuprestore/pkg/batch/core/domain/model"
	logger "github.com/tigerroll/surfin-backuprestore/pkg/batch/support/util/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// PrometheusRecorder is a Prometheus implementation of the metrics.MetricRecorder interface.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	// Job Metrics
	jobDurationSeconds *prometheus.HistogramVec
	jobStatusCounter   *prometheus.CounterVec

	// Step Metrics
	stepDurationSeconds *prometheus.HistogramVec
	stepStatusCounter   *prometheus.CounterVec
	stepWriteCount      *prometheus.CounterVec

	// Backup/restore Metrics
	contextResolved   *prometheus.CounterVec
	contextFailures   *prometheus.CounterVec
	policyOutcomes    *prometheus.CounterVec
	resourcesFiltered *prometheus.CounterVec
	durations         *prometheus.HistogramVec
}

// NewPrometheusRecorder creates a new instance of PrometheusRecorder with its own registry.
func NewPrometheusRecorder() *PrometheusRecorder {
	registry := prometheus.NewRegistry()

	// Register Go standard metrics and process/OS metrics.
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &PrometheusRecorder{
		registry: registry,
		jobDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "catalog_br_job_duration_seconds",
			Help:    "Duration of backup and restore job executions.",
			Buckets: prometheus.DefBuckets,
		}, []string{"job_name", "status", "exit_status"}),
		jobStatusCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catalog_br_job_status_total",
			Help: "Total number of backup and restore job executions by status.",
		}, []string{"job_name", "status"}),
		stepDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "catalog_br_step_duration_seconds",
			Help:    "Duration of backup and restore step executions.",
			Buckets: prometheus.DefBuckets,
		}, []string{"job_name", "step_name", "status", "exit_status"}),
		stepStatusCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catalog_br_step_status_total",
			Help: "Total number of step executions by status.",
		}, []string{"job_name", "step_name", "status"}),
		stepWriteCount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catalog_br_step_write_total",
			Help: "Total resources written by step.",
		}, []string{"step_name"}),
		contextResolved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catalog_br_context_resolved_total",
			Help: "Total step execution contexts resolved by run mode.",
		}, []string{"mode"}),
		contextFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catalog_br_context_failures_total",
			Help: "Total failed step execution context resolutions by reason.",
		}, []string{"reason"}),
		policyOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catalog_br_policy_outcomes_total",
			Help: "Total validation failure policy outcomes by step and outcome.",
		}, []string{"step_name", "outcome"}),
		resourcesFiltered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catalog_br_resources_filtered_total",
			Help: "Total catalog resources excluded by the resource filter.",
		}, []string{"step_name", "kind"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "catalog_br_operation_duration_seconds",
			Help:    "Duration of named operations.",
			Buckets: prometheus.DefBuckets,
		}, []string{"name"}),
	}

	registry.MustRegister(
		r.jobDurationSeconds,
		r.jobStatusCounter,
		r.stepDurationSeconds,
		r.stepStatusCounter,
		r.stepWriteCount,
		r.contextResolved,
		r.contextFailures,
		r.policyOutcomes,
		r.resourcesFiltered,
		r.durations,
	)

	return r
}

// GetRegistry returns the Prometheus registry.
func (r *PrometheusRecorder) GetRegistry() *prometheus.Registry {
	return r.registry
}

// RecordJobStart records the start of a JobExecution.
func (r *PrometheusRecorder) RecordJobStart(ctx context.Context, execution *model.JobExecution) {
	r.jobStatusCounter.WithLabelValues(execution.JobName, execution.Status.String()).Inc()
	logger.Debugf("Metrics: Job '%s' started.", execution.JobName)
}

// RecordJobEnd records the end of a JobExecution.
func (r *PrometheusRecorder) RecordJobEnd(ctx context.Context, execution *model.JobExecution) {
	if execution.EndTime == nil {
		return
	}
	duration := execution.EndTime.Sub(execution.StartTime).Seconds()

	r.jobDurationSeconds.WithLabelValues(
		execution.JobName,
		execution.Status.String(),
		execution.ExitStatus.String(),
	).Observe(duration)
	r.jobStatusCounter.WithLabelValues(execution.JobName, execution.Status.String()).Inc()

	logger.Debugf("Metrics: Job '%s' ended. Duration: %.3fs", execution.JobName, duration)
}

// RecordStepStart records the start of a StepExecution.
func (r *PrometheusRecorder) RecordStepStart(ctx context.Context, execution *model.StepExecution) {
	r.stepStatusCounter.WithLabelValues(jobNameOf(execution), execution.StepName, execution.Status.String()).Inc()
	logger.Debugf("Metrics: Step '%s' started.", execution.StepName)
}

// RecordStepEnd records the end of a StepExecution.
func (r *PrometheusRecorder) RecordStepEnd(ctx context.Context, execution *model.StepExecution) {
	if execution.EndTime == nil {
		return
	}
	duration := execution.EndTime.Sub(execution.StartTime).Seconds()
	jobName := jobNameOf(execution)

	r.stepDurationSeconds.WithLabelValues(
		jobName,
		execution.StepName,
		execution.Status.String(),
		execution.ExitStatus.String(),
	).Observe(duration)
	r.stepStatusCounter.WithLabelValues(jobName, execution.StepName, execution.Status.String()).Inc()

	logger.Debugf("Metrics: Step '%s' ended. Duration: %.3fs", execution.StepName, duration)
}

// RecordContextResolved counts a resolved step execution context.
func (r *PrometheusRecorder) RecordContextResolved(ctx context.Context, mode string) {
	r.contextResolved.WithLabelValues(mode).Inc()
}

// RecordContextFailure counts a failed resolution.
func (r *PrometheusRecorder) RecordContextFailure(ctx context.Context, reason string) {
	r.contextFailures.WithLabelValues(reason).Inc()
}

// RecordPolicyOutcome counts a validation failure policy outcome.
func (r *PrometheusRecorder) RecordPolicyOutcome(ctx context.Context, stepName string, outcome string) {
	r.policyOutcomes.WithLabelValues(stepName, outcome).Inc()
}

// RecordResourceFiltered counts a filtered resource.
func (r *PrometheusRecorder) RecordResourceFiltered(ctx context.Context, stepName string, kind string) {
	r.resourcesFiltered.WithLabelValues(stepName, kind).Inc()
}

// RecordItemWrite adds count written resources.
func (r *PrometheusRecorder) RecordItemWrite(ctx context.Context, stepName string, count int) {
	r.stepWriteCount.WithLabelValues(stepName).Add(float64(count))
}

// RecordDuration observes a named duration. Tags are logged, not used as labels.
func (r *PrometheusRecorder) RecordDuration(ctx context.Context, name string, duration time.Duration, tags map[string]string) {
	r.durations.WithLabelValues(name).Observe(duration.Seconds())
	logger.Debugf("Metrics: '%s' took %s %v", name, duration, tags)
}

func jobNameOf(execution *model.StepExecution) string {
	if execution.JobExecution == nil {
		return ""
	}
	return execution.JobExecution.JobName
}

var _ metrics.MetricRecorder = (*PrometheusRecorder)(nil)
