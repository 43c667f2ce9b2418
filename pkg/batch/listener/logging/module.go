package logging

import (
	"go.uber.org/fx"

	port "github.com/tigerroll/surfin-backuprestore/pkg/batch/core/application/port"
)

// Module registers the logging listeners in the job and step listener groups.
var Module = fx.Options(
	fx.Provide(fx.Annotate(
		NewLoggingJobListener,
		fx.As(new(port.JobExecutionListener)),
		fx.ResultTags(port.JobListenerGroup),
	)),
	fx.Provide(fx.Annotate(
		NewLoggingStepListener,
		fx.As(new(port.StepExecutionListener)),
		fx.ResultTags(port.StepListenerGroup),
	)),
)
