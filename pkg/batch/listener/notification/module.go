package notification

import (
	"go.uber.org/fx"

	port "github.com/tigerroll/surfin-backuprestore/pkg/batch/core/application/port"
)

// Module provides the log notifier and registers the notification listener
// in the job listener group.
var Module = fx.Options(
	fx.Provide(fx.Annotate(
		NewLogNotifier,
		fx.As(new(Notifier)),
	)),
	fx.Provide(fx.Annotate(
		NewNotificationListener,
		fx.As(new(port.JobExecutionListener)),
		fx.ResultTags(port.JobListenerGroup),
	)),
)
