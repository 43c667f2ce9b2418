package listener

import (
	"github.com/tigerroll/surfin-backuprestore/pkg/batch/listener/logging"
	"github.com/tigerroll/surfin-backuprestore/pkg/batch/listener/notification"

	"go.uber.org/fx"
)

// Module aggregates the run listeners.
var Module = fx.Options(
	logging.Module,
	notification.Module,
)
