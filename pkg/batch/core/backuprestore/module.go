package backuprestore

import (
	"github.com/tigerroll/surfin-backuprestore/pkg/batch/catalog"

	"go.uber.org/fx"
)

// Module provides the ExecutionContextResolver with the default serializer and validator.
// Run registries, the configuration and metrics come from their own modules.
var Module = fx.Options(
	fx.Provide(func() PersisterFactory { return DefaultPersisterFactory }),
	fx.Provide(catalog.NewValidator),
	fx.Provide(NewExecutionContextResolver),
)
