package inmemory

import (
	"go.uber.org/fx"

	repository "github.com/tigerroll/surfin-backuprestore/pkg/batch/core/domain/repository"
)

// RegistryModule provides one RunRegistry serving the backup and restore
// registry interfaces and the registrar.
var RegistryModule = fx.Options(
	fx.Provide(
		fx.Annotate(
			NewRunRegistry,
			fx.As(fx.Self()),
			fx.As(new(repository.BackupRunRegistry)),
			fx.As(new(repository.RestoreRunRegistry)),
			fx.As(new(repository.RunRegistrar)),
		),
	),
)

// RepositoryModule provides the in-memory job repository.
var RepositoryModule = fx.Options(
	fx.Provide(
		fx.Annotate(
			NewInMemoryJobRepository,
			fx.As(new(repository.JobRepository)),
		),
	),
)

// Module provides both the registry and the in-memory job repository.
var Module = fx.Options(RegistryModule, RepositoryModule)
