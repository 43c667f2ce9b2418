package main

import (
	"context"
	"fmt"

	"github.com/tigerroll/surfin-backuprestore/pkg/batch/adapter/storage/local"
	"github.com/tigerroll/surfin-backuprestore/pkg/batch/core/application/usecase"
	"github.com/tigerroll/surfin-backuprestore/pkg/batch/core/backuprestore"
	config "github.com/tigerroll/surfin-backuprestore/pkg/batch/core/config"
	infraMetrics "github.com/tigerroll/surfin-backuprestore/pkg/batch/infrastructure/metrics"
	"github.com/tigerroll/surfin-backuprestore/pkg/batch/infrastructure/repository/inmemory"
	sqlrepo "github.com/tigerroll/surfin-backuprestore/pkg/batch/infrastructure/repository/sql"
	"github.com/tigerroll/surfin-backuprestore/pkg/batch/listener"
	logger "github.com/tigerroll/surfin-backuprestore/pkg/batch/support/util/logger"

	"go.uber.org/fx"
)

// applicationOptions builds the Fx options of one command run.
func applicationOptions(cfg *config.Config) []fx.Option {
	options := []fx.Option{
		fx.Supply(cfg),
		logger.Module,
		config.SectionsModule,
		infraMetrics.Module,
		inmemory.RegistryModule,
		local.Module,
		backuprestore.Module,
		listener.Module,
		usecase.Module,
	}
	if cfg.Surfin.BackupRestore.Ledger.Enabled {
		options = append(options, sqlrepo.Module)
	} else {
		options = append(options, inmemory.RepositoryModule)
	}
	return options
}

// runApplication starts the application with targets populated from the
// graph, calls fn and stops the application once fn returns.
func runApplication(ctx context.Context, cfg *config.Config, fn func() error, targets ...interface{}) error {
	app := fx.New(append(applicationOptions(cfg), fx.Populate(targets...))...)
	if err := app.Err(); err != nil {
		return fmt.Errorf("failed to build application: %w", err)
	}

	startCtx, cancel := context.WithTimeout(ctx, app.StartTimeout())
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return fmt.Errorf("failed to start application: %w", err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), app.StopTimeout())
		defer cancel()
		if stopErr := app.Stop(stopCtx); stopErr != nil {
			logger.Warnf("Failed to stop application cleanly: %v", stopErr)
		}
	}()

	return fn()
}

// withLauncher runs fn with the RunLauncher of a started application.
func withLauncher(ctx context.Context, cfg *config.Config, fn func(usecase.RunLauncher) error) error {
	var launcher usecase.RunLauncher
	return runApplication(ctx, cfg, func() error { return fn(launcher) }, &launcher)
}
