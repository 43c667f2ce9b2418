// Package config provides core configuration structures and utilities.
// This file defines the Fx providers for configuration-related components.
package config

import "go.uber.org/fx"

// NewLoggingConfigProvider extracts *LoggingConfig from *Config.
func NewLoggingConfigProvider(cfg *Config) *LoggingConfig {
	return &cfg.Surfin.System.Logging
}

// NewBackupRestoreConfigProvider extracts *BackupRestoreConfig from *Config so
// the resolver and the ledger store depend only on their own section.
func NewBackupRestoreConfigProvider(cfg *Config) *BackupRestoreConfig {
	return &cfg.Surfin.BackupRestore
}

// SectionsModule provides the sections of the *Config in the graph.
var SectionsModule = fx.Options(
	fx.Provide(NewLoggingConfigProvider),
	fx.Provide(NewBackupRestoreConfigProvider),
)

// Module loads *Config from the supplied EmbeddedConfig and provides it with its sections.
// Applications that load the configuration themselves fx.Supply it with SectionsModule instead.
var Module = fx.Options(
	fx.Provide(func() EnvironmentExpander {
		return NewOsEnvironmentExpander()
	}),
	fx.Provide(NewConfigProvider),
	SectionsModule,
)
