package config

// Package config provides structures and utilities for managing application configuration.

import (
	dbconfig "github.com/tigerroll/surfin-backuprestore/pkg/batch/adapter/database/config"
	storageconfig "github.com/tigerroll/surfin-backuprestore/pkg/batch/adapter/storage/config"
)

// EmbeddedConfig holds the raw YAML configuration, typically read by main or embedded in the binary.
type EmbeddedConfig []byte

// LogLevel defines the logging level for the application.
type LogLevel string

const (
	LogLevelDebug  LogLevel = "DEBUG"
	LogLevelInfo   LogLevel = "INFO"
	LogLevelWarn   LogLevel = "WARN"
	LogLevelError  LogLevel = "ERROR"
	LogLevelSilent LogLevel = "SILENT"
)

// DefaultReplacementSeparator separates token=value pairs in the password tokens parameter.
const DefaultReplacementSeparator = ","

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// MaskedParameterKeys is a list of keys in JobParameters whose values should be masked in logs.
	MaskedParameterKeys []string `yaml:"masked_parameter_keys"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the logging level (e.g., "INFO", "DEBUG").
	Level string `yaml:"level"`
}

// SystemConfig holds system-wide settings.
type SystemConfig struct {
	// Timezone is the application timezone (e.g., "UTC", "Asia/Tokyo").
	Timezone string `yaml:"timezone"`
	// Logging is the logging configuration.
	Logging LoggingConfig `yaml:"logging"`
}

// LedgerConfig controls the durable copy of the per-run failure/warning ledger.
type LedgerConfig struct {
	// Enabled turns on persistence of ledger entries to Database.
	Enabled bool `yaml:"enabled"`
	// Database is the connection used by the ledger store.
	Database dbconfig.DatabaseConfig `yaml:"database"`
}

// BackupRestoreConfig holds defaults for catalog backup and restore runs.
type BackupRestoreConfig struct {
	// ReplacementSeparator is used when a run does not pass REPLACEMENT_SEPARATOR.
	ReplacementSeparator string `yaml:"replacement_separator"`
	// SensitiveConnectionKeys lists the store connection parameters replaced by
	// tokens when a backup runs with parameterized passwords.
	SensitiveConnectionKeys []string `yaml:"sensitive_connection_keys"`
	// Ledger configures the durable ledger store.
	Ledger LedgerConfig `yaml:"ledger"`
	// Archive is where backups are written and restores read from.
	Archive storageconfig.StorageConfig `yaml:"archive"`
}

// SurfinConfig holds all configuration under the "surfin" top-level key.
type SurfinConfig struct {
	System        SystemConfig        `yaml:"system"`
	Security      SecurityConfig      `yaml:"security"`
	BackupRestore BackupRestoreConfig `yaml:"backup_restore"`
}

// Config is the root structure for the entire application configuration.
type Config struct {
	Surfin SurfinConfig `yaml:"surfin"`
	// EmbeddedConfig holds configuration loaded from an embedded source, not from YAML.
	EmbeddedConfig EmbeddedConfig `yaml:"-"`
}

// GlobalConfig is a pointer to the configuration instance shared across the application.
// It is set by NewConfigProvider.
var GlobalConfig *Config

// PasswordTokensParameterKey is the job parameter carrying restore password
// tokens. It is masked whatever masked_parameter_keys says.
const PasswordTokensParameterKey = "BK_PASSWORD_TOKENS"

// GetMaskedParameterKeys returns the configured keys to mask plus
// PasswordTokensParameterKey.
func GetMaskedParameterKeys() []string {
	if GlobalConfig == nil {
		return defaultMaskedParameterKeys
	}
	keys := GlobalConfig.Surfin.Security.MaskedParameterKeys
	for _, k := range keys {
		if k == PasswordTokensParameterKey {
			return keys
		}
	}
	return append(append(make([]string, 0, len(keys)+1), keys...), PasswordTokensParameterKey)
}

var defaultMaskedParameterKeys = []string{"password", "api_key", "secret", PasswordTokensParameterKey}

// NewConfig returns a new instance of Config with default values.
func NewConfig() *Config {
	return &Config{
		Surfin: SurfinConfig{
			System: SystemConfig{
				Timezone: "UTC",
				Logging:  LoggingConfig{Level: "INFO"},
			},
			Security: SecurityConfig{
				MaskedParameterKeys: append([]string(nil), defaultMaskedParameterKeys...),
			},
			BackupRestore: BackupRestoreConfig{
				ReplacementSeparator:    DefaultReplacementSeparator,
				SensitiveConnectionKeys: []string{"passwd", "password", "url"},
				Ledger: LedgerConfig{
					Enabled: false,
					Database: dbconfig.DatabaseConfig{
						Type:     "sqlite",
						Database: "file:br_ledger?mode=memory&cache=shared",
						Pool:     dbconfig.PoolConfig{MaxOpenConns: 1, MaxIdleConns: 1},
					},
				},
				Archive: storageconfig.StorageConfig{
					Type:    "local",
					BaseDir: "./archives",
				},
			},
		},
	}
}
