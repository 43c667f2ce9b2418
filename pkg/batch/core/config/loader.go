package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/tigerroll/surfin-backuprestore/pkg/batch/support/util/exception"
	"github.com/tigerroll/surfin-backuprestore/pkg/batch/support/util/logger"

	"go.uber.org/fx"
)

// Package config provides utilities for loading configuration from YAML
// and environment variables.

const moduleName = "config"

// ConfigParams defines the dependencies for NewConfigProvider.
type ConfigParams struct {
	fx.In
	EmbeddedConfig EmbeddedConfig
	EnvFilePath    string              `name:"envFilePath" optional:"true"`
	Expander       EnvironmentExpander `optional:"true"`
}

// loadConfig loads defaults, merges the YAML document over them and finally
// applies environment overrides named after the yaml tag path
// (e.g. SURFIN_BACKUP_RESTORE_REPLACEMENT_SEPARATOR).
func loadConfig(envFilePath string, embeddedConfig EmbeddedConfig, expander EnvironmentExpander) (*Config, error) {
	if envFilePath != "" {
		if err := godotenv.Load(envFilePath); err != nil {
			logger.Warnf(".env file (%s) not found or could not be loaded: %v", envFilePath, err)
		}
	} else if err := godotenv.Load(); err != nil {
		logger.Debugf(".env file not found or could not be loaded: %v", err)
	}

	cfg := NewConfig()

	raw := []byte(embeddedConfig)
	if expander != nil && len(raw) > 0 {
		expanded, err := expander.Expand(raw)
		if err != nil {
			return nil, exception.NewBatchError(moduleName, "failed to expand environment placeholders in config", err, false, false)
		}
		raw = expanded
	}

	var yamlConfig Config
	if err := yaml.Unmarshal(raw, &yamlConfig); err != nil {
		return nil, exception.NewBatchError(moduleName, "failed to unmarshal embedded config", err, false, false)
	}
	mergeConfig(cfg, &yamlConfig)

	if err := loadStructFromEnv(reflect.ValueOf(cfg).Elem(), ""); err != nil {
		return nil, exception.NewBatchError(moduleName, "failed to load config from environment variables", err, false, false)
	}
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	cfg.EmbeddedConfig = embeddedConfig
	return cfg, nil
}

// NewConfigProvider is an Fx provider that loads and provides *Config.
// It also publishes the result as GlobalConfig and applies the log level.
func NewConfigProvider(params ConfigParams) (*Config, error) {
	cfg, err := loadConfig(params.EnvFilePath, params.EmbeddedConfig, params.Expander)
	if err != nil {
		return nil, err
	}

	GlobalConfig = cfg

	logger.SetLogLevel(cfg.Surfin.System.Logging.Level)
	logger.Debugf("Log level set to: %s", cfg.Surfin.System.Logging.Level)
	return cfg, nil
}

// LoadConfig loads configuration without going through Fx.
func LoadConfig(envFilePath string, embeddedConfig EmbeddedConfig) (*Config, error) {
	return loadConfig(envFilePath, embeddedConfig, NewOsEnvironmentExpander())
}

// validateConfig rejects settings the engine cannot run with.
func validateConfig(cfg *Config) error {
	if cfg.Surfin.BackupRestore.ReplacementSeparator == "" {
		return exception.NewBatchError(moduleName, "backup_restore.replacement_separator must not be empty", nil, false, false)
	}
	if cfg.Surfin.BackupRestore.Ledger.Enabled && cfg.Surfin.BackupRestore.Ledger.Database.Type == "" {
		return exception.NewBatchError(moduleName, "backup_restore.ledger.database.type is required when the ledger is enabled", nil, false, false)
	}
	return nil
}

// mergeConfig performs a deep merge from sourceConfig into destConfig.
// Values in sourceConfig overwrite destConfig when they are not zero values.
func mergeConfig(destConfig, sourceConfig *Config) {
	mergeSurfinConfig(&destConfig.Surfin, &sourceConfig.Surfin)
}

func mergeSurfinConfig(dest, source *SurfinConfig) {
	mergeSystemConfig(&dest.System, &source.System)

	if source.Security.MaskedParameterKeys != nil {
		dest.Security.MaskedParameterKeys = source.Security.MaskedParameterKeys
	}

	mergeBackupRestoreConfig(&dest.BackupRestore, &source.BackupRestore)
}

func mergeSystemConfig(dest, source *SystemConfig) {
	if source.Timezone != "" {
		dest.Timezone = source.Timezone
	}
	if source.Logging.Level != "" {
		dest.Logging.Level = source.Logging.Level
	}
}

func mergeBackupRestoreConfig(dest, source *BackupRestoreConfig) {
	if source.ReplacementSeparator != "" {
		dest.ReplacementSeparator = source.ReplacementSeparator
	}
	if source.SensitiveConnectionKeys != nil {
		dest.SensitiveConnectionKeys = source.SensitiveConnectionKeys
	}
	if source.Ledger.Enabled {
		dest.Ledger.Enabled = true
	}
	// A ledger database block replaces the default one as a whole.
	if source.Ledger.Database.Type != "" {
		dest.Ledger.Database = source.Ledger.Database
	}
	if source.Archive.Type != "" {
		dest.Archive.Type = source.Archive.Type
	}
	if source.Archive.BucketName != "" {
		dest.Archive.BucketName = source.Archive.BucketName
	}
	if source.Archive.BaseDir != "" {
		dest.Archive.BaseDir = source.Archive.BaseDir
	}
}

// loadStructFromEnv recursively loads configuration values into a struct from environment variables.
// It uses the "yaml" tag to build the environment variable name.
func loadStructFromEnv(val reflect.Value, prefix string) error {
	typ := val.Type()
	for i := 0; i < typ.NumField(); i++ {
		field := val.Field(i)
		fieldType := typ.Field(i)
		yamlTag := strings.Split(fieldType.Tag.Get("yaml"), ",")[0]
		if yamlTag == "" || yamlTag == "-" {
			continue
		}
		envVarName := strings.ToUpper(prefix + yamlTag)

		if field.Kind() == reflect.Struct {
			if err := loadStructFromEnv(field, envVarName+"_"); err != nil {
				return err
			}
			continue
		}

		envValue, exists := os.LookupEnv(envVarName)
		if !exists {
			continue
		}
		if err := setField(field, envValue); err != nil {
			return fmt.Errorf("failed to set field '%s' from env var '%s': %w", fieldType.Name, envVarName, err)
		}
	}
	return nil
}

// setField sets the value of a reflect.Value field based on its kind.
// String slices are read as comma separated lists.
func setField(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		intValue, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(intValue)
	case reflect.Float64, reflect.Float32:
		floatValue, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(floatValue)
	case reflect.Bool:
		boolValue, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(boolValue)
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return nil
		}
		parts := strings.Split(value, ",")
		items := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				items = append(items, p)
			}
		}
		field.Set(reflect.ValueOf(items))
	}
	return nil
}
