package config

// StorageConfig holds configuration for the archive storage connection.
type StorageConfig struct {
	Type       string `yaml:"type"`        // Type of storage. Only "local" is built in.
	BucketName string `yaml:"bucket_name"` // Default bucket name for operations.
	BaseDir    string `yaml:"base_dir"`    // Base directory for local file system operations.
}
