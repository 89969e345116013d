package config

import (
	"errors"
	"fmt"
	"runtime"
	"slices"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for tsmigrate
type Config struct {
	Log      LogConfig
	Snapshot SnapshotConfig
	Output   OutputConfig
	Storage  StorageConfig
	Ingest   IngestConfig
}

type LogConfig struct {
	Level  string
	Format string // json or console
}

type SnapshotConfig struct {
	DefaultSchema string // Schema for entities that name none
}

type OutputConfig struct {
	Format        string // Migration script format: goose or plain
	MigrationsDir string // Store key prefix migration files are written under
	SnapshotPath  string // Store key of the committed snapshot
}

type StorageConfig struct {
	Backend   string // local, s3 or azure
	LocalPath string
	// S3/MinIO configuration
	S3Bucket    string
	S3Prefix    string
	S3Region    string
	S3Endpoint  string // Custom endpoint for MinIO (e.g., "http://localhost:9000")
	S3AccessKey string // AWS access key (or use AWS_ACCESS_KEY_ID env var)
	S3SecretKey string // AWS secret key (or use AWS_SECRET_ACCESS_KEY env var)
	S3UseSSL    bool   // Use HTTPS for S3 connections
	S3PathStyle bool   // Use path-style addressing (required for MinIO)
	// Azure Blob Storage configuration
	AzureConnectionString   string // Connection string (simplest auth method)
	AzureAccountName        string // Storage account name
	AzureAccountKey         string // Storage account key
	AzureSASToken           string // SAS token for scoped access
	AzureContainer          string // Container name
	AzurePrefix             string
	AzureEndpoint           string // Custom endpoint (for Azurite testing)
	AzureUseManagedIdentity bool   // Use managed identity (Azure-hosted deployments)
}

type IngestConfig struct {
	DatabaseURL string // PostgreSQL connection string
	Workers     int    // Parallel COPY workers, one connection each (default: CPU count, max 16)
	BatchSize   int    // Rows per COPY batch
}

var (
	validFormats    = []string{"goose", "plain"}
	validBackends   = []string{"local", "s3", "minio", "azure", "azblob"}
	validLogFormats = []string{"json", "console"}
	validLogLevels  = []string{"debug", "info", "warn", "warning", "error", "fatal", "panic"}
)

// Load reads configuration from defaults, an optional tsmigrate.toml and TSMIGRATE_* environment variables
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("TSMIGRATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("tsmigrate")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/tsmigrate/")
	v.AddConfigPath("$HOME/.tsmigrate/")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	cfg := fromViper(v)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		Snapshot: SnapshotConfig{
			DefaultSchema: v.GetString("snapshot.default_schema"),
		},
		Output: OutputConfig{
			Format:        strings.ToLower(v.GetString("output.format")),
			MigrationsDir: v.GetString("output.migrations_dir"),
			SnapshotPath:  v.GetString("output.snapshot_path"),
		},
		Storage: StorageConfig{
			Backend:                 strings.ToLower(v.GetString("storage.backend")),
			LocalPath:               v.GetString("storage.local_path"),
			S3Bucket:                v.GetString("storage.s3_bucket"),
			S3Prefix:                v.GetString("storage.s3_prefix"),
			S3Region:                v.GetString("storage.s3_region"),
			S3Endpoint:              v.GetString("storage.s3_endpoint"),
			S3AccessKey:             v.GetString("storage.s3_access_key"),
			S3SecretKey:             v.GetString("storage.s3_secret_key"),
			S3UseSSL:                v.GetBool("storage.s3_use_ssl"),
			S3PathStyle:             v.GetBool("storage.s3_path_style"),
			AzureConnectionString:   v.GetString("storage.azure_connection_string"),
			AzureAccountName:        v.GetString("storage.azure_account_name"),
			AzureAccountKey:         v.GetString("storage.azure_account_key"),
			AzureSASToken:           v.GetString("storage.azure_sas_token"),
			AzureContainer:          v.GetString("storage.azure_container"),
			AzurePrefix:             v.GetString("storage.azure_prefix"),
			AzureEndpoint:           v.GetString("storage.azure_endpoint"),
			AzureUseManagedIdentity: v.GetBool("storage.azure_use_managed_identity"),
		},
		Ingest: IngestConfig{
			DatabaseURL: v.GetString("ingest.database_url"),
			Workers:     v.GetInt("ingest.workers"),
			BatchSize:   v.GetInt("ingest.batch_size"),
		},
	}
}

func setDefaults(v *viper.Viper) {
	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// Snapshot defaults
	v.SetDefault("snapshot.default_schema", "public")

	// Output defaults
	v.SetDefault("output.format", "goose")
	v.SetDefault("output.migrations_dir", "migrations")
	v.SetDefault("output.snapshot_path", "snapshots/current.yaml")

	// Storage defaults
	v.SetDefault("storage.backend", "local")
	v.SetDefault("storage.local_path", ".")
	v.SetDefault("storage.s3_region", "us-east-1")
	v.SetDefault("storage.s3_use_ssl", true)
	v.SetDefault("storage.s3_path_style", false)
	v.SetDefault("storage.azure_use_managed_identity", false)

	// Ingest defaults
	v.SetDefault("ingest.database_url", "")
	v.SetDefault("ingest.workers", getDefaultWorkers())
	v.SetDefault("ingest.batch_size", 10000)
}

// getDefaultWorkers returns the CPU count capped at 16 so ingestion does not exhaust server connections
func getDefaultWorkers() int {
	workers := runtime.NumCPU()
	if workers > 16 {
		workers = 16
	}
	if workers < 1 {
		workers = 1
	}
	return workers
}

// Validate checks enumerations and sizes
func (cfg *Config) Validate() error {
	if !slices.Contains(validLogLevels, strings.ToLower(cfg.Log.Level)) {
		return fmt.Errorf("invalid log.level %q", cfg.Log.Level)
	}
	if !slices.Contains(validLogFormats, strings.ToLower(cfg.Log.Format)) {
		return fmt.Errorf("invalid log.format %q (expected json or console)", cfg.Log.Format)
	}
	if !slices.Contains(validFormats, cfg.Output.Format) {
		return fmt.Errorf("invalid output.format %q (expected goose or plain)", cfg.Output.Format)
	}
	if strings.TrimSpace(cfg.Output.SnapshotPath) == "" {
		return fmt.Errorf("output.snapshot_path must not be empty")
	}
	if !slices.Contains(validBackends, cfg.Storage.Backend) {
		return fmt.Errorf("invalid storage.backend %q (expected local, s3 or azure)", cfg.Storage.Backend)
	}
	switch cfg.Storage.Backend {
	case "s3", "minio":
		if cfg.Storage.S3Bucket == "" {
			return fmt.Errorf("storage.s3_bucket is required for the %s backend", cfg.Storage.Backend)
		}
	case "azure", "azblob":
		if cfg.Storage.AzureContainer == "" {
			return fmt.Errorf("storage.azure_container is required for the %s backend", cfg.Storage.Backend)
		}
	}
	if cfg.Ingest.Workers < 1 {
		return fmt.Errorf("ingest.workers must be positive, got %d", cfg.Ingest.Workers)
	}
	if cfg.Ingest.BatchSize < 1 {
		return fmt.Errorf("ingest.batch_size must be positive, got %d", cfg.Ingest.BatchSize)
	}
	return nil
}
