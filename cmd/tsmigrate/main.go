package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/basekick-labs/tsmigrate/internal/config"
	"github.com/basekick-labs/tsmigrate/internal/logger"
	"github.com/basekick-labs/tsmigrate/internal/storage"
	"github.com/rs/zerolog/log"
)

// Version is set at build time
var Version = "dev"

const usage = `tsmigrate generates TimescaleDB migrations from model snapshots.

Usage:
  tsmigrate diff --target model.yaml [--source old.yaml] --name add_metrics [--dry-run]
  tsmigrate ingest --table schema.table --csv data.csv
  tsmigrate version
`

var errUsage = errors.New("usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}

	switch args[0] {
	case "version":
		fmt.Fprintln(stdout, Version)
		return nil
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger.Setup(cfg.Log.Level, cfg.Log.Format)
	log.Debug().Str("version", Version).Str("command", args[0]).Msg("Starting tsmigrate")

	switch args[0] {
	case "diff":
		opts, err := parseDiffFlags(args[1:])
		if err != nil {
			return err
		}
		store, err := storage.New(ctx, storageConfig(&cfg.Storage), logger.Get("storage"))
		if err != nil {
			return fmt.Errorf("failed to open artifact store: %w", err)
		}
		defer store.Close()
		return runDiff(ctx, cfg, store, opts, stdout)

	case "ingest":
		opts, err := parseIngestFlags(args[1:])
		if err != nil {
			return err
		}
		if cfg.Ingest.DatabaseURL == "" {
			return fmt.Errorf("ingest.database_url is not configured (set TSMIGRATE_INGEST_DATABASE_URL)")
		}
		return runIngest(ctx, cfg, pgxConnector(cfg), opts)

	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
	}
}

// storageConfig maps the flat configuration section onto the backend configuration
func storageConfig(cfg *config.StorageConfig) *storage.Config {
	return &storage.Config{
		Backend:   cfg.Backend,
		LocalPath: cfg.LocalPath,
		S3: storage.S3Config{
			Bucket:    cfg.S3Bucket,
			Prefix:    cfg.S3Prefix,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			UseSSL:    cfg.S3UseSSL,
			PathStyle: cfg.S3PathStyle,
		},
		Azure: storage.AzureBlobConfig{
			ConnectionString:   cfg.AzureConnectionString,
			AccountName:        cfg.AzureAccountName,
			AccountKey:         cfg.AzureAccountKey,
			SASToken:           cfg.AzureSASToken,
			UseManagedIdentity: cfg.AzureUseManagedIdentity,
			ContainerName:      cfg.AzureContainer,
			Prefix:             cfg.AzurePrefix,
			Endpoint:           cfg.AzureEndpoint,
		},
	}
}
