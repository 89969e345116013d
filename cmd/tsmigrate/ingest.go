package main

import (
	"context"
	"fmt"
	"os"

	"github.com/basekick-labs/tsmigrate/internal/config"
	"github.com/basekick-labs/tsmigrate/internal/ingest"
	"github.com/basekick-labs/tsmigrate/internal/logger"
	flag "github.com/spf13/pflag"
)

type ingestOptions struct {
	Table string
	CSV   string
}

func parseIngestFlags(args []string) (*ingestOptions, error) {
	fs := flag.NewFlagSet("ingest", flag.ContinueOnError)
	opts := &ingestOptions{}
	fs.StringVar(&opts.Table, "table", "", "Target table (table or schema.table)")
	fs.StringVar(&opts.CSV, "csv", "", "CSV file whose header row names the columns")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if opts.Table == "" || opts.CSV == "" {
		return nil, fmt.Errorf("--table and --csv are required")
	}
	return opts, nil
}

func pgxConnector(cfg *config.Config) ingest.Connector {
	return ingest.PgxConnector{DatabaseURL: cfg.Ingest.DatabaseURL}
}

// runIngest bulk copies a CSV file into a table
func runIngest(ctx context.Context, cfg *config.Config, connector ingest.Connector, opts *ingestOptions) error {
	table, err := ingest.ParseTable(opts.Table, cfg.Snapshot.DefaultSchema)
	if err != nil {
		return err
	}

	f, err := os.Open(opts.CSV)
	if err != nil {
		return fmt.Errorf("failed to open csv: %w", err)
	}
	defer f.Close()

	rows, err := ingest.ReadCSV(f)
	if err != nil {
		return fmt.Errorf("%s: %w", opts.CSV, err)
	}

	inserter := ingest.NewInserter(&ingest.InserterConfig{
		Connector: connector,
		Workers:   cfg.Ingest.Workers,
		BatchSize: cfg.Ingest.BatchSize,
		Logger:    logger.Get("ingest"),
	})
	n, err := inserter.Insert(ctx, table, rows)
	if err != nil {
		return fmt.Errorf("ingest into %s failed after %d rows: %w", table.Sanitize(), n, err)
	}
	return nil
}
