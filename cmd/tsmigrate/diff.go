package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"

	"github.com/basekick-labs/tsmigrate/internal/config"
	"github.com/basekick-labs/tsmigrate/internal/emitter"
	"github.com/basekick-labs/tsmigrate/internal/logger"
	"github.com/basekick-labs/tsmigrate/internal/migrate"
	"github.com/basekick-labs/tsmigrate/internal/snapshot"
	"github.com/basekick-labs/tsmigrate/internal/storage"
	flag "github.com/spf13/pflag"
)

type diffOptions struct {
	Target string
	Source string
	Name   string
	DryRun bool
}

func parseDiffFlags(args []string) (*diffOptions, error) {
	fs := flag.NewFlagSet("diff", flag.ContinueOnError)
	opts := &diffOptions{}
	fs.StringVar(&opts.Target, "target", "", "Target model snapshot (YAML or JSON)")
	fs.StringVar(&opts.Source, "source", "", "Source model snapshot (default: the committed snapshot in the store)")
	fs.StringVar(&opts.Name, "name", "", "Migration name")
	fs.BoolVar(&opts.DryRun, "dry-run", false, "Print the migration to stdout without writing anything")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if opts.Target == "" {
		return nil, fmt.Errorf("--target is required")
	}
	if opts.Name == "" && !opts.DryRun {
		return nil, fmt.Errorf("--name is required")
	}
	return opts, nil
}

// runDiff plans the migration from the source snapshot to the target, writes it to the store and
// commits the target as the new current snapshot
func runDiff(ctx context.Context, cfg *config.Config, store storage.Backend, opts *diffOptions, stdout io.Writer) error {
	log := logger.Get("diff")

	format, err := emitter.ParseFormat(cfg.Output.Format)
	if err != nil {
		return err
	}

	targetData, err := os.ReadFile(opts.Target)
	if err != nil {
		return fmt.Errorf("failed to read target snapshot: %w", err)
	}
	target, err := snapshot.Load(targetData, cfg.Snapshot.DefaultSchema)
	if err != nil {
		return fmt.Errorf("target %s: %w", opts.Target, err)
	}

	source, err := loadSource(ctx, cfg, store, opts.Source)
	if err != nil {
		return err
	}

	planner := migrate.NewPlanner(&migrate.PlannerConfig{Logger: logger.Get("planner")})
	stmts := planner.Migrate(source, target)
	if len(stmts) == 0 {
		log.Info().Msg("No changes detected")
		return nil
	}

	keys, err := store.List(ctx, cfg.Output.MigrationsDir+"/")
	if err != nil {
		return fmt.Errorf("failed to list migrations: %w", err)
	}
	files := emitter.New(format, logger.Get("emitter")).Emit(emitter.NextVersion(keys), opts.Name, stmts)

	if opts.DryRun {
		for _, f := range files {
			fmt.Fprintf(stdout, "-- file: %s\n%s\n", f.Name, f.Content)
		}
		return nil
	}

	for _, f := range files {
		key := path.Join(cfg.Output.MigrationsDir, f.Name)
		if err := store.Write(ctx, key, f.Content); err != nil {
			return fmt.Errorf("failed to write migration %s: %w", key, err)
		}
		log.Info().Str("file", key).Bool("transactional", f.Transactional).Str("id", f.ID.String()).Msg("Wrote migration")
	}

	committed, err := target.Marshal()
	if err != nil {
		return fmt.Errorf("failed to encode target snapshot: %w", err)
	}
	if err := store.Write(ctx, cfg.Output.SnapshotPath, committed); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	log.Info().Str("snapshot", cfg.Output.SnapshotPath).Int("files", len(files)).Msg("Committed snapshot")
	return nil
}

// loadSource reads the explicit source file, or the committed snapshot. No committed snapshot
// means this is the first migration.
func loadSource(ctx context.Context, cfg *config.Config, store storage.Backend, sourcePath string) (*snapshot.Snapshot, error) {
	var data []byte
	var err error
	if sourcePath != "" {
		data, err = os.ReadFile(sourcePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read source snapshot: %w", err)
		}
	} else {
		data, err = store.Read(ctx, cfg.Output.SnapshotPath)
		if errors.Is(err, storage.ErrNotFound) {
			return snapshot.Empty(cfg.Snapshot.DefaultSchema), nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read committed snapshot: %w", err)
		}
	}

	source, err := snapshot.Load(data, cfg.Snapshot.DefaultSchema)
	if err != nil {
		return nil, fmt.Errorf("source: %w", err)
	}
	return source, nil
}
