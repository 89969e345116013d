package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/basekick-labs/tsmigrate/internal/config"
	"github.com/basekick-labs/tsmigrate/internal/ingest"
	"github.com/basekick-labs/tsmigrate/internal/storage"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const targetModel = `
entities:
  - name: Metric
    table: metrics
    properties:
      - name: Time
        column: time
        type: timestamptz
        primary_key: true
      - name: Value
        column: value
        type: double precision
        nullable: true
    annotations:
      timescaledb:hypertable: true
      timescaledb:hypertable.time_column: Time
  - name: MetricHourly
    view: metrics_hourly
    annotations:
      timescaledb:continuous_aggregate: true
      timescaledb:continuous_aggregate.parent: Metric
      timescaledb:continuous_aggregate.bucket_width: BUCKET
      timescaledb:continuous_aggregate.bucket_column: Time
      timescaledb:continuous_aggregate.aggregates:
        - alias: avg_value
          function: avg
          column: Value
      timescaledb:refresh_policy: true
      timescaledb:refresh_policy.schedule_interval: 1 hour
`

func testConfig() *config.Config {
	return &config.Config{
		Log:      config.LogConfig{Level: "error", Format: "json"},
		Snapshot: config.SnapshotConfig{DefaultSchema: "public"},
		Output:   config.OutputConfig{Format: "goose", MigrationsDir: "migrations", SnapshotPath: "snapshots/current.yaml"},
		Storage:  config.StorageConfig{Backend: "local"},
		Ingest:   config.IngestConfig{Workers: 2, BatchSize: 2},
	}
}

func writeModel(t *testing.T, dir, bucket string) string {
	t.Helper()
	p := filepath.Join(dir, "model-"+strings.ReplaceAll(bucket, " ", "_")+".yaml")
	require.NoError(t, os.WriteFile(p, []byte(strings.Replace(targetModel, "BUCKET", bucket, 1)), 0o644))
	return p
}

func newStore(t *testing.T) storage.Backend {
	t.Helper()
	store, err := storage.NewLocalBackend(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)
	return store
}

func TestRunDiff_CommitsMigrationsAndSnapshot(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	store := newStore(t)
	dir := t.TempDir()
	hourly := writeModel(t, dir, "1 hour")

	require.NoError(t, runDiff(ctx, cfg, store, &diffOptions{Target: hourly, Name: "initial"}, &bytes.Buffer{}))

	first, err := store.List(ctx, "migrations/")
	require.NoError(t, err)
	require.NotEmpty(t, first)
	assert.True(t, strings.HasPrefix(first[0], "migrations/00001_initial"), first[0])

	content, err := store.Read(ctx, first[0])
	require.NoError(t, err)
	assert.Contains(t, string(content), "-- tsmigrate id: ")
	assert.Contains(t, string(content), "-- +goose Up")
	assert.Contains(t, string(content), `CREATE TABLE IF NOT EXISTS "public"."metrics"`)

	committed, err := store.Exists(ctx, "snapshots/current.yaml")
	require.NoError(t, err)
	assert.True(t, committed)

	t.Run("unchanged model writes nothing", func(t *testing.T) {
		require.NoError(t, runDiff(ctx, cfg, store, &diffOptions{Target: hourly, Name: "noop"}, &bytes.Buffer{}))
		keys, err := store.List(ctx, "migrations/")
		require.NoError(t, err)
		assert.Equal(t, first, keys)
	})

	t.Run("changed model continues numbering", func(t *testing.T) {
		daily := writeModel(t, dir, "1 day")
		require.NoError(t, runDiff(ctx, cfg, store, &diffOptions{Target: daily, Name: "daily buckets"}, &bytes.Buffer{}))

		keys, err := store.List(ctx, "migrations/")
		require.NoError(t, err)
		require.Greater(t, len(keys), len(first))
		added := keys[len(first)]
		assert.True(t, strings.HasPrefix(added, fmt.Sprintf("migrations/%05d_daily_buckets", len(first)+1)), added)

		var all strings.Builder
		for _, k := range keys[len(first):] {
			data, err := store.Read(ctx, k)
			require.NoError(t, err)
			all.Write(data)
		}
		assert.Contains(t, all.String(), `DROP MATERIALIZED VIEW IF EXISTS "public"."metrics_hourly";`)
		assert.Contains(t, all.String(), "-- +goose NO TRANSACTION")
	})
}

func TestRunDiff_DryRunWritesNothing(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	cfg.Output.Format = "plain"
	store := newStore(t)
	target := writeModel(t, t.TempDir(), "1 hour")

	var out bytes.Buffer
	require.NoError(t, runDiff(ctx, cfg, store, &diffOptions{Target: target, Name: "initial", DryRun: true}, &out))

	assert.Contains(t, out.String(), "-- file: 00001_initial_1.sql")
	assert.Contains(t, out.String(), "BEGIN;")
	assert.Contains(t, out.String(), "COMMIT;")

	keys, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestRunDiff_ExplicitSource(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	target := writeModel(t, t.TempDir(), "1 hour")

	var out bytes.Buffer
	require.NoError(t, runDiff(ctx, testConfig(), store, &diffOptions{Target: target, Source: target, DryRun: true}, &out))
	assert.Empty(t, out.String())
}

func TestRunDiff_Errors(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	dir := t.TempDir()

	err := runDiff(ctx, testConfig(), store, &diffOptions{Target: filepath.Join(dir, "missing.yaml"), Name: "x"}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "failed to read target snapshot")

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("entities: [{table: t}]"), 0o644))
	err = runDiff(ctx, testConfig(), store, &diffOptions{Target: bad, Name: "x"}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "invalid snapshot")

	cfg := testConfig()
	cfg.Output.Format = "flyway"
	err = runDiff(ctx, cfg, store, &diffOptions{Target: bad, Name: "x"}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "unknown script format")
}

func TestParseDiffFlags(t *testing.T) {
	opts, err := parseDiffFlags([]string{"--target", "m.yaml", "--name", "init", "--dry-run"})
	require.NoError(t, err)
	assert.Equal(t, &diffOptions{Target: "m.yaml", Name: "init", DryRun: true}, opts)

	_, err = parseDiffFlags([]string{"--name", "init"})
	assert.ErrorContains(t, err, "--target")

	_, err = parseDiffFlags([]string{"--target", "m.yaml"})
	assert.ErrorContains(t, err, "--name")
}

type recordingConnector struct {
	mu   sync.Mutex
	rows int
}

func (c *recordingConnector) Connect(ctx context.Context) (ingest.Conn, error) {
	return &recordingConn{parent: c}, nil
}

type recordingConn struct {
	parent *recordingConnector
}

func (c *recordingConn) CopyFrom(ctx context.Context, table pgx.Identifier, columns []string, src pgx.CopyFromSource) (int64, error) {
	var n int64
	for src.Next() {
		n++
	}
	c.parent.mu.Lock()
	c.parent.rows += int(n)
	c.parent.mu.Unlock()
	return n, nil
}

func (c *recordingConn) Close(ctx context.Context) error { return nil }

func TestRunIngest(t *testing.T) {
	csvPath := filepath.Join(t.TempDir(), "metrics.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("time,value\n2024-01-01T00:00:00Z,1.5\n2024-01-01T00:01:00Z,2\n2024-01-01T00:02:00Z,\n"), 0o644))

	connector := &recordingConnector{}
	err := runIngest(context.Background(), testConfig(), connector, &ingestOptions{Table: "metrics", CSV: csvPath})
	require.NoError(t, err)
	assert.Equal(t, 3, connector.rows)

	err = runIngest(context.Background(), testConfig(), connector, &ingestOptions{Table: "a.b.c", CSV: csvPath})
	assert.ErrorContains(t, err, "invalid table name")
}

func TestRun_Usage(t *testing.T) {
	assert.ErrorIs(t, run(context.Background(), nil, &bytes.Buffer{}), errUsage)

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"version"}, &out))
	assert.Equal(t, Version+"\n", out.String())
}
