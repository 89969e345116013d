// Package ingest bulk loads rows into PostgreSQL/TimescaleDB tables with parallel COPY streams.
//
// A row set is cut into contiguous shards, one per worker. Each worker opens its own connection
// and streams its shard in batches of at most BatchSize rows. Workers share nothing but the
// inserted-row counter.
package ingest

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/basekick-labs/tsmigrate/pkg/models"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	defaultBatchSize = 10000
	maxWorkers       = 64
)

// Conn is the subset of *pgx.Conn a worker needs
type Conn interface {
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
	Close(ctx context.Context) error
}

// Connector opens one connection per worker
type Connector interface {
	Connect(ctx context.Context) (Conn, error)
}

// PgxConnector connects with pgx.Connect
type PgxConnector struct {
	DatabaseURL string
}

// Connect opens a new connection to DatabaseURL
func (c PgxConnector) Connect(ctx context.Context) (Conn, error) {
	conn, err := pgx.Connect(ctx, c.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	return conn, nil
}

// InserterConfig configures an Inserter
type InserterConfig struct {
	Connector Connector
	Workers   int // Parallel shards (default 1)
	BatchSize int // Rows per COPY call (default 10000)
	Logger    zerolog.Logger
}

// Inserter copies row sets into a table
type Inserter struct {
	connector Connector
	workers   int
	batchSize int
	logger    zerolog.Logger
}

// NewInserter creates an Inserter
func NewInserter(cfg *InserterConfig) *Inserter {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > maxWorkers {
		workers = maxWorkers
	}
	batchSize := cfg.BatchSize
	if batchSize < 1 {
		batchSize = defaultBatchSize
	}
	return &Inserter{
		connector: cfg.Connector,
		workers:   workers,
		batchSize: batchSize,
		logger:    cfg.Logger.With().Str("component", "ingest").Logger(),
	}
}

// Shard is a half-open row range [Start, End)
type Shard struct {
	Start int
	End   int
}

// Shards splits n rows into at most workers contiguous, non-empty ranges whose sizes differ by at most one
func Shards(n, workers int) []Shard {
	if n <= 0 {
		return nil
	}
	if workers < 1 {
		workers = 1
	}
	if workers > n {
		workers = n
	}
	shards := make([]Shard, 0, workers)
	size, extra := n/workers, n%workers
	start := 0
	for i := 0; i < workers; i++ {
		end := start + size
		if i < extra {
			end++
		}
		shards = append(shards, Shard{Start: start, End: end})
		start = end
	}
	return shards
}

// Insert copies rows into table and returns the number of rows the server reported as copied.
// The first worker failure cancels the others and is returned.
func (i *Inserter) Insert(ctx context.Context, table pgx.Identifier, rows *models.RowSet) (int64, error) {
	if err := rows.Validate(); err != nil {
		return 0, fmt.Errorf("invalid rows: %w", err)
	}
	if rows.Len() == 0 {
		return 0, nil
	}

	start := time.Now()
	shards := Shards(rows.Len(), i.workers)

	var inserted atomic.Int64
	var sanitized atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	for n, shard := range shards {
		n, shard := n, shard
		g.Go(func() error {
			copied, fixed, err := i.copyShard(gctx, table, rows.Slice(shard.Start, shard.End))
			inserted.Add(copied)
			sanitized.Add(fixed)
			if err != nil {
				return fmt.Errorf("shard %d (rows %d-%d): %w", n, shard.Start, shard.End, err)
			}
			return nil
		})
	}
	err := g.Wait()

	if fixed := sanitized.Load(); fixed > 0 {
		i.logger.Warn().Int64("values", fixed).Msg("Replaced invalid UTF-8 sequences in text values")
	}
	if err != nil {
		return inserted.Load(), err
	}

	i.logger.Info().
		Str("table", table.Sanitize()).
		Int64("rows", inserted.Load()).
		Int("workers", len(shards)).
		Dur("duration", time.Since(start)).
		Msg("Ingested rows")
	return inserted.Load(), nil
}

// copyShard streams one shard over a dedicated connection
func (i *Inserter) copyShard(ctx context.Context, table pgx.Identifier, shard *models.RowSet) (int64, int64, error) {
	conn, err := i.connector.Connect(ctx)
	if err != nil {
		return 0, 0, err
	}
	defer conn.Close(context.Background())

	var copied, fixed int64
	for start := 0; start < shard.Len(); start += i.batchSize {
		end := min(start+i.batchSize, shard.Len())
		batch, n := sanitizeRows(shard.Rows[start:end])
		fixed += n

		count, err := conn.CopyFrom(ctx, table, shard.Columns, pgx.CopyFromRows(batch))
		copied += count
		if err != nil {
			return copied, fixed, fmt.Errorf("copy failed: %w", err)
		}
	}
	return copied, fixed, nil
}

// sanitizeRows replaces invalid UTF-8 in string values with U+FFFD, since PostgreSQL rejects
// them in text columns. Rows are copied only when a replacement is needed.
func sanitizeRows(rows [][]any) ([][]any, int64) {
	var fixed int64
	out := rows
	for r, row := range rows {
		copied := false
		for c, v := range row {
			s, ok := v.(string)
			if !ok || utf8.ValidString(s) {
				continue
			}
			if fixed == 0 {
				out = append([][]any(nil), rows...)
			}
			if !copied {
				out[r] = append([]any(nil), row...)
				copied = true
			}
			out[r][c] = strings.ToValidUTF8(s, "\uFFFD")
			fixed++
		}
	}
	return out, fixed
}
