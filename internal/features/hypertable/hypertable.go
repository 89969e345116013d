// Package hypertable diffs and renders TimescaleDB hypertable configuration: promotion of a table
// to a hypertable, chunk interval, compression settings, chunk skipping and extra dimensions.
package hypertable

import (
	"slices"
	"strings"

	"github.com/basekick-labs/tsmigrate/internal/operation"
	"github.com/basekick-labs/tsmigrate/internal/sql"
)

// DefaultChunkTimeInterval is the chunk interval TimescaleDB uses when none is given.
const DefaultChunkTimeInterval = "7 days"

// DimensionKind is the partitioning scheme of an additional dimension.
type DimensionKind string

const (
	DimensionRange DimensionKind = "range"
	DimensionHash  DimensionKind = "hash"
)

// Dimension is an additional partitioning axis.
type Dimension struct {
	Column             string
	Kind               DimensionKind
	Interval           string // range only
	NumberOfPartitions int    // hash only
}

// Direction is the sort direction of a compression order-by rule.
type Direction string

const (
	Ascending  Direction = "ASC"
	Descending Direction = "DESC"
)

// NullsOrder places nulls in a compression order-by rule.
type NullsOrder string

const (
	NullsFirst NullsOrder = "FIRST"
	NullsLast  NullsOrder = "LAST"
)

// OrderBy is one compression order-by rule. Direction and Nulls are optional.
type OrderBy struct {
	Column    string
	Direction Direction
	Nulls     NullsOrder
}

// String renders the rule in compress_orderby syntax, e.g. `"time" DESC NULLS LAST`.
// The column is quoted so mixed-case names survive.
func (o OrderBy) String() string {
	parts := []string{sql.Ident(o.Column)}
	if o.Direction != "" {
		parts = append(parts, string(o.Direction))
	}
	if o.Nulls != "" {
		parts = append(parts, "NULLS", string(o.Nulls))
	}
	return strings.Join(parts, " ")
}

// Hypertable is the resolved hypertable configuration of one table.
type Hypertable struct {
	Schema string
	Table  string
	// TimeColumn is the primary time dimension.
	TimeColumn string
	// ChunkTimeInterval is either a bare integer (microseconds) or an interval literal.
	ChunkTimeInterval    string
	CompressionEnabled   bool
	MigrateData          bool
	ChunkSkipColumns     []string
	Dimensions           []Dimension
	CompressionSegmentBy []string
	CompressionOrderBy   []OrderBy
}

// Key identifies the hypertable by its qualified table name.
func (h Hypertable) Key() string {
	return h.Schema + "." + h.Table
}

// EffectiveChunkTimeInterval returns the chunk interval with the default applied.
func (h Hypertable) EffectiveChunkTimeInterval() string {
	if strings.TrimSpace(h.ChunkTimeInterval) == "" {
		return DefaultChunkTimeInterval
	}
	return strings.TrimSpace(h.ChunkTimeInterval)
}

// CompressionRequested reports whether the table needs compression: either it is enabled
// explicitly or chunk skipping requires it. Segment-by/order-by alone do not turn it on.
func (h Hypertable) CompressionRequested() bool {
	return h.CompressionEnabled || len(h.ChunkSkipColumns) > 0
}

// HasCompressionSettings reports whether segment-by or order-by rules are configured.
func (h Hypertable) HasCompressionSettings() bool {
	return len(h.CompressionSegmentBy) > 0 || len(h.CompressionOrderBy) > 0
}

// Equal compares two hypertables field by field. Chunk-skip columns compare as sets and
// MigrateData is ignored since it only affects creation.
func (h Hypertable) Equal(o Hypertable) bool {
	return h.Schema == o.Schema &&
		h.Table == o.Table &&
		h.TimeColumn == o.TimeColumn &&
		h.EffectiveChunkTimeInterval() == o.EffectiveChunkTimeInterval() &&
		h.CompressionEnabled == o.CompressionEnabled &&
		operation.EqualSets(h.ChunkSkipColumns, o.ChunkSkipColumns) &&
		slices.Equal(h.Dimensions, o.Dimensions) &&
		slices.Equal(h.CompressionSegmentBy, o.CompressionSegmentBy) &&
		slices.Equal(h.CompressionOrderBy, o.CompressionOrderBy)
}

// Create promotes a table to a hypertable.
type Create struct {
	Hypertable Hypertable
}

func (Create) Feature() operation.Feature { return operation.FeatureHypertable }
func (Create) Kind() operation.Kind       { return operation.KindCreate }
func (c Create) Key() string              { return c.Hypertable.Key() }

// Alter changes the configuration of an existing hypertable.
type Alter struct {
	Old Hypertable
	New Hypertable
}

func (Alter) Feature() operation.Feature { return operation.FeatureHypertable }
func (Alter) Kind() operation.Kind       { return operation.KindAlter }
func (a Alter) Key() string              { return a.New.Key() }
