package hypertable

import (
	"fmt"
	"slices"
	"strings"

	"github.com/basekick-labs/tsmigrate/internal/operation"
	"github.com/basekick-labs/tsmigrate/internal/sql"
)

// GenerateCreate renders the statements that promote a table and apply its settings.
func GenerateCreate(op Create) []operation.Statement {
	h := op.Hypertable
	regclass := sql.RegClass(h.Schema, h.Table)

	args := []string{regclass, sql.Literal(h.TimeColumn)}
	if h.MigrateData {
		args = append(args, sql.Arg("migrate_data", sql.Bool(true)))
	}
	stmts := []operation.Statement{{SQL: sql.Select("create_hypertable", args...)}}

	if h.EffectiveChunkTimeInterval() != DefaultChunkTimeInterval {
		stmts = append(stmts, setChunkTimeInterval(h))
	}
	if h.CompressionRequested() {
		stmts = append(stmts, enableCompression(h))
	} else if h.HasCompressionSettings() {
		stmts = append(stmts, ignoredCompressionSettings(h))
	}
	if len(h.ChunkSkipColumns) > 0 {
		stmts = append(stmts, enableChunkSkipping(h, h.ChunkSkipColumns)...)
	}
	for _, d := range h.Dimensions {
		stmts = append(stmts, addDimension(h, d))
	}
	return stmts
}

// GenerateAlter renders only the statements for fields that changed.
func GenerateAlter(op Alter) []operation.Statement {
	oldH, newH := op.Old, op.New
	var stmts []operation.Statement

	if oldH.TimeColumn != newH.TimeColumn {
		stmts = append(stmts, operation.Comment(fmt.Sprintf(
			"hypertable %s: time column cannot be changed in place (%s -> %s)",
			sql.Qualified(newH.Schema, newH.Table), oldH.TimeColumn, newH.TimeColumn)))
	}

	if oldH.EffectiveChunkTimeInterval() != newH.EffectiveChunkTimeInterval() {
		stmts = append(stmts, setChunkTimeInterval(newH))
	}

	wasCompressed, isCompressed := oldH.CompressionRequested(), newH.CompressionRequested()
	switch {
	case !wasCompressed && isCompressed:
		stmts = append(stmts, enableCompression(newH))
	case wasCompressed && !isCompressed:
		stmts = append(stmts, operation.Statement{SQL: fmt.Sprintf(
			"ALTER TABLE %s SET (timescaledb.compress = false);", sql.Qualified(newH.Schema, newH.Table))})
		if newH.HasCompressionSettings() {
			stmts = append(stmts, ignoredCompressionSettings(newH))
		}
	case isCompressed && (!slices.Equal(oldH.CompressionSegmentBy, newH.CompressionSegmentBy) ||
		!slices.Equal(oldH.CompressionOrderBy, newH.CompressionOrderBy)):
		stmts = append(stmts, alterCompressionSettings(oldH, newH))
	case !isCompressed && newH.HasCompressionSettings() &&
		(wasCompressed || !slices.Equal(oldH.CompressionSegmentBy, newH.CompressionSegmentBy) ||
			!slices.Equal(oldH.CompressionOrderBy, newH.CompressionOrderBy)):
		stmts = append(stmts, ignoredCompressionSettings(newH))
	}

	if added := operation.Subtract(newH.ChunkSkipColumns, oldH.ChunkSkipColumns); len(added) > 0 {
		stmts = append(stmts, enableChunkSkipping(newH, added)...)
	}
	for _, col := range operation.Subtract(oldH.ChunkSkipColumns, newH.ChunkSkipColumns) {
		stmts = append(stmts, operation.Statement{SQL: sql.Select("disable_chunk_skipping",
			sql.RegClass(newH.Schema, newH.Table), sql.Literal(col))})
	}

	stmts = append(stmts, alterDimensions(oldH, newH)...)
	return stmts
}

func setChunkTimeInterval(h Hypertable) operation.Statement {
	return operation.Statement{SQL: sql.Select("set_chunk_time_interval",
		sql.RegClass(h.Schema, h.Table), sql.ChunkInterval(h.EffectiveChunkTimeInterval()))}
}

func enableCompression(h Hypertable) operation.Statement {
	opts := []string{"timescaledb.compress = true"}
	if len(h.CompressionSegmentBy) > 0 {
		opts = append(opts, "timescaledb.compress_segmentby = "+sql.Literal(segmentByList(h.CompressionSegmentBy)))
	}
	if len(h.CompressionOrderBy) > 0 {
		opts = append(opts, "timescaledb.compress_orderby = "+sql.Literal(orderByList(h.CompressionOrderBy)))
	}
	return alterTableSet(h, opts)
}

// alterCompressionSettings updates segment-by/order-by on a table that stays compressed.
// Cleared settings are reset with an empty list.
func alterCompressionSettings(oldH, newH Hypertable) operation.Statement {
	opts := []string{"timescaledb.compress = true"}
	if !slices.Equal(oldH.CompressionSegmentBy, newH.CompressionSegmentBy) {
		opts = append(opts, "timescaledb.compress_segmentby = "+sql.Literal(segmentByList(newH.CompressionSegmentBy)))
	}
	if !slices.Equal(oldH.CompressionOrderBy, newH.CompressionOrderBy) {
		opts = append(opts, "timescaledb.compress_orderby = "+sql.Literal(orderByList(newH.CompressionOrderBy)))
	}
	return alterTableSet(newH, opts)
}

// ignoredCompressionSettings notes segment-by/order-by rules on a table whose compression is off.
func ignoredCompressionSettings(h Hypertable) operation.Statement {
	return operation.Comment(fmt.Sprintf(
		"hypertable %s: compression is disabled, segment-by/order-by settings are ignored",
		sql.Qualified(h.Schema, h.Table)))
}

func alterTableSet(h Hypertable, opts []string) operation.Statement {
	return operation.Statement{SQL: fmt.Sprintf("ALTER TABLE %s SET (%s);",
		sql.Qualified(h.Schema, h.Table), strings.Join(opts, ", "))}
}

func segmentByList(columns []string) string {
	parts := make([]string, len(columns))
	for i, c := range columns {
		parts[i] = sql.Ident(c)
	}
	return strings.Join(parts, ", ")
}

func orderByList(rules []OrderBy) string {
	parts := make([]string, len(rules))
	for i, r := range rules {
		parts[i] = r.String()
	}
	return strings.Join(parts, ", ")
}

func enableChunkSkipping(h Hypertable, columns []string) []operation.Statement {
	stmts := []operation.Statement{{SQL: "SET timescaledb.enable_chunk_skipping = 'ON';"}}
	for _, col := range columns {
		stmts = append(stmts, operation.Statement{SQL: sql.Select("enable_chunk_skipping",
			sql.RegClass(h.Schema, h.Table), sql.Literal(col))})
	}
	return stmts
}

func addDimension(h Hypertable, d Dimension) operation.Statement {
	var builder string
	switch d.Kind {
	case DimensionHash:
		builder = fmt.Sprintf("by_hash(%s, %d)", sql.Literal(d.Column), d.NumberOfPartitions)
	default:
		builder = fmt.Sprintf("by_range(%s, %s)", sql.Literal(d.Column), sql.IntervalOrInteger(d.Interval))
	}
	return operation.Statement{SQL: sql.Select("add_dimension", sql.RegClass(h.Schema, h.Table), builder)}
}

// alterDimensions appends new trailing dimensions. TimescaleDB cannot remove or change an
// existing dimension, so those differences are reported as comments.
func alterDimensions(oldH, newH Hypertable) []operation.Statement {
	var stmts []operation.Statement
	name := sql.Qualified(newH.Schema, newH.Table)
	for i := 0; i < max(len(oldH.Dimensions), len(newH.Dimensions)); i++ {
		switch {
		case i >= len(oldH.Dimensions):
			stmts = append(stmts, addDimension(newH, newH.Dimensions[i]))
		case i >= len(newH.Dimensions):
			stmts = append(stmts, operation.Comment(fmt.Sprintf(
				"hypertable %s: dimension on %s cannot be removed", name, oldH.Dimensions[i].Column)))
		case oldH.Dimensions[i] != newH.Dimensions[i]:
			stmts = append(stmts, operation.Comment(fmt.Sprintf(
				"hypertable %s: dimension on %s cannot be changed in place", name, oldH.Dimensions[i].Column)))
		}
	}
	return stmts
}
