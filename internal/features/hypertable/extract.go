package hypertable

import (
	"slices"
	"strings"

	"github.com/basekick-labs/tsmigrate/internal/snapshot"
	"github.com/rs/zerolog"
)

type dimensionSpec struct {
	Column     string `mapstructure:"column"`
	Kind       string `mapstructure:"kind"`
	Interval   string `mapstructure:"interval"`
	Partitions int    `mapstructure:"partitions"`
}

type orderBySpec struct {
	Column    string `mapstructure:"column"`
	Direction string `mapstructure:"direction"`
	Nulls     string `mapstructure:"nulls"`
}

// Extract reads the hypertable configuration of every table entity flagged as a hypertable.
// Entities with a missing time column or an unresolvable column reference are skipped.
func Extract(s *snapshot.Snapshot, logger zerolog.Logger) []Hypertable {
	if s == nil {
		return nil
	}

	var out []Hypertable
	for i := range s.Entities {
		e := &s.Entities[i]
		if !e.Annotations.BoolOr(snapshot.AnnotationHypertable, false) {
			continue
		}
		h, reason := extractOne(e)
		if reason != "" {
			logger.Debug().Str("entity", e.Name).Str("reason", reason).Msg("Skipping hypertable")
			continue
		}
		out = append(out, h)
	}

	slices.SortFunc(out, func(a, b Hypertable) int { return strings.Compare(a.Key(), b.Key()) })
	return out
}

func extractOne(e *snapshot.Entity) (Hypertable, string) {
	obj, ok := e.StoreObject()
	if !ok || obj.Kind != snapshot.StoreObjectTable {
		return Hypertable{}, "not mapped to a table"
	}
	a := e.Annotations

	timeRef, ok := a.String(snapshot.AnnotationHypertableTimeColumn)
	if !ok {
		return Hypertable{}, "no time column"
	}
	timeColumn, ok := e.ColumnName(timeRef, obj)
	if !ok {
		return Hypertable{}, "time column " + timeRef + " not found"
	}

	h := Hypertable{
		Schema:             obj.Schema,
		Table:              obj.Name,
		TimeColumn:         timeColumn,
		CompressionEnabled: a.BoolOr(snapshot.AnnotationHypertableCompression, false),
		MigrateData:        a.BoolOr(snapshot.AnnotationHypertableMigrateData, false),
	}
	if interval, ok := a.String(snapshot.AnnotationHypertableChunkTimeInterval); ok {
		h.ChunkTimeInterval = interval
	}

	var reason string
	if h.ChunkSkipColumns, reason = resolveColumns(e, obj, a, snapshot.AnnotationHypertableChunkSkipColumns); reason != "" {
		return Hypertable{}, reason
	}
	if h.CompressionSegmentBy, reason = resolveColumns(e, obj, a, snapshot.AnnotationHypertableSegmentBy); reason != "" {
		return Hypertable{}, reason
	}

	if items, ok := a.List(snapshot.AnnotationHypertableDimensions); ok {
		for _, item := range items {
			var spec dimensionSpec
			if err := snapshot.DecodeValue(item, &spec); err != nil {
				return Hypertable{}, "malformed dimension: " + err.Error()
			}
			d, reason := resolveDimension(e, obj, spec)
			if reason != "" {
				return Hypertable{}, reason
			}
			h.Dimensions = append(h.Dimensions, d)
		}
	}

	if items, ok := a.List(snapshot.AnnotationHypertableOrderBy); ok {
		for _, item := range items {
			var spec orderBySpec
			if col, isString := item.(string); isString {
				spec.Column = col
			} else if err := snapshot.DecodeValue(item, &spec); err != nil {
				return Hypertable{}, "malformed order-by rule: " + err.Error()
			}
			o, reason := resolveOrderBy(e, obj, spec)
			if reason != "" {
				return Hypertable{}, reason
			}
			h.CompressionOrderBy = append(h.CompressionOrderBy, o)
		}
	}

	return h, ""
}

// resolveColumns maps property references to column names, keeping the first occurrence
// of a repeated column.
func resolveColumns(e *snapshot.Entity, obj snapshot.StoreObject, a snapshot.Annotations, key string) ([]string, string) {
	if !a.Has(key) {
		return nil, ""
	}
	refs, ok := a.Strings(key)
	if !ok {
		return nil, key + " is not a list of column names"
	}
	var cols []string
	for _, ref := range refs {
		col, ok := e.ColumnName(ref, obj)
		if !ok {
			return nil, "column " + ref + " not found"
		}
		if slices.Contains(cols, col) {
			continue
		}
		cols = append(cols, col)
	}
	return cols, ""
}

func resolveDimension(e *snapshot.Entity, obj snapshot.StoreObject, spec dimensionSpec) (Dimension, string) {
	col, ok := e.ColumnName(spec.Column, obj)
	if !ok {
		return Dimension{}, "dimension column " + spec.Column + " not found"
	}
	switch DimensionKind(strings.ToLower(strings.TrimSpace(spec.Kind))) {
	case DimensionRange:
		if strings.TrimSpace(spec.Interval) == "" {
			return Dimension{}, "range dimension " + col + " has no interval"
		}
		return Dimension{Column: col, Kind: DimensionRange, Interval: strings.TrimSpace(spec.Interval)}, ""
	case DimensionHash:
		if spec.Partitions <= 0 {
			return Dimension{}, "hash dimension " + col + " needs a positive partition count"
		}
		return Dimension{Column: col, Kind: DimensionHash, NumberOfPartitions: spec.Partitions}, ""
	default:
		return Dimension{}, "unknown dimension kind " + spec.Kind
	}
}

func resolveOrderBy(e *snapshot.Entity, obj snapshot.StoreObject, spec orderBySpec) (OrderBy, string) {
	col, ok := e.ColumnName(spec.Column, obj)
	if !ok {
		return OrderBy{}, "order-by column " + spec.Column + " not found"
	}
	o := OrderBy{Column: col}
	switch strings.ToUpper(strings.TrimSpace(spec.Direction)) {
	case "":
	case "ASC", "ASCENDING":
		o.Direction = Ascending
	case "DESC", "DESCENDING":
		o.Direction = Descending
	default:
		return OrderBy{}, "unknown order-by direction " + spec.Direction
	}
	switch strings.ToUpper(strings.TrimSpace(spec.Nulls)) {
	case "":
	case "FIRST":
		o.Nulls = NullsFirst
	case "LAST":
		o.Nulls = NullsLast
	default:
		return OrderBy{}, "unknown nulls order " + spec.Nulls
	}
	return o, ""
}
