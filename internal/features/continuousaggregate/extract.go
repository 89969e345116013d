package continuousaggregate

import (
	"slices"
	"strings"

	"github.com/basekick-labs/tsmigrate/internal/snapshot"
	"github.com/basekick-labs/tsmigrate/internal/sql"
	"github.com/rs/zerolog"
)

type aggregateSpec struct {
	Alias    string `mapstructure:"alias"`
	Function string `mapstructure:"function"`
	Column   string `mapstructure:"column"`
}

type groupBySpec struct {
	Column     string `mapstructure:"column"`
	Expression string `mapstructure:"expression"`
}

// Extract reads every view entity flagged as a continuous aggregate. Column references are
// resolved against the parent hypertable; a view whose parent, bucket column or aggregate
// columns cannot be resolved is skipped.
func Extract(s *snapshot.Snapshot, logger zerolog.Logger) []ContinuousAggregate {
	if s == nil {
		return nil
	}

	var out []ContinuousAggregate
	for i := range s.Entities {
		e := &s.Entities[i]
		if !e.Annotations.BoolOr(snapshot.AnnotationContinuousAggregate, false) {
			continue
		}
		c, reason := extractOne(s, e)
		if reason != "" {
			logger.Debug().Str("entity", e.Name).Str("reason", reason).Msg("Skipping continuous aggregate")
			continue
		}
		out = append(out, c)
	}

	slices.SortFunc(out, func(a, b ContinuousAggregate) int { return strings.Compare(a.Key(), b.Key()) })
	return out
}

// FindParent resolves a parent reference, given as an entity name or a (qualified) table name.
func FindParent(s *snapshot.Snapshot, ref string) (*snapshot.Entity, snapshot.StoreObject, bool) {
	parent, ok := s.FindEntity(ref)
	if !ok {
		parent, ok = s.FindByStoreObject(ref)
	}
	if !ok {
		return nil, snapshot.StoreObject{}, false
	}
	obj, ok := parent.StoreObject()
	if !ok || obj.Kind != snapshot.StoreObjectTable {
		return nil, snapshot.StoreObject{}, false
	}
	return parent, obj, true
}

func extractOne(s *snapshot.Snapshot, e *snapshot.Entity) (ContinuousAggregate, string) {
	obj, ok := e.StoreObject()
	if !ok || obj.Kind != snapshot.StoreObjectView {
		return ContinuousAggregate{}, "not mapped to a view"
	}
	a := e.Annotations

	parentRef, ok := a.String(snapshot.AnnotationContinuousAggregateParent)
	if !ok {
		return ContinuousAggregate{}, "no parent"
	}
	parent, parentObj, ok := FindParent(s, parentRef)
	if !ok {
		return ContinuousAggregate{}, "parent " + parentRef + " not found"
	}

	width, ok := a.String(snapshot.AnnotationContinuousAggregateBucketWidth)
	if !ok {
		return ContinuousAggregate{}, "no bucket width"
	}
	bucketRef, ok := a.String(snapshot.AnnotationContinuousAggregateBucketColumn)
	if !ok {
		return ContinuousAggregate{}, "no bucket column"
	}
	bucketColumn, ok := parent.ColumnName(bucketRef, parentObj)
	if !ok {
		return ContinuousAggregate{}, "bucket column " + bucketRef + " not found on parent"
	}

	c := ContinuousAggregate{
		Schema:             obj.Schema,
		ViewName:           obj.Name,
		ParentSchema:       parentObj.Schema,
		ParentTable:        parentObj.Name,
		WithNoData:         a.BoolOr(snapshot.AnnotationContinuousAggregateWithNoData, false),
		CreateGroupIndexes: a.BoolOr(snapshot.AnnotationContinuousAggregateCreateGroupIndexes, true),
		MaterializedOnly:   a.BoolOr(snapshot.AnnotationContinuousAggregateMaterializedOnly, true),
		BucketWidth:        width,
		BucketColumn:       bucketColumn,
		BucketGroupBy:      a.BoolOr(snapshot.AnnotationContinuousAggregateBucketGroupBy, true),
	}
	if v, ok := a.String(snapshot.AnnotationContinuousAggregateChunkInterval); ok {
		c.ChunkInterval = v
	}

	if items, ok := a.List(snapshot.AnnotationContinuousAggregateAggregates); ok {
		for _, item := range items {
			var spec aggregateSpec
			if err := snapshot.DecodeValue(item, &spec); err != nil {
				return ContinuousAggregate{}, "malformed aggregate: " + err.Error()
			}
			agg, reason := resolveAggregate(parent, parentObj, spec)
			if reason != "" {
				return ContinuousAggregate{}, reason
			}
			c.Aggregates = append(c.Aggregates, agg)
		}
	}

	if items, ok := a.List(snapshot.AnnotationContinuousAggregateGroupBy); ok {
		for _, item := range items {
			g, reason := resolveGroupBy(parent, parentObj, item)
			if reason != "" {
				return ContinuousAggregate{}, reason
			}
			c.GroupBy = append(c.GroupBy, g)
		}
	}

	if where, ok := a.String(snapshot.AnnotationContinuousAggregateWhere); ok {
		if !sql.IsSafeFragment(where) {
			return ContinuousAggregate{}, "where clause is not a single predicate"
		}
		c.Where = where
	}

	return c, ""
}

func resolveAggregate(parent *snapshot.Entity, obj snapshot.StoreObject, spec aggregateSpec) (Aggregate, string) {
	fn, ok := ParseFunction(spec.Function)
	if !ok {
		return Aggregate{}, "unknown aggregate function " + spec.Function
	}
	alias := strings.TrimSpace(spec.Alias)
	if alias == "" {
		return Aggregate{}, "aggregate without alias"
	}
	if fn == Count && strings.TrimSpace(spec.Column) == "*" {
		return Aggregate{Alias: alias, Function: fn, Column: "*"}, ""
	}
	col, ok := parent.ColumnName(spec.Column, obj)
	if !ok {
		return Aggregate{}, "aggregate column " + spec.Column + " not found on parent"
	}
	return Aggregate{Alias: alias, Function: fn, Column: col}, ""
}

// resolveGroupBy accepts a column reference, a raw expression such as "1, 2", or a map
// naming either explicitly. Bare strings that do not resolve are taken as expressions.
func resolveGroupBy(parent *snapshot.Entity, obj snapshot.StoreObject, item any) (GroupBy, string) {
	var spec groupBySpec
	if ref, isString := item.(string); isString {
		if col, ok := parent.ColumnName(ref, obj); ok {
			return GroupBy{Column: col}, ""
		}
		spec.Expression = ref
	} else if err := snapshot.DecodeValue(item, &spec); err != nil {
		return GroupBy{}, "malformed group by: " + err.Error()
	}

	if spec.Column != "" {
		col, ok := parent.ColumnName(spec.Column, obj)
		if !ok {
			return GroupBy{}, "group by column " + spec.Column + " not found on parent"
		}
		return GroupBy{Column: col}, ""
	}
	expr := strings.TrimSpace(spec.Expression)
	if expr == "" || !sql.IsSafeFragment(expr) {
		return GroupBy{}, "invalid group by expression " + spec.Expression
	}
	return GroupBy{Expression: expr}, ""
}
