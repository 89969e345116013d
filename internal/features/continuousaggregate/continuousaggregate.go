// Package continuousaggregate diffs and renders TimescaleDB continuous aggregates: materialized
// views that bucket a hypertable by time and are refreshed incrementally.
package continuousaggregate

import (
	"slices"
	"strings"

	"github.com/basekick-labs/tsmigrate/internal/operation"
)

// Function is a supported aggregate function.
type Function string

const (
	Avg   Function = "avg"
	Sum   Function = "sum"
	Min   Function = "min"
	Max   Function = "max"
	Count Function = "count"
	First Function = "first"
	Last  Function = "last"
)

// ParseFunction parses a function name case-insensitively.
func ParseFunction(s string) (Function, bool) {
	f := Function(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case Avg, Sum, Min, Max, Count, First, Last:
		return f, true
	default:
		return "", false
	}
}

// Aggregate is one aggregate column of the view.
type Aggregate struct {
	Alias    string
	Function Function
	// Column is the physical column of the parent table.
	Column string
}

// GroupBy is one GROUP BY entry: either a resolved column or a raw expression.
type GroupBy struct {
	Column     string
	Expression string
}

// ContinuousAggregate is the resolved definition of one continuous aggregate.
type ContinuousAggregate struct {
	Schema       string
	ViewName     string
	ParentSchema string
	ParentTable  string
	// ChunkInterval is empty when TimescaleDB should pick it.
	ChunkInterval      string
	WithNoData         bool
	CreateGroupIndexes bool
	MaterializedOnly   bool
	BucketWidth        string
	BucketColumn       string
	BucketGroupBy      bool
	Aggregates         []Aggregate
	GroupBy            []GroupBy
	Where              string
}

// Key identifies the aggregate by its qualified view name.
func (c ContinuousAggregate) Key() string {
	return c.Schema + "." + c.ViewName
}

// ParentKey is the qualified name of the hypertable the view reads from.
func (c ContinuousAggregate) ParentKey() string {
	return c.ParentSchema + "." + c.ParentTable
}

// StructurallyEqual compares the fields that are baked into the view definition. A difference
// here can only be applied by dropping and recreating the view.
func (c ContinuousAggregate) StructurallyEqual(o ContinuousAggregate) bool {
	return c.Schema == o.Schema &&
		c.ViewName == o.ViewName &&
		c.ParentSchema == o.ParentSchema &&
		c.ParentTable == o.ParentTable &&
		c.BucketWidth == o.BucketWidth &&
		c.BucketColumn == o.BucketColumn &&
		c.BucketGroupBy == o.BucketGroupBy &&
		slices.Equal(c.Aggregates, o.Aggregates) &&
		slices.Equal(c.GroupBy, o.GroupBy) &&
		c.Where == o.Where
}

// AlterablyEqual compares the settings that ALTER MATERIALIZED VIEW can change. WithNoData
// only applies at creation and is not compared.
func (c ContinuousAggregate) AlterablyEqual(o ContinuousAggregate) bool {
	return c.ChunkInterval == o.ChunkInterval &&
		c.CreateGroupIndexes == o.CreateGroupIndexes &&
		c.MaterializedOnly == o.MaterializedOnly
}

// Create creates the materialized view.
type Create struct {
	Aggregate ContinuousAggregate
}

func (Create) Feature() operation.Feature { return operation.FeatureContinuousAggregate }
func (Create) Kind() operation.Kind       { return operation.KindCreate }
func (c Create) Key() string              { return c.Aggregate.Key() }

// Alter changes the alterable settings of an existing view.
type Alter struct {
	Old ContinuousAggregate
	New ContinuousAggregate
}

func (Alter) Feature() operation.Feature { return operation.FeatureContinuousAggregate }
func (Alter) Kind() operation.Kind       { return operation.KindAlter }
func (a Alter) Key() string              { return a.New.Key() }

// Drop drops the view. Replaced is set when a Create for the same key follows.
type Drop struct {
	Aggregate ContinuousAggregate
	Replaced  bool
}

func (Drop) Feature() operation.Feature { return operation.FeatureContinuousAggregate }
func (Drop) Kind() operation.Kind       { return operation.KindDrop }
func (d Drop) Key() string              { return d.Aggregate.Key() }
func (d Drop) Replacing() bool          { return d.Replaced }
