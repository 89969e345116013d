// Package reorderpolicy diffs and renders TimescaleDB reorder policies, the background job
// that rewrites chunks in index order.
package reorderpolicy

import (
	"time"

	"github.com/basekick-labs/tsmigrate/internal/operation"
)

// Job tuning defaults applied by add_reorder_policy.
const (
	DefaultScheduleInterval = "1 day"
	DefaultMaxRuntime       = "00:00:00"
	DefaultMaxRetries       = -1
	DefaultRetryPeriod      = "00:05:00"
)

// ReorderPolicy is the resolved reorder policy of one hypertable.
type ReorderPolicy struct {
	Schema    string
	Table     string
	IndexName string
	// InitialStart is zero when not set.
	InitialStart     time.Time
	ScheduleInterval string
	MaxRuntime       string
	MaxRetries       int
	RetryPeriod      string
}

// New returns a policy with the job tuning defaults filled in.
func New(schema, table, indexName string) ReorderPolicy {
	return ReorderPolicy{
		Schema:           schema,
		Table:            table,
		IndexName:        indexName,
		ScheduleInterval: DefaultScheduleInterval,
		MaxRuntime:       DefaultMaxRuntime,
		MaxRetries:       DefaultMaxRetries,
		RetryPeriod:      DefaultRetryPeriod,
	}
}

// Key identifies the policy by its hypertable.
func (p ReorderPolicy) Key() string {
	return p.Schema + "." + p.Table
}

// Equal compares all fields. Initial start timestamps compare as instants.
func (p ReorderPolicy) Equal(o ReorderPolicy) bool {
	return p.Schema == o.Schema &&
		p.Table == o.Table &&
		p.IndexName == o.IndexName &&
		p.InitialStart.Equal(o.InitialStart) &&
		p.ScheduleInterval == o.ScheduleInterval &&
		p.MaxRuntime == o.MaxRuntime &&
		p.MaxRetries == o.MaxRetries &&
		p.RetryPeriod == o.RetryPeriod
}

// Add attaches a new reorder policy.
type Add struct {
	Policy ReorderPolicy
}

func (Add) Feature() operation.Feature { return operation.FeatureReorderPolicy }
func (Add) Kind() operation.Kind       { return operation.KindCreate }
func (a Add) Key() string              { return a.Policy.Key() }

// Alter changes an existing policy. Index or initial start changes are rendered as a
// remove and re-add, tuning changes as an in-place alter_job.
type Alter struct {
	Old ReorderPolicy
	New ReorderPolicy
}

func (Alter) Feature() operation.Feature { return operation.FeatureReorderPolicy }
func (Alter) Kind() operation.Kind       { return operation.KindAlter }
func (a Alter) Key() string              { return a.New.Key() }

// Drop removes a reorder policy.
type Drop struct {
	Policy ReorderPolicy
}

func (Drop) Feature() operation.Feature { return operation.FeatureReorderPolicy }
func (Drop) Kind() operation.Kind       { return operation.KindDrop }
func (d Drop) Key() string              { return d.Policy.Key() }
