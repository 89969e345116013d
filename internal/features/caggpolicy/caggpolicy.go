// Package caggpolicy diffs and renders continuous aggregate refresh policies.
//
// TimescaleDB has no way to alter a refresh policy, so any change is applied as a remove
// followed by an add.
package caggpolicy

import (
	"time"

	"github.com/basekick-labs/tsmigrate/internal/operation"
)

// Defaults of the advanced add_continuous_aggregate_policy arguments.
const (
	DefaultBucketsPerBatch        = 1
	DefaultMaxBatchesPerExecution = 0
	DefaultRefreshNewestFirst     = true
)

// RefreshPolicy is the resolved refresh policy of one continuous aggregate.
type RefreshPolicy struct {
	Schema   string
	ViewName string
	// StartOffset and EndOffset are nil for an unbounded window. Values are interval literals
	// or integers for integer-based time columns.
	StartOffset      *string
	EndOffset        *string
	ScheduleInterval string
	// InitialStart is zero when not set.
	InitialStart           time.Time
	IfNotExists            bool
	IncludeTieredData      *bool
	BucketsPerBatch        int
	MaxBatchesPerExecution int
	RefreshNewestFirst     bool
}

// New returns a policy with the advanced defaults filled in.
func New(schema, view, scheduleInterval string) RefreshPolicy {
	return RefreshPolicy{
		Schema:                 schema,
		ViewName:               view,
		ScheduleInterval:       scheduleInterval,
		BucketsPerBatch:        DefaultBucketsPerBatch,
		MaxBatchesPerExecution: DefaultMaxBatchesPerExecution,
		RefreshNewestFirst:     DefaultRefreshNewestFirst,
	}
}

// Key identifies the policy by its continuous aggregate.
func (p RefreshPolicy) Key() string {
	return p.Schema + "." + p.ViewName
}

// Equal compares every field; optional fields compare by presence and value.
func (p RefreshPolicy) Equal(o RefreshPolicy) bool {
	return p.Schema == o.Schema &&
		p.ViewName == o.ViewName &&
		equalPtr(p.StartOffset, o.StartOffset) &&
		equalPtr(p.EndOffset, o.EndOffset) &&
		p.ScheduleInterval == o.ScheduleInterval &&
		p.InitialStart.Equal(o.InitialStart) &&
		p.IfNotExists == o.IfNotExists &&
		equalPtr(p.IncludeTieredData, o.IncludeTieredData) &&
		p.BucketsPerBatch == o.BucketsPerBatch &&
		p.MaxBatchesPerExecution == o.MaxBatchesPerExecution &&
		p.RefreshNewestFirst == o.RefreshNewestFirst
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// Add attaches a refresh policy.
type Add struct {
	Policy RefreshPolicy
}

func (Add) Feature() operation.Feature { return operation.FeatureRefreshPolicy }
func (Add) Kind() operation.Kind       { return operation.KindCreate }
func (a Add) Key() string              { return a.Policy.Key() }

// Remove detaches a refresh policy.
type Remove struct {
	Policy RefreshPolicy
}

func (Remove) Feature() operation.Feature { return operation.FeatureRefreshPolicy }
func (Remove) Kind() operation.Kind       { return operation.KindDrop }
func (r Remove) Key() string              { return r.Policy.Key() }
