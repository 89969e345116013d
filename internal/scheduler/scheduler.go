// Package scheduler orders the operations of all features into an execution-safe sequence.
package scheduler

import (
	"slices"

	"github.com/basekick-labs/tsmigrate/internal/operation"
)

// Priority classes. Lower classes run first.
const (
	PriorityNative                    = 0
	PriorityHypertable                = 10
	PriorityReorderPolicy             = 20
	PriorityContinuousAggregateCreate = 30
	PriorityContinuousAggregateChange = 40
	PriorityRefreshPolicy             = 50
	PriorityUnknown                   = 100
)

// Priority returns the class of op. Hypertables run before anything that references them,
// continuous aggregates before their refresh policies. A continuous aggregate drop that is
// half of a replacement shares the create class so it stays right before its create.
func Priority(op operation.Operation) int {
	switch op.Feature() {
	case operation.FeatureNative:
		return PriorityNative
	case operation.FeatureHypertable:
		return PriorityHypertable
	case operation.FeatureReorderPolicy:
		return PriorityReorderPolicy
	case operation.FeatureContinuousAggregate:
		if op.Kind() == operation.KindCreate || operation.IsReplacement(op) {
			return PriorityContinuousAggregateCreate
		}
		return PriorityContinuousAggregateChange
	case operation.FeatureRefreshPolicy:
		return PriorityRefreshPolicy
	default:
		return PriorityUnknown
	}
}

// Schedule returns a copy of ops stable-sorted by priority class. Operations within a class
// keep their discovery order.
func Schedule(ops []operation.Operation) []operation.Operation {
	ordered := slices.Clone(ops)
	slices.SortStableFunc(ordered, func(a, b operation.Operation) int {
		return Priority(a) - Priority(b)
	})
	return ordered
}
