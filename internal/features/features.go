// Package features defines the contract shared by every diffable feature and the default set
// the planner runs.
package features

import (
	"github.com/basekick-labs/tsmigrate/internal/features/caggpolicy"
	"github.com/basekick-labs/tsmigrate/internal/features/continuousaggregate"
	"github.com/basekick-labs/tsmigrate/internal/features/hypertable"
	"github.com/basekick-labs/tsmigrate/internal/features/reorderpolicy"
	"github.com/basekick-labs/tsmigrate/internal/operation"
	"github.com/basekick-labs/tsmigrate/internal/relational"
	"github.com/basekick-labs/tsmigrate/internal/snapshot"
	"github.com/rs/zerolog"
)

// Feature diffs one kind of schema object between two snapshots and renders its operations.
type Feature interface {
	Name() operation.Feature
	// Diff extracts the feature from both snapshots and returns the operations that turn
	// source into target. It never fails.
	Diff(source, target *snapshot.Snapshot) []operation.Operation
	// Generate renders op. The boolean is false when op belongs to another feature.
	Generate(op operation.Operation) ([]operation.Statement, bool)
}

// Default returns the native differ followed by every TimescaleDB feature.
func Default(logger zerolog.Logger) []Feature {
	return []Feature{
		relational.NewFeature(logger),
		hypertable.NewFeature(logger),
		reorderpolicy.NewFeature(logger),
		continuousaggregate.NewFeature(logger),
		caggpolicy.NewFeature(logger),
	}
}
