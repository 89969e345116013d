package hypertable

import (
	"github.com/basekick-labs/tsmigrate/internal/operation"
	"github.com/basekick-labs/tsmigrate/internal/snapshot"
	"github.com/rs/zerolog"
)

// Feature wires extraction, diffing and generation of hypertables.
type Feature struct {
	logger zerolog.Logger
}

// NewFeature creates the hypertable feature.
func NewFeature(logger zerolog.Logger) *Feature {
	return &Feature{logger: logger.With().Str("feature", string(operation.FeatureHypertable)).Logger()}
}

// Name returns the feature name.
func (f *Feature) Name() operation.Feature {
	return operation.FeatureHypertable
}

// Diff extracts hypertables from both snapshots and compares them.
func (f *Feature) Diff(source, target *snapshot.Snapshot) []operation.Operation {
	return Diff(Extract(source, f.logger), Extract(target, f.logger))
}

// Generate renders hypertable operations. Operations of other features are not handled.
func (f *Feature) Generate(op operation.Operation) ([]operation.Statement, bool) {
	switch o := op.(type) {
	case Create:
		return GenerateCreate(o), true
	case Alter:
		return GenerateAlter(o), true
	default:
		return nil, false
	}
}
