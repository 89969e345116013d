package caggpolicy

import (
	"github.com/basekick-labs/tsmigrate/internal/operation"
	"github.com/basekick-labs/tsmigrate/internal/snapshot"
	"github.com/rs/zerolog"
)

// Feature wires extraction, diffing and generation of refresh policies.
type Feature struct {
	logger zerolog.Logger
}

// NewFeature creates the refresh policy feature.
func NewFeature(logger zerolog.Logger) *Feature {
	return &Feature{logger: logger.With().Str("feature", string(operation.FeatureRefreshPolicy)).Logger()}
}

func (f *Feature) Name() operation.Feature {
	return operation.FeatureRefreshPolicy
}

func (f *Feature) Diff(source, target *snapshot.Snapshot) []operation.Operation {
	return Diff(Extract(source, f.logger), Extract(target, f.logger))
}

func (f *Feature) Generate(op operation.Operation) ([]operation.Statement, bool) {
	switch o := op.(type) {
	case Add:
		return GenerateAdd(o), true
	case Remove:
		return GenerateRemove(o), true
	default:
		return nil, false
	}
}
