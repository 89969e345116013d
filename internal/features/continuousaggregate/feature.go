package continuousaggregate

import (
	"github.com/basekick-labs/tsmigrate/internal/operation"
	"github.com/basekick-labs/tsmigrate/internal/snapshot"
	"github.com/rs/zerolog"
)

// Feature wires extraction, diffing and generation of continuous aggregates.
type Feature struct {
	logger zerolog.Logger
}

// NewFeature creates the continuous aggregate feature.
func NewFeature(logger zerolog.Logger) *Feature {
	return &Feature{logger: logger.With().Str("feature", string(operation.FeatureContinuousAggregate)).Logger()}
}

func (f *Feature) Name() operation.Feature {
	return operation.FeatureContinuousAggregate
}

func (f *Feature) Diff(source, target *snapshot.Snapshot) []operation.Operation {
	return Diff(Extract(source, f.logger), Extract(target, f.logger))
}

func (f *Feature) Generate(op operation.Operation) ([]operation.Statement, bool) {
	switch o := op.(type) {
	case Create:
		return GenerateCreate(o), true
	case Alter:
		return GenerateAlter(o), true
	case Drop:
		return GenerateDrop(o), true
	default:
		return nil, false
	}
}
