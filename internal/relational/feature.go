package relational

import (
	"github.com/basekick-labs/tsmigrate/internal/operation"
	"github.com/basekick-labs/tsmigrate/internal/snapshot"
	"github.com/rs/zerolog"
)

// Feature runs the native table differ behind the same interface as the TimescaleDB features.
type Feature struct {
	logger zerolog.Logger
}

// NewFeature creates the native differ.
func NewFeature(logger zerolog.Logger) *Feature {
	return &Feature{logger: logger.With().Str("feature", string(operation.FeatureNative)).Logger()}
}

func (f *Feature) Name() operation.Feature {
	return operation.FeatureNative
}

func (f *Feature) Diff(source, target *snapshot.Snapshot) []operation.Operation {
	return Diff(Extract(source, f.logger), Extract(target, f.logger))
}

func (f *Feature) Generate(op operation.Operation) ([]operation.Statement, bool) {
	switch o := op.(type) {
	case CreateTable:
		return GenerateCreateTable(o), true
	case DropTable:
		return GenerateDropTable(o), true
	case AddColumn:
		return GenerateAddColumn(o), true
	case DropColumn:
		return GenerateDropColumn(o), true
	case AlterColumn:
		return GenerateAlterColumn(o), true
	default:
		return nil, false
	}
}
