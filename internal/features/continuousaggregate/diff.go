package continuousaggregate

import "github.com/basekick-labs/tsmigrate/internal/operation"

// Diff compares continuous aggregates by view. A change to the view definition yields a
// Drop immediately followed by a Create; a settings-only change yields an Alter.
func Diff(source, target []ContinuousAggregate) []operation.Operation {
	m := operation.MatchByKey(source, target)

	var ops []operation.Operation
	for _, c := range m.Added {
		ops = append(ops, Create{Aggregate: c})
	}
	for _, p := range m.Common {
		switch {
		case !p.Old.StructurallyEqual(p.New):
			ops = append(ops, Drop{Aggregate: p.Old, Replaced: true}, Create{Aggregate: p.New})
		case !p.Old.AlterablyEqual(p.New):
			ops = append(ops, Alter{Old: p.Old, New: p.New})
		}
	}
	for _, c := range m.Removed {
		ops = append(ops, Drop{Aggregate: c})
	}
	return ops
}
