package reorderpolicy

import "github.com/basekick-labs/tsmigrate/internal/operation"

// Diff compares reorder policies by hypertable.
func Diff(source, target []ReorderPolicy) []operation.Operation {
	m := operation.MatchByKey(source, target)

	var ops []operation.Operation
	for _, p := range m.Added {
		ops = append(ops, Add{Policy: p})
	}
	for _, pair := range m.Common {
		if !pair.Old.Equal(pair.New) {
			ops = append(ops, Alter{Old: pair.Old, New: pair.New})
		}
	}
	for _, p := range m.Removed {
		ops = append(ops, Drop{Policy: p})
	}
	return ops
}
