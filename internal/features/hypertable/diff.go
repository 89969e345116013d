package hypertable

import "github.com/basekick-labs/tsmigrate/internal/operation"

// Diff compares hypertable configurations. Every field can be changed in place, so a
// matched pair yields at most one Alter. Hypertables missing from the target produce no
// operation: a hypertable cannot be turned back into a plain table.
func Diff(source, target []Hypertable) []operation.Operation {
	m := operation.MatchByKey(source, target)

	var ops []operation.Operation
	for _, h := range m.Added {
		ops = append(ops, Create{Hypertable: h})
	}
	for _, p := range m.Common {
		if !p.Old.Equal(p.New) {
			ops = append(ops, Alter{Old: p.Old, New: p.New})
		}
	}
	return ops
}
