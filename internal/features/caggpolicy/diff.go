package caggpolicy

import "github.com/basekick-labs/tsmigrate/internal/operation"

// Diff compares refresh policies by view. Changed policies are removed and re-added; the
// re-add always carries if_not_exists so a concurrent re-application does not fail.
func Diff(source, target []RefreshPolicy) []operation.Operation {
	m := operation.MatchByKey(source, target)

	var ops []operation.Operation
	for _, p := range m.Added {
		ops = append(ops, Add{Policy: p})
	}
	for _, pair := range m.Common {
		if pair.Old.Equal(pair.New) {
			continue
		}
		readd := pair.New
		readd.IfNotExists = true
		ops = append(ops, Remove{Policy: pair.Old}, Add{Policy: readd})
	}
	for _, p := range m.Removed {
		ops = append(ops, Remove{Policy: p})
	}
	return ops
}
