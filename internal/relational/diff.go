package relational

import "github.com/basekick-labs/tsmigrate/internal/operation"

// Diff compares tables and, for tables present on both sides, their columns by name.
func Diff(source, target []Table) []operation.Operation {
	m := operation.MatchByKey(source, target)

	var ops []operation.Operation
	for _, t := range m.Added {
		ops = append(ops, CreateTable{Table: t})
	}
	for _, p := range m.Common {
		ops = append(ops, diffColumns(p.Old, p.New)...)
	}
	for _, t := range m.Removed {
		ops = append(ops, DropTable{Table: t})
	}
	return ops
}

func diffColumns(oldT, newT Table) []operation.Operation {
	var ops []operation.Operation
	for _, c := range newT.Columns {
		old, ok := oldT.column(c.Name)
		switch {
		case !ok:
			ops = append(ops, AddColumn{Schema: newT.Schema, Table: newT.Name, Column: c})
		case old != c:
			ops = append(ops, AlterColumn{Schema: newT.Schema, Table: newT.Name, Old: old, New: c})
		}
	}
	for _, c := range oldT.Columns {
		if _, ok := newT.column(c.Name); !ok {
			ops = append(ops, DropColumn{Schema: oldT.Schema, Table: oldT.Name, Column: c})
		}
	}
	return ops
}
