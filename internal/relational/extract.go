package relational

import (
	"slices"
	"strings"

	"github.com/basekick-labs/tsmigrate/internal/snapshot"
	"github.com/basekick-labs/tsmigrate/internal/sql"
	"github.com/rs/zerolog"
)

// Extract reads every table-mapped entity. Properties without a type are not columns the
// tool manages and are left out.
func Extract(s *snapshot.Snapshot, logger zerolog.Logger) []Table {
	if s == nil {
		return nil
	}

	var out []Table
	for i := range s.Entities {
		e := &s.Entities[i]
		obj, ok := e.StoreObject()
		if !ok || obj.Kind != snapshot.StoreObjectTable {
			continue
		}

		t := Table{Schema: obj.Schema, Name: obj.Name}
		for j := range e.Properties {
			p := &e.Properties[j]
			typ := strings.TrimSpace(p.Type)
			if typ == "" {
				continue
			}
			if !sql.IsSafeFragment(typ) {
				logger.Debug().Str("entity", e.Name).Str("property", p.Name).Msg("Skipping column with unsafe type")
				continue
			}
			t.Columns = append(t.Columns, Column{
				Name:       p.ColumnName(obj),
				Type:       typ,
				Nullable:   p.Nullable,
				PrimaryKey: p.PrimaryKey,
			})
		}
		if len(t.Columns) == 0 {
			logger.Debug().Str("entity", e.Name).Msg("Skipping table without typed columns")
			continue
		}
		out = append(out, t)
	}

	slices.SortFunc(out, func(a, b Table) int { return strings.Compare(a.Key(), b.Key()) })
	return out
}
