package reorderpolicy

import (
	"slices"
	"strings"

	"github.com/basekick-labs/tsmigrate/internal/snapshot"
	"github.com/rs/zerolog"
)

// Extract reads the reorder policy of every table entity that declares one. An entity without
// an index name is skipped.
func Extract(s *snapshot.Snapshot, logger zerolog.Logger) []ReorderPolicy {
	if s == nil {
		return nil
	}

	var out []ReorderPolicy
	for i := range s.Entities {
		e := &s.Entities[i]
		a := e.Annotations
		if !a.BoolOr(snapshot.AnnotationReorderPolicy, false) {
			continue
		}
		obj, ok := e.StoreObject()
		if !ok || obj.Kind != snapshot.StoreObjectTable {
			logger.Debug().Str("entity", e.Name).Msg("Skipping reorder policy: not mapped to a table")
			continue
		}
		index, ok := a.String(snapshot.AnnotationReorderPolicyIndexName)
		if !ok {
			logger.Debug().Str("entity", e.Name).Msg("Skipping reorder policy: no index name")
			continue
		}

		p := New(obj.Schema, obj.Name, index)
		if ts, ok := a.Time(snapshot.AnnotationReorderPolicyInitialStart); ok {
			p.InitialStart = ts.UTC()
		} else if a.Has(snapshot.AnnotationReorderPolicyInitialStart) {
			logger.Debug().Str("entity", e.Name).Msg("Skipping reorder policy: malformed initial start")
			continue
		}
		if v, ok := a.String(snapshot.AnnotationReorderPolicyScheduleInterval); ok {
			p.ScheduleInterval = v
		}
		if v, ok := a.String(snapshot.AnnotationReorderPolicyMaxRuntime); ok {
			p.MaxRuntime = v
		}
		if v, ok := a.Int(snapshot.AnnotationReorderPolicyMaxRetries); ok {
			p.MaxRetries = v
		}
		if v, ok := a.String(snapshot.AnnotationReorderPolicyRetryPeriod); ok {
			p.RetryPeriod = v
		}
		out = append(out, p)
	}

	slices.SortFunc(out, func(a, b ReorderPolicy) int { return strings.Compare(a.Key(), b.Key()) })
	return out
}
