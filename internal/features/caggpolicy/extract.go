package caggpolicy

import (
	"slices"
	"strings"

	"github.com/basekick-labs/tsmigrate/internal/snapshot"
	"github.com/rs/zerolog"
)

// Extract reads the refresh policy of every view entity that declares one. A policy without
// a schedule interval is skipped.
func Extract(s *snapshot.Snapshot, logger zerolog.Logger) []RefreshPolicy {
	if s == nil {
		return nil
	}

	var out []RefreshPolicy
	for i := range s.Entities {
		e := &s.Entities[i]
		a := e.Annotations
		if !a.BoolOr(snapshot.AnnotationRefreshPolicy, false) {
			continue
		}
		obj, ok := e.StoreObject()
		if !ok || obj.Kind != snapshot.StoreObjectView {
			logger.Debug().Str("entity", e.Name).Msg("Skipping refresh policy: not mapped to a view")
			continue
		}
		schedule, ok := a.String(snapshot.AnnotationRefreshPolicyScheduleInterval)
		if !ok {
			logger.Debug().Str("entity", e.Name).Msg("Skipping refresh policy: no schedule interval")
			continue
		}

		p := New(obj.Schema, obj.Name, schedule)
		if v, ok := a.String(snapshot.AnnotationRefreshPolicyStartOffset); ok {
			p.StartOffset = &v
		}
		if v, ok := a.String(snapshot.AnnotationRefreshPolicyEndOffset); ok {
			p.EndOffset = &v
		}
		if ts, ok := a.Time(snapshot.AnnotationRefreshPolicyInitialStart); ok {
			p.InitialStart = ts.UTC()
		} else if a.Has(snapshot.AnnotationRefreshPolicyInitialStart) {
			logger.Debug().Str("entity", e.Name).Msg("Skipping refresh policy: malformed initial start")
			continue
		}
		p.IfNotExists = a.BoolOr(snapshot.AnnotationRefreshPolicyIfNotExists, false)
		if v, ok := a.Bool(snapshot.AnnotationRefreshPolicyIncludeTieredData); ok {
			p.IncludeTieredData = &v
		}
		if v, ok := a.Int(snapshot.AnnotationRefreshPolicyBucketsPerBatch); ok {
			p.BucketsPerBatch = v
		}
		if v, ok := a.Int(snapshot.AnnotationRefreshPolicyMaxBatchesPerExecution); ok {
			p.MaxBatchesPerExecution = v
		}
		p.RefreshNewestFirst = a.BoolOr(snapshot.AnnotationRefreshPolicyRefreshNewestFirst, DefaultRefreshNewestFirst)
		out = append(out, p)
	}

	slices.SortFunc(out, func(a, b RefreshPolicy) int { return strings.Compare(a.Key(), b.Key()) })
	return out
}
