package caggpolicy

import (
	"github.com/basekick-labs/tsmigrate/internal/operation"
	"github.com/basekick-labs/tsmigrate/internal/sql"
)

// GenerateAdd renders add_continuous_aggregate_policy. Advanced arguments appear only when
// they differ from their defaults.
func GenerateAdd(op Add) []operation.Statement {
	p := op.Policy
	args := []string{
		sql.RegClass(p.Schema, p.ViewName),
		sql.Arg("start_offset", offset(p.StartOffset)),
		sql.Arg("end_offset", offset(p.EndOffset)),
		sql.Arg("schedule_interval", sql.Interval(p.ScheduleInterval)),
	}
	if !p.InitialStart.IsZero() {
		args = append(args, sql.Arg("initial_start", sql.Timestamp(p.InitialStart)))
	}
	if p.IfNotExists {
		args = append(args, sql.Arg("if_not_exists", sql.Bool(true)))
	}
	if p.IncludeTieredData != nil {
		args = append(args, sql.Arg("include_tiered_data", sql.Bool(*p.IncludeTieredData)))
	}
	if p.BucketsPerBatch != DefaultBucketsPerBatch {
		args = append(args, sql.Arg("buckets_per_batch", sql.Int(p.BucketsPerBatch)))
	}
	if p.MaxBatchesPerExecution != DefaultMaxBatchesPerExecution {
		args = append(args, sql.Arg("max_batches_per_execution", sql.Int(p.MaxBatchesPerExecution)))
	}
	if p.RefreshNewestFirst != DefaultRefreshNewestFirst {
		args = append(args, sql.Arg("refresh_newest_first", sql.Bool(p.RefreshNewestFirst)))
	}
	return []operation.Statement{{SQL: sql.Select("add_continuous_aggregate_policy", args...)}}
}

// GenerateRemove renders remove_continuous_aggregate_policy guarded with if_exists.
func GenerateRemove(op Remove) []operation.Statement {
	p := op.Policy
	return []operation.Statement{{SQL: sql.Select("remove_continuous_aggregate_policy",
		sql.RegClass(p.Schema, p.ViewName), sql.Arg("if_exists", sql.Bool(true)))}}
}

func offset(v *string) string {
	if v == nil {
		return "NULL"
	}
	return sql.IntervalOrInteger(*v)
}
