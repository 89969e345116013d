package caggpolicy

import (
	"testing"
	"time"

	"github.com/basekick-labs/tsmigrate/internal/operation"
	"github.com/basekick-labs/tsmigrate/internal/snapshot"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestGenerateAdd_Minimal(t *testing.T) {
	stmts := GenerateAdd(Add{Policy: New("public", "metrics_hourly", "1 hour")})
	require.Len(t, stmts, 1)
	assert.Equal(t, `SELECT add_continuous_aggregate_policy('"public"."metrics_hourly"', start_offset => NULL, end_offset => NULL, schedule_interval => INTERVAL '1 hour');`, stmts[0].SQL)
}

func TestGenerateAdd_Full(t *testing.T) {
	p := New("public", "metrics_hourly", "30 minutes")
	p.StartOffset = ptr("1 month")
	p.EndOffset = ptr("10")
	p.InitialStart = time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	p.IfNotExists = true
	p.IncludeTieredData = ptr(false)
	p.BucketsPerBatch = 5
	p.MaxBatchesPerExecution = 20
	p.RefreshNewestFirst = false

	stmts := GenerateAdd(Add{Policy: p})
	require.Len(t, stmts, 1)
	assert.Equal(t, `SELECT add_continuous_aggregate_policy('"public"."metrics_hourly"', start_offset => INTERVAL '1 month', end_offset => 10, schedule_interval => INTERVAL '30 minutes', initial_start => '2025-02-01T00:00:00Z'::timestamptz, if_not_exists => true, include_tiered_data => false, buckets_per_batch => 5, max_batches_per_execution => 20, refresh_newest_first => false);`, stmts[0].SQL)
}

func TestGenerateRemove(t *testing.T) {
	stmts := GenerateRemove(Remove{Policy: New("analytics", "daily", "1 day")})
	require.Len(t, stmts, 1)
	assert.Equal(t, `SELECT remove_continuous_aggregate_policy('"analytics"."daily"', if_exists => true);`, stmts[0].SQL)
}

func TestDiff_ChangeIsRemoveThenAdd(t *testing.T) {
	oldP := New("public", "metrics_hourly", "1 hour")
	newP := oldP
	newP.ScheduleInterval = "2 hours"

	ops := Diff([]RefreshPolicy{oldP}, []RefreshPolicy{newP})
	require.Len(t, ops, 2)
	assert.Equal(t, Remove{Policy: oldP}, ops[0])

	add, ok := ops[1].(Add)
	require.True(t, ok)
	assert.True(t, add.Policy.IfNotExists)
	assert.Equal(t, "2 hours", add.Policy.ScheduleInterval)
}

func TestDiff_OffsetPresenceMatters(t *testing.T) {
	oldP := New("public", "v", "1 hour")
	newP := oldP
	newP.StartOffset = ptr("1 day")
	assert.Len(t, Diff([]RefreshPolicy{oldP}, []RefreshPolicy{newP}), 2)

	same := oldP
	same.StartOffset = ptr("1 day")
	other := oldP
	other.StartOffset = ptr("1 day")
	assert.Empty(t, Diff([]RefreshPolicy{same}, []RefreshPolicy{other}))
}

func TestDiff_AddAndRemove(t *testing.T) {
	a := New("public", "a", "1 hour")
	b := New("public", "b", "1 hour")
	ops := Diff([]RefreshPolicy{a}, []RefreshPolicy{b})
	require.Len(t, ops, 2)
	assert.Equal(t, Add{Policy: b}, ops[0])
	assert.Equal(t, Remove{Policy: a}, ops[1])
}

const policyDoc = `
entities:
  - name: MetricHourly
    view: metrics_hourly
    annotations:
      timescaledb:refresh_policy: true
      timescaledb:refresh_policy.start_offset: 1 month
      timescaledb:refresh_policy.end_offset: null
      timescaledb:refresh_policy.schedule_interval: 1 hour
      timescaledb:refresh_policy.buckets_per_batch: 4
      timescaledb:refresh_policy.include_tiered_data: true
      timescaledb:refresh_policy.refresh_newest_first: false
  - name: IntegerOffsets
    view: integer_offsets
    annotations:
      timescaledb:refresh_policy: true
      timescaledb:refresh_policy.start_offset: 100
      timescaledb:refresh_policy.end_offset: 10
      timescaledb:refresh_policy.schedule_interval: 1 day
  - name: NoSchedule
    view: no_schedule
    annotations:
      timescaledb:refresh_policy: true
  - name: OnTable
    table: on_table
    annotations:
      timescaledb:refresh_policy: true
      timescaledb:refresh_policy.schedule_interval: 1 day
`

func TestExtract(t *testing.T) {
	s, err := snapshot.Load([]byte(policyDoc), "")
	require.NoError(t, err)

	got := Extract(s, zerolog.Nop())
	require.Len(t, got, 2)

	assert.Equal(t, "integer_offsets", got[0].ViewName)
	require.NotNil(t, got[0].StartOffset)
	assert.Equal(t, "100", *got[0].StartOffset)
	stmts := GenerateAdd(Add{Policy: got[0]})
	assert.Contains(t, stmts[0].SQL, "start_offset => 100, end_offset => 10,")

	want := New("public", "metrics_hourly", "1 hour")
	want.StartOffset = ptr("1 month")
	want.BucketsPerBatch = 4
	want.IncludeTieredData = ptr(true)
	want.RefreshNewestFirst = false
	assert.True(t, want.Equal(got[1]), "got %+v", got[1])
	assert.Nil(t, got[1].EndOffset)
}

func TestFeature(t *testing.T) {
	s, err := snapshot.Load([]byte(policyDoc), "")
	require.NoError(t, err)
	f := NewFeature(zerolog.Nop())

	assert.Equal(t, operation.FeatureRefreshPolicy, f.Name())
	assert.Empty(t, f.Diff(s, s))

	ops := f.Diff(s, nil)
	require.Len(t, ops, 2)
	for _, op := range ops {
		assert.Equal(t, operation.KindDrop, op.Kind())
		stmts, ok := f.Generate(op)
		require.True(t, ok)
		assert.Len(t, stmts, 1)
	}
}

func TestProperty_AnyChangeRemovesThenAdds(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("changed policies never alter in place", prop.ForAll(
		func(scheduleA, scheduleB string, bucketsA, bucketsB int) bool {
			a := New("public", "v", scheduleA)
			a.BucketsPerBatch = bucketsA
			b := New("public", "v", scheduleB)
			b.BucketsPerBatch = bucketsB

			ops := Diff([]RefreshPolicy{a}, []RefreshPolicy{b})
			if a.Equal(b) {
				return len(ops) == 0
			}
			if len(ops) != 2 {
				return false
			}
			_, isRemove := ops[0].(Remove)
			add, isAdd := ops[1].(Add)
			return isRemove && isAdd && add.Policy.IfNotExists
		},
		gen.OneConstOf("1 hour", "2 hours"),
		gen.OneConstOf("1 hour", "2 hours"),
		gen.IntRange(1, 3),
		gen.IntRange(1, 3),
	))

	properties.TestingRun(t)
}
