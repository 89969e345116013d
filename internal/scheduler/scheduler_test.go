package scheduler

import (
	"reflect"
	"testing"

	"github.com/basekick-labs/tsmigrate/internal/features/caggpolicy"
	"github.com/basekick-labs/tsmigrate/internal/features/continuousaggregate"
	"github.com/basekick-labs/tsmigrate/internal/features/hypertable"
	"github.com/basekick-labs/tsmigrate/internal/features/reorderpolicy"
	"github.com/basekick-labs/tsmigrate/internal/operation"
	"github.com/basekick-labs/tsmigrate/internal/relational"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	table     = relational.CreateTable{Table: relational.Table{Schema: "public", Name: "metrics"}}
	ht        = hypertable.Create{Hypertable: hypertable.Hypertable{Schema: "public", Table: "metrics", TimeColumn: "time"}}
	htAlter   = hypertable.Alter{New: hypertable.Hypertable{Schema: "public", Table: "events"}}
	reorder   = reorderpolicy.Add{Policy: reorderpolicy.New("public", "metrics", "idx")}
	caggOld   = continuousaggregate.ContinuousAggregate{Schema: "public", ViewName: "hourly", BucketWidth: "1 hour"}
	caggNew   = continuousaggregate.ContinuousAggregate{Schema: "public", ViewName: "hourly", BucketWidth: "2 hours"}
	caggDrop  = continuousaggregate.Drop{Aggregate: caggOld, Replaced: true}
	caggMake  = continuousaggregate.Create{Aggregate: caggNew}
	caggGone  = continuousaggregate.Drop{Aggregate: continuousaggregate.ContinuousAggregate{Schema: "public", ViewName: "daily"}}
	caggAlter = continuousaggregate.Alter{Old: caggOld, New: caggOld}
	policy    = caggpolicy.Add{Policy: caggpolicy.New("public", "hourly", "1 hour")}
)

func TestPriority(t *testing.T) {
	assert.Equal(t, PriorityNative, Priority(table))
	assert.Equal(t, PriorityHypertable, Priority(ht))
	assert.Equal(t, PriorityHypertable, Priority(htAlter))
	assert.Equal(t, PriorityReorderPolicy, Priority(reorder))
	assert.Equal(t, PriorityContinuousAggregateCreate, Priority(caggMake))
	assert.Equal(t, PriorityContinuousAggregateCreate, Priority(caggDrop))
	assert.Equal(t, PriorityContinuousAggregateChange, Priority(caggGone))
	assert.Equal(t, PriorityContinuousAggregateChange, Priority(caggAlter))
	assert.Equal(t, PriorityRefreshPolicy, Priority(policy))
}

func TestSchedule(t *testing.T) {
	in := []operation.Operation{policy, caggGone, caggDrop, caggMake, reorder, ht, table}
	got := Schedule(in)

	assert.Equal(t, []operation.Operation{table, ht, reorder, caggDrop, caggMake, caggGone, policy}, got)
	// Input is left untouched
	assert.Equal(t, policy, in[0])
}

func TestSchedule_ReplacementStaysAdjacent(t *testing.T) {
	other := continuousaggregate.Create{Aggregate: continuousaggregate.ContinuousAggregate{Schema: "public", ViewName: "weekly"}}
	got := Schedule([]operation.Operation{caggAlter, caggDrop, caggMake, other})

	require.Len(t, got, 4)
	assert.Equal(t, caggDrop, got[0])
	assert.Equal(t, caggMake, got[1])
	assert.Equal(t, other, got[2])
	assert.Equal(t, caggAlter, got[3])
}

func TestSchedule_Empty(t *testing.T) {
	assert.Empty(t, Schedule(nil))
}

func TestProperty_ScheduleIsOrderedAndStable(t *testing.T) {
	pool := []operation.Operation{table, ht, htAlter, reorder, caggDrop, caggMake, caggGone, caggAlter, policy}

	properties := gopter.NewProperties(nil)
	properties.Property("priorities never decrease and ties keep input order", prop.ForAll(
		func(picks []int) bool {
			in := make([]operation.Operation, len(picks))
			for i, p := range picks {
				in[i] = pool[p]
			}
			out := Schedule(in)
			if len(out) != len(in) {
				return false
			}
			for i := 1; i < len(out); i++ {
				if Priority(out[i-1]) > Priority(out[i]) {
					return false
				}
			}
			// Stability: the subsequence of each class matches the input's
			for class := range map[int]bool{0: true, 10: true, 20: true, 30: true, 40: true, 50: true} {
				var a, b []operation.Operation
				for _, op := range in {
					if Priority(op) == class {
						a = append(a, op)
					}
				}
				for _, op := range out {
					if Priority(op) == class {
						b = append(b, op)
					}
				}
				if !reflect.DeepEqual(a, b) {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, len(pool)-1)),
	))
	properties.TestingRun(t)
}
