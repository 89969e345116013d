package reorderpolicy

import (
	"fmt"
	"strings"

	"github.com/basekick-labs/tsmigrate/internal/operation"
	"github.com/basekick-labs/tsmigrate/internal/sql"
)

// GenerateAdd renders add_reorder_policy followed by one alter_job carrying every tuning
// field that differs from its default.
func GenerateAdd(op Add) []operation.Statement {
	p := op.Policy
	stmts := []operation.Statement{addPolicy(p)}
	if st, ok := alterJob(p, nonDefaultTuning(p)); ok {
		stmts = append(stmts, st)
	}
	return stmts
}

// GenerateAlter renders an in-place tuning change, or a remove and re-add when the index or
// initial start changed.
func GenerateAlter(op Alter) []operation.Statement {
	oldP, newP := op.Old, op.New
	if oldP.IndexName != newP.IndexName || !oldP.InitialStart.Equal(newP.InitialStart) {
		stmts := []operation.Statement{removePolicy(oldP)}
		return append(stmts, GenerateAdd(Add{Policy: newP})...)
	}

	var clauses []string
	if oldP.ScheduleInterval != newP.ScheduleInterval {
		clauses = append(clauses, sql.Arg("schedule_interval", sql.Interval(newP.ScheduleInterval)))
	}
	if oldP.MaxRuntime != newP.MaxRuntime {
		clauses = append(clauses, sql.Arg("max_runtime", sql.Interval(newP.MaxRuntime)))
	}
	if oldP.MaxRetries != newP.MaxRetries {
		clauses = append(clauses, sql.Arg("max_retries", sql.Int(newP.MaxRetries)))
	}
	if oldP.RetryPeriod != newP.RetryPeriod {
		clauses = append(clauses, sql.Arg("retry_period", sql.Interval(newP.RetryPeriod)))
	}
	if st, ok := alterJob(newP, clauses); ok {
		return []operation.Statement{st}
	}
	return nil
}

// GenerateDrop renders remove_reorder_policy guarded with if_exists.
func GenerateDrop(op Drop) []operation.Statement {
	return []operation.Statement{removePolicy(op.Policy)}
}

func addPolicy(p ReorderPolicy) operation.Statement {
	args := []string{sql.RegClass(p.Schema, p.Table), sql.Literal(p.IndexName)}
	if !p.InitialStart.IsZero() {
		args = append(args, sql.Arg("initial_start", sql.Timestamp(p.InitialStart)))
	}
	return operation.Statement{SQL: sql.Select("add_reorder_policy", args...)}
}

func removePolicy(p ReorderPolicy) operation.Statement {
	return operation.Statement{SQL: sql.Select("remove_reorder_policy",
		sql.RegClass(p.Schema, p.Table), sql.Arg("if_exists", sql.Bool(true)))}
}

func nonDefaultTuning(p ReorderPolicy) []string {
	var clauses []string
	if p.ScheduleInterval != DefaultScheduleInterval {
		clauses = append(clauses, sql.Arg("schedule_interval", sql.Interval(p.ScheduleInterval)))
	}
	if p.MaxRuntime != DefaultMaxRuntime {
		clauses = append(clauses, sql.Arg("max_runtime", sql.Interval(p.MaxRuntime)))
	}
	if p.MaxRetries != DefaultMaxRetries {
		clauses = append(clauses, sql.Arg("max_retries", sql.Int(p.MaxRetries)))
	}
	if p.RetryPeriod != DefaultRetryPeriod {
		clauses = append(clauses, sql.Arg("retry_period", sql.Interval(p.RetryPeriod)))
	}
	return clauses
}

// alterJob locates the policy's job in the jobs catalog and applies the clauses to it.
func alterJob(p ReorderPolicy, clauses []string) (operation.Statement, bool) {
	if len(clauses) == 0 {
		return operation.Statement{}, false
	}
	return operation.Statement{SQL: fmt.Sprintf(
		"SELECT alter_job(job_id, %s) FROM timescaledb_information.jobs WHERE proc_name = 'policy_reorder' AND hypertable_schema = %s AND hypertable_name = %s;",
		strings.Join(clauses, ", "), sql.Literal(p.Schema), sql.Literal(p.Table))}, true
}
