// Package migrate runs every feature over a pair of snapshots and turns the result into an
// ordered list of operations and SQL statements.
package migrate

import (
	"github.com/basekick-labs/tsmigrate/internal/features"
	"github.com/basekick-labs/tsmigrate/internal/features/caggpolicy"
	"github.com/basekick-labs/tsmigrate/internal/features/continuousaggregate"
	"github.com/basekick-labs/tsmigrate/internal/features/reorderpolicy"
	"github.com/basekick-labs/tsmigrate/internal/operation"
	"github.com/basekick-labs/tsmigrate/internal/relational"
	"github.com/basekick-labs/tsmigrate/internal/scheduler"
	"github.com/basekick-labs/tsmigrate/internal/snapshot"
	"github.com/rs/zerolog"
)

// Planner computes migrations between snapshots.
type Planner struct {
	features []features.Feature
	logger   zerolog.Logger
}

// PlannerConfig holds configuration for the planner
type PlannerConfig struct {
	// Features defaults to features.Default.
	Features []features.Feature
	Logger   zerolog.Logger
}

// NewPlanner creates a planner.
func NewPlanner(cfg *PlannerConfig) *Planner {
	logger := cfg.Logger.With().Str("component", "planner").Logger()
	fs := cfg.Features
	if len(fs) == 0 {
		fs = features.Default(cfg.Logger)
	}
	return &Planner{features: fs, logger: logger}
}

// Plan diffs source against target with every feature and returns the scheduled operations.
// A nil source is treated as an empty snapshot.
func (p *Planner) Plan(source, target *snapshot.Snapshot) []operation.Operation {
	var ops []operation.Operation
	for _, f := range p.features {
		found := f.Diff(source, target)
		p.logger.Debug().Str("feature", string(f.Name())).Int("operations", len(found)).Msg("Diffed feature")
		ops = append(ops, found...)
	}

	ops = prune(ops)
	ops = append(ops, reattachPolicies(ops, target, p.logger)...)
	ordered := scheduler.Schedule(ops)

	p.logger.Info().Int("operations", len(ordered)).Msg("Planned migration")
	return ordered
}

// Generate renders scheduled operations in order. Operations no feature claims are logged and
// skipped.
func (p *Planner) Generate(ops []operation.Operation) []operation.Statement {
	var stmts []operation.Statement
	for _, op := range ops {
		rendered, ok := p.render(op)
		if !ok {
			p.logger.Warn().Str("operation", operation.Describe(op)).Msg("No feature renders operation, skipping")
			continue
		}
		stmts = append(stmts, rendered...)
	}
	return stmts
}

// Migrate plans and renders in one step.
func (p *Planner) Migrate(source, target *snapshot.Snapshot) []operation.Statement {
	return p.Generate(p.Plan(source, target))
}

func (p *Planner) render(op operation.Operation) ([]operation.Statement, bool) {
	for _, f := range p.features {
		if f.Name() != op.Feature() {
			continue
		}
		if stmts, ok := f.Generate(op); ok {
			return stmts, true
		}
	}
	return nil, false
}

// prune removes operations made redundant by others in the same plan: dropping a continuous
// aggregate removes its refresh policy, dropping a table removes its reorder policy. Views on a
// dropped table would block the table drop, which runs first, so the table drop cascades to
// them instead. Column changes on a table whose views are dropped later are annotated with
// those views.
func prune(ops []operation.Operation) []operation.Operation {
	droppedViews := make(map[string]bool)
	droppedTables := make(map[string]bool)
	viewsByParent := make(map[string][]string)
	for _, op := range ops {
		switch o := op.(type) {
		case continuousaggregate.Drop:
			if !o.Replaced {
				droppedViews[o.Key()] = true
			}
			viewsByParent[o.Aggregate.ParentKey()] = append(viewsByParent[o.Aggregate.ParentKey()], o.Key())
		case relational.DropTable:
			droppedTables[o.Key()] = true
		}
	}

	cascade := make(map[string]bool)
	for _, op := range ops {
		if o, ok := op.(continuousaggregate.Drop); ok && !o.Replaced && droppedTables[o.Aggregate.ParentKey()] {
			cascade[o.Aggregate.ParentKey()] = true
		}
	}

	out := make([]operation.Operation, 0, len(ops))
	for _, op := range ops {
		switch o := op.(type) {
		case caggpolicy.Remove:
			if droppedViews[o.Key()] {
				continue
			}
		case reorderpolicy.Drop:
			if droppedTables[o.Key()] {
				continue
			}
		case continuousaggregate.Drop:
			if !o.Replaced && cascade[o.Aggregate.ParentKey()] {
				continue
			}
		case relational.DropTable:
			if cascade[o.Key()] {
				o.Cascade = true
				op = o
			}
		case relational.DropColumn:
			if views := viewsByParent[o.Schema+"."+o.Table]; len(views) > 0 {
				o.DependentViews = views
				op = o
			}
		case relational.AlterColumn:
			if views := viewsByParent[o.Schema+"."+o.Table]; len(views) > 0 {
				o.DependentViews = views
				op = o
			}
		}
		out = append(out, op)
	}
	return out
}

// reattachPolicies re-adds unchanged refresh policies of continuous aggregates that are being
// replaced, since dropping the view drops its policy too.
func reattachPolicies(ops []operation.Operation, target *snapshot.Snapshot, logger zerolog.Logger) []operation.Operation {
	replaced := make(map[string]bool)
	touched := make(map[string]bool)
	for _, op := range ops {
		switch o := op.(type) {
		case continuousaggregate.Drop:
			if o.Replaced {
				replaced[o.Key()] = true
			}
		case caggpolicy.Add, caggpolicy.Remove:
			touched[o.Key()] = true
		}
	}
	if len(replaced) == 0 {
		return nil
	}

	var out []operation.Operation
	for _, policy := range caggpolicy.Extract(target, logger) {
		if !replaced[policy.Key()] || touched[policy.Key()] {
			continue
		}
		policy.IfNotExists = true
		out = append(out, caggpolicy.Add{Policy: policy})
	}
	return out
}
