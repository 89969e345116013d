package continuousaggregate

import (
	"fmt"
	"strings"

	"github.com/basekick-labs/tsmigrate/internal/operation"
	"github.com/basekick-labs/tsmigrate/internal/sql"
)

// BucketAlias is the output column name of the time bucket.
const BucketAlias = "time_bucket"

// GenerateCreate renders CREATE MATERIALIZED VIEW, which must run outside a transaction,
// followed by the chunk interval when one is set.
func GenerateCreate(op Create) []operation.Statement {
	c := op.Aggregate
	stmts := []operation.Statement{{SQL: createView(c), SuppressTransaction: true}}
	if c.ChunkInterval != "" {
		stmts = append(stmts, setChunkInterval(c))
	}
	return stmts
}

// GenerateAlter renders one statement per changed setting.
func GenerateAlter(op Alter) []operation.Statement {
	oldC, newC := op.Old, op.New
	var stmts []operation.Statement
	if oldC.ChunkInterval != newC.ChunkInterval {
		if newC.ChunkInterval == "" {
			stmts = append(stmts, operation.Comment(fmt.Sprintf(
				"continuous aggregate %s: chunk interval unset, keeping %s",
				sql.Qualified(newC.Schema, newC.ViewName), oldC.ChunkInterval)))
		} else {
			stmts = append(stmts, setChunkInterval(newC))
		}
	}
	if oldC.CreateGroupIndexes != newC.CreateGroupIndexes {
		stmts = append(stmts, alterView(newC, "timescaledb.create_group_indexes", newC.CreateGroupIndexes))
	}
	if oldC.MaterializedOnly != newC.MaterializedOnly {
		stmts = append(stmts, alterView(newC, "timescaledb.materialized_only", newC.MaterializedOnly))
	}
	return stmts
}

// GenerateDrop renders DROP MATERIALIZED VIEW IF EXISTS.
func GenerateDrop(op Drop) []operation.Statement {
	c := op.Aggregate
	return []operation.Statement{{SQL: fmt.Sprintf("DROP MATERIALIZED VIEW IF EXISTS %s;", sql.Qualified(c.Schema, c.ViewName))}}
}

func createView(c ContinuousAggregate) string {
	bucket := fmt.Sprintf("time_bucket(%s, %s)", sql.IntervalOrInteger(c.BucketWidth), sql.Ident(c.BucketColumn))

	columns := []string{bucket + " AS " + sql.Ident(BucketAlias)}
	var groupBy []string
	if c.BucketGroupBy {
		groupBy = append(groupBy, bucket)
	}
	for _, g := range c.GroupBy {
		if g.Column != "" {
			columns = append(columns, sql.Ident(g.Column))
			groupBy = append(groupBy, sql.Ident(g.Column))
			continue
		}
		groupBy = append(groupBy, g.Expression)
	}
	for _, a := range c.Aggregates {
		columns = append(columns, aggregateExpr(a, c.BucketColumn)+" AS "+sql.Ident(a.Alias))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "CREATE MATERIALIZED VIEW %s WITH (timescaledb.continuous, timescaledb.create_group_indexes = %s, timescaledb.materialized_only = %s) AS SELECT %s FROM %s",
		sql.Qualified(c.Schema, c.ViewName),
		sql.Bool(c.CreateGroupIndexes),
		sql.Bool(c.MaterializedOnly),
		strings.Join(columns, ", "),
		sql.Qualified(c.ParentSchema, c.ParentTable))
	if c.Where != "" {
		b.WriteString(" WHERE " + c.Where)
	}
	if len(groupBy) > 0 {
		b.WriteString(" GROUP BY " + strings.Join(groupBy, ", "))
	}
	if c.WithNoData {
		b.WriteString(" WITH NO DATA")
	}
	b.WriteString(";")
	return b.String()
}

// aggregateExpr renders one aggregate call. first and last take the bucket column as ordering.
func aggregateExpr(a Aggregate, timeColumn string) string {
	switch {
	case a.Function == Count && a.Column == "*":
		return "COUNT(*)"
	case a.Function == First, a.Function == Last:
		return fmt.Sprintf("%s(%s, %s)", a.Function, sql.Ident(a.Column), sql.Ident(timeColumn))
	default:
		return fmt.Sprintf("%s(%s)", strings.ToUpper(string(a.Function)), sql.Ident(a.Column))
	}
}

func setChunkInterval(c ContinuousAggregate) operation.Statement {
	return operation.Statement{SQL: sql.Select("set_chunk_time_interval",
		sql.RegClass(c.Schema, c.ViewName), sql.ChunkInterval(c.ChunkInterval))}
}

func alterView(c ContinuousAggregate, option string, value bool) operation.Statement {
	return operation.Statement{SQL: fmt.Sprintf("ALTER MATERIALIZED VIEW %s SET (%s = %s);",
		sql.Qualified(c.Schema, c.ViewName), option, sql.Bool(value))}
}
