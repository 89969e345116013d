package relational

import (
	"fmt"
	"strings"

	"github.com/basekick-labs/tsmigrate/internal/operation"
	"github.com/basekick-labs/tsmigrate/internal/sql"
)

// GenerateCreateTable renders CREATE TABLE IF NOT EXISTS.
func GenerateCreateTable(op CreateTable) []operation.Statement {
	t := op.Table
	defs := make([]string, 0, len(t.Columns)+1)
	var keys []string
	for _, c := range t.Columns {
		defs = append(defs, columnDef(c))
		if c.PrimaryKey {
			keys = append(keys, c.Name)
		}
	}
	if len(keys) > 0 {
		defs = append(defs, "PRIMARY KEY ("+sql.Idents(keys)+")")
	}
	return []operation.Statement{{SQL: fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s);",
		sql.Qualified(t.Schema, t.Name), strings.Join(defs, ", "))}}
}

// GenerateDropTable renders DROP TABLE IF EXISTS.
func GenerateDropTable(op DropTable) []operation.Statement {
	suffix := ""
	if op.Cascade {
		suffix = " CASCADE"
	}
	return []operation.Statement{{SQL: fmt.Sprintf("DROP TABLE IF EXISTS %s%s;", sql.Qualified(op.Table.Schema, op.Table.Name), suffix)}}
}

// GenerateAddColumn renders ADD COLUMN IF NOT EXISTS.
func GenerateAddColumn(op AddColumn) []operation.Statement {
	stmts := []operation.Statement{{SQL: fmt.Sprintf("ALTER TABLE %s ADD COLUMN IF NOT EXISTS %s;",
		sql.Qualified(op.Schema, op.Table), columnDef(op.Column))}}
	if op.Column.PrimaryKey {
		stmts = append(stmts, operation.Comment(fmt.Sprintf(
			"table %s: add %s to the primary key manually", sql.Qualified(op.Schema, op.Table), op.Column.Name)))
	}
	return stmts
}

// GenerateDropColumn renders DROP COLUMN IF EXISTS.
func GenerateDropColumn(op DropColumn) []operation.Statement {
	stmts := dependentViewsNotice(op.Schema, op.Table, op.Column.Name, op.DependentViews)
	return append(stmts, operation.Statement{SQL: fmt.Sprintf("ALTER TABLE %s DROP COLUMN IF EXISTS %s;",
		sql.Qualified(op.Schema, op.Table), sql.Ident(op.Column.Name))})
}

// GenerateAlterColumn renders one ALTER COLUMN per changed attribute.
func GenerateAlterColumn(op AlterColumn) []operation.Statement {
	table := sql.Qualified(op.Schema, op.Table)
	col := sql.Ident(op.New.Name)

	var stmts []operation.Statement
	if op.Old.Type != op.New.Type || op.Old.Nullable != op.New.Nullable {
		stmts = dependentViewsNotice(op.Schema, op.Table, op.New.Name, op.DependentViews)
	}
	if op.Old.Type != op.New.Type {
		stmts = append(stmts, operation.Statement{SQL: fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s TYPE %s USING %s::%s;",
			table, col, op.New.Type, col, op.New.Type)})
	}
	if op.Old.Nullable != op.New.Nullable {
		verb := "SET NOT NULL"
		if op.New.Nullable {
			verb = "DROP NOT NULL"
		}
		stmts = append(stmts, operation.Statement{SQL: fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s %s;", table, col, verb)})
	}
	if op.Old.PrimaryKey != op.New.PrimaryKey {
		stmts = append(stmts, operation.Comment(fmt.Sprintf(
			"table %s: primary key membership of %s changed, rebuild the constraint manually", table, op.New.Name)))
	}
	return stmts
}

// dependentViewsNotice warns that a column change runs before the continuous aggregates
// reading the table are dropped, so PostgreSQL may reject it while they still exist.
func dependentViewsNotice(schema, table, column string, views []string) []operation.Statement {
	if len(views) == 0 {
		return nil
	}
	return []operation.Statement{operation.Comment(fmt.Sprintf(
		"table %s: column %s changes before continuous aggregate(s) %s are dropped later in this migration; "+
			"drop them first if this statement fails",
		sql.Qualified(schema, table), column, strings.Join(views, ", ")))}
}

func columnDef(c Column) string {
	def := sql.Ident(c.Name) + " " + c.Type
	if !c.Nullable {
		def += " NOT NULL"
	}
	return def
}
