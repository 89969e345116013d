// Package relational is the native table/column differ the TimescaleDB features run alongside.
// It covers tables mapped by entities; views are owned by the continuous aggregate feature.
package relational

import (
	"github.com/basekick-labs/tsmigrate/internal/operation"
)

// Column is one physical column.
type Column struct {
	Name       string
	Type       string
	Nullable   bool
	PrimaryKey bool
}

// Table is one physical table with its columns in declaration order.
type Table struct {
	Schema  string
	Name    string
	Columns []Column
}

// Key identifies the table by its qualified name.
func (t Table) Key() string {
	return t.Schema + "." + t.Name
}

func (t Table) column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// CreateTable creates a table with all its columns.
type CreateTable struct {
	Table Table
}

func (CreateTable) Feature() operation.Feature { return operation.FeatureNative }
func (CreateTable) Kind() operation.Kind       { return operation.KindCreate }
func (c CreateTable) Key() string              { return c.Table.Key() }

// DropTable drops a table. Cascade also drops dependent views.
type DropTable struct {
	Table   Table
	Cascade bool
}

func (DropTable) Feature() operation.Feature { return operation.FeatureNative }
func (DropTable) Kind() operation.Kind       { return operation.KindDrop }
func (d DropTable) Key() string              { return d.Table.Key() }

// AddColumn adds a column to an existing table.
type AddColumn struct {
	Schema string
	Table  string
	Column Column
}

func (AddColumn) Feature() operation.Feature { return operation.FeatureNative }
func (AddColumn) Kind() operation.Kind       { return operation.KindCreate }
func (a AddColumn) Key() string              { return a.Schema + "." + a.Table + "." + a.Column.Name }

// DropColumn drops a column.
type DropColumn struct {
	Schema string
	Table  string
	Column Column
	// DependentViews are continuous aggregates on the table that the same migration drops
	// or replaces after this column change.
	DependentViews []string
}

func (DropColumn) Feature() operation.Feature { return operation.FeatureNative }
func (DropColumn) Kind() operation.Kind       { return operation.KindDrop }
func (d DropColumn) Key() string              { return d.Schema + "." + d.Table + "." + d.Column.Name }

// AlterColumn changes the type, nullability or key membership of a column.
type AlterColumn struct {
	Schema         string
	Table          string
	Old            Column
	New            Column
	DependentViews []string
}

func (AlterColumn) Feature() operation.Feature { return operation.FeatureNative }
func (AlterColumn) Kind() operation.Kind       { return operation.KindAlter }
func (a AlterColumn) Key() string              { return a.Schema + "." + a.Table + "." + a.New.Name }
