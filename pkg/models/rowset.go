// Package models holds the data shapes shared between the CLI and the ingestion path.
package models

import "fmt"

// RowSet is a rectangular batch of rows destined for one table.
// Every row carries one value per column, in column order. A nil value is NULL.
type RowSet struct {
	Columns []string
	Rows    [][]any
}

// Len returns the number of rows
func (r *RowSet) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Rows)
}

// Validate checks that the set names at least one column and that every row matches the column count
func (r *RowSet) Validate() error {
	if r == nil || len(r.Columns) == 0 {
		return fmt.Errorf("row set has no columns")
	}
	seen := make(map[string]bool, len(r.Columns))
	for _, c := range r.Columns {
		if c == "" {
			return fmt.Errorf("row set has an empty column name")
		}
		if seen[c] {
			return fmt.Errorf("duplicate column %q", c)
		}
		seen[c] = true
	}
	for i, row := range r.Rows {
		if len(row) != len(r.Columns) {
			return fmt.Errorf("row %d has %d values, expected %d", i, len(row), len(r.Columns))
		}
	}
	return nil
}

// Slice returns the rows in [start, end) sharing the column list
func (r *RowSet) Slice(start, end int) *RowSet {
	return &RowSet{Columns: r.Columns, Rows: r.Rows[start:end]}
}
