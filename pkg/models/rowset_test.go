package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRowSet_Validate(t *testing.T) {
	tests := []struct {
		name    string
		rows    *RowSet
		wantErr string
	}{
		{name: "nil", rows: nil, wantErr: "no columns"},
		{name: "no columns", rows: &RowSet{}, wantErr: "no columns"},
		{name: "empty column", rows: &RowSet{Columns: []string{"time", ""}}, wantErr: "empty column"},
		{name: "duplicate column", rows: &RowSet{Columns: []string{"time", "time"}}, wantErr: "duplicate column"},
		{name: "short row", rows: &RowSet{Columns: []string{"time", "value"}, Rows: [][]any{{1, 2}, {3}}}, wantErr: "row 1 has 1 values"},
		{name: "valid", rows: &RowSet{Columns: []string{"time", "value"}, Rows: [][]any{{1, nil}}}},
		{name: "no rows", rows: &RowSet{Columns: []string{"time"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rows.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestRowSet_Slice(t *testing.T) {
	rows := &RowSet{Columns: []string{"v"}, Rows: [][]any{{1}, {2}, {3}, {4}}}
	s := rows.Slice(1, 3)
	assert.Equal(t, []string{"v"}, s.Columns)
	assert.Equal(t, [][]any{{2}, {3}}, s.Rows)
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, 0, (*RowSet)(nil).Len())
}
