package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/basekick-labs/tsmigrate/pkg/models"
	"github.com/jackc/pgx/v5"
)

// ReadCSV reads a CSV document whose header row names the columns. Empty fields are NULL;
// other fields are typed as integer, float, boolean, RFC 3339 timestamp or text, in that order.
func ReadCSV(r io.Reader) (*models.RowSet, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = false

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("csv has no header row")
		}
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}
	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = strings.TrimSpace(h)
	}

	rows := &models.RowSet{Columns: columns}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv: %w", err)
		}
		row := make([]any, len(record))
		for i, field := range record {
			row[i] = ParseValue(field)
		}
		rows.Rows = append(rows.Rows, row)
	}

	if err := rows.Validate(); err != nil {
		return nil, err
	}
	return rows, nil
}

// ParseValue types a single CSV field
func ParseValue(field string) any {
	if field == "" {
		return nil
	}
	if n, err := strconv.ParseInt(field, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(field, 64); err == nil {
		return f
	}
	switch strings.ToLower(field) {
	case "true":
		return true
	case "false":
		return false
	}
	if t, err := time.Parse(time.RFC3339Nano, field); err == nil {
		return t
	}
	return field
}

// ParseTable splits "schema.table" into an identifier. A bare name uses defaultSchema.
func ParseTable(name, defaultSchema string) (pgx.Identifier, error) {
	parts := strings.Split(strings.TrimSpace(name), ".")
	switch {
	case len(parts) == 1 && parts[0] != "":
		return pgx.Identifier{defaultSchema, parts[0]}, nil
	case len(parts) == 2 && parts[0] != "" && parts[1] != "":
		return pgx.Identifier{parts[0], parts[1]}, nil
	default:
		return nil, fmt.Errorf("invalid table name %q (expected table or schema.table)", name)
	}
}
