// Package sql provides the quoting and literal helpers shared by the statement generators.
//
// Identifiers are always double-quoted; string, interval and timestamp values are rendered as
// single-quoted literals with embedded quotes doubled.
package sql

import (
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
)

// Ident quotes a single identifier.
func Ident(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

// Idents quotes each identifier and joins them with ", ".
func Idents(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = Ident(n)
	}
	return strings.Join(quoted, ", ")
}

// Qualified returns the schema-qualified, quoted name of a relation.
func Qualified(schema, name string) string {
	if schema == "" {
		return Ident(name)
	}
	return pgx.Identifier{schema, name}.Sanitize()
}

// Literal renders s as a single-quoted string literal.
func Literal(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// RegClass renders a relation reference for TimescaleDB functions taking a regclass argument.
func RegClass(schema, name string) string {
	return Literal(Qualified(schema, name))
}

// IsInteger reports whether s is a plain (optionally signed) integer.
func IsInteger(s string) bool {
	_, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return err == nil
}

// Interval renders an interval literal.
func Interval(s string) string {
	return "INTERVAL " + Literal(strings.TrimSpace(s))
}

// IntervalOrInteger renders an integer unquoted and anything else as an interval literal.
// Integer values are used for hypertables partitioned on integer time columns.
func IntervalOrInteger(s string) string {
	if IsInteger(s) {
		return strings.TrimSpace(s)
	}
	return Interval(s)
}

// ChunkInterval renders a chunk time interval. Integers are microseconds and are cast to bigint.
func ChunkInterval(s string) string {
	if IsInteger(s) {
		return strings.TrimSpace(s) + "::bigint"
	}
	return Interval(s)
}

// Bool renders a boolean literal.
func Bool(b bool) string {
	return strconv.FormatBool(b)
}

// Int renders an integer literal.
func Int(n int) string {
	return strconv.Itoa(n)
}

// Timestamp renders t as an ISO-8601 UTC timestamptz literal.
func Timestamp(t time.Time) string {
	return Literal(t.UTC().Format(time.RFC3339)) + "::timestamptz"
}

// Arg renders a named function argument.
func Arg(name, value string) string {
	return name + " => " + value
}

// Select renders "SELECT fn(args...);".
func Select(fn string, args ...string) string {
	return "SELECT " + fn + "(" + strings.Join(args, ", ") + ");"
}
