// Package emitter stitches rendered statements into migration script files.
//
// Statements are grouped into batches: consecutive statements that may share a transaction
// form one batch, and every statement that must run outside a transaction forms its own.
// Each batch becomes one migration file so the migration runner can wrap it accordingly.
package emitter

import (
	"fmt"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/basekick-labs/tsmigrate/internal/operation"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Format is a migration script dialect.
type Format string

const (
	// FormatGoose writes goose annotated SQL migrations.
	FormatGoose Format = "goose"
	// FormatPlain writes psql-ready scripts with explicit BEGIN/COMMIT.
	FormatPlain Format = "plain"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatGoose, FormatPlain:
		return f, nil
	default:
		return "", fmt.Errorf("unknown script format %q (expected goose or plain)", s)
	}
}

// scriptNamespace seeds the content ids of rendered scripts.
var scriptNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/basekick-labs/tsmigrate/script"))

var unsafeName = regexp.MustCompile(`[^a-z0-9_]+`)

// Batch is a run of statements executed together.
type Batch struct {
	Statements    []operation.Statement
	Transactional bool
}

// Split groups statements into batches, preserving order.
func Split(stmts []operation.Statement) []Batch {
	var batches []Batch
	for _, st := range stmts {
		if st.SuppressTransaction {
			batches = append(batches, Batch{Statements: []operation.Statement{st}})
			continue
		}
		if n := len(batches); n > 0 && batches[n-1].Transactional {
			batches[n-1].Statements = append(batches[n-1].Statements, st)
			continue
		}
		batches = append(batches, Batch{Statements: []operation.Statement{st}, Transactional: true})
	}
	return batches
}

// File is one rendered migration file.
type File struct {
	Version       int
	Name          string
	ID            uuid.UUID
	Transactional bool
	Content       []byte
}

// Emitter renders batches in a fixed format.
type Emitter struct {
	format Format
	logger zerolog.Logger
}

// New creates an emitter.
func New(format Format, logger zerolog.Logger) *Emitter {
	return &Emitter{format: format, logger: logger.With().Str("component", "emitter").Logger()}
}

// Emit renders stmts into files numbered from firstVersion. An empty statement list yields
// no files.
func (e *Emitter) Emit(firstVersion int, name string, stmts []operation.Statement) []File {
	batches := Split(stmts)
	if len(batches) == 0 {
		return nil
	}

	base := SanitizeName(name)
	files := make([]File, 0, len(batches))
	for i, b := range batches {
		fileName := fmt.Sprintf("%05d_%s.sql", firstVersion+i, base)
		if len(batches) > 1 {
			fileName = fmt.Sprintf("%05d_%s_%d.sql", firstVersion+i, base, i+1)
		}
		id := ContentID(b)
		files = append(files, File{
			Version:       firstVersion + i,
			Name:          fileName,
			ID:            id,
			Transactional: b.Transactional,
			Content:       []byte(e.Render(b, id)),
		})
	}

	e.logger.Debug().Int("statements", len(stmts)).Int("files", len(files)).Msg("Emitted migration")
	return files
}

// Render writes one batch in the emitter's format.
func (e *Emitter) Render(b Batch, id uuid.UUID) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "-- tsmigrate id: %s\n", id)

	switch e.format {
	case FormatPlain:
		if b.Transactional {
			sb.WriteString("BEGIN;\n")
		}
		writeStatements(&sb, b.Statements)
		if b.Transactional {
			sb.WriteString("COMMIT;\n")
		}
	default:
		sb.WriteString("-- +goose Up\n")
		if !b.Transactional {
			sb.WriteString("-- +goose NO TRANSACTION\n")
		}
		writeStatements(&sb, b.Statements)
	}
	return sb.String()
}

func writeStatements(sb *strings.Builder, stmts []operation.Statement) {
	for _, st := range stmts {
		sb.WriteString(st.SQL)
		sb.WriteString("\n")
	}
}

// ContentID derives a stable id from the batch's statements.
func ContentID(b Batch) uuid.UUID {
	var sb strings.Builder
	if !b.Transactional {
		sb.WriteString("notx\n")
	}
	writeStatements(&sb, b.Statements)
	return uuid.NewSHA1(scriptNamespace, []byte(sb.String()))
}

// SanitizeName lowercases a migration name and keeps it to [a-z0-9_].
func SanitizeName(name string) string {
	s := unsafeName.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "_")
	s = strings.Trim(s, "_")
	if s == "" {
		return "migration"
	}
	return s
}

// NextVersion returns the version after the highest numbered migration among keys. Keys that
// do not start with a version number are ignored.
func NextVersion(keys []string) int {
	highest := 0
	for _, key := range keys {
		base := path.Base(key)
		digits, _, ok := strings.Cut(base, "_")
		if !ok || !strings.HasSuffix(base, ".sql") {
			continue
		}
		if n, err := strconv.Atoi(digits); err == nil && n > highest {
			highest = n
		}
	}
	return highest + 1
}
