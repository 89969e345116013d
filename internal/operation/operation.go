// Package operation defines the migration operations produced by the differs and the
// SQL statements the generators render them into.
package operation

import "strings"

// Feature names the subsystem an operation belongs to.
type Feature string

const (
	FeatureNative              Feature = "native"
	FeatureHypertable          Feature = "hypertable"
	FeatureReorderPolicy       Feature = "reorder_policy"
	FeatureContinuousAggregate Feature = "continuous_aggregate"
	FeatureRefreshPolicy       Feature = "refresh_policy"
)

// Kind is the lifecycle verb of an operation.
type Kind string

const (
	KindCreate Kind = "create"
	KindAlter  Kind = "alter"
	KindDrop   Kind = "drop"
)

// Operation is one schema change. Concrete operations are plain value types owned by the
// feature package that produced them.
type Operation interface {
	Feature() Feature
	Kind() Kind
	// Key is the identity of the object the operation touches, usually "schema.name".
	Key() string
}

// Replacement is implemented by drop operations that may be the first half of a
// drop-and-recreate pair.
type Replacement interface {
	Replacing() bool
}

// IsReplacement reports whether op is the drop half of a structural replacement.
func IsReplacement(op Operation) bool {
	r, ok := op.(Replacement)
	return ok && r.Replacing()
}

// Statement is one rendered SQL statement.
type Statement struct {
	SQL string
	// SuppressTransaction marks statements that cannot run inside a transaction block.
	SuppressTransaction bool
}

// Comment renders a SQL comment statement, used for changes that cannot be expressed as DDL.
func Comment(text string) Statement {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = "-- " + l
	}
	return Statement{SQL: strings.Join(lines, "\n")}
}

// IsComment reports whether the statement carries only comments.
func (s Statement) IsComment() bool {
	return strings.HasPrefix(s.SQL, "--")
}

// Describe returns a short human readable label for logs and dry runs.
func Describe(op Operation) string {
	return string(op.Feature()) + " " + string(op.Kind()) + " " + op.Key()
}
