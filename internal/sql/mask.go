package sql

import (
	"fmt"
	"strings"
)

// StringMask holds a placeholder and the original string content it replaced.
type StringMask struct {
	Placeholder  string
	Original     string
	Unterminated bool
}

// MaskStringLiterals replaces string literals and quoted identifiers with placeholders so that
// a fragment can be scanned for syntax without matching inside quotes.
// Handles both single-quoted ('...') and double-quoted ("...") strings, including doubled quotes.
//
// The hasQuotes parameter is an optimization - if false, the function returns the original
// string without any processing.
func MaskStringLiterals(fragment string, hasQuotes bool) (string, []StringMask) {
	if !hasQuotes {
		return fragment, nil
	}

	var masks []StringMask
	var result strings.Builder
	result.Grow(len(fragment))

	i := 0
	for i < len(fragment) {
		ch := fragment[i]
		if ch != '\'' && ch != '"' {
			result.WriteByte(ch)
			i++
			continue
		}

		quote := ch
		start := i
		closed := false
		i++
		for i < len(fragment) {
			if fragment[i] == quote {
				// Doubled quote is an escape, not the end of the literal
				if i+1 < len(fragment) && fragment[i+1] == quote {
					i += 2
					continue
				}
				closed = true
				i++
				break
			}
			i++
		}

		placeholder := fmt.Sprintf("__STR_%d__", len(masks))
		masks = append(masks, StringMask{Placeholder: placeholder, Original: fragment[start:i], Unterminated: !closed})
		result.WriteString(placeholder)
	}

	return result.String(), masks
}

// HasQuotes returns true if the fragment contains any quote characters.
func HasQuotes(fragment string) bool {
	return strings.ContainsAny(fragment, "'\"")
}

// IsSafeFragment reports whether a raw SQL fragment (a WHERE predicate or GROUP BY expression)
// can be spliced into a generated statement. Statement terminators and comment markers outside
// of quotes would end or truncate the surrounding statement.
func IsSafeFragment(fragment string) bool {
	masked, masks := MaskStringLiterals(fragment, HasQuotes(fragment))
	for _, m := range masks {
		// An unterminated literal swallows the rest of the statement
		if m.Unterminated {
			return false
		}
	}
	return !strings.Contains(masked, ";") &&
		!strings.Contains(masked, "--") &&
		!strings.Contains(masked, "/*")
}
