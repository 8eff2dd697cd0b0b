// Package schema compares the columns a SQL backend reports for a table
// against the columns the repo expects.
package schema

import (
	"fmt"
	"slices"
	"strings"
)

// Column is a column's lowercase type name and nullability.
type Column struct {
	Type     string
	Nullable bool
}

// Table maps column names to their definitions.
type Table map[string]Column

// MismatchError lists every difference found in one table. Extra columns in
// the actual table are allowed.
type MismatchError struct {
	Table      string
	Missing    []string
	Mismatched []string
}

func (e *MismatchError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "table %s schema validation failed:\n", e.Table)

	if len(e.Missing) > 0 {
		fmt.Fprintf(&sb, "  missing columns: %s\n", strings.Join(e.Missing, ", "))
	}

	if len(e.Mismatched) > 0 {
		sb.WriteString("  mismatched columns:\n")
		for _, m := range e.Mismatched {
			fmt.Fprintf(&sb, "    - %s\n", m)
		}
	}

	return sb.String()
}

// Compare returns a *MismatchError when actual lacks a column of expected or
// defines it with another type or nullability. Type names compare
// case-insensitively.
func Compare(table string, expected, actual Table) error {
	mismatch := &MismatchError{Table: table}

	for name, want := range expected {
		got, ok := actual[name]
		if !ok {
			mismatch.Missing = append(mismatch.Missing, name)
			continue
		}

		if !strings.EqualFold(got.Type, want.Type) {
			mismatch.Mismatched = append(mismatch.Mismatched,
				fmt.Sprintf("%s: expected %s, got %s", name, want.Type, strings.ToLower(got.Type)))
		}

		if got.Nullable != want.Nullable {
			mismatch.Mismatched = append(mismatch.Mismatched,
				fmt.Sprintf("%s: expected nullable=%v, got nullable=%v", name, want.Nullable, got.Nullable))
		}
	}

	if len(mismatch.Missing) == 0 && len(mismatch.Mismatched) == 0 {
		return nil
	}

	slices.Sort(mismatch.Missing)
	slices.Sort(mismatch.Mismatched)
	return mismatch
}
