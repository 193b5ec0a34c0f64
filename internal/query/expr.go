package query

import (
	"strings"
)

const quote = "'"

// BuildFilter serializes a single filter. Raw expressions pass through;
// groups render as one parenthesized term with the mode token between
// expressions and no surrounding spaces.
func BuildFilter(f Filter) string {
	if !f.IsGroup() {
		return f.Expr
	}
	return "(" + strings.Join(f.Group.Expressions, string(f.Group.Mode.orDefault())) + ")"
}

// BuildSearchFilter renders one case-insensitive partial-match clause per
// field, OR-joined and parenthesized. With no fields it returns "" so the
// caller can drop the term instead of emitting "()".
func BuildSearchFilter(text string, fields []string) (string, error) {
	if len(fields) == 0 {
		return "", nil
	}
	if err := checkQuoted("search", text); err != nil {
		return "", err
	}
	clauses := make([]string, len(fields))
	for i, f := range fields {
		clauses[i] = f + " ~ " + quote + text + quote
	}
	return "(" + strings.Join(clauses, " || ") + ")", nil
}

// BuildExcludeFilter renders a negated id equality.
func BuildExcludeFilter(id string) (string, error) {
	if err := checkQuoted("exclude", id); err != nil {
		return "", err
	}
	return "id != " + quote + id + quote, nil
}

// BuildSortOption renders "+field" for ascending and "-field" for descending.
func BuildSortOption(s SortOption) string {
	if s.Order == SortAsc {
		return "+" + s.Field
	}
	return "-" + s.Field
}

// checkQuoted rejects values that would terminate or escape the single
// quotes they are wrapped in.
func checkQuoted(clause, value string) error {
	switch {
	case strings.Contains(value, quote):
		return &ExpressionError{Clause: clause, Value: value, Reason: "unescaped single quote"}
	case strings.Contains(value, `\`):
		return &ExpressionError{Clause: clause, Value: value, Reason: "backslash"}
	}
	return nil
}
