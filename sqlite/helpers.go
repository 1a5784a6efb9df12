package sqlite

import (
	"fmt"
	"strings"
	"time"
)

// parseRFC3339 parses an RFC3339 formatted timestamp string.
// Returns an error if parsing fails with a descriptive message including the field name.
func parseRFC3339(value, fieldName string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse %s: %w", fieldName, err)
	}
	return t, nil
}

// parseOptionalRFC3339 is parseRFC3339 for nullable columns stored as ''.
func parseOptionalRFC3339(value, fieldName string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := parseRFC3339(value, fieldName)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// formatOptionalTime formats t as RFC3339, or '' when t is nil.
func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// appendPagination appends LIMIT and OFFSET clauses to a query builder if values are > 0.
func appendPagination(query *strings.Builder, args *[]any, limit, offset int) {
	if limit > 0 {
		query.WriteString(" LIMIT ?")
		*args = append(*args, limit)
	}
	if offset > 0 {
		if limit <= 0 {
			// SQLite requires a LIMIT before OFFSET.
			query.WriteString(" LIMIT -1")
		}
		query.WriteString(" OFFSET ?")
		*args = append(*args, offset)
	}
}

// likePattern returns a LIKE pattern matching s as a substring, escaping
// wildcards with a backslash.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

// placeholders returns n comma-separated bind parameters.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}
