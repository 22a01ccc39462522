package domain

import "strings"

// ValidateQuery checks a query before any external call is made.
// Empty or whitespace-only text is rejected.
func ValidateQuery(q Query) error {
	if strings.TrimSpace(q.Text) == "" {
		return NewValidationError("query", q.Text, ErrInvalidQuery)
	}
	return nil
}
