package query

import (
	"errors"
	"fmt"
)

// ErrInvalidExpression is wrapped by every error returned when a value
// cannot be safely embedded in a filter expression.
var ErrInvalidExpression = errors.New("invalid expression")

// ExpressionError describes a value rejected by a serializer.
type ExpressionError struct {
	Clause string // "exclude", "search", ...
	Value  string
	Reason string
}

func (e *ExpressionError) Error() string {
	return fmt.Sprintf("%s clause: %s in %q", e.Clause, e.Reason, e.Value)
}

func (e *ExpressionError) Unwrap() error {
	return ErrInvalidExpression
}
