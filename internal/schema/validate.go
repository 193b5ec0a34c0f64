package schema

import (
	"fmt"
	"strings"
)

// ValidationError holds a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation failure on a named field.
type FieldError struct {
	Field   string
	Message string
}

// Error formats the validation error as a semicolon-separated list of field messages.
func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// HasErrors reports whether the validation error contains any field errors.
func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

// ValidateCollection checks a collection model for constraint violations.
// It returns a *ValidationError if any rules fail, or nil if the model is valid.
func ValidateCollection(c Collection) error {
	var ve ValidationError

	if strings.TrimSpace(c.Name) == "" {
		ve.Errors = append(ve.Errors, FieldError{Field: "name", Message: "is required"})
	}

	switch c.Type {
	case "", TypeBase, TypeAuth, TypeView:
	default:
		ve.Errors = append(ve.Errors, FieldError{
			Field:   "type",
			Message: fmt.Sprintf("invalid value %q", c.Type),
		})
	}

	seen := make(map[string]bool, len(c.Fields))
	for i, f := range c.Fields {
		name := strings.TrimSpace(f.Name)
		switch {
		case name == "":
			ve.Errors = append(ve.Errors, FieldError{
				Field:   fmt.Sprintf("fields[%d].name", i),
				Message: "is required",
			})
		case strings.ContainsAny(name, " '\"()"):
			ve.Errors = append(ve.Errors, FieldError{
				Field:   fmt.Sprintf("fields[%d].name", i),
				Message: fmt.Sprintf("invalid characters in %q", name),
			})
		case seen[name]:
			ve.Errors = append(ve.Errors, FieldError{
				Field:   fmt.Sprintf("fields[%d].name", i),
				Message: fmt.Sprintf("duplicate field %q", name),
			})
		}
		seen[name] = true
	}

	if ve.HasErrors() {
		return &ve
	}
	return nil
}
