package authorization

import (
	"fmt"

	dErrors "cardauth/pkg/domain-errors"
)

// ValidationError rejects a request the evaluator cannot reason about. It is
// never converted into a default decision by the evaluator itself.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid authorization request: %s %s", e.Field, e.Reason)
}

// DomainError converts the validation failure into a coded domain error for
// transport layers.
func (e *ValidationError) DomainError() error {
	return dErrors.Wrap(e, dErrors.CodeValidation, e.Field+" "+e.Reason)
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
