// Package errs holds the error taxonomy shared by the service and transport layers.
//
// Every specific error wraps exactly one kind (ErrValidation, ErrNotFound,
// ErrConflict or ErrInternal), so callers may match either the specific error
// or its kind with errors.Is.
package errs

import (
	"errors"
	"fmt"
)

// Error kinds.
var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrInternal   = errors.New("internal error")
)

// Lookup misses.
var (
	ErrOrderNotFound         = fmt.Errorf("order %w", ErrNotFound)
	ErrReturnRequestNotFound = fmt.Errorf("return request %w", ErrNotFound)
	ErrProductNotFound       = fmt.Errorf("product %w", ErrNotFound)
)

// Business rule violations.
var (
	ErrInsufficientStock      = fmt.Errorf("insufficient stock: %w", ErrConflict)
	ErrCouponExhausted        = fmt.Errorf("coupon exhausted: %w", ErrConflict)
	ErrCouponNotApplicable    = fmt.Errorf("coupon not applicable: %w", ErrConflict)
	ErrInvalidPaymentMethod   = fmt.Errorf("invalid payment method: %w", ErrConflict)
	ErrInvalidStateTransition = fmt.Errorf("invalid state transition: %w", ErrConflict)
	ErrNotCancelable          = fmt.Errorf("order is not cancelable: %w", ErrConflict)
	ErrNotConfirmable         = fmt.Errorf("order is not confirmable: %w", ErrConflict)
	ErrReturnRequestExists    = fmt.Errorf("return request already exists: %w", ErrConflict)
)

// Persistence level errors.
var (
	ErrDuplicateCode           = fmt.Errorf("duplicate order code: %w", ErrConflict)
	ErrCodeGenerationExhausted = fmt.Errorf("order code generation exhausted: %w", ErrInternal)
)

// FieldError is a validation error bound to a single input field.
type FieldError struct {
	Field  string
	Reason string
}

// NewFieldError creates a validation error for the given field.
func NewFieldError(field, reason string) *FieldError {
	return &FieldError{Field: field, Reason: reason}
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrValidation, e.Field, e.Reason)
}

// Unwrap makes errors.Is(err, ErrValidation) hold for field errors.
func (e *FieldError) Unwrap() error {
	return ErrValidation
}

// Kind returns the kind the error belongs to. Unclassified errors are internal.
func Kind(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrValidation):
		return ErrValidation
	case errors.Is(err, ErrNotFound):
		return ErrNotFound
	case errors.Is(err, ErrConflict):
		return ErrConflict
	default:
		return ErrInternal
	}
}
