package domain

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrNotFound         = errors.New("resource not found")
	ErrBillableMissing  = errors.New("billable not found")
	ErrMonthNotInYear   = errors.New("month does not belong to the requested year")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
	ErrInternalError    = errors.New("internal error")
	ErrTokenNotFound    = errors.New("service token not found")
	ErrTokenRevoked     = errors.New("service token has been revoked")
	ErrTooManyTokens    = errors.New("maximum number of active service tokens reached")
	ErrInvalidTokenName = errors.New("token description is required and must be at most 255 characters")
)

// Validation constants
const (
	MinReportYear = 2000
	MaxReportYear = 2100
)

// ValidationError reports operator input rejected before any provider or
// mutation call was made.
type ValidationError struct {
	Field  string
	Reason string
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ProviderError wraps a failed dataset fetch with the key it was issued for.
type ProviderError struct {
	Kind DataKind
	Year int
	Err  error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("fetch %s for %d: %v", e.Kind, e.Year, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// WrapProviderError tags err with the fetch key unless it already is a
// ProviderError. A nil err passes through.
func WrapProviderError(kind DataKind, year int, err error) error {
	if err == nil {
		return nil
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return err
	}
	return &ProviderError{Kind: kind, Year: year, Err: err}
}

// MutationError wraps an edit the backing system refused or failed to apply.
type MutationError struct {
	Op  string
	Err error
}

func (e *MutationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *MutationError) Unwrap() error {
	return e.Err
}

// WrapMutationError tags err with the rejected operation unless it already
// is a MutationError. A nil err passes through.
func WrapMutationError(op string, err error) error {
	if err == nil {
		return nil
	}
	var me *MutationError
	if errors.As(err, &me) {
		return err
	}
	return &MutationError{Op: op, Err: err}
}

// ValidateReportYear bounds-checks a report year coming from the API edge.
func ValidateReportYear(year int) error {
	if year < MinReportYear || year > MaxReportYear {
		return NewValidationError("year", fmt.Sprintf("must be between %d and %d", MinReportYear, MaxReportYear))
	}
	return nil
}
