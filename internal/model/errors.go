package model

import (
	"errors"
	"fmt"
)

// Error is a conversion-domain error with a stable code.
//
// Codes:
//   - UNIT_NOT_FOUND: a unit name did not resolve
//   - CATEGORY_MISMATCH: units belong to different categories
//   - INVALID_INPUT: the value is empty, non-numeric or not finite
//   - INVALID_UNIT_DEFINITION: a stored unit has a zero or non-finite transform
//   - STORAGE_UNAVAILABLE: the database cannot be opened or reached
type Error struct {
	Code    ErrorCode
	Message string

	// Unit names the offending unit, when there is one.
	Unit string

	// Err is the underlying cause.
	Err error
}

// ErrorCode categorizes domain errors.
type ErrorCode string

const (
	ErrCodeUnitNotFound          ErrorCode = "UNIT_NOT_FOUND"
	ErrCodeCategoryMismatch      ErrorCode = "CATEGORY_MISMATCH"
	ErrCodeInvalidInput          ErrorCode = "INVALID_INPUT"
	ErrCodeInvalidUnitDefinition ErrorCode = "INVALID_UNIT_DEFINITION"
	ErrCodeStorageUnavailable    ErrorCode = "STORAGE_UNAVAILABLE"
)

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Unit != "" {
		msg = fmt.Sprintf("%s (unit=%s)", msg, e.Unit)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// CodeOf returns the domain code of err, or "" if err is not a *Error.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsUnitNotFound returns true if err is an unresolved unit error.
func IsUnitNotFound(err error) bool { return CodeOf(err) == ErrCodeUnitNotFound }

// IsCategoryMismatch returns true if err is a cross-category conversion error.
func IsCategoryMismatch(err error) bool { return CodeOf(err) == ErrCodeCategoryMismatch }

// IsInvalidInput returns true if err is a user input error.
func IsInvalidInput(err error) bool { return CodeOf(err) == ErrCodeInvalidInput }

// IsInvalidUnitDefinition returns true if err reports a malformed stored unit.
func IsInvalidUnitDefinition(err error) bool { return CodeOf(err) == ErrCodeInvalidUnitDefinition }

// IsStorageUnavailable returns true if err reports an unreachable database.
func IsStorageUnavailable(err error) bool { return CodeOf(err) == ErrCodeStorageUnavailable }

// NewUnitNotFound creates an Error for an unresolved unit name.
func NewUnitNotFound(unit string) *Error {
	return &Error{
		Code:    ErrCodeUnitNotFound,
		Message: "unit not found",
		Unit:    unit,
	}
}

// NewCategoryMismatch creates an Error for a cross-category conversion.
func NewCategoryMismatch(from, to UnitTransform) *Error {
	return &Error{
		Code: ErrCodeCategoryMismatch,
		Message: fmt.Sprintf("cannot convert %s (category %d) to %s (category %d)",
			from.Name, from.CategoryID, to.Name, to.CategoryID),
	}
}

// NewInvalidInput creates an Error for a value that cannot be converted.
func NewInvalidInput(message string, cause error) *Error {
	return &Error{
		Code:    ErrCodeInvalidInput,
		Message: message,
		Err:     cause,
	}
}

// NewInvalidUnitDefinition creates an Error for a malformed stored unit.
func NewInvalidUnitDefinition(unit, message string) *Error {
	return &Error{
		Code:    ErrCodeInvalidUnitDefinition,
		Message: message,
		Unit:    unit,
	}
}

// NewStorageUnavailable wraps a database failure.
func NewStorageUnavailable(message string, cause error) *Error {
	return &Error{
		Code:    ErrCodeStorageUnavailable,
		Message: message,
		Err:     cause,
	}
}
