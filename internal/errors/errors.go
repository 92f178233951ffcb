package errors

import (
	"fmt"

	"goanalyst/domain/core"
)

// AppError represents a structured application error
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil && e.Message == "" {
		return e.Cause.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return &AppError{
			Code:    appErr.Code,
			Message: fmt.Sprintf("%s: %s", message, appErr.Message),
			Cause:   appErr,
		}
	}
	return &AppError{
		Code:    CodeInternalError,
		Message: fmt.Sprintf("%s: %v", message, err),
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted additional context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WithCode adds an error code to an existing error
func WithCode(code string, err error) error {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return &AppError{
			Code:    code,
			Message: appErr.Message,
			Cause:   appErr.Cause,
		}
	}
	return &AppError{
		Code:    code,
		Message: err.Error(),
		Cause:   err,
	}
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	_, ok := err.(*AppError)
	return ok
}

// GetCode returns the error code if it's an AppError, otherwise returns "UNKNOWN"
func GetCode(err error) string {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}
	return "UNKNOWN"
}

// Predefined error codes
const (
	CodeConfigInvalid         = "CONFIG_INVALID"
	CodeDatabaseError         = "DATABASE_ERROR"
	CodeValidationError       = "VALIDATION_ERROR"
	CodeNotFound              = "NOT_FOUND"
	CodeInternalError         = "INTERNAL_ERROR"
	CodeInvalidInput          = "INVALID_INPUT"
	CodeInsufficientColumns   = "INSUFFICIENT_COLUMNS"
	CodeInsufficientData      = "INSUFFICIENT_DATA"
	CodeInsufficientGroupSize = "INSUFFICIENT_GROUP_SIZE"
	CodeInvalidSelection      = "INVALID_SELECTION"
)

// Common error constructors
func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func DatabaseError(message string, cause error) *AppError {
	return &AppError{Code: CodeDatabaseError, Message: message, Cause: cause}
}

func ValidationError(message string) *AppError {
	return New(CodeValidationError, message)
}

func NotFound(resource string) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Cause:   core.ErrNotFound,
	}
}

// ModelNotFound reports an unknown trained model ID
func ModelNotFound(id string) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("model %s not found", id),
		Cause:   core.ErrModelNotFound,
	}
}

func InternalError(message string) *AppError {
	return New(CodeInternalError, message)
}

// InvalidInput reports a malformed request (missing column, empty dataset, bad kind)
func InvalidInput(message string) *AppError {
	return &AppError{Code: CodeInvalidInput, Message: message, Cause: core.ErrInvalidInput}
}

// InvalidInputf is InvalidInput with formatting
func InvalidInputf(format string, args ...interface{}) *AppError {
	return InvalidInput(fmt.Sprintf(format, args...))
}

// Empty reports an empty dataset or value sequence for an operation
func Empty(operation string) *AppError {
	return &AppError{
		Code:    CodeInvalidInput,
		Message: fmt.Sprintf("%s requires at least one value, got none", operation),
		Cause:   core.ErrEmptyInput,
	}
}

// ColumnNotFound reports a column that the dataset does not expose
func ColumnNotFound(column string) *AppError {
	return &AppError{
		Code:    CodeInvalidInput,
		Message: fmt.Sprintf("column %q not found in dataset", column),
		Cause:   core.ErrColumnNotFound,
	}
}

// InsufficientColumns reports e.g. "at least 2 numeric columns required for PCA, found 1"
func InsufficientColumns(operation string, required, found int) *AppError {
	return &AppError{
		Code:    CodeInsufficientColumns,
		Message: fmt.Sprintf("at least %d numeric columns required for %s, found %d", required, operation, found),
		Cause:   core.ErrInsufficientColumns,
	}
}

// InsufficientData reports too few usable rows or pairs
func InsufficientData(operation string, required, found int) *AppError {
	return &AppError{
		Code:    CodeInsufficientData,
		Message: fmt.Sprintf("at least %d valid observations required for %s, found %d", required, operation, found),
		Cause:   core.ErrInsufficientData,
	}
}

// InsufficientGroupSize reports a group with fewer observations than a test needs
func InsufficientGroupSize(test, group string, size int) *AppError {
	return &AppError{
		Code:    CodeInsufficientGroupSize,
		Message: fmt.Sprintf("%s requires at least 2 observations per group, group %q has %d; p-value undefined", test, group, size),
		Cause:   core.ErrInsufficientGroupSize,
	}
}

// InvalidSelection reports a target/feature selection the AutoML engine cannot train on
func InvalidSelection(reason string) *AppError {
	return &AppError{
		Code:    CodeInvalidSelection,
		Message: fmt.Sprintf("target/feature selection invalid: %s", reason),
		Cause:   core.ErrInvalidSelection,
	}
}

// Unsupported reports an unknown test kind, algorithm or export format
func Unsupported(what, name string, cause error) *AppError {
	return &AppError{
		Code:    CodeInvalidInput,
		Message: fmt.Sprintf("unsupported %s %q", what, name),
		Cause:   cause,
	}
}
