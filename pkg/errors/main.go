// Package errors is the application error taxonomy. Every failure surfaced to
// a caller is an *AppError whose Type decides the HTTP status and whose
// Message is the only text the caller sees.
package errors

import (
	"errors"
	"fmt"
)

const (
	// ErrorTypeInvalidRequest is a validation failure, reported before any side effect.
	ErrorTypeInvalidRequest = "INVALID_REQUEST"
	// ErrorTypeStorageError is a failed object store call.
	ErrorTypeStorageError = "STORAGE_ERROR"
	// ErrorTypeDatabaseError is a failed read or write against the relational store.
	ErrorTypeDatabaseError = "DATABASE_ERROR"
	// ErrorTypeUnauthorized means no currently active session, or bad credentials.
	ErrorTypeUnauthorized = "UNAUTHORIZED"

	ErrorTypeNotFound            = "NOT_FOUND"
	ErrorTypeConflict            = "CONFLICT"
	ErrorTypeInternalServerError = "INTERNAL_SERVER_ERROR"
	ErrorTypeUnknown             = "UNKNOWN_ERROR"
)

// AppError pairs a client-safe Message with the underlying cause, which is
// kept for logs and errors.Is/As but never rendered.
type AppError struct {
	Type    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Type + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
}

func (e *AppError) Unwrap() error { return e.Err }

func NewAppError(errType, message string, err error) *AppError {
	return &AppError{Type: errType, Message: message, Err: err}
}

func NewInvalidRequestError(message string, err error) *AppError {
	return NewAppError(ErrorTypeInvalidRequest, message, err)
}

func NewStorageError(message string, err error) *AppError {
	return NewAppError(ErrorTypeStorageError, message, err)
}

func NewDatabaseError(message string, err error) *AppError {
	return NewAppError(ErrorTypeDatabaseError, message, err)
}

func NewUnauthorizedError(message string, err error) *AppError {
	return NewAppError(ErrorTypeUnauthorized, message, err)
}

func NewNotFoundError(message string, err error) *AppError {
	return NewAppError(ErrorTypeNotFound, message, err)
}

func NewConflictError(message string, err error) *AppError {
	return NewAppError(ErrorTypeConflict, message, err)
}

func NewInternalServerError(message string, err error) *AppError {
	return NewAppError(ErrorTypeInternalServerError, message, err)
}

// IsType reports whether the first AppError in err's chain has type errType.
func IsType(err error, errType string) bool {
	return err != nil && GetErrorType(err) == errType
}

// GetErrorType returns "" for nil and ErrorTypeUnknown for errors outside the taxonomy.
func GetErrorType(err error) string {
	var appErr *AppError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &appErr):
		return appErr.Type
	default:
		return ErrorTypeUnknown
	}
}
