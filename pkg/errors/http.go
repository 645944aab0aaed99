package errors

import (
	"errors"
	"net/http"
)

const genericMessage = "An unexpected error occurred"

var statusByType = map[string]int{
	ErrorTypeInvalidRequest:      http.StatusBadRequest,
	ErrorTypeStorageError:        http.StatusBadGateway,
	ErrorTypeDatabaseError:       http.StatusInternalServerError,
	ErrorTypeUnauthorized:        http.StatusUnauthorized,
	ErrorTypeNotFound:            http.StatusNotFound,
	ErrorTypeConflict:            http.StatusConflict,
	ErrorTypeInternalServerError: http.StatusInternalServerError,
}

// HTTPStatusCode maps err to a status; anything outside the taxonomy is a 500.
func HTTPStatusCode(err error) int {
	if status, ok := statusByType[GetErrorType(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// GetHumanReadableMessage returns the AppError message and never the wrapped
// cause, which may hold driver errors or hostnames.
func GetHumanReadableMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return genericMessage
}
