package router

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/akeren/archive-waitlist/internal/log"
	apperrors "github.com/akeren/archive-waitlist/pkg/errors"
)

// GetLogger returns the request-scoped logger, which carries the correlation
// id and, once a session resolves, the user id.
func GetLogger(ctx *RequestContext) *log.Logger {
	return log.GetLoggerInstanceFromContext(ctx.Request.Context(), nil)
}

func newResult(statusCode int, data any, message string) *ServiceResult {
	return &ServiceResult{StatusCode: statusCode, Data: data, Message: message}
}

func OKResult(data any, message string) *ServiceResult {
	return newResult(http.StatusOK, data, message)
}

// BadRequestResult carries field-level details, if any, in data.
func BadRequestResult(message string, details any) *ServiceResult {
	return newResult(http.StatusBadRequest, details, message)
}

func UnauthorizedResult(message string) *ServiceResult {
	return newResult(http.StatusUnauthorized, nil, message)
}

func InternalServerErrorResult(message string) *ServiceResult {
	return newResult(http.StatusInternalServerError, nil, message)
}

func ErrorResult(statusCode int, message string, data any) *ServiceResult {
	return newResult(statusCode, data, message)
}

// PayloadTooLargeResult returns a 413 when err came from the request body cap
// on a body without a declared length, and nil for any other error.
func PayloadTooLargeResult(err error) *ServiceResult {
	var maxErr *http.MaxBytesError
	if !errors.As(err, &maxErr) {
		return nil
	}
	return newResult(http.StatusRequestEntityTooLarge, nil, fmt.Sprintf("Request payload too large (limit %d bytes)", maxErr.Limit))
}

// AppErrorResult renders err through the application error taxonomy so the
// underlying cause never reaches the client.
func AppErrorResult(err error) *ServiceResult {
	return newResult(apperrors.HTTPStatusCode(err), nil, apperrors.GetHumanReadableMessage(err))
}

// RedirectResult issues a 302 and tells createHandler the response is written.
func RedirectResult(ctx *RequestContext, location string) *ServiceResult {
	ctx.Redirect(http.StatusFound, location)
	return newResult(http.StatusFound, nil, "")
}
