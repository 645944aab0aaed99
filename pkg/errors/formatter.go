package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

type ValidationErrorResponse struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var messageByTag = map[string]string{
	"required":      "This field is required",
	"required_with": "This field is required when a file is attached",
	"email":         "Invalid email format",
	"base64":        "Value must be valid base64",
	"safe_filename": "File name must not contain path separators or control characters",
	"url":           "Invalid URL format",
	"min":           "Value is too short",
	"max":           "Value is too long",
	"oneof":         "Value is not allowed",
}

// messageWithParam is used when the rule carries a parameter, e.g. max=320.
var messageWithParam = map[string]string{
	"min":   "Must be at least %s characters",
	"max":   "Must not exceed %s characters",
	"len":   "Must be exactly %s characters",
	"oneof": "Must be one of: %s",
}

func messageFor(fe validator.FieldError) string {
	if format, ok := messageWithParam[fe.Tag()]; ok && fe.Param() != "" {
		return fmt.Sprintf(format, fe.Param())
	}
	if msg, ok := messageByTag[fe.Tag()]; ok {
		return msg
	}
	return "Invalid value"
}

func jsonFieldName(structType reflect.Type, fieldName string) string {
	if structType == nil || structType.Kind() != reflect.Struct {
		return fieldName
	}

	field, found := structType.FieldByName(fieldName)
	if !found {
		return fieldName
	}

	name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return fieldName
	}
	return name
}

// FormatValidationErrors turns binding and validator failures into one entry
// per offending field, named as the client sent it. It returns nil for any
// other error.
func FormatValidationErrors(err error, model any) []ValidationErrorResponse {
	if err == nil {
		return nil
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return []ValidationErrorResponse{{
			Field:   typeErr.Field,
			Message: fmt.Sprintf("Invalid type for field %s. Expected %s, got %s", typeErr.Field, typeErr.Type, typeErr.Value),
		}}
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return nil
	}

	var structType reflect.Type
	if model != nil {
		structType = reflect.TypeOf(model)
		if structType.Kind() == reflect.Ptr {
			structType = structType.Elem()
		}
	}

	formatted := make([]ValidationErrorResponse, len(fieldErrors))
	for i, fe := range fieldErrors {
		formatted[i] = ValidationErrorResponse{
			Field:   jsonFieldName(structType, fe.Field()),
			Message: messageFor(fe),
		}
	}

	return formatted
}
