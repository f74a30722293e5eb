package errors

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeNotFound     = "NOT_FOUND"
	CodeValidation   = "VALIDATION_ERROR"
	CodeInvalidInput = "INVALID_INPUT"
	CodeConflict     = "CONFLICT"
	CodeInternal     = "INTERNAL_ERROR"
)

const internalMessage = "Internal server error"

// AppError is the error type handlers render. Err is logged, never sent to clients.
type AppError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) StatusCode() int {
	if e.HTTPStatus == 0 {
		return http.StatusInternalServerError
	}
	return e.HTTPStatus
}

// PublicMessage hides storage and driver failures behind a fixed message.
func (e *AppError) PublicMessage() string {
	if e.Code == CodeInternal {
		return internalMessage
	}
	return e.Message
}

// With adds one detail entry and returns e.
func (e *AppError) With(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

func newAppError(code string, status int, message string) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status}
}

func NotFoundWithID(resource, id string) *AppError {
	return newAppError(CodeNotFound, http.StatusNotFound, fmt.Sprintf("%s not found", resource)).
		With("resource", resource).
		With("id", id)
}

// Validation reports one or more rejected input fields; details carries the full list.
func Validation(message string, details map[string]any) *AppError {
	e := newAppError(CodeValidation, http.StatusUnprocessableEntity, message)
	e.Details = details
	return e
}

// InvalidInput is for malformed requests that never reach field validation.
func InvalidInput(message string) *AppError {
	return newAppError(CodeInvalidInput, http.StatusBadRequest, message)
}

func Conflict(message string) *AppError {
	return newAppError(CodeConflict, http.StatusConflict, message)
}

func Internal(message string, err error) *AppError {
	e := newAppError(CodeInternal, http.StatusInternalServerError, message)
	e.Err = err
	return e
}

// IsAppError reports whether err is, or wraps, an *AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// HasCode reports whether err carries an *AppError with the given code.
func HasCode(err error, code string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// AsAppError unwraps err to its *AppError. Anything else is treated as internal.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("An unexpected error occurred", err)
}
