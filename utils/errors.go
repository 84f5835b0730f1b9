package utils

import (
	"errors"
	"log"
	"net/http"
)

// ErrorKind classifies failures for the HTTP layer.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindNotFound
	KindBadRequest
	KindUnauthorized
	KindForbidden
	KindConflict
)

// AppError is the only error type services hand back to controllers.
type AppError struct {
	Kind    ErrorKind
	Message string
}

func (e *AppError) Error() string {
	return e.Message
}

// Status maps the kind onto an HTTP status code.
func (e *AppError) Status() int {
	switch e.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindBadRequest:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func NotFound(message string) *AppError {
	return &AppError{Kind: KindNotFound, Message: message}
}

func BadRequest(message string) *AppError {
	return &AppError{Kind: KindBadRequest, Message: message}
}

func Unauthorized(message string) *AppError {
	return &AppError{Kind: KindUnauthorized, Message: message}
}

func Forbidden(message string) *AppError {
	return &AppError{Kind: KindForbidden, Message: message}
}

func Conflict(message string) *AppError {
	return &AppError{Kind: KindConflict, Message: message}
}

func Internal(message string) *AppError {
	return &AppError{Kind: KindInternal, Message: message}
}

// Wrap passes known AppErrors through untouched and turns anything else
// into an Internal error carrying message. The cause is logged, never returned.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	log.Printf("%s: %v", message, err)
	return Internal(message)
}

// KindOf reports the kind of err, KindInternal for foreign errors.
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}
