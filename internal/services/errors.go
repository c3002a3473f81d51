package services

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies failures so handlers can pick a status code and
// best-effort callers can decide what to log.
type ErrorKind string

const (
	ErrKindValidation  ErrorKind = "validation"
	ErrKindTransport   ErrorKind = "transport"
	ErrKindPersistence ErrorKind = "persistence"
	ErrKindConfig      ErrorKind = "config"
	ErrKindNotFound    ErrorKind = "not_found"
	ErrKindAuth        ErrorKind = "auth"
)

// ServiceError is returned by services for every expected failure.
type ServiceError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// StatusCode maps the kind to the HTTP status handlers answer with.
func (e *ServiceError) StatusCode() int {
	switch e.Kind {
	case ErrKindValidation:
		return http.StatusBadRequest
	case ErrKindNotFound:
		return http.StatusNotFound
	case ErrKindAuth:
		return http.StatusUnauthorized
	case ErrKindTransport:
		return http.StatusBadGateway
	case ErrKindConfig:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func validationError(format string, args ...interface{}) *ServiceError {
	return &ServiceError{Kind: ErrKindValidation, Message: fmt.Sprintf(format, args...)}
}

func persistenceError(msg string, err error) *ServiceError {
	return &ServiceError{Kind: ErrKindPersistence, Message: msg, Err: err}
}

func notFoundError(msg string) *ServiceError {
	return &ServiceError{Kind: ErrKindNotFound, Message: msg}
}

func authError(msg string) *ServiceError {
	return &ServiceError{Kind: ErrKindAuth, Message: msg}
}

// KindOf returns the kind of a ServiceError anywhere in err's chain, or "" for other errors.
func KindOf(err error) ErrorKind {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}
