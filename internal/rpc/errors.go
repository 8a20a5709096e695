package rpc

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/devaloi/guestbook/internal/domain"
)

// Code classifies a procedure failure on the wire.
type Code string

const (
	CodeBadRequest         Code = "BAD_REQUEST"
	CodeUnauthorized       Code = "UNAUTHORIZED"
	CodeNotFound           Code = "NOT_FOUND"
	CodeMethodNotSupported Code = "METHOD_NOT_SUPPORTED"
	CodeInternal           Code = "INTERNAL_SERVER_ERROR"
)

var httpStatus = map[Code]int{
	CodeBadRequest:         http.StatusBadRequest,
	CodeUnauthorized:       http.StatusUnauthorized,
	CodeNotFound:           http.StatusNotFound,
	CodeMethodNotSupported: http.StatusMethodNotAllowed,
	CodeInternal:           http.StatusInternalServerError,
}

// Error is a procedure failure as seen by callers.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

// Errorf builds an *Error.
func Errorf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap lets callers match wire errors against the domain sentinels.
func (e *Error) Unwrap() error {
	switch e.Code {
	case CodeBadRequest:
		return domain.ErrInvalidMessage
	case CodeUnauthorized:
		return domain.ErrUnauthorized
	case CodeNotFound:
		return domain.ErrNotFound
	}
	return nil
}

// HTTPStatus is the status code the error is served with.
func (e *Error) HTTPStatus() int {
	if s, ok := httpStatus[e.Code]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// toError maps any handler error onto the wire taxonomy. The second return
// value is false for errors that were not anticipated.
func toError(err error) (*Error, bool) {
	var rpcErr *Error
	switch {
	case errors.As(err, &rpcErr):
		return rpcErr, true
	case errors.Is(err, domain.ErrInvalidMessage):
		return &Error{Code: CodeBadRequest, Message: err.Error()}, true
	case errors.Is(err, domain.ErrUnauthorized):
		return &Error{Code: CodeUnauthorized, Message: err.Error()}, true
	case errors.Is(err, domain.ErrNotFound):
		return &Error{Code: CodeNotFound, Message: err.Error()}, true
	default:
		return &Error{Code: CodeInternal, Message: "internal server error"}, false
	}
}
