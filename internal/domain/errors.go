package domain

import "errors"

var (
	ErrInvalidMessage  = errors.New("invalid message")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrUnknownProvider = errors.New("unknown identity provider")
	ErrNotFound        = errors.New("not found")
)
