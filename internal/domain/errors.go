package domain

import "errors"

var (
	ErrValidation  = errors.New("validation failed")
	ErrNotFound    = errors.New("not found")
	ErrPersistence = errors.New("persistence failure")
	ErrTimeout     = errors.New("operation timed out")
	ErrForbidden   = errors.New("access denied")
)
