package apperrors

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrValidation   = errors.New("validation failed")
	ErrInvalidRole  = errors.New("invalid role")
	ErrConflict     = errors.New("conflict")
)
