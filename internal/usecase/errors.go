package usecase

import "errors"

// Callers match these with errors.Is; the worker maps them to exit codes.
var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("not found")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)
