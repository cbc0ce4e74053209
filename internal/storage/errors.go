package storage

import "errors"

var (
	// ErrInvalidInput is returned when a key or payload fails validation.
	ErrInvalidInput = errors.New("invalid input")
)
