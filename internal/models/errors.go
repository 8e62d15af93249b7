package models

import "errors"

var (
	// ErrNotFound is returned when a record id is not present in the store
	ErrNotFound = errors.New("record not found")

	// ErrValidation wraps every malformed-record failure
	ErrValidation = errors.New("validation failed")
)
