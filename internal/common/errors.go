// Package common defines shared constants and sentinel errors used across
// NoteYou components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository/storage-level errors.
	ErrNotFound          = errors.New("not found")
	ErrUnknownCollection = errors.New("unknown collection")
	ErrNotInitialized    = errors.New("storage not initialized")

	// Service-level errors.
	ErrAlreadyExists = errors.New("already exists")
	ErrUnauthorized  = errors.New("invalid email or password")
	ErrValidation    = errors.New("validation failed")
)
