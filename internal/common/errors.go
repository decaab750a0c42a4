// Package common defines shared constants and sentinel errors used across
// the memorial service layers. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Validation errors are local and never have a side effect.
	ErrValidation = errors.New("validation error")

	// Remote operation errors.
	ErrCreate = errors.New("create failed")
	ErrUpload = errors.New("upload failed")
	ErrDelete = errors.New("delete failed")

	// Auth errors.
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidToken = errors.New("invalid token")
)
