// Package domain defines the core business entities and errors.
package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is malformed or invalid.
	ErrInvalidID = errors.New("invalid ID")

	// ErrEmptyContent is returned when required content is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrInvalidQuality is returned when a recall rating is outside 0-5.
	ErrInvalidQuality = errors.New("invalid review quality")

	// ErrNotAuthenticated is returned when an operation needs a user identity
	// and none is available. It is the only error that aborts a review flow.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrUnauthorized is returned when an operation is not permitted.
	ErrUnauthorized = errors.New("unauthorized operation")
)
