// Package common defines the sentinel errors shared across the service.
// Callers match them with errors.Is; repositories and services translate
// lower-level failures into these values and never leak driver errors.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Domain errors surfaced to the request layer.
	ErrDuplicateEmail = errors.New("email already exists")
	ErrInvalidCode    = errors.New("invalid code")
	ErrCodeExpired    = errors.New("code expired")
	ErrMailDelivery   = errors.New("mail delivery failed")

	// Generic internal failure, used when details must not reach the client.
	ErrorInternal = errors.New("internal error")
)
