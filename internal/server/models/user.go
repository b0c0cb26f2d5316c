// Package models holds the persistent entities of the activation service.
package models

import "time"

// User is an account gated behind email activation. IsActive stays false
// until the owner proves email ownership plus credential knowledge.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
}
