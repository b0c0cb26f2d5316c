// Package users declares the repository contract for user accounts.
package users

import (
	"context"

	"github.com/dkorchagin/activation/internal/server/models"
)

// Repository defines persistence operations for users. Email uniqueness
// is enforced at this boundary: Create returns common.ErrDuplicateEmail
// on a duplicate, never the raw driver error.
type Repository interface {
	// Create inserts an inactive user and returns the stored row.
	Create(ctx context.Context, email, passwordHash string) (*models.User, error)

	// GetByEmail returns the user with the given email or common.ErrorNotFound.
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// GetByID returns the user with the given id or common.ErrorNotFound.
	GetByID(ctx context.Context, id string) (*models.User, error)

	// LockForUpdate takes the user's row lock for the caller's
	// transaction, or returns common.ErrorNotFound. Every transaction
	// that touches a user's tokens locks the user row first, so
	// concurrent reissues and activations for one user serialize
	// instead of deadlocking.
	LockForUpdate(ctx context.Context, id string) error

	// Activate sets the activation flag and reports whether a row matched.
	Activate(ctx context.Context, id string) (bool, error)
}
