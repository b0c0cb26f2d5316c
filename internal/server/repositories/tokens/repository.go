// Package tokens declares the repository contract for activation tokens.
//
// The invariant this store enforces: at most one token per user is
// "active" (consumed_at IS NULL) at any time. UpsertActive invalidates
// the previous active token before inserting the replacement; callers
// wrap it in a transaction so concurrent reissues for the same user
// serialize instead of both surviving.
package tokens

import (
	"context"
	"time"

	"github.com/dkorchagin/activation/internal/server/models"
)

// Repository defines persistence operations for activation tokens.
type Repository interface {
	// UpsertActive marks any existing active token for userID consumed and
	// inserts a fresh one expiring after ttl. It must run inside a
	// transaction (dbx.WithTx) so the invalidate-then-insert pair is atomic.
	UpsertActive(ctx context.Context, userID, codeHash string, ttl time.Duration) (*models.ActivationToken, error)

	// GetActive returns the newest unconsumed token for userID, or
	// common.ErrorNotFound when none exists.
	GetActive(ctx context.Context, userID string) (*models.ActivationToken, error)

	// Consume stamps the token's consumption time. Consuming an already
	// consumed token is harmless.
	Consume(ctx context.Context, tokenID string) error
}
