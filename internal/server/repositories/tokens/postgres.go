package tokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dkorchagin/activation/internal/common"
	"github.com/dkorchagin/activation/internal/dbx"
	"github.com/dkorchagin/activation/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// UpsertActive replaces the user's active token inside the caller's
// transaction. The user row is locked first so two concurrent reissues
// (or a reissue racing an activation) for the same user serialize; the
// previous active token is then marked consumed and the new row inserted.
func (r *PostgresRepository) UpsertActive(ctx context.Context, userID, codeHash string, ttl time.Duration) (*models.ActivationToken, error) {
	lockQuery := `
		SELECT id FROM users
		WHERE id = $1
		FOR UPDATE
	`
	var locked string
	if err := r.db.QueryRowContext(ctx, lockQuery, userID).Scan(&locked); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	invalidateQuery := `
		UPDATE activation_tokens
		SET consumed_at = now()
		WHERE user_id = $1 AND consumed_at IS NULL
	`
	if _, err := r.db.ExecContext(ctx, invalidateQuery, userID); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	insertQuery := `
		INSERT INTO activation_tokens (user_id, code_hash, expires_at)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	token := &models.ActivationToken{
		UserID:    userID,
		CodeHash:  codeHash,
		ExpiresAt: time.Now().UTC().Add(ttl),
	}
	err := r.db.QueryRowContext(ctx, insertQuery, userID, codeHash, token.ExpiresAt).
		Scan(&token.ID, &token.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return token, nil
}

// GetActive returns the newest unconsumed token for userID. The ordering
// is a defensive tie-break: if the single-active invariant were ever
// violated, the most recently issued token wins.
func (r *PostgresRepository) GetActive(ctx context.Context, userID string) (*models.ActivationToken, error) {
	query := `
		SELECT id, user_id, code_hash, created_at, expires_at, consumed_at
		FROM activation_tokens
		WHERE user_id = $1 AND consumed_at IS NULL
		ORDER BY created_at DESC
		LIMIT 1
		FOR UPDATE
	`
	token := &models.ActivationToken{}
	var consumedAt sql.NullTime
	err := r.db.QueryRowContext(ctx, query, userID).
		Scan(&token.ID, &token.UserID, &token.CodeHash, &token.CreatedAt, &token.ExpiresAt, &consumedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if consumedAt.Valid {
		token.ConsumedAt = &consumedAt.Time
	}
	return token, nil
}

// Consume stamps the consumption time. The consumed_at IS NULL guard
// keeps the first stamp; a second call matches no rows and is a no-op.
func (r *PostgresRepository) Consume(ctx context.Context, tokenID string) error {
	query := `
		UPDATE activation_tokens
		SET consumed_at = now()
		WHERE id = $1 AND consumed_at IS NULL
	`
	if _, err := r.db.ExecContext(ctx, query, tokenID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
