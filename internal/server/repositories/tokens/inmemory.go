package tokens

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dkorchagin/activation/internal/common"
	"github.com/dkorchagin/activation/internal/server/models"
)

// InMemoryRepository is a map-backed Repository used in tests. The mutex
// stands in for the row lock the Postgres implementation takes, so the
// single-active invariant holds here too.
type InMemoryRepository struct {
	mu     sync.Mutex
	tokens map[string]*models.ActivationToken // keyed by id
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{tokens: make(map[string]*models.ActivationToken)}
}

func (r *InMemoryRepository) UpsertActive(ctx context.Context, userID, codeHash string, ttl time.Duration) (*models.ActivationToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	for _, t := range r.tokens {
		if t.UserID == userID && t.ConsumedAt == nil {
			ts := now
			t.ConsumedAt = &ts
		}
	}

	token := &models.ActivationToken{
		ID:        uuid.NewString(),
		UserID:    userID,
		CodeHash:  codeHash,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	r.tokens[token.ID] = token

	cp := *token
	return &cp, nil
}

func (r *InMemoryRepository) GetActive(ctx context.Context, userID string) (*models.ActivationToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var newest *models.ActivationToken
	for _, t := range r.tokens {
		if t.UserID != userID || t.ConsumedAt != nil {
			continue
		}
		if newest == nil || t.CreatedAt.After(newest.CreatedAt) {
			newest = t
		}
	}
	if newest == nil {
		return nil, common.ErrorNotFound
	}
	cp := *newest
	return &cp, nil
}

func (r *InMemoryRepository) Consume(ctx context.Context, tokenID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tokens[tokenID]
	if !ok || t.ConsumedAt != nil {
		return nil
	}
	now := time.Now().UTC()
	t.ConsumedAt = &now
	return nil
}
