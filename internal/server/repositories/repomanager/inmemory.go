package repomanager

import (
	"context"
	"database/sql"

	"github.com/dkorchagin/activation/internal/dbx"
	"github.com/dkorchagin/activation/internal/server/repositories/tokens"
	"github.com/dkorchagin/activation/internal/server/repositories/users"
)

// InMemoryRepositoryManager returns the same map-backed repositories
// regardless of the DBTX handle. Used in tests; transactions degrade to
// direct writes, which is acceptable because each in-memory operation is
// already atomic under its own mutex.
type InMemoryRepositoryManager struct {
	users  *users.InMemoryRepository
	tokens *tokens.InMemoryRepository
}

func NewInMemoryRepositoryManager() *InMemoryRepositoryManager {
	return &InMemoryRepositoryManager{
		users:  users.NewInMemoryRepository(),
		tokens: tokens.NewInMemoryRepository(),
	}
}

func (m *InMemoryRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return m.users
}

func (m *InMemoryRepositoryManager) Tokens(db dbx.DBTX) tokens.Repository {
	return m.tokens
}

func (m *InMemoryRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	return nil
}
