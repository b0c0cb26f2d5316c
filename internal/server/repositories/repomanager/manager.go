// Package repomanager hands out repositories bound to a DBTX, so services
// can use the same repository code on a plain connection or inside a
// transaction started with dbx.WithTx.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dkorchagin/activation/internal/dbx"
	"github.com/dkorchagin/activation/internal/server/repositories/tokens"
	"github.com/dkorchagin/activation/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(ctx context.Context, db *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Tokens(db dbx.DBTX) tokens.Repository
}
