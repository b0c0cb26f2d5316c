package services

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/dkorchagin/activation/internal/common"
	"github.com/dkorchagin/activation/internal/logging"
	"github.com/dkorchagin/activation/internal/security"
)

// --- shared test plumbing ---

// low-cost argon2id parameters keep the suite fast
func testHasher() *security.Hasher {
	return security.NewHasher(security.HashParams{TimeCost: 1, MemoryKiB: 8 * 1024, Parallelism: 1})
}

func testLogger() logging.Logger {
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})
	return logging.NewSlogLogger(slog.New(h))
}

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

// newSQLiteDB returns a throwaway DB used purely as a transaction
// provider for WithTx when the repositories are in-memory.
func newSQLiteDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// fakeMailer records dispatched codes and can be told to fail.
type fakeMailer struct {
	sendErr error
	to      []string
	codes   []string
}

func (f *fakeMailer) SendCode(ctx context.Context, email, code string) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.to = append(f.to, email)
	f.codes = append(f.codes, code)
	return nil
}

func (f *fakeMailer) lastCode(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, f.codes, "no code was dispatched")
	return f.codes[len(f.codes)-1]
}

func failingMailer() *fakeMailer {
	return &fakeMailer{sendErr: fmt.Errorf("%w: gateway responded 502", common.ErrMailDelivery)}
}
