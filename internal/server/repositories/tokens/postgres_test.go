package tokens

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkorchagin/activation/internal/common"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return NewPostgresRepository(db), mock, db
}

const (
	lockQ       = `(?s)^\s*SELECT\s+id\s+FROM\s+users\s+WHERE\s+id\s*=\s*\$1\s+FOR\s+UPDATE\s*$`
	invalidateQ = `(?s)^\s*UPDATE\s+activation_tokens\s+SET\s+consumed_at\s*=\s*now\(\)\s+WHERE\s+user_id\s*=\s*\$1\s+AND\s+consumed_at\s+IS\s+NULL\s*$`
	insertQ     = `(?s)^\s*INSERT\s+INTO\s+activation_tokens\s*\(user_id,\s*code_hash,\s*expires_at\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3\)\s*RETURNING\s+id,\s*created_at\s*$`
	getActiveQ  = `(?s)^\s*SELECT\s+id,\s*user_id,\s*code_hash,\s*created_at,\s*expires_at,\s*consumed_at\s+FROM\s+activation_tokens\s+WHERE\s+user_id\s*=\s*\$1\s+AND\s+consumed_at\s+IS\s+NULL\s+ORDER\s+BY\s+created_at\s+DESC\s+LIMIT\s+1\s+FOR\s+UPDATE\s*$`
	consumeQ    = `(?s)^\s*UPDATE\s+activation_tokens\s+SET\s+consumed_at\s*=\s*now\(\)\s+WHERE\s+id\s*=\s*\$1\s+AND\s+consumed_at\s+IS\s+NULL\s*$`
)

func TestUpsertActive_InvalidatesThenInserts(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	created := time.Now().UTC()
	mock.ExpectQuery(lockQ).WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("u-1"))
	mock.ExpectExec(invalidateQ).WithArgs("u-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(insertQ).WithArgs("u-1", "code-hash", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("t-2", created))

	tok, err := repo.UpsertActive(context.Background(), "u-1", "code-hash", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "t-2", tok.ID)
	assert.Equal(t, "u-1", tok.UserID)
	assert.Nil(t, tok.ConsumedAt)
	assert.WithinDuration(t, time.Now().UTC().Add(time.Minute), tok.ExpiresAt, 5*time.Second)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertActive_UserMissing(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(lockQ).WithArgs("u-gone").WillReturnError(sql.ErrNoRows)

	_, err := repo.UpsertActive(context.Background(), "u-gone", "h", time.Minute)
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestGetActive_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "user_id", "code_hash", "created_at", "expires_at", "consumed_at"}).
		AddRow("t-1", "u-1", "h", now, now.Add(time.Minute), nil)
	mock.ExpectQuery(getActiveQ).WithArgs("u-1").WillReturnRows(rows)

	tok, err := repo.GetActive(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, "t-1", tok.ID)
	assert.True(t, tok.Active())
}

func TestGetActive_None(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(getActiveQ).WithArgs("u-1").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetActive(context.Background(), "u-1")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestConsume_StampsOnce(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(consumeQ).WithArgs("t-1").WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Consume(context.Background(), "t-1"))

	// second call matches no rows and stays silent
	mock.ExpectExec(consumeQ).WithArgs("t-1").WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, repo.Consume(context.Background(), "t-1"))

	require.NoError(t, mock.ExpectationsWereMet())
}
