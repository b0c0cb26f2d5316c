package services

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkorchagin/activation/internal/common"
	"github.com/dkorchagin/activation/internal/security"
	"github.com/dkorchagin/activation/internal/server/repositories/repomanager"
)

type activationFixture struct {
	db     *sql.DB
	repos  *repomanager.InMemoryRepositoryManager
	hasher *security.Hasher
	svc    *ActivationService
	userID string
}

// seeds one inactive user ("a@x.com"/"Secret123!") holding an active
// token for the given code
func newActivationFixture(t *testing.T, code string, ttl time.Duration) *activationFixture {
	t.Helper()
	ctx := context.Background()

	db := newSQLiteDB(t)
	repos := repomanager.NewInMemoryRepositoryManager()
	hasher := testHasher()

	pwHash, err := hasher.Hash("Secret123!")
	require.NoError(t, err)
	user, err := repos.Users(db).Create(ctx, "a@x.com", pwHash)
	require.NoError(t, err)

	codeHash, err := hasher.Hash(code)
	require.NoError(t, err)
	_, err = repos.Tokens(db).UpsertActive(ctx, user.ID, codeHash, ttl)
	require.NoError(t, err)

	svc, err := NewActivationService(db, repos, hasher, testLogger())
	require.NoError(t, err)

	return &activationFixture{db: db, repos: repos, hasher: hasher, svc: svc, userID: user.ID}
}

func (f *activationFixture) userActive(t *testing.T) bool {
	t.Helper()
	user, err := f.repos.Users(f.db).GetByID(context.Background(), f.userID)
	require.NoError(t, err)
	return user.IsActive
}

func TestActivate_Success(t *testing.T) {
	f := newActivationFixture(t, "0423", time.Minute)
	ctx := context.Background()

	require.NoError(t, f.svc.Activate(ctx, "a@x.com", "Secret123!", "0423"))
	assert.True(t, f.userActive(t))

	// the token is consumed, not deleted
	_, err := f.repos.Tokens(f.db).GetActive(ctx, f.userID)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestActivate_ReplayFails(t *testing.T) {
	f := newActivationFixture(t, "0423", time.Minute)
	ctx := context.Background()

	require.NoError(t, f.svc.Activate(ctx, "a@x.com", "Secret123!", "0423"))

	err := f.svc.Activate(ctx, "a@x.com", "Secret123!", "0423")
	assert.ErrorIs(t, err, common.ErrInvalidCode, "a consumed code must never work twice")
}

func TestActivate_WrongPassword(t *testing.T) {
	f := newActivationFixture(t, "0423", time.Minute)
	ctx := context.Background()

	err := f.svc.Activate(ctx, "a@x.com", "WrongPass1!", "0423")
	assert.ErrorIs(t, err, common.ErrInvalidCode, "credential failures must not be distinguishable")
	assert.False(t, f.userActive(t))

	// the failed attempt must not burn the token
	require.NoError(t, f.svc.Activate(ctx, "a@x.com", "Secret123!", "0423"))
}

func TestActivate_UnknownEmail(t *testing.T) {
	f := newActivationFixture(t, "0423", time.Minute)

	err := f.svc.Activate(context.Background(), "ghost@x.com", "Secret123!", "0423")
	assert.ErrorIs(t, err, common.ErrInvalidCode)
}

func TestActivate_WrongCode(t *testing.T) {
	f := newActivationFixture(t, "0423", time.Minute)

	err := f.svc.Activate(context.Background(), "a@x.com", "Secret123!", "9999")
	assert.ErrorIs(t, err, common.ErrInvalidCode)
	assert.False(t, f.userActive(t))
}

func TestActivate_NoActiveToken(t *testing.T) {
	ctx := context.Background()
	db := newSQLiteDB(t)
	repos := repomanager.NewInMemoryRepositoryManager()
	hasher := testHasher()

	pwHash, err := hasher.Hash("Secret123!")
	require.NoError(t, err)
	_, err = repos.Users(db).Create(ctx, "a@x.com", pwHash)
	require.NoError(t, err)

	svc, err := NewActivationService(db, repos, hasher, testLogger())
	require.NoError(t, err)

	err = svc.Activate(ctx, "a@x.com", "Secret123!", "0423")
	assert.ErrorIs(t, err, common.ErrInvalidCode, "no token must look like a wrong code")
}

// The activation transaction must take the user row lock before reading
// the token row. Dispatch locks user then tokens; if activation read the
// token first, the two transactions would acquire the same locks in
// opposite order and a concurrent reissue could deadlock. The ordered
// sqlmock expectations fail if the queries ever swap back.
func TestActivate_LocksUserRowBeforeTokenRow(t *testing.T) {
	db, mock := newSQLMockDB(t)
	ctx := context.Background()
	hasher := testHasher()

	pwHash, err := hasher.Hash("Secret123!")
	require.NoError(t, err)
	codeHash, err := hasher.Hash("0423")
	require.NoError(t, err)

	now := time.Now().UTC()
	mock.ExpectQuery(`FROM\s+users\s+WHERE\s+email`).WithArgs("a@x.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash", "is_active", "created_at"}).
			AddRow("u-1", "a@x.com", pwHash, false, now))
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT\s+id\s+FROM\s+users\s+WHERE\s+id\s*=\s*\$1\s+FOR\s+UPDATE`).WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("u-1"))
	mock.ExpectQuery(`FROM\s+activation_tokens\s+WHERE\s+user_id`).WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "code_hash", "created_at", "expires_at", "consumed_at"}).
			AddRow("t-1", "u-1", codeHash, now, now.Add(time.Minute), nil))
	mock.ExpectExec(`SET\s+consumed_at`).WithArgs("t-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`SET\s+is_active`).WithArgs("u-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	svc, err := NewActivationService(db, repomanager.NewPostgresRepositoryManager(), hasher, testLogger())
	require.NoError(t, err)

	require.NoError(t, svc.Activate(ctx, "a@x.com", "Secret123!", "0423"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestActivate_ExpiredCode(t *testing.T) {
	f := newActivationFixture(t, "0423", time.Minute)
	ctx := context.Background()

	f.svc.now = func() time.Time { return time.Now().UTC().Add(2 * time.Minute) }

	err := f.svc.Activate(ctx, "a@x.com", "Secret123!", "0423")
	assert.ErrorIs(t, err, common.ErrCodeExpired)
	assert.False(t, f.userActive(t))

	// expiry does not consume the token; it is only ever superseded
	_, err = f.repos.Tokens(f.db).GetActive(ctx, f.userID)
	assert.NoError(t, err)
}

func TestActivate_ExpiryBoundary(t *testing.T) {
	f := newActivationFixture(t, "0423", time.Minute)

	token, err := f.repos.Tokens(f.db).GetActive(context.Background(), f.userID)
	require.NoError(t, err)

	// exactly at the expiry instant the code is still acceptable
	f.svc.now = func() time.Time { return token.ExpiresAt }
	require.NoError(t, f.svc.Activate(context.Background(), "a@x.com", "Secret123!", "0423"))
}
