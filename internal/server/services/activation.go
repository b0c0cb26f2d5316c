package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dkorchagin/activation/internal/common"
	"github.com/dkorchagin/activation/internal/dbx"
	"github.com/dkorchagin/activation/internal/logging"
	"github.com/dkorchagin/activation/internal/security"
	"github.com/dkorchagin/activation/internal/server/repositories/repomanager"
)

// ActivationService finalizes account activation. Wrong credentials,
// unknown emails, missing tokens, and wrong codes all collapse into
// common.ErrInvalidCode so the endpoint cannot be used as an account or
// code oracle. Expiry is reported separately: by that point the caller
// has already proven credential knowledge.
type ActivationService struct {
	db     *sql.DB
	repos  repomanager.RepositoryManager
	hasher *security.Hasher
	log    logging.Logger

	// decoyHash absorbs a verification for unknown emails so the
	// response time does not reveal whether the account exists.
	decoyHash string

	now func() time.Time
}

func NewActivationService(db *sql.DB, repos repomanager.RepositoryManager, hasher *security.Hasher, log logging.Logger) (*ActivationService, error) {
	decoy, err := hasher.Hash(uuid.NewString())
	if err != nil {
		return nil, fmt.Errorf("preparing decoy hash: %w", err)
	}
	return &ActivationService{
		db:        db,
		repos:     repos,
		hasher:    hasher,
		log:       log,
		decoyHash: decoy,
		now:       time.Now,
	}, nil
}

// Activate validates credentials and the submitted code, consumes the
// token, and flips the user's activation flag. Consume and activate run
// in one transaction, so a failure between them rolls both back and the
// account never ends up with a burned code and an inactive flag.
func (s *ActivationService) Activate(ctx context.Context, email, password, code string) error {
	usersRepo := s.repos.Users(s.db)

	user, err := usersRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.hasher.Verify(s.decoyHash, password)
			return common.ErrInvalidCode
		}
		return fmt.Errorf("looking up user: %w", err)
	}
	if !s.hasher.Verify(user.PasswordHash, password) {
		return common.ErrInvalidCode
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		txUsers := s.repos.Users(tx)
		tokensRepo := s.repos.Tokens(tx)

		// Lock the user row before touching its tokens. Dispatch does the
		// same, so a reissue racing an activation serializes on the user
		// row instead of deadlocking across the two tables.
		if err := txUsers.LockForUpdate(ctx, user.ID); err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrInvalidCode
			}
			return fmt.Errorf("locking user: %w", err)
		}

		token, err := tokensRepo.GetActive(ctx, user.ID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrInvalidCode
			}
			return fmt.Errorf("looking up token: %w", err)
		}

		if s.now().After(token.ExpiresAt) {
			return common.ErrCodeExpired
		}

		if !s.hasher.Verify(token.CodeHash, code) {
			return common.ErrInvalidCode
		}

		if err := tokensRepo.Consume(ctx, token.ID); err != nil {
			return fmt.Errorf("consuming token: %w", err)
		}

		matched, err := txUsers.Activate(ctx, user.ID)
		if err != nil {
			return fmt.Errorf("activating user: %w", err)
		}
		if !matched {
			// verification already succeeded; a vanished row is unexpected
			// but not a reason to fail the caller
			s.log.Warn(ctx, "user row missing during activation", "user_id", user.ID)
		}
		return nil
	})
}
