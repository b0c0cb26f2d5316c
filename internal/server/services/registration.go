// Package services contains the business logic of the activation flow:
// registration, code dispatch, and account activation. Services are
// stateless between calls; all state crosses the repository boundary.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dkorchagin/activation/internal/common"
	"github.com/dkorchagin/activation/internal/security"
	"github.com/dkorchagin/activation/internal/server/repositories/repomanager"
)

// RegistrationService creates user accounts. It has no OTP concerns:
// code issuance is a separate explicit step owned by DispatcherService,
// so re-sending a code never re-creates a user.
type RegistrationService struct {
	db     *sql.DB
	repos  repomanager.RepositoryManager
	hasher *security.Hasher
}

func NewRegistrationService(db *sql.DB, repos repomanager.RepositoryManager, hasher *security.Hasher) *RegistrationService {
	return &RegistrationService{db: db, repos: repos, hasher: hasher}
}

// Register hashes the password and creates an inactive user, returning
// its id. A taken email yields common.ErrDuplicateEmail.
func (s *RegistrationService) Register(ctx context.Context, email, password string) (string, error) {
	repo := s.repos.Users(s.db)

	_, err := repo.GetByEmail(ctx, email)
	if err == nil {
		return "", common.ErrDuplicateEmail
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return "", fmt.Errorf("looking up email: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}

	// the unique constraint still backs this up if a concurrent request
	// wins the race between the lookup and the insert
	user, err := repo.Create(ctx, email, hash)
	if err != nil {
		if errors.Is(err, common.ErrDuplicateEmail) {
			return "", err
		}
		return "", fmt.Errorf("creating user: %w", err)
	}
	return user.ID, nil
}
