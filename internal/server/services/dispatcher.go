package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dkorchagin/activation/internal/dbx"
	"github.com/dkorchagin/activation/internal/logging"
	"github.com/dkorchagin/activation/internal/security"
	"github.com/dkorchagin/activation/internal/server/mail"
	"github.com/dkorchagin/activation/internal/server/models"
	"github.com/dkorchagin/activation/internal/server/repositories/repomanager"
)

// DispatcherService issues activation codes: generate an OTP, hash it,
// store it as the user's single active token, hand the plaintext code to
// the mail collaborator. Reissuing supersedes the previous token.
type DispatcherService struct {
	db        *sql.DB
	repos     repomanager.RepositoryManager
	hasher    *security.Hasher
	mailer    mail.Mailer
	log       logging.Logger
	otpLength int
	otpTTL    time.Duration
}

func NewDispatcherService(db *sql.DB, repos repomanager.RepositoryManager, hasher *security.Hasher,
	mailer mail.Mailer, log logging.Logger, otpLength int, otpTTL time.Duration) *DispatcherService {
	return &DispatcherService{
		db:        db,
		repos:     repos,
		hasher:    hasher,
		mailer:    mailer,
		log:       log,
		otpLength: otpLength,
		otpTTL:    otpTTL,
	}
}

// DispatchCode stores a fresh token and sends its code to email.
//
// The mail send happens after the token transaction commits: a slow or
// failing gateway must not hold a database lock. If the send fails the
// token stays valid and the caller re-dispatches, which supersedes it.
func (s *DispatcherService) DispatchCode(ctx context.Context, userID, email string) error {
	code, err := security.GenerateOTP(s.otpLength)
	if err != nil {
		return fmt.Errorf("generating otp: %w", err)
	}
	hash, err := s.hasher.Hash(code)
	if err != nil {
		return fmt.Errorf("hashing otp: %w", err)
	}

	var token *models.ActivationToken
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var txErr error
		token, txErr = s.repos.Tokens(tx).UpsertActive(ctx, userID, hash, s.otpTTL)
		return txErr
	})
	if err != nil {
		return fmt.Errorf("storing activation token: %w", err)
	}

	if err := s.mailer.SendCode(ctx, email, code); err != nil {
		s.log.Error(ctx, "activation code could not be delivered",
			"user_id", userID, "token_id", token.ID, "error", err.Error())
		return err
	}

	s.log.Info(ctx, "activation code dispatched", "user_id", userID, "token_id", token.ID)
	return nil
}
