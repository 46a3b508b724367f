package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/planhub/planhub/internal/authgate"
	"github.com/planhub/planhub/internal/common"
	"github.com/planhub/planhub/internal/dbx"
	"github.com/planhub/planhub/internal/logging"
	"github.com/planhub/planhub/internal/mailer"
	"github.com/planhub/planhub/internal/passpolicy"
	"github.com/planhub/planhub/internal/server/config"
	"github.com/planhub/planhub/internal/server/repositories/repomanager"
)

// ResetTokenValidity is how long a password reset link stays usable.
const ResetTokenValidity = time.Hour

// ResetService implements the forgot-password flow: issue a one-time token,
// mail the link, and consume the token to set a new password.
type ResetService struct {
	db            *sql.DB
	repomanager   repomanager.RepositoryManager
	mailer        mailer.Mailer
	logger        logging.Logger
	publicBaseURL string
}

// NewResetService constructs a ResetService.
func NewResetService(db *sql.DB, m repomanager.RepositoryManager, mail mailer.Mailer, logger logging.Logger, cfg *config.Config) *ResetService {
	return &ResetService{
		db:            db,
		repomanager:   m,
		mailer:        mail,
		logger:        logger,
		publicBaseURL: cfg.PublicBaseURL,
	}
}

// Request issues a reset token for the account behind email and mails the
// link. Unknown addresses return nil so the endpoint cannot be used to probe
// which emails exist.
func (s *ResetService) Request(ctx context.Context, email string) error {
	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, authgate.Normalize(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.logger.Info(ctx, "password reset requested for unknown email")
			return nil
		}
		return err
	}

	token, err := common.MakeRandHexString(32)
	if err != nil {
		return common.ErrorInternal
	}

	if err := s.repomanager.Resets(s.db).Create(ctx, user.ID, token, ResetTokenValidity); err != nil {
		return err
	}

	link := fmt.Sprintf("%s/reset-password?token=%s", s.publicBaseURL, token)
	body := fmt.Sprintf("Hola %s,\n\nPara restablecer tu contraseña abre el siguiente enlace:\n\n%s\n\nEl enlace vence en 1 hora.", user.FullName, link)
	if err := s.mailer.Send(ctx, user.Email, "Restablecer contraseña", body); err != nil {
		s.logger.Error(ctx, "reset mail delivery failed", "error", err)
		return common.ErrorInternal
	}
	return nil
}

// Confirm consumes a reset token and sets the new password. The token mark
// and the password write run in one transaction; every refresh token of the
// user is revoked at the same time.
func (s *ResetService) Confirm(ctx context.Context, token, newPassword string) error {
	reset, err := s.repomanager.Resets(s.db).Find(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrResetTokenExpired
		}
		return err
	}
	if reset.Expires.Before(time.Now()) {
		return common.ErrResetTokenExpired
	}

	if !passpolicy.IsValid(newPassword) {
		return common.ErrWeakPassword
	}

	hash, err := hashPassword(newPassword)
	if err != nil {
		return common.ErrorInternal
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Resets(tx).MarkUsed(ctx, token); err != nil {
			return err
		}
		if err := s.repomanager.Users(tx).SetPassword(ctx, reset.UserID, hash); err != nil {
			return err
		}
		return s.repomanager.RefreshTokens(tx).DeleteForUser(ctx, reset.UserID)
	})
}
