// Package services contains server-side business logic. This file implements
// UserService, which runs logins through the credential gate and issues and
// refreshes JWTs plus server-stored refresh tokens.
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
	"github.com/planhub/planhub/internal/server/auth"
	"github.com/planhub/planhub/internal/server/config"
	"github.com/planhub/planhub/internal/server/models"
	"github.com/planhub/planhub/internal/server/repositories/repomanager"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// UserService provides authentication-related operations:
// - Login: run credentials through the gate and mint tokens
// - RefreshToken: rotate refresh tokens and mint new access tokens
// - Logout: revoke a refresh token
type UserService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	gate                         *authgate.Gate
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
}

// NewUserService constructs a UserService using repositories and server config.
// The credential gate persists lockout state in the lockouts table so it is
// shared across server instances.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	identity := NewRepoIdentityStore(db, m)
	gate := authgate.NewWithLimits(identity, m.Lockouts(db), nil, cfg.LockMaxAttempts, cfg.LockDuration)
	return &UserService{
		db:                           db,
		repomanager:                  m,
		gate:                         gate,
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
	}
}

// Login runs the credentials through the gate. On success the returned
// result has OK set and the token pair is non-nil; on failure the result
// carries the user-facing message and lockout countdown.
func (s *UserService) Login(ctx context.Context, username, password string) (*authgate.Result, *TokenPair, error) {
	result, err := s.gate.Login(ctx, username, password)
	if err != nil {
		return nil, nil, err
	}
	if !result.OK {
		return result, nil, nil
	}

	user, err := s.findUser(ctx, username)
	if err != nil {
		return nil, nil, common.ErrorInternal
	}

	pair, err := s.generateTokenPair(ctx, user, s.db)
	if err != nil {
		return nil, nil, err
	}
	return result, pair, nil
}

// LockInfo returns the current lockout state for a username, or nil when the
// account is not locked.
func (s *UserService) LockInfo(ctx context.Context, username string) (*authgate.Lockout, error) {
	return s.gate.GetLockInfo(ctx, username)
}

// RemainingLockSeconds returns the whole seconds left on a lock, 0 if none.
func (s *UserService) RemainingLockSeconds(ctx context.Context, username string) (int, error) {
	return s.gate.RemainingLockSeconds(ctx, username)
}

// RefreshToken validates a refresh token, rotates it transactionally, and
// returns a fresh TokenPair. Expired tokens yield ErrRefreshTokenExpired.
func (s *UserService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	repo := s.repomanager.RefreshTokens(s.db)

	token, err := repo.Find(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrRefreshTokenExpired
		}
		return nil, fmt.Errorf("error searching refresh token: %v", err)
	}
	if token.Expires.Before(time.Now()) {
		return nil, common.ErrRefreshTokenExpired
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, token.UserID)
	if err != nil {
		return nil, common.ErrorInternal
	}

	var pair *TokenPair
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repoTx := s.repomanager.RefreshTokens(tx)
		if err := repoTx.Delete(ctx, refreshToken); err != nil {
			return fmt.Errorf("error deleting refresh token: %v", err)
		}
		var genErr error
		pair, genErr = s.generateTokenPair(ctx, user, tx)
		return genErr
	}); err != nil {
		return nil, err
	}
	return pair, nil
}

// Logout revokes a refresh token. Unknown tokens are not an error.
func (s *UserService) Logout(ctx context.Context, refreshToken string) error {
	return s.repomanager.RefreshTokens(s.db).Delete(ctx, refreshToken)
}

// --- helpers below ---

func (s *UserService) findUser(ctx context.Context, username string) (*models.User, error) {
	identity := NewRepoIdentityStore(s.db, s.repomanager)
	return identity.find(ctx, authgate.Normalize(username))
}

func (s *UserService) generateAccessToken(user *models.User) (string, error) {
	return auth.GenerateToken(user.ID, user.Role, s.jwtSecret, s.accessTokenValidityDuration)
}

func (s *UserService) generateRefreshToken() (string, error) {
	return common.MakeRandHexString(32)
}

func (s *UserService) generateTokenPair(ctx context.Context, user *models.User, tx dbx.DBTX) (*TokenPair, error) {
	access, err := s.generateAccessToken(user)
	if err != nil {
		return nil, common.ErrorInternal
	}
	refresh, err := s.generateRefreshToken()
	if err != nil {
		return nil, common.ErrorInternal
	}
	refreshRepo := s.repomanager.RefreshTokens(tx)
	if err := refreshRepo.Create(ctx, user.ID, refresh, s.refreshTokenValidityDuration); err != nil {
		return nil, common.ErrorInternal
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
