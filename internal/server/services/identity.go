package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/planhub/planhub/internal/authgate"
	"github.com/planhub/planhub/internal/common"
	"github.com/planhub/planhub/internal/server/models"
	"github.com/planhub/planhub/internal/server/repositories/repomanager"
	"golang.org/x/crypto/bcrypt"
)

// RepoIdentityStore adapts the users repository to the credential gate.
// Usernames arriving here are already normalized; lookups accept either a
// username or an email address.
type RepoIdentityStore struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

// NewRepoIdentityStore constructs an identity store over the users table.
func NewRepoIdentityStore(db *sql.DB, m repomanager.RepositoryManager) *RepoIdentityStore {
	return &RepoIdentityStore{db: db, repomanager: m}
}

func (s *RepoIdentityStore) find(ctx context.Context, username string) (*models.User, error) {
	repo := s.repomanager.Users(s.db)
	if strings.Contains(username, "@") {
		return repo.GetByEmail(ctx, username)
	}
	return repo.GetByUsername(ctx, username)
}

func (s *RepoIdentityStore) Exists(ctx context.Context, username string) (bool, error) {
	user, err := s.find(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return false, nil
		}
		return false, err
	}
	return user.Active, nil
}

func (s *RepoIdentityStore) VerifySecret(ctx context.Context, username, secret string) (bool, error) {
	user, err := s.find(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return false, nil
		}
		return false, err
	}
	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(secret)); err != nil {
		return false, nil
	}
	return true, nil
}

var _ authgate.IdentityStore = (*RepoIdentityStore)(nil)
