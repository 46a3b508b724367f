package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/planhub/planhub/internal/authgate"
	"github.com/planhub/planhub/internal/common"
	"github.com/planhub/planhub/internal/passpolicy"
	"github.com/planhub/planhub/internal/server/models"
	"github.com/planhub/planhub/internal/server/repositories/repomanager"
	"golang.org/x/crypto/bcrypt"
)

// AccountService manages user accounts (admin surface): creation, listing,
// profile updates, password changes and deactivation.
type AccountService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

// NewAccountService constructs an AccountService.
func NewAccountService(db *sql.DB, m repomanager.RepositoryManager) *AccountService {
	return &AccountService{db: db, repomanager: m}
}

// hashPassword is a seam for testing bcrypt.GenerateFromPassword.
var hashPassword = func(password string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
}

// Create validates the role and password policy, hashes the password, and
// inserts the account. Duplicate usernames surface as ErrorAlreadyExists.
func (s *AccountService) Create(ctx context.Context, username, email, fullName, role, password string) (*models.User, error) {
	if !models.ValidRole(role) {
		return nil, fmt.Errorf("invalid role %q", role)
	}
	if !passpolicy.IsValid(password) {
		return nil, common.ErrWeakPassword
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, common.ErrorInternal
	}

	user := &models.User{
		Username:     authgate.Normalize(username),
		Email:        authgate.Normalize(email),
		FullName:     fullName,
		Role:         role,
		PasswordHash: hash,
		Active:       true,
	}

	repo := s.repomanager.Users(s.db)
	if _, err := repo.GetByUsername(ctx, user.Username); err == nil {
		return nil, common.ErrorAlreadyExists
	} else if !errors.Is(err, common.ErrorNotFound) {
		return nil, err
	}

	created, err := repo.Create(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("error creating user: %v", err)
	}
	return created, nil
}

// Get returns a single account by ID.
func (s *AccountService) Get(ctx context.Context, id string) (*models.User, error) {
	return s.repomanager.Users(s.db).GetByID(ctx, id)
}

// List returns all accounts ordered by username.
func (s *AccountService) List(ctx context.Context) ([]*models.User, error) {
	return s.repomanager.Users(s.db).List(ctx)
}

// Update rewrites an account's profile fields.
func (s *AccountService) Update(ctx context.Context, id, email, fullName, role string, active bool) (*models.User, error) {
	if !models.ValidRole(role) {
		return nil, fmt.Errorf("invalid role %q", role)
	}

	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	user.Email = authgate.Normalize(email)
	user.FullName = fullName
	user.Role = role
	user.Active = active

	if err := repo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ChangePassword verifies the current password, checks the policy on the new
// one, and stores the new hash.
func (s *AccountService) ChangePassword(ctx context.Context, id, current, next string) error {
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(current)); err != nil {
		return common.ErrWrongPassword
	}
	if !passpolicy.IsValid(next) {
		return common.ErrWeakPassword
	}

	hash, err := hashPassword(next)
	if err != nil {
		return common.ErrorInternal
	}
	return repo.SetPassword(ctx, id, hash)
}

// Delete removes an account and revokes its refresh tokens.
func (s *AccountService) Delete(ctx context.Context, id string) error {
	if err := s.repomanager.RefreshTokens(s.db).DeleteForUser(ctx, id); err != nil {
		return err
	}
	return s.repomanager.Users(s.db).Delete(ctx, id)
}
