// Package users declares the server-side repository contract for user accounts.
package users

import (
	"context"

	"github.com/planhub/planhub/internal/server/models"
)

// Repository defines persistence operations for user accounts.
type Repository interface {
	// Create inserts a new user and returns it with the generated ID set.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// GetByUsername looks a user up by exact username.
	// Returns common.ErrorNotFound when absent.
	GetByUsername(ctx context.Context, username string) (*models.User, error)

	// GetByEmail looks a user up by exact email.
	// Returns common.ErrorNotFound when absent.
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// GetByID looks a user up by ID. Returns common.ErrorNotFound when absent.
	GetByID(ctx context.Context, id string) (*models.User, error)

	// List returns all users ordered by username.
	List(ctx context.Context) ([]*models.User, error)

	// Update rewrites the mutable profile fields (email, full name, role, active).
	Update(ctx context.Context, user *models.User) error

	// SetPassword replaces the stored password hash.
	SetPassword(ctx context.Context, id string, hash []byte) error

	// Delete removes a user by ID.
	Delete(ctx context.Context, id string) error
}
