// Package resets declares the server-side repository contract for one-time
// password reset tokens.
package resets

import (
	"context"
	"time"

	"github.com/planhub/planhub/internal/server/models"
)

// Repository defines operations for issuing and consuming reset tokens.
type Repository interface {
	// Create stores a reset token for userID with an expiry of now+validity.
	Create(ctx context.Context, userID string, token string, validity time.Duration) error

	// Find looks an unused reset token up by its token string.
	// Returns common.ErrorNotFound when absent or already used.
	Find(ctx context.Context, token string) (*models.PasswordReset, error)

	// MarkUsed consumes a reset token so it cannot be replayed.
	MarkUsed(ctx context.Context, token string) error
}
