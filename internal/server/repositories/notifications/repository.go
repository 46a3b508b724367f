// Package notifications declares the server-side repository contract for
// per-user workflow notifications.
package notifications

import (
	"context"

	"github.com/planhub/planhub/internal/server/models"
)

// Repository defines persistence operations for notifications.
type Repository interface {
	// Create inserts a notification and returns it with ID and timestamp set.
	Create(ctx context.Context, n *models.Notification) (*models.Notification, error)

	// ListForUser returns a user's notifications, newest first. When
	// unreadOnly is true, read notifications are skipped.
	ListForUser(ctx context.Context, userID string, unreadOnly bool) ([]*models.Notification, error)

	// MarkRead flags a single notification as read.
	// Returns common.ErrorNotFound when it does not belong to the user.
	MarkRead(ctx context.Context, id string, userID string) error

	// MarkAllRead flags all of a user's notifications as read.
	MarkAllRead(ctx context.Context, userID string) error
}
