package services

import (
	"context"
	"database/sql"

	"github.com/planhub/planhub/internal/logging"
	"github.com/planhub/planhub/internal/mq"
	"github.com/planhub/planhub/internal/server/models"
	"github.com/planhub/planhub/internal/server/repositories/repomanager"
)

// NotificationService stores per-user notifications and mirrors them onto the
// message bus. The notification row is the source of truth; a failed publish
// is logged and swallowed.
type NotificationService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	publisher   mq.Publisher
	logger      logging.Logger
}

// NewNotificationService constructs a NotificationService.
func NewNotificationService(db *sql.DB, m repomanager.RepositoryManager, publisher mq.Publisher, logger logging.Logger) *NotificationService {
	return &NotificationService{db: db, repomanager: m, publisher: publisher, logger: logger}
}

// planEvent is the JSON body published for every stored notification.
type planEvent struct {
	Kind    string `json:"kind"`
	UserID  string `json:"user_id"`
	PlanID  string `json:"plan_id,omitempty"`
	Message string `json:"message"`
}

// Notify stores a notification and publishes it under its kind as routing key.
func (s *NotificationService) Notify(ctx context.Context, userID, kind, planID, message string) (*models.Notification, error) {
	n := &models.Notification{UserID: userID, Kind: kind, PlanID: planID, Message: message}

	stored, err := s.repomanager.Notifications(s.db).Create(ctx, n)
	if err != nil {
		return nil, err
	}

	event := planEvent{Kind: kind, UserID: userID, PlanID: planID, Message: message}
	if err := s.publisher.Publish(ctx, kind, event); err != nil {
		s.logger.Warn(ctx, "event publish failed", "kind", kind, "error", err)
	}
	return stored, nil
}

// ListForUser returns a user's notifications, newest first.
func (s *NotificationService) ListForUser(ctx context.Context, userID string, unreadOnly bool) ([]*models.Notification, error) {
	return s.repomanager.Notifications(s.db).ListForUser(ctx, userID, unreadOnly)
}

// MarkRead flags one of the user's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, id, userID string) error {
	return s.repomanager.Notifications(s.db).MarkRead(ctx, id, userID)
}

// MarkAllRead flags all of the user's notifications as read.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) error {
	return s.repomanager.Notifications(s.db).MarkAllRead(ctx, userID)
}
