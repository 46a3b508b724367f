package notifications

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/planhub/planhub/internal/common"
	"github.com/planhub/planhub/internal/dbx"
	"github.com/planhub/planhub/internal/server/models"
)

// PostgresRepository implements notification storage over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, n *models.Notification) (*models.Notification, error) {

	query :=
		`INSERT INTO notifications (user_id, kind, plan_id, message)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at
		 `

	var planID any
	if n.PlanID != "" {
		planID = n.PlanID
	}

	err := r.db.QueryRowContext(ctx, query, n.UserID, n.Kind, planID, n.Message).
		Scan(&n.ID, &n.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return n, nil
}

func (r *PostgresRepository) ListForUser(ctx context.Context, userID string, unreadOnly bool) ([]*models.Notification, error) {
	query :=
		`SELECT id, user_id, kind, plan_id, message, read, created_at FROM notifications
		 WHERE user_id = $1
		 `
	if unreadOnly {
		query += ` AND read = FALSE`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Notification
	for rows.Next() {
		var item models.Notification
		var planID sql.NullString
		if err := rows.Scan(
			&item.ID, &item.UserID, &item.Kind, &planID,
			&item.Message, &item.Read, &item.CreatedAt,
		); err != nil {
			return nil, err
		}
		item.PlanID = planID.String
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) MarkRead(ctx context.Context, id string, userID string) error {
	query :=
		`UPDATE notifications SET read = TRUE
		 WHERE id = $1 AND user_id = $2
		 `
	res, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) MarkAllRead(ctx context.Context, userID string) error {
	query :=
		`UPDATE notifications SET read = TRUE
		 WHERE user_id = $1 AND read = FALSE
		 `
	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
