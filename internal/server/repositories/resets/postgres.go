package resets

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/planhub/planhub/internal/common"
	"github.com/planhub/planhub/internal/dbx"
	"github.com/planhub/planhub/internal/server/models"
)

// PostgresRepository implements reset token storage over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, userID string, token string, validity time.Duration) error {
	query := `
		INSERT INTO password_resets (user_id, token, expires_at)
		VALUES ($1, $2, $3)
	`
	if _, err := r.db.ExecContext(ctx, query, userID, token, time.Now().Add(validity)); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Find(ctx context.Context, token string) (*models.PasswordReset, error) {
	query := `
		SELECT id, user_id, expires_at, used
		FROM password_resets
		WHERE token = $1 AND used = FALSE
	`
	reset := &models.PasswordReset{Token: token}
	if err := r.db.QueryRowContext(ctx, query, token).
		Scan(&reset.ID, &reset.UserID, &reset.Expires, &reset.Used); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return reset, nil
}

func (r *PostgresRepository) MarkUsed(ctx context.Context, token string) error {
	query := `
		UPDATE password_resets SET used = TRUE
		WHERE token = $1
	`
	res, err := r.db.ExecContext(ctx, query, token)
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
