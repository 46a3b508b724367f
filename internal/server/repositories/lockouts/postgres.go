package lockouts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/planhub/planhub/internal/authgate"
	"github.com/planhub/planhub/internal/common"
	"github.com/planhub/planhub/internal/dbx"
)

// PostgresRepository implements lockout storage over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx). locked_until is NULL while the record
// only tracks attempts.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Get(ctx context.Context, username string) (*authgate.Lockout, error) {
	query :=
		`SELECT username, attempts, locked_until FROM lockouts
		 WHERE username = $1
		 `

	lock := &authgate.Lockout{}
	var lockedUntil sql.NullTime
	err := r.db.QueryRowContext(ctx, query, username).Scan(&lock.Username, &lock.Attempts, &lockedUntil)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if lockedUntil.Valid {
		lock.LockedUntil = lockedUntil.Time
	}
	return lock, nil
}

func (r *PostgresRepository) Put(ctx context.Context, lock *authgate.Lockout) error {
	// Piggyback a sweep of long-expired locks on the write path; the gate
	// itself only removes expired records lazily on read.
	cleanup :=
		`DELETE FROM lockouts
		 WHERE locked_until IS NOT NULL AND locked_until < NOW() - INTERVAL '1 hour'
		 `
	if _, err := r.db.ExecContext(ctx, cleanup); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	query :=
		`INSERT INTO lockouts (username, attempts, locked_until, updated_at)
		 VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (username)
		 DO UPDATE SET attempts = EXCLUDED.attempts, locked_until = EXCLUDED.locked_until, updated_at = NOW()
		 `

	var lockedUntil any
	if !lock.LockedUntil.IsZero() {
		lockedUntil = lock.LockedUntil.UTC()
	}

	if _, err := r.db.ExecContext(ctx, query, lock.Username, lock.Attempts, lockedUntil); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, username string) error {
	query :=
		`DELETE FROM lockouts
		 WHERE username = $1
		 `
	if _, err := r.db.ExecContext(ctx, query, username); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

var _ authgate.LockStore = (*PostgresRepository)(nil)
