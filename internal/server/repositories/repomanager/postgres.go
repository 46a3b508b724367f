// Package repomanager provides a concrete RepositoryManager for PostgreSQL,
// wiring together repository constructors and database migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/planhub/planhub/internal/dbx"
	"github.com/planhub/planhub/internal/server/migrations"
	"github.com/planhub/planhub/internal/server/repositories/lockouts"
	"github.com/planhub/planhub/internal/server/repositories/notifications"
	"github.com/planhub/planhub/internal/server/repositories/plans"
	"github.com/planhub/planhub/internal/server/repositories/refreshtokens"
	"github.com/planhub/planhub/internal/server/repositories/resets"
	"github.com/planhub/planhub/internal/server/repositories/users"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends PostgreSQL-backed repository implementations
// and exposes a schema migration hook.
type PostgresRepositoryManager struct{}

// Users returns a users.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

// Lockouts returns a lockouts.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Lockouts(db dbx.DBTX) lockouts.Repository {
	return lockouts.NewPostgresRepository(db)
}

// RefreshTokens returns a refreshtokens.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) RefreshTokens(db dbx.DBTX) refreshtokens.Repository {
	return refreshtokens.NewPostgresRepository(db)
}

// Plans returns a plans.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Plans(db dbx.DBTX) plans.Repository {
	return plans.NewPostgresRepository(db)
}

// Notifications returns a notifications.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Notifications(db dbx.DBTX) notifications.Repository {
	return notifications.NewPostgresRepository(db)
}

// Resets returns a resets.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Resets(db dbx.DBTX) resets.Repository {
	return resets.NewPostgresRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the provided database connection.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetDialect("pgx")
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return err
	}
	return nil
}

// NewPostgresRepositoryManager constructs a PostgreSQL-backed RepositoryManager.
func NewPostgresRepositoryManager(db *sql.DB) (RepositoryManager, error) {
	return &PostgresRepositoryManager{}, nil
}
