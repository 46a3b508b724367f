package repomanager

import (
	"context"
	"database/sql"

	"github.com/planhub/planhub/internal/dbx"
	"github.com/planhub/planhub/internal/server/repositories/lockouts"
	"github.com/planhub/planhub/internal/server/repositories/notifications"
	"github.com/planhub/planhub/internal/server/repositories/plans"
	"github.com/planhub/planhub/internal/server/repositories/refreshtokens"
	"github.com/planhub/planhub/internal/server/repositories/resets"
	"github.com/planhub/planhub/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Lockouts(db dbx.DBTX) lockouts.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Plans(db dbx.DBTX) plans.Repository
	Notifications(db dbx.DBTX) notifications.Repository
	Resets(db dbx.DBTX) resets.Repository
}
