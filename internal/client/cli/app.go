// Package cli implements the PlanHub command-line client. It keeps its local
// state (session keys and demo lockout records) in a per-user SQLite KV file,
// the desktop analog of the original dashboard's browser-local storage.
package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/planhub/planhub/internal/authgate"
	"github.com/planhub/planhub/internal/client/api"
	"github.com/planhub/planhub/internal/client/config"
	"github.com/planhub/planhub/internal/filex"
	"github.com/planhub/planhub/internal/kv"
)

// sessionRefreshKey holds the server-issued refresh token alongside the
// gate's auth:user/auth:token keys.
const sessionRefreshKey = "auth:refresh"

type App struct {
	config   *config.Config
	store    kv.Store
	db       *sql.DB
	gate     *authgate.Gate
	sessions *authgate.KVSessionStore
	api      *api.Client
	reader   *bufio.Reader
	out      io.Writer
}

// NewApp opens the local KV database and wires the demo gate and the API
// client. The demo gate runs against the fixed allow-list with lockout state
// kept locally, exactly like the original dashboard.
func NewApp(c *config.Config) (*App, error) {
	ctx := context.Background()

	dir, err := filex.EnsureUserDataDir(c.DataDirName)
	if err != nil {
		return nil, fmt.Errorf("data dir error: %w", err)
	}

	db, store, err := kv.OpenSQLite(ctx, filepath.Join(dir, "client.db"))
	if err != nil {
		return nil, fmt.Errorf("kv init error: %w", err)
	}

	sessions := authgate.NewKVSessionStore(store)
	gate := authgate.New(authgate.NewFixedListIdentity(), authgate.NewKVLockStore(store), sessions)

	return &App{
		config:   c,
		store:    store,
		db:       db,
		gate:     gate,
		sessions: sessions,
		api:      api.New(c.ServerAddr),
		reader:   bufio.NewReader(os.Stdin),
		out:      os.Stdout,
	}, nil
}

// Run dispatches the subcommand and closes the local database afterwards.
func (a *App) Run(ctx context.Context, args []string) error {
	if a.db != nil {
		defer a.db.Close()
	}

	if len(args) == 0 {
		a.usage()
		return nil
	}

	cmd := args[0]
	rest := args[1:]

	switch cmd {
	case "login":
		return a.Login(ctx, hasFlag(rest, "--demo"))
	case "logout":
		return a.Logout(ctx)
	case "status":
		return a.Status(ctx)
	case "plans":
		return a.Plans(ctx, rest)
	case "lock":
		return a.Lock(ctx, rest)
	case "help":
		a.usage()
		return nil
	default:
		a.usage()
		return fmt.Errorf("unknown command: %s", cmd)
	}
}

func (a *App) usage() {
	fmt.Fprintln(a.out, "PlanHub CLI")
	fmt.Fprintln(a.out, "Commands:")
	fmt.Fprintln(a.out, "  login [--demo]     authenticate (demo mode runs fully local)")
	fmt.Fprintln(a.out, "  logout             clear the stored session")
	fmt.Fprintln(a.out, "  status             show the current session")
	fmt.Fprintln(a.out, "  plans [query]      list plans (e.g. plans status=in_review)")
	fmt.Fprintln(a.out, "  lock <usuario> [--demo] [--watch]")
	fmt.Fprintln(a.out, "                     show the lockout countdown for a username")
}

func hasFlag(args []string, flag string) bool {
	for _, a := range args {
		if a == flag {
			return true
		}
	}
	return false
}

func firstNonFlag(args []string) string {
	for _, a := range args {
		if len(a) > 0 && a[0] != '-' {
			return a
		}
	}
	return ""
}
