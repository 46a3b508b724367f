package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/planhub/planhub/internal/authgate"
)

// Lock shows the lockout countdown for a username. With --demo it reads the
// local gate's lock records; otherwise it asks the server. With --watch it
// keeps rendering the MM:SS countdown until the lock expires.
func (a *App) Lock(ctx context.Context, args []string) error {
	username := firstNonFlag(args)
	if username == "" {
		fmt.Fprintln(a.out, "Uso: lock <usuario> [--demo] [--watch]")
		return nil
	}

	demo := hasFlag(args, "--demo")
	watch := hasFlag(args, "--watch")

	if demo {
		if watch {
			return a.watchLocalCountdown(ctx, username)
		}
		secs, err := a.gate.RemainingLockSeconds(ctx, username)
		if err != nil {
			return err
		}
		a.printCountdown(username, secs)
		return nil
	}

	for {
		status, err := a.api.GetLockStatus(ctx, username)
		if err != nil {
			return err
		}
		a.printCountdown(username, status.RemainingSeconds)
		if !watch || !status.Locked {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
		}
	}
}

func (a *App) printCountdown(username string, seconds int) {
	if seconds <= 0 {
		fmt.Fprintf(a.out, "%s no está bloqueado\n", username)
		return
	}
	fmt.Fprintf(a.out, "%s bloqueado: %s\n", username, authgate.FormatCountdown(seconds))
}

// watchLocalCountdown renders the demo gate's countdown once per second until
// the lock expires.
func (a *App) watchLocalCountdown(ctx context.Context, username string) error {
	return a.gate.WatchLockCountdown(ctx, username, time.Second, func(remaining int) {
		if remaining > 0 {
			fmt.Fprintf(a.out, "Cuenta atrás: %s\n", authgate.FormatCountdown(remaining))
		} else {
			fmt.Fprintln(a.out, "Bloqueo expirado, puede intentar de nuevo")
		}
	})
}
