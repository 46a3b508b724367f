package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/planhub/planhub/internal/authgate"
	"github.com/planhub/planhub/internal/client/api"
	"github.com/planhub/planhub/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Login prompts for credentials. In demo mode the gate runs fully local:
// allow-list membership, the literal demo password, and the three-strikes
// lockout with its MM:SS countdown. Otherwise the credentials go to the
// server, which answers with a JWT pair stored under the same session keys.
func (a *App) Login(ctx context.Context, demo bool) error {
	username, err := getSimpleText(a.reader, "Usuario o correo", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if demo {
		return a.demoLogin(ctx, username, string(password))
	}
	return a.serverLogin(ctx, username, string(password))
}

func (a *App) demoLogin(ctx context.Context, username, password string) error {
	result, err := a.gate.Login(ctx, username, password)
	if err != nil {
		return err
	}

	if !result.OK {
		fmt.Fprintln(a.out, result.Message)
		if result.RemainingSeconds > 0 {
			return a.watchLocalCountdown(ctx, username)
		}
		return nil
	}

	identity := authgate.NewFixedListIdentity()
	if name, ok := identity.DisplayName(result.Username); ok {
		fmt.Fprintf(a.out, "Bienvenido, %s\n", name)
	} else {
		fmt.Fprintf(a.out, "Bienvenido, %s\n", result.Username)
	}
	return nil
}

func (a *App) serverLogin(ctx context.Context, username, password string) error {
	result, err := a.api.Login(ctx, username, password)
	if err != nil {
		if errors.Is(err, api.ErrUnavailable) {
			fmt.Fprintln(a.out, "Servidor no disponible; pruebe 'login --demo'")
			return nil
		}
		return err
	}

	if !result.OK {
		fmt.Fprintln(a.out, result.Message)
		return nil
	}

	if err := a.sessions.Save(ctx, result.Username, result.AccessToken); err != nil {
		return err
	}
	if err := a.store.Set(ctx, sessionRefreshKey, []byte(result.RefreshToken)); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Bienvenido, %s\n", result.Username)
	return nil
}

// Logout revokes the server-side refresh token when one is stored and clears
// the local session either way.
func (a *App) Logout(ctx context.Context) error {
	refresh, err := a.store.Get(ctx, sessionRefreshKey)
	if err != nil {
		return err
	}
	if len(refresh) > 0 {
		if err := a.api.Logout(ctx, string(refresh)); err != nil && !errors.Is(err, api.ErrUnavailable) {
			return err
		}
		if err := a.store.Delete(ctx, sessionRefreshKey); err != nil {
			return err
		}
	}

	if err := a.gate.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Sesión cerrada")
	return nil
}

// Status reports whether a session is present and for whom.
func (a *App) Status(ctx context.Context) error {
	ok, err := a.gate.IsAuthenticated(ctx)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(a.out, "Sin sesión")
		return nil
	}

	user, err := a.gate.CurrentUser(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Sesión activa: %s\n", user)
	return nil
}
