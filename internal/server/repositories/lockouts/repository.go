// Package lockouts persists login lockout records server-side so the
// credential gate survives restarts and is shared across instances.
package lockouts

import "github.com/planhub/planhub/internal/authgate"

// Repository is the storage contract for lockout records. It is exactly the
// gate's LockStore so a Postgres repository can be wired into it directly.
type Repository interface {
	authgate.LockStore
}
