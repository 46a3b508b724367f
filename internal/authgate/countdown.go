package authgate

import (
	"context"
	"time"
)

// WatchLockCountdown polls RemainingLockSeconds once per interval and calls
// fn with the current value, starting immediately. It returns when the
// countdown reaches zero or ctx is cancelled. The UI uses a one-second
// interval to render the MM:SS countdown while a lock is active.
func (g *Gate) WatchLockCountdown(ctx context.Context, username string, interval time.Duration, fn func(remaining int)) error {
	if interval <= 0 {
		interval = time.Second
	}

	remaining, err := g.RemainingLockSeconds(ctx, username)
	if err != nil {
		return err
	}
	fn(remaining)
	if remaining == 0 {
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			remaining, err = g.RemainingLockSeconds(ctx, username)
			if err != nil {
				return err
			}
			fn(remaining)
			if remaining == 0 {
				return nil
			}
		}
	}
}
