// Package authgate implements the credential gate: it decides whether a
// (username, password) pair may establish a session and enforces a
// per-username lockout after repeated failures.
//
// The gate is storage- and identity-agnostic. The CLI wires it to the fixed
// demo allow-list and a local key-value store; the server wires it to the
// users table (bcrypt) and a Postgres lock store. Both variants share the
// exact same flow and lockout state machine:
//
//	Unlocked(attempts 0..2) → Locked(deadline) → Unlocked(0), repeating.
//
// Expired locks are removed lazily, on the next read; there is no sweeper.
package authgate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/planhub/planhub/internal/common"
)

const (
	// DefaultMaxAttempts is the number of consecutive failures that imposes
	// a lock.
	DefaultMaxAttempts = 3

	// DefaultLockDuration is how long an imposed lock lasts.
	DefaultLockDuration = 6 * time.Minute
)

// Lockout is the per-username failure record. A zero LockedUntil means
// "not currently locked, just tracking attempts". Attempts counts failures
// only up to the point of lock; it is reset to 0 the moment a lock is
// imposed.
type Lockout struct {
	Username    string
	Attempts    int
	LockedUntil time.Time
}

// Locked reports whether the record holds an unexpired lock at instant now.
func (l *Lockout) Locked(now time.Time) bool {
	return !l.LockedUntil.IsZero() && l.LockedUntil.After(now)
}

// IdentityStore answers whether an identity exists and whether a secret is
// correct for it. Usernames passed in are already normalized.
type IdentityStore interface {
	Exists(ctx context.Context, username string) (bool, error)
	VerifySecret(ctx context.Context, username, secret string) (bool, error)
}

// LockStore persists Lockout records keyed by normalized username.
// Get returns common.ErrorNotFound when no record exists.
type LockStore interface {
	Get(ctx context.Context, username string) (*Lockout, error)
	Put(ctx context.Context, lock *Lockout) error
	Delete(ctx context.Context, username string) error
}

// SessionStore persists the local session: the raw username and an opaque
// token. Presence of the token is the sole authentication check.
type SessionStore interface {
	Save(ctx context.Context, username, token string) error
	Username(ctx context.Context) (string, error)
	Token(ctx context.Context) (string, error)
	Clear(ctx context.Context) error
}

// Result is the outcome of a Login call. On failure OK is false and Message
// carries the user-facing (Spanish) explanation; callers branch only on OK.
type Result struct {
	OK               bool   `json:"ok"`
	Username         string `json:"username,omitempty"`
	Token            string `json:"token,omitempty"`
	Message          string `json:"message,omitempty"`
	RemainingSeconds int    `json:"remaining_seconds,omitempty"`
}

// Gate enforces the login flow. sessions may be nil; then Login performs the
// credential and lockout checks but leaves session handling to the caller
// (the server mints JWT pairs instead of demo tokens).
type Gate struct {
	identity    IdentityStore
	locks       LockStore
	sessions    SessionStore
	maxAttempts int
	lockFor     time.Duration

	now func() time.Time
}

// New constructs a Gate with the default threshold (3 attempts) and lock
// duration (6 minutes).
func New(identity IdentityStore, locks LockStore, sessions SessionStore) *Gate {
	return NewWithLimits(identity, locks, sessions, DefaultMaxAttempts, DefaultLockDuration)
}

// NewWithLimits constructs a Gate with explicit lockout parameters.
func NewWithLimits(identity IdentityStore, locks LockStore, sessions SessionStore, maxAttempts int, lockFor time.Duration) *Gate {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if lockFor <= 0 {
		lockFor = DefaultLockDuration
	}
	return &Gate{
		identity:    identity,
		locks:       locks,
		sessions:    sessions,
		maxAttempts: maxAttempts,
		lockFor:     lockFor,
		now:         time.Now,
	}
}

// Normalize lower-cases and trims a username or email for use as a lock and
// identity key.
func Normalize(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// CheckExists is a case-insensitive membership test against the identity
// store.
func (g *Gate) CheckExists(ctx context.Context, username string) (bool, error) {
	return g.identity.Exists(ctx, Normalize(username))
}

// GetLockInfo reads the lock record for the normalized username. An expired
// lock is deleted and reported as absent. Returns (nil, nil) when no record
// exists.
func (g *Gate) GetLockInfo(ctx context.Context, username string) (*Lockout, error) {
	key := Normalize(username)
	lock, err := g.locks.Get(ctx, key)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if !lock.LockedUntil.IsZero() && !lock.LockedUntil.After(g.now()) {
		if err := g.locks.Delete(ctx, key); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return lock, nil
}

// RemainingLockSeconds returns the whole seconds left on an active lock,
// rounded up, or 0 when the username is not locked.
func (g *Gate) RemainingLockSeconds(ctx context.Context, username string) (int, error) {
	lock, err := g.GetLockInfo(ctx, username)
	if err != nil {
		return 0, err
	}
	if lock == nil || lock.LockedUntil.IsZero() {
		return 0, nil
	}
	remaining := lock.LockedUntil.Sub(g.now())
	if remaining <= 0 {
		return 0, nil
	}
	secs := int((remaining + time.Second - 1) / time.Second)
	return secs, nil
}

// RecordFailedAttempt increments the failure counter for the username and
// imposes a lock once the counter reaches the threshold. On lock the counter
// restarts at zero, so a fresh cycle begins when the lock expires.
func (g *Gate) RecordFailedAttempt(ctx context.Context, username string) error {
	key := Normalize(username)

	attempts := 0
	if lock, err := g.GetLockInfo(ctx, key); err != nil {
		return err
	} else if lock != nil {
		attempts = lock.Attempts
	}
	attempts++

	rec := &Lockout{Username: key, Attempts: attempts}
	if attempts >= g.maxAttempts {
		rec.Attempts = 0
		rec.LockedUntil = g.now().Add(g.lockFor)
	}
	return g.locks.Put(ctx, rec)
}

// ResetFailedAttempts deletes the lock record entirely. Called on successful
// login.
func (g *Gate) ResetFailedAttempts(ctx context.Context, username string) error {
	return g.locks.Delete(ctx, Normalize(username))
}

// Login runs the full gate flow:
//
//  1. An active lock fails immediately with the countdown message; the
//     password is not checked and the attempt is not counted.
//  2. Unknown usernames fail without touching the counter.
//  3. A wrong password records a failed attempt (possibly imposing a lock)
//     before failing.
//  4. Success resets the counter and, when a session store is configured,
//     persists the raw username and a fresh demo token.
//
// Auth failures are reported in the Result, not as an error; a non-nil error
// means storage failed.
func (g *Gate) Login(ctx context.Context, username, password string) (*Result, error) {
	key := Normalize(username)

	remaining, err := g.RemainingLockSeconds(ctx, key)
	if err != nil {
		return nil, err
	}
	if remaining > 0 {
		return &Result{
			Message:          lockedMessage(remaining),
			RemainingSeconds: remaining,
		}, nil
	}

	exists, err := g.identity.Exists(ctx, key)
	if err != nil {
		return nil, err
	}
	if !exists {
		return &Result{Message: MsgUserNotFound}, nil
	}

	ok, err := g.identity.VerifySecret(ctx, key, password)
	if err != nil {
		return nil, err
	}
	if !ok {
		if err := g.RecordFailedAttempt(ctx, key); err != nil {
			return nil, err
		}
		// The failure that reaches the threshold already answers with the
		// countdown, not the generic wrong-password message.
		remaining, err := g.RemainingLockSeconds(ctx, key)
		if err != nil {
			return nil, err
		}
		if remaining > 0 {
			return &Result{
				Message:          lockedMessage(remaining),
				RemainingSeconds: remaining,
			}, nil
		}
		return &Result{Message: MsgWrongPassword}, nil
	}

	if err := g.ResetFailedAttempts(ctx, key); err != nil {
		return nil, err
	}

	res := &Result{OK: true, Username: key}
	if g.sessions != nil {
		res.Token = fmt.Sprintf("demo-token-%d", g.now().UnixMilli())
		if err := g.sessions.Save(ctx, strings.TrimSpace(username), res.Token); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// Logout clears the persisted session. It is a no-op without a session store.
func (g *Gate) Logout(ctx context.Context) error {
	if g.sessions == nil {
		return nil
	}
	return g.sessions.Clear(ctx)
}

// IsAuthenticated reports whether a session token is present.
func (g *Gate) IsAuthenticated(ctx context.Context) (bool, error) {
	if g.sessions == nil {
		return false, nil
	}
	token, err := g.sessions.Token(ctx)
	if err != nil {
		return false, err
	}
	return token != "", nil
}

// CurrentUser returns the username persisted with the session, or "" when
// logged out.
func (g *Gate) CurrentUser(ctx context.Context) (string, error) {
	if g.sessions == nil {
		return "", nil
	}
	return g.sessions.Username(ctx)
}
