package authgate

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/planhub/planhub/internal/common"
	"github.com/planhub/planhub/internal/kv"
)

// Storage keys, matching the original dashboard's browser-local layout.
const (
	LockKeyPrefix   = "auth:lock:"
	SessionUserKey  = "auth:user"
	SessionTokenKey = "auth:token"
)

// lockRecord is the wire form of a Lockout in the kv store.
// lockedUntil is an absolute epoch-millisecond deadline; 0 means "not
// currently locked, just tracking attempts".
type lockRecord struct {
	LockedUntil int64 `json:"lockedUntil"`
	Attempts    int   `json:"attempts"`
}

// KVLockStore keeps lock records under "auth:lock:<normalized-username>" in
// a kv.Store.
type KVLockStore struct {
	store kv.Store
}

func NewKVLockStore(store kv.Store) *KVLockStore {
	return &KVLockStore{store: store}
}

func lockKey(username string) string { return LockKeyPrefix + username }

func (s *KVLockStore) Get(ctx context.Context, username string) (*Lockout, error) {
	raw, err := s.store.Get(ctx, lockKey(username))
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, common.ErrorNotFound
	}

	var rec lockRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("corrupt lock record for %q: %w", username, err)
	}

	lock := &Lockout{Username: username, Attempts: rec.Attempts}
	if rec.LockedUntil != 0 {
		lock.LockedUntil = time.UnixMilli(rec.LockedUntil)
	}
	return lock, nil
}

func (s *KVLockStore) Put(ctx context.Context, lock *Lockout) error {
	rec := lockRecord{Attempts: lock.Attempts}
	if !lock.LockedUntil.IsZero() {
		rec.LockedUntil = lock.LockedUntil.UnixMilli()
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.store.Set(ctx, lockKey(lock.Username), raw)
}

func (s *KVLockStore) Delete(ctx context.Context, username string) error {
	return s.store.Delete(ctx, lockKey(username))
}

// KVSessionStore keeps the raw username under "auth:user" and the opaque
// token under "auth:token".
type KVSessionStore struct {
	store kv.Store
}

func NewKVSessionStore(store kv.Store) *KVSessionStore {
	return &KVSessionStore{store: store}
}

func (s *KVSessionStore) Save(ctx context.Context, username, token string) error {
	if err := s.store.Set(ctx, SessionUserKey, []byte(username)); err != nil {
		return err
	}
	return s.store.Set(ctx, SessionTokenKey, []byte(token))
}

func (s *KVSessionStore) Username(ctx context.Context) (string, error) {
	raw, err := s.store.Get(ctx, SessionUserKey)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func (s *KVSessionStore) Token(ctx context.Context) (string, error) {
	raw, err := s.store.Get(ctx, SessionTokenKey)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func (s *KVSessionStore) Clear(ctx context.Context) error {
	if err := s.store.Delete(ctx, SessionUserKey); err != nil {
		return err
	}
	return s.store.Delete(ctx, SessionTokenKey)
}
