// Package kv provides the small key-value store backing client-local state:
// session keys and lockout records. The SQLite implementation is the desktop
// analog of the original dashboard's browser-local storage.
package kv

import "context"

// Store is a flat key-value store. Get returns (nil, nil) for absent keys.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	List(ctx context.Context) (map[string][]byte, error)
}
