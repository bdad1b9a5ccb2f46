// Package storage provides the key-value capability the record store persists
// through, and its SQLite implementation.
package storage

import "context"

// KV is a minimal string key-value store. Get reports ok=false when the key
// has never been set.
type KV interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
}
