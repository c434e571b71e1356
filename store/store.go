// Package store defines the key-value storage boundary of the relay and
// its Redis-backed and in-memory implementations.
//
// All durable state lives behind KVStore. The relay performs no cross-key
// transactions; the only consistency it relies on is per-key atomicity of
// Put and Delete, which both implementations provide.
package store

import "context"

// KVStore is the external key-value store interface. Values are opaque
// JSON blobs; the registry owns their layout. It is injected into the
// registry so tests can swap in the in-memory implementation.
type KVStore interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores value under key, overwriting any previous value.
	Put(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
