// Package cache holds the fast-path plaintext mirror of recently created
// secrets. It is a best-effort accelerator: content loss is never a
// correctness bug, and absence of an entry says nothing about whether the
// secret exists in the durable store.
package cache

import (
	"context"
	"time"
)

// Entry mirrors a secret's plaintext for the fast read path.
type Entry struct {
	Secret     string     `json:"secret"`
	Passphrase string     `json:"passphrase,omitempty"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
}

// Cache is the fast-path mirror contract.
// All implementations must be safe for concurrent use, and TakeIfPresent
// must be atomic: two concurrent takes of the same key never both succeed.
type Cache interface {
	// Put mirrors a fresh secret for at most ttl. The ttl is the fixed
	// mirror lifetime, independent of the secret's own expiry.
	Put(ctx context.Context, key string, entry Entry, ttl time.Duration) error

	// TakeIfPresent returns and evicts the entry in one atomic operation.
	// Absence is not an error: it returns (nil, nil).
	TakeIfPresent(ctx context.Context, key string) (*Entry, error)

	// Evict removes the entry unconditionally. Evicting an absent key is a no-op.
	Evict(ctx context.Context, key string) error
}
