package store

import "time"

// Secret is the durable record of a one-time secret.
// A row is created exactly once, transitions at most once to a terminal
// state (accessed or deleted) and is never physically removed; the audit
// trail references it by ID.
type Secret struct {
	ID             int64
	Key            string // opaque retrieval key (UUID)
	Ciphertext     []byte
	PassphraseHash string // empty when the secret has no passphrase
	CreatedAt      time.Time
	ExpiresAt      *time.Time // nil = never expires
	Accessed       bool
	AccessedAt     *time.Time
	Deleted        bool
	DeletedAt      *time.Time
	Shredded       bool // ciphertext destroyed by the janitor
}

// CreateParams carries the fields for a new secret row.
type CreateParams struct {
	Ciphertext     []byte
	PassphraseHash string
	ExpiresAt      *time.Time
}

// Expired reports whether the secret's absolute expiry is in the past.
func (s *Secret) Expired(now time.Time) bool {
	return s.ExpiresAt != nil && s.ExpiresAt.Before(now)
}

// AuditEntry is one immutable record of a lifecycle transition attempt.
type AuditEntry struct {
	ID        int64
	SecretID  int64
	Action    string // create | read | delete
	Origin    string // originating address
	Metadata  map[string]any
	CreatedAt time.Time
}
