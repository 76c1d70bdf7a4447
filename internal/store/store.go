package store

import (
	"context"
	"time"
)

// Store defines the durable persistence contract for secrets.
// All implementations must be safe for concurrent use.
type Store interface {
	// Secrets
	CreateSecret(ctx context.Context, params CreateParams) (*Secret, error)
	FetchActive(ctx context.Context, key string) (*Secret, error)
	FetchActiveNonDeleted(ctx context.Context, key string) (*Secret, error)
	// MarkAccessed atomically burns an active row and returns its ID.
	// Zero matched rows (already consumed, deleted or never existed)
	// reports NOT_FOUND, which makes it the at-most-once read gate.
	MarkAccessed(ctx context.Context, key string) (int64, error)
	MarkDeleted(ctx context.Context, key string) (int64, error)

	// Audit (append-only)
	AppendAudit(ctx context.Context, entry *AuditEntry) error
	ListAudit(ctx context.Context, secretID int64) ([]*AuditEntry, error)

	// Hygiene: destroy payload bytes of terminal or expired rows older
	// than cutoff, keeping the rows themselves. Returns rows shredded.
	ShredTerminal(ctx context.Context, cutoff time.Time) (int64, error)

	// Maintenance
	Migrate(ctx context.Context) error
	Vacuum(ctx context.Context) error

	// Lifecycle
	Close() error
}
