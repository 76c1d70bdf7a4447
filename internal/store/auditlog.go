package store

import (
	"context"
	"time"

	"github.com/sealbox/sealbox/pkg/schema"
)

// AuditAppender is the narrow contract the audit log needs from a store.
type AuditAppender interface {
	AppendAudit(ctx context.Context, entry *AuditEntry) error
	ListAudit(ctx context.Context, secretID int64) ([]*AuditEntry, error)
}

// AuditLog provides append-only audit operations on top of a Store.
// Entries are immutable once written; there is no update or delete path.
type AuditLog struct {
	store AuditAppender
}

// NewAuditLog wraps a store to provide audit operations.
func NewAuditLog(s AuditAppender) *AuditLog {
	return &AuditLog{store: s}
}

// Append records one lifecycle transition attempt for a secret.
func (al *AuditLog) Append(ctx context.Context, secretID int64, action, origin string, metadata map[string]any) error {
	if action != schema.ActionCreate && action != schema.ActionRead && action != schema.ActionDelete {
		return schema.NewErrorf(schema.ErrCodeValidation, "unknown audit action %q", action)
	}
	entry := &AuditEntry{
		SecretID:  secretID,
		Action:    action,
		Origin:    origin,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}
	return al.store.AppendAudit(ctx, entry)
}

// History returns all entries for a secret in insertion order.
func (al *AuditLog) History(ctx context.Context, secretID int64) ([]*AuditEntry, error) {
	return al.store.ListAudit(ctx, secretID)
}
