// Package lifecycle coordinates the store, cache, crypto and audit log to
// implement the secret state machine: Active -> Accessed or Active -> Deleted,
// both terminal. The durable store is authoritative; the cache and audit
// log are best-effort enrichments around it.
package lifecycle

import (
	"context"
	"log/slog"
	"time"

	"github.com/sealbox/sealbox/internal/cache"
	"github.com/sealbox/sealbox/internal/crypto"
	"github.com/sealbox/sealbox/internal/store"
	"github.com/sealbox/sealbox/pkg/schema"
)

// DefaultCacheTTL bounds how long the fast-path mirror of a new secret
// stays available. Matches the original service's five-minute mirror.
const DefaultCacheTTL = 5 * time.Minute

// Deps holds the collaborators of the orchestrator.
type Deps struct {
	Store  store.Store
	Cache  cache.Cache
	Cipher *crypto.Cipher
	Audit  *store.AuditLog
	Logger *slog.Logger

	// CacheTTL overrides DefaultCacheTTL when > 0.
	CacheTTL time.Duration
	// BcryptCost overrides the bcrypt default when > 0.
	BcryptCost int
}

// Service orchestrates create, read and delete with correct ordering and
// failure semantics. Safe for concurrent use: per-secret atomicity lives in
// the store's conditional updates and the cache's atomic take.
type Service struct {
	store      store.Store
	cache      cache.Cache
	cipher     *crypto.Cipher
	audit      *store.AuditLog
	logger     *slog.Logger
	cacheTTL   time.Duration
	bcryptCost int
	now        func() time.Time
}

// NewService creates a Service from its dependencies.
func NewService(deps Deps) *Service {
	ttl := deps.CacheTTL
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:      deps.Store,
		cache:      deps.Cache,
		cipher:     deps.Cipher,
		audit:      deps.Audit,
		logger:     logger,
		cacheTTL:   ttl,
		bcryptCost: deps.BcryptCost,
		now:        time.Now,
	}
}

// CreateInput carries the fields of a secret submission.
type CreateInput struct {
	Secret     string
	Passphrase string // optional
	TTLSeconds int64  // optional relative expiry; 0 = never expires
	Origin     string // originating address, recorded in the audit trail
}

// Create encrypts and persists a new secret, mirrors it for the fast read
// path and records the creation. Returns the opaque retrieval key.
func (s *Service) Create(ctx context.Context, in CreateInput) (string, error) {
	ciphertext, err := s.cipher.Seal([]byte(in.Secret))
	if err != nil {
		return "", err
	}

	var passphraseHash string
	if in.Passphrase != "" {
		passphraseHash, err = crypto.HashPassphrase(in.Passphrase, s.bcryptCost)
		if err != nil {
			return "", schema.NewError(schema.ErrCodeCrypto, "hash passphrase").WithCause(err)
		}
	}

	var expiresAt *time.Time
	if in.TTLSeconds > 0 {
		t := s.now().UTC().Add(time.Duration(in.TTLSeconds) * time.Second)
		expiresAt = &t
	}

	sec, err := s.store.CreateSecret(ctx, store.CreateParams{
		Ciphertext:     ciphertext,
		PassphraseHash: passphraseHash,
		ExpiresAt:      expiresAt,
	})
	if err != nil {
		return "", err
	}

	// The mirror TTL is fixed and independent of the secret's own expiry.
	entry := cache.Entry{Secret: in.Secret, Passphrase: in.Passphrase, ExpiresAt: expiresAt}
	if err := s.cache.Put(ctx, sec.Key, entry, s.cacheTTL); err != nil {
		s.logger.WarnContext(ctx, "mirror put failed, reads will use the store path",
			"secret_id", sec.ID, "error", err)
	}

	s.auditBestEffort(ctx, sec.ID, schema.ActionCreate, in.Origin, map[string]any{
		"ttl_seconds":    in.TTLSeconds,
		"has_passphrase": in.Passphrase != "",
	})

	return sec.Key, nil
}

// Read consumes a secret at most once and returns its plaintext.
// Both the cache hit and the store path pass through MarkAccessed, so the
// durable row is burned exactly once no matter which path served the read.
func (s *Service) Read(ctx context.Context, key, origin string) (string, error) {
	entry, err := s.cache.TakeIfPresent(ctx, key)
	if err != nil {
		// Cache unavailability degrades to the store path.
		s.logger.WarnContext(ctx, "mirror take failed, falling back to store", "error", err)
		entry = nil
	}
	if entry != nil {
		id, err := s.store.MarkAccessed(ctx, key)
		if err != nil {
			// NOT_FOUND here means a store-path reader won the race.
			return "", err
		}
		s.auditBestEffort(ctx, id, schema.ActionRead, origin, map[string]any{"path": "cache"})
		return entry.Secret, nil
	}

	sec, err := s.store.FetchActive(ctx, key)
	if err != nil {
		return "", err
	}
	// Lazy expiration: expired secrets are indistinguishable from absent ones.
	if sec.Expired(s.now().UTC()) {
		return "", schema.NewError(schema.ErrCodeNotFound, "secret not found")
	}

	// Decrypt before burning the row: a corrupt payload must not consume
	// the secret.
	plaintext, err := s.cipher.Open(sec.Ciphertext)
	if err != nil {
		return "", err
	}

	id, err := s.store.MarkAccessed(ctx, key)
	if err != nil {
		return "", err
	}
	s.auditBestEffort(ctx, id, schema.ActionRead, origin, map[string]any{"path": "store"})
	return string(plaintext), nil
}

// Delete marks a secret deleted after an optional passphrase check.
// Failed passphrase attempts are audit-logged before the request is refused.
func (s *Service) Delete(ctx context.Context, key, passphrase, origin string) error {
	if err := s.cache.Evict(ctx, key); err != nil {
		s.logger.WarnContext(ctx, "mirror evict failed", "error", err)
	}

	sec, err := s.store.FetchActiveNonDeleted(ctx, key)
	if err != nil {
		return err
	}

	if sec.PassphraseHash != "" && !crypto.VerifyPassphrase(passphrase, sec.PassphraseHash) {
		s.auditBestEffort(ctx, sec.ID, schema.ActionDelete, origin, map[string]any{
			"failed": true,
			"reason": "passphrase_mismatch",
		})
		return schema.NewError(schema.ErrCodeForbidden, "invalid passphrase")
	}

	id, err := s.store.MarkDeleted(ctx, key)
	if err != nil {
		return err
	}
	s.auditBestEffort(ctx, id, schema.ActionDelete, origin, map[string]any{
		"used_passphrase": passphrase != "",
	})
	return nil
}

// auditBestEffort appends an audit entry without ever failing the primary
// transition it accompanies. Failures are surfaced to operators via the log.
func (s *Service) auditBestEffort(ctx context.Context, secretID int64, action, origin string, metadata map[string]any) {
	if err := s.audit.Append(ctx, secretID, action, origin, metadata); err != nil {
		s.logger.ErrorContext(ctx, "audit append failed",
			"secret_id", secretID, "action", action, "error", err)
	}
}
