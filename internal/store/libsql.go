package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/tursodatabase/go-libsql"

	"github.com/sealbox/sealbox/pkg/schema"
)

// LibSQLStore implements the Store interface using libSQL (embedded SQLite fork).
type LibSQLStore struct {
	db *sql.DB
}

// NewLibSQLStore opens a libSQL database at the given path and returns a Store.
// The path should be a file URI, e.g. "file:/path/to/db.db".
func NewLibSQLStore(dbPath string) (*LibSQLStore, error) {
	db, err := sql.Open("libsql", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open libsql: %w", err)
	}
	db.SetMaxOpenConns(1)

	// Apply connection-level PRAGMAs. Some PRAGMAs return rows so we use QueryRow.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA cache_size=-20000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA temp_store=MEMORY",
	}
	for _, p := range pragmas {
		var result string
		_ = db.QueryRow(p).Scan(&result)
	}

	return &LibSQLStore{db: db}, nil
}

// DB returns the underlying *sql.DB for advanced usage (e.g. audit log).
func (s *LibSQLStore) DB() *sql.DB { return s.db }

// Close closes the database.
func (s *LibSQLStore) Close() error { return s.db.Close() }

// Migrate runs all pending database migrations.
func (s *LibSQLStore) Migrate(ctx context.Context) error {
	return runMigrations(ctx, s.db)
}

// Vacuum runs VACUUM on the database.
func (s *LibSQLStore) Vacuum(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "VACUUM")
	return err
}

// --- Secrets ---

const secretColumns = `id, secret_key, ciphertext, passphrase_hash, created_at, expires_at, accessed, accessed_at, deleted, deleted_at, shredded`

func (s *LibSQLStore) CreateSecret(ctx context.Context, params CreateParams) (*Secret, error) {
	key := uuid.NewString()
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO secrets (secret_key, ciphertext, passphrase_hash, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?)`,
		key, params.Ciphertext, nullStr(params.PassphraseHash), now, nullTime(params.ExpiresAt),
	)
	if err != nil {
		return nil, storeErr("insert secret", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, storeErr("secret row id", err)
	}
	return &Secret{
		ID:             id,
		Key:            key,
		Ciphertext:     params.Ciphertext,
		PassphraseHash: params.PassphraseHash,
		CreatedAt:      now,
		ExpiresAt:      params.ExpiresAt,
	}, nil
}

func (s *LibSQLStore) FetchActive(ctx context.Context, key string) (*Secret, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+secretColumns+` FROM secrets WHERE secret_key = ? AND accessed = 0 AND deleted = 0`, key)
	return scanSecret(row)
}

func (s *LibSQLStore) FetchActiveNonDeleted(ctx context.Context, key string) (*Secret, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+secretColumns+` FROM secrets WHERE secret_key = ? AND deleted = 0`, key)
	return scanSecret(row)
}

// MarkAccessed is the at-most-once gate: the conditional UPDATE matches
// only a still-active row, so of N concurrent readers exactly one sees an
// affected row and the rest get NOT_FOUND.
func (s *LibSQLStore) MarkAccessed(ctx context.Context, key string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE secrets SET accessed = 1, accessed_at = CURRENT_TIMESTAMP
		 WHERE secret_key = ? AND accessed = 0 AND deleted = 0`, key)
	if err != nil {
		return 0, storeErr("mark accessed", err)
	}
	return s.rowIDIfAffected(ctx, res, key)
}

func (s *LibSQLStore) MarkDeleted(ctx context.Context, key string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE secrets SET deleted = 1, deleted_at = CURRENT_TIMESTAMP
		 WHERE secret_key = ? AND deleted = 0`, key)
	if err != nil {
		return 0, storeErr("mark deleted", err)
	}
	return s.rowIDIfAffected(ctx, res, key)
}

// rowIDIfAffected reports NOT_FOUND for a zero-row conditional update,
// otherwise resolves the row's ID. The flag flip itself is the atomic
// operation; the ID lookup after it is a plain read of an existing row.
func (s *LibSQLStore) rowIDIfAffected(ctx context.Context, res sql.Result, key string) (int64, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, storeErr("rows affected", err)
	}
	if n == 0 {
		return 0, secretNotFound()
	}
	var id int64
	if err := s.db.QueryRowContext(ctx,
		`SELECT id FROM secrets WHERE secret_key = ?`, key).Scan(&id); err != nil {
		return 0, storeErr("resolve secret id", err)
	}
	return id, nil
}

func scanSecret(row *sql.Row) (*Secret, error) {
	sec := &Secret{}
	var (
		passHash              sql.NullString
		expiresAt             sql.NullTime
		accessedAt, deletedAt sql.NullTime
		accessed, deleted     int
		shredded              int
	)
	err := row.Scan(&sec.ID, &sec.Key, &sec.Ciphertext, &passHash, &sec.CreatedAt,
		&expiresAt, &accessed, &accessedAt, &deleted, &deletedAt, &shredded)
	if err == sql.ErrNoRows {
		return nil, secretNotFound()
	}
	if err != nil {
		return nil, storeErr("scan secret", err)
	}
	sec.PassphraseHash = passHash.String
	sec.Accessed = accessed != 0
	sec.Deleted = deleted != 0
	sec.Shredded = shredded != 0
	if expiresAt.Valid {
		sec.ExpiresAt = &expiresAt.Time
	}
	if accessedAt.Valid {
		sec.AccessedAt = &accessedAt.Time
	}
	if deletedAt.Valid {
		sec.DeletedAt = &deletedAt.Time
	}
	return sec, nil
}

// --- Audit ---

func (s *LibSQLStore) AppendAudit(ctx context.Context, entry *AuditEntry) error {
	metadata, err := nullableJSON(entry.Metadata)
	if err != nil {
		return fmt.Errorf("marshal audit metadata: %w", err)
	}
	ts := timeOrNow(entry.CreatedAt)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO secret_audit (secret_id, action, origin, metadata, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		entry.SecretID, entry.Action, entry.Origin, metadata, ts,
	)
	if err != nil {
		return storeErr("insert audit entry", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return storeErr("audit row id", err)
	}
	entry.ID = id
	entry.CreatedAt = ts
	return nil
}

func (s *LibSQLStore) ListAudit(ctx context.Context, secretID int64) ([]*AuditEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, secret_id, action, origin, metadata, created_at
		 FROM secret_audit WHERE secret_id = ? ORDER BY id ASC`, secretID)
	if err != nil {
		return nil, storeErr("list audit", err)
	}
	defer rows.Close()

	var entries []*AuditEntry
	for rows.Next() {
		e := &AuditEntry{}
		var metadata sql.NullString
		if err := rows.Scan(&e.ID, &e.SecretID, &e.Action, &e.Origin, &metadata, &e.CreatedAt); err != nil {
			return nil, storeErr("scan audit entry", err)
		}
		if metadata.Valid && metadata.String != "" {
			if err := json.Unmarshal([]byte(metadata.String), &e.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal audit metadata: %w", err)
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// --- Hygiene ---

// ShredTerminal destroys the payload of rows that reached a terminal state
// or expired before cutoff. Rows stay in place so the audit trail keeps a
// valid parent; only the ciphertext bytes are replaced.
func (s *LibSQLStore) ShredTerminal(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE secrets SET ciphertext = zeroblob(0), shredded = 1
		 WHERE shredded = 0 AND (
		   (accessed = 1 AND accessed_at <= ?) OR
		   (deleted = 1 AND deleted_at <= ?) OR
		   (expires_at IS NOT NULL AND expires_at <= ?)
		 )`, cutoff, cutoff, cutoff,
	)
	if err != nil {
		return 0, storeErr("shred terminal secrets", err)
	}
	return res.RowsAffected()
}

// --- Helpers ---

// secretNotFound deliberately carries no detail: absent, consumed, deleted
// and expired secrets must stay indistinguishable to callers.
func secretNotFound() *schema.SealboxError {
	return schema.NewError(schema.ErrCodeNotFound, "secret not found")
}

func storeErr(op string, err error) *schema.SealboxError {
	return schema.NewErrorf(schema.ErrCodeStore, "%s: %s", op, err.Error()).WithCause(err)
}

func timeOrNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableJSON(m map[string]any) (any, error) {
	if len(m) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}
