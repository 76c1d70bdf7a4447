package lifecycle

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sealbox/sealbox/internal/cache"
	"github.com/sealbox/sealbox/internal/crypto"
	"github.com/sealbox/sealbox/internal/store"
	"github.com/sealbox/sealbox/pkg/schema"
)

type fixture struct {
	svc    *Service
	store  *store.LibSQLStore
	mirror *cache.MemoryCache
	audit  *store.AuditLog
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st, err := store.NewLibSQLStore("file:" + filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { _ = st.Close() })

	cipher, err := crypto.NewCipher(crypto.CipherConfig{MasterKey: bytes.Repeat([]byte{0x07}, 32)})
	require.NoError(t, err)

	mirror := cache.NewMemoryCache()
	audit := store.NewAuditLog(st)
	svc := NewService(Deps{
		Store:      st,
		Cache:      mirror,
		Cipher:     cipher,
		Audit:      audit,
		BcryptCost: bcrypt.MinCost,
	})
	return &fixture{svc: svc, store: st, mirror: mirror, audit: audit}
}

func auditActions(t *testing.T, f *fixture, key string) []string {
	t.Helper()
	sec, err := f.store.FetchActiveNonDeleted(context.Background(), key)
	require.NoError(t, err)
	entries, err := f.audit.History(context.Background(), sec.ID)
	require.NoError(t, err)
	actions := make([]string, 0, len(entries))
	for _, e := range entries {
		actions = append(actions, e.Action)
	}
	return actions
}

func TestCreateAndRead_CachePath(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	key, err := f.svc.Create(ctx, CreateInput{Secret: "hello", Origin: "10.0.0.1"})
	require.NoError(t, err)
	require.NotEmpty(t, key)

	got, err := f.svc.Read(ctx, key, "10.0.0.2")
	require.NoError(t, err)
	assert.Equal(t, "hello", got)

	// Even the cache hit burned the durable row.
	_, err = f.store.FetchActive(ctx, key)
	assert.Equal(t, schema.ErrCodeNotFound, schema.CodeOf(err))

	assert.Equal(t, []string{schema.ActionCreate, schema.ActionRead}, auditActions(t, f, key))
}

func TestRead_StorePathDecrypts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	key, err := f.svc.Create(ctx, CreateInput{Secret: "durable copy"})
	require.NoError(t, err)

	// Drop the mirror to force the store path.
	require.NoError(t, f.mirror.Evict(ctx, key))

	got, err := f.svc.Read(ctx, key, "10.0.0.2")
	require.NoError(t, err)
	assert.Equal(t, "durable copy", got)
}

func TestRead_AtMostOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	key, err := f.svc.Create(ctx, CreateInput{Secret: "hello"})
	require.NoError(t, err)

	_, err = f.svc.Read(ctx, key, "")
	require.NoError(t, err)

	_, err = f.svc.Read(ctx, key, "")
	assert.Equal(t, schema.ErrCodeNotFound, schema.CodeOf(err))
}

func TestRead_AfterDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	key, err := f.svc.Create(ctx, CreateInput{Secret: "doomed"})
	require.NoError(t, err)
	require.NoError(t, f.svc.Delete(ctx, key, "", ""))

	_, err = f.svc.Read(ctx, key, "")
	assert.Equal(t, schema.ErrCodeNotFound, schema.CodeOf(err))
}

func TestRead_Expired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	key, err := f.svc.Create(ctx, CreateInput{Secret: "short lived", TTLSeconds: 60})
	require.NoError(t, err)
	require.NoError(t, f.mirror.Evict(ctx, key))

	f.svc.now = func() time.Time { return time.Now().Add(2 * time.Minute) }

	_, err = f.svc.Read(ctx, key, "")
	// Expired secrets are indistinguishable from absent ones.
	assert.Equal(t, schema.ErrCodeNotFound, schema.CodeOf(err))
}

func TestRead_CacheHitSkipsExpiryRecheck(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	key, err := f.svc.Create(ctx, CreateInput{Secret: "fresh by definition", TTLSeconds: 60})
	require.NoError(t, err)

	// A mirror hit is served without re-checking the secret's own expiry:
	// the mirror TTL bounds its staleness.
	f.svc.now = func() time.Time { return time.Now().Add(2 * time.Minute) }

	got, err := f.svc.Read(ctx, key, "")
	require.NoError(t, err)
	assert.Equal(t, "fresh by definition", got)
}

func TestRead_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Read(context.Background(), "no-such-key", "")
	assert.Equal(t, schema.ErrCodeNotFound, schema.CodeOf(err))
}

func TestDelete_PassphraseFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	key, err := f.svc.Create(ctx, CreateInput{Secret: "guarded", Passphrase: "p1"})
	require.NoError(t, err)

	err = f.svc.Delete(ctx, key, "wrong", "10.0.0.9")
	assert.Equal(t, schema.ErrCodeForbidden, schema.CodeOf(err))

	// The failed attempt is still on the audit trail.
	assert.Equal(t, []string{schema.ActionCreate, schema.ActionDelete}, auditActions(t, f, key))

	require.NoError(t, f.svc.Delete(ctx, key, "p1", "10.0.0.9"))

	_, err = f.svc.Read(ctx, key, "")
	assert.Equal(t, schema.ErrCodeNotFound, schema.CodeOf(err))
}

func TestDelete_NotFound(t *testing.T) {
	f := newFixture(t)

	err := f.svc.Delete(context.Background(), "no-such-key", "", "")
	assert.Equal(t, schema.ErrCodeNotFound, schema.CodeOf(err))
}

func TestDelete_AfterRead(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	key, err := f.svc.Create(ctx, CreateInput{Secret: "read then removed"})
	require.NoError(t, err)
	_, err = f.svc.Read(ctx, key, "")
	require.NoError(t, err)

	// Delete may still succeed on an already-read secret.
	require.NoError(t, f.svc.Delete(ctx, key, "", ""))
}

func TestRead_ConcurrentSingleWinner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	key, err := f.svc.Create(ctx, CreateInput{Secret: "only once"})
	require.NoError(t, err)

	const readers = 16
	var wg sync.WaitGroup
	results := make(chan error, readers)
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Read(ctx, key, "")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var wins, losses int
	for err := range results {
		if err == nil {
			wins++
		} else {
			require.Equal(t, schema.ErrCodeNotFound, schema.CodeOf(err))
			losses++
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, readers-1, losses)
}

// failingCache errors on every operation, standing in for an unreachable Redis.
type failingCache struct{}

func (failingCache) Put(context.Context, string, cache.Entry, time.Duration) error {
	return errors.New("cache down")
}
func (failingCache) TakeIfPresent(context.Context, string) (*cache.Entry, error) {
	return nil, errors.New("cache down")
}
func (failingCache) Evict(context.Context, string) error {
	return errors.New("cache down")
}

func TestCacheUnavailabilityDegradesToStore(t *testing.T) {
	f := newFixture(t)
	f.svc.cache = failingCache{}
	ctx := context.Background()

	key, err := f.svc.Create(ctx, CreateInput{Secret: "resilient"})
	require.NoError(t, err)

	got, err := f.svc.Read(ctx, key, "")
	require.NoError(t, err)
	assert.Equal(t, "resilient", got)

	key2, err := f.svc.Create(ctx, CreateInput{Secret: "also resilient"})
	require.NoError(t, err)
	require.NoError(t, f.svc.Delete(ctx, key2, "", ""))
}

func TestCorruptCiphertextDoesNotBurnRow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	key, err := f.svc.Create(ctx, CreateInput{Secret: "precious"})
	require.NoError(t, err)
	require.NoError(t, f.mirror.Evict(ctx, key))

	_, err = f.store.DB().ExecContext(ctx,
		`UPDATE secrets SET ciphertext = ? WHERE secret_key = ?`, []byte("garbage"), key)
	require.NoError(t, err)

	_, err = f.svc.Read(ctx, key, "")
	assert.Equal(t, schema.ErrCodeCiphertext, schema.CodeOf(err))

	// The integrity fault did not consume the secret.
	_, err = f.store.FetchActive(ctx, key)
	require.NoError(t, err)
}
