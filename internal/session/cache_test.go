package session

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/InternHub-KE/client/internal/domain/users"
)

func openTestCache(t *testing.T, secret string) *Cache {
	t.Helper()
	cache, err := OpenCache(filepath.Join(t.TempDir(), "session.db"), secret)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })
	return cache
}

func TestCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	cache := openTestCache(t, "test-secret")

	sess := testSession("tok-1")
	sess.IssuedAt = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	require.NoError(t, cache.Save(ctx, sess))

	restored, err := cache.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, restored)
	assert.Equal(t, "tok-1", restored.Token)
	assert.Equal(t, sess.User, restored.User)
	assert.True(t, sess.IssuedAt.Equal(restored.IssuedAt))
}

func TestCacheLoadEmpty(t *testing.T) {
	cache := openTestCache(t, "test-secret")

	restored, err := cache.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, restored)
}

func TestCacheClear(t *testing.T) {
	ctx := context.Background()
	cache := openTestCache(t, "test-secret")

	require.NoError(t, cache.Save(ctx, testSession("tok-1")))
	require.NoError(t, cache.Clear(ctx))

	restored, err := cache.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, restored)

	// Clearing an empty cache is a no-op.
	require.NoError(t, cache.Clear(ctx))
}

func TestCacheTokenEncryptedAtRest(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.db")

	cache, err := OpenCache(path, "secret-a")
	require.NoError(t, err)
	require.NoError(t, cache.Save(ctx, testSession("tok-1")))
	require.NoError(t, cache.Close())

	// A cache opened under a different secret cannot decrypt the token and
	// must treat the entry as absent rather than fail startup.
	other, err := OpenCache(path, "secret-b")
	require.NoError(t, err)
	defer other.Close()

	restored, err := other.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, restored)
}

func TestCacheGeneratedSecretSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "session.db")

	cache, err := OpenCache(path, "")
	require.NoError(t, err)
	require.NoError(t, cache.Save(ctx, testSession("tok-1")))
	require.NoError(t, cache.Close())

	reopened, err := OpenCache(path, "")
	require.NoError(t, err)
	defer reopened.Close()

	restored, err := reopened.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, restored)
	assert.Equal(t, "tok-1", restored.Token)
}

func TestCacheUpdateUser(t *testing.T) {
	ctx := context.Background()
	cache := openTestCache(t, "test-secret")

	// Without a cached session the profile write is a no-op.
	require.NoError(t, cache.UpdateUser(ctx, users.UserProfile{ID: "u-9"}))
	restored, err := cache.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, restored)

	require.NoError(t, cache.Save(ctx, testSession("tok-1")))
	updated := users.UserProfile{ID: "u-1", Email: "renamed@example.com", Role: users.RoleStudent}
	require.NoError(t, cache.UpdateUser(ctx, updated))

	restored, err = cache.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, restored)
	assert.Equal(t, "tok-1", restored.Token)
	assert.Equal(t, updated, restored.User)
}
