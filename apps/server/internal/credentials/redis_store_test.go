package credentials_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagecraft/pagecraft/apps/server/internal/credentials"
)

// newStore starts a miniredis server and returns a RedisStore backed by it.
// The server is stopped automatically when the test ends.
func newStore(t *testing.T) (*credentials.RedisStore, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return credentials.NewRedisStore(rdb), rdb
}

const encrypted = "000000000000000000000000:00000000000000000000000000000000:aabbcc"

// ─── Put / Get roundtrip ──────────────────────────────────────────────────────

func TestPutGet_RoundTrip(t *testing.T) {
	s, _ := newStore(t)

	require.NoError(t, s.Put(context.Background(), "user-1", encrypted))

	got, err := s.Get(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, encrypted, got)
}

func TestGet_NotLinked_ReturnsErrNotFound(t *testing.T) {
	s, _ := newStore(t)

	_, err := s.Get(context.Background(), "user-1")

	assert.ErrorIs(t, err, credentials.ErrNotFound)
}

func TestPut_Replace_PreservesLinkedAt(t *testing.T) {
	s, rdb := newStore(t)

	require.NoError(t, s.Put(context.Background(), "user-1", encrypted))

	var first credentials.Record
	raw, err := rdb.Get(context.Background(), "credential:user-1").Result()
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(raw), &first))

	require.NoError(t, s.Put(context.Background(), "user-1", "111111111111111111111111:11111111111111111111111111111111:dd"))

	var second credentials.Record
	raw, err = rdb.Get(context.Background(), "credential:user-1").Result()
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(raw), &second))

	assert.Equal(t, first.LinkedAt, second.LinkedAt, "relinking must not reset linkedAt")
	assert.NotEqual(t, first.Encrypted, second.Encrypted)
}

// The record stored in Redis must never contain the plaintext token, only the
// encrypted three-part string handed to Put.
func TestPut_StoresOnlyEncryptedForm(t *testing.T) {
	s, rdb := newStore(t)

	require.NoError(t, s.Put(context.Background(), "user-1", encrypted))

	raw, err := rdb.Get(context.Background(), "credential:user-1").Result()
	require.NoError(t, err)
	assert.Contains(t, raw, encrypted)
}

// ─── Delete ───────────────────────────────────────────────────────────────────

func TestDelete_RemovesCredential(t *testing.T) {
	s, _ := newStore(t)
	require.NoError(t, s.Put(context.Background(), "user-1", encrypted))

	require.NoError(t, s.Delete(context.Background(), "user-1"))

	_, err := s.Get(context.Background(), "user-1")
	assert.ErrorIs(t, err, credentials.ErrNotFound)
}

func TestDelete_NotLinked_ReturnsErrNotFound(t *testing.T) {
	s, _ := newStore(t)

	err := s.Delete(context.Background(), "user-1")

	assert.ErrorIs(t, err, credentials.ErrNotFound)
}
