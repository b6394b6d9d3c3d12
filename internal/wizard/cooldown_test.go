package wizard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCooldown(t *testing.T) {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	c := NewMemoryCooldown()
	c.now = func() time.Time { return now }

	ok, _, err := c.Acquire(context.Background(), "1101700203409", 10*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	now = now.Add(4 * time.Second)
	ok, remaining, err := c.Acquire(context.Background(), "1101700203409", 10*time.Second)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 6*time.Second, remaining)

	ok, _, _ = c.Acquire(context.Background(), "other", 10*time.Second)
	assert.True(t, ok)

	now = now.Add(6 * time.Second)
	ok, _, _ = c.Acquire(context.Background(), "1101700203409", 10*time.Second)
	assert.True(t, ok)
}

func TestMemoryCooldown_PrunesExpiredKeys(t *testing.T) {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	c := NewMemoryCooldown()
	c.now = func() time.Time { return now }

	for _, key := range []string{"a", "b", "c"} {
		ok, _, err := c.Acquire(context.Background(), key, 10*time.Second)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	assert.Len(t, c.until, 3)

	now = now.Add(10 * time.Second)
	ok, _, err := c.Acquire(context.Background(), "d", 10*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, c.until, 1)
	assert.Contains(t, c.until, "d")
}

func TestRedisCooldown(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	c := NewRedisCooldown(redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	ok, _, err := c.Acquire(context.Background(), "1101700203409", 10*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, remaining, err := c.Acquire(context.Background(), "1101700203409", 10*time.Second)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Greater(t, remaining, time.Duration(0))

	mr.FastForward(11 * time.Second)
	ok, _, err = c.Acquire(context.Background(), "1101700203409", 10*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisCooldown_Error(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	mock.Regexp().ExpectSetNX("wizard:cooldown:1101700203409", `.*`, 10*time.Second).SetErr(errors.New("connection refused"))

	c := NewRedisCooldown(rdb)
	ok, _, err := c.Acquire(context.Background(), "1101700203409", 10*time.Second)
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestConsentStores(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	stores := map[string]ConsentStore{
		"memory": NewMemoryConsentStore(time.Hour),
		"redis":  NewRedisConsentStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Hour),
	}

	for name, s := range stores {
		t.Run(name, func(t *testing.T) {
			sess, err := s.Record(context.Background())
			require.NoError(t, err)
			assert.False(t, sess.ConsentAt.IsZero())

			got, err := s.Lookup(context.Background(), sess.ID)
			require.NoError(t, err)
			assert.Equal(t, sess.ID, got.ID)
			assert.True(t, sess.ConsentAt.Equal(got.ConsentAt))

			_, err = s.Lookup(context.Background(), "missing")
			assert.ErrorIs(t, err, ErrConsentNotFound)
		})
	}
}

func TestMemoryConsentStore_Expires(t *testing.T) {
	now := time.Now()
	s := NewMemoryConsentStore(time.Minute)
	s.now = func() time.Time { return now }

	sess, err := s.Record(context.Background())
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = s.Lookup(context.Background(), sess.ID)
	assert.ErrorIs(t, err, ErrConsentNotFound)
}
