package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupThrottle(t *testing.T, max int, window time.Duration) (*LoginThrottle, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewLoginThrottle(client, max, window), mr
}

func TestLoginThrottle_BlocksAfterLimit(t *testing.T) {
	th, _ := setupThrottle(t, 3, time.Minute)
	ctx := context.Background()
	key := "alice@example.com|10.0.0.1"

	for i := 0; i < 3; i++ {
		ok, err := th.Allow(ctx, key)
		require.NoError(t, err)
		assert.True(t, ok, "attempt %d should be allowed", i)
		require.NoError(t, th.Fail(ctx, key))
	}

	ok, err := th.Allow(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = th.Allow(ctx, "alice@example.com|10.0.0.2")
	require.NoError(t, err)
	assert.True(t, ok, "other keys are independent")
}

func TestLoginThrottle_WindowExpires(t *testing.T) {
	th, mr := setupThrottle(t, 1, time.Minute)
	ctx := context.Background()

	require.NoError(t, th.Fail(ctx, "k"))
	assert.Equal(t, time.Minute, mr.TTL("login:fail:k"))

	ok, _ := th.Allow(ctx, "k")
	assert.False(t, ok)

	mr.FastForward(time.Minute + time.Second)
	ok, err := th.Allow(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLoginThrottle_SecondFailureKeepsWindow(t *testing.T) {
	th, mr := setupThrottle(t, 5, time.Minute)
	ctx := context.Background()

	require.NoError(t, th.Fail(ctx, "k"))
	mr.FastForward(30 * time.Second)
	require.NoError(t, th.Fail(ctx, "k"))

	assert.Equal(t, 30*time.Second, mr.TTL("login:fail:k"))
	v, err := mr.Get("login:fail:k")
	require.NoError(t, err)
	assert.Equal(t, "2", v)
}

func TestLoginThrottle_Reset(t *testing.T) {
	th, mr := setupThrottle(t, 1, time.Minute)
	ctx := context.Background()

	require.NoError(t, th.Fail(ctx, "k"))
	require.NoError(t, th.Reset(ctx, "k"))
	assert.False(t, mr.Exists("login:fail:k"))

	ok, err := th.Allow(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLoginThrottle_Defaults(t *testing.T) {
	th := NewLoginThrottle(nil, 0, 0)
	assert.Equal(t, defaultMaxAttempts, th.maxAttempts)
	assert.Equal(t, defaultWindow, th.window)
}
