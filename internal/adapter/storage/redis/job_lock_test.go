package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobLock_Exclusive(t *testing.T) {
	_, client := newTestClient(t)
	lock := NewJobLock(client)
	ctx := context.Background()

	token, ok, err := lock.Acquire(ctx, "lock:reconciler", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotEmpty(t, token)

	other, ok, err := lock.Acquire(ctx, "lock:reconciler", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "second holder must be refused")
	assert.Empty(t, other)

	require.NoError(t, lock.Release(ctx, "lock:reconciler", token))

	_, ok, err = lock.Acquire(ctx, "lock:reconciler", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "lock should be free after release")
}

func TestJobLock_ReleaseWithStaleToken(t *testing.T) {
	s, client := newTestClient(t)
	lock := NewJobLock(client)
	ctx := context.Background()

	stale, ok, err := lock.Acquire(ctx, "lock:reconciler", time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	s.FastForward(2 * time.Second)

	current, ok, err := lock.Acquire(ctx, "lock:reconciler", time.Minute)
	require.NoError(t, err)
	require.True(t, ok, "expired lock should be taken over")

	require.NoError(t, lock.Release(ctx, "lock:reconciler", stale))

	got, err := s.Get("lock:reconciler")
	require.NoError(t, err)
	assert.Equal(t, current, got, "stale release must not free the new holder's lock")
}

func TestJobLock_Refresh(t *testing.T) {
	s, client := newTestClient(t)
	lock := NewJobLock(client)
	ctx := context.Background()

	token, ok, err := lock.Acquire(ctx, "lock:reconciler", time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	s.FastForward(800 * time.Millisecond)
	held, err := lock.Refresh(ctx, "lock:reconciler", token, time.Second)
	require.NoError(t, err)
	assert.True(t, held)
	assert.Equal(t, time.Second, s.TTL("lock:reconciler"))

	held, err = lock.Refresh(ctx, "lock:reconciler", "someone-else", time.Minute)
	require.NoError(t, err)
	assert.False(t, held, "foreign token must not extend the lock")
	assert.Equal(t, time.Second, s.TTL("lock:reconciler"))

	s.FastForward(2 * time.Second)
	held, err = lock.Refresh(ctx, "lock:reconciler", token, time.Second)
	require.NoError(t, err)
	assert.False(t, held, "expired lock cannot be refreshed")
	assert.False(t, s.Exists("lock:reconciler"))
}
