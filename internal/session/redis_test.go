package session

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/pineapple_admin/internal/models"
)

func newRedisStore(t *testing.T) *RedisStore {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(context.Background()).Err())

	sealer, err := NewSealer([]byte("test-session-secret"))
	require.NoError(t, err)
	return &RedisStore{Client: client, Sealer: sealer, Prefix: "test:" + uuid.NewString() + ":"}
}

func TestRedisStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	store := newRedisStore(t)

	assert.False(t, store.IsActive(ctx, "sid"))

	user := models.User{ID: 3, Email: "ops@example.com", Name: "Ops"}
	require.NoError(t, store.Save(ctx, "sid", Session{Token: "tok", User: user}))
	assert.True(t, store.IsActive(ctx, "sid"))

	got, err := store.CurrentUser(ctx, "sid")
	require.NoError(t, err)
	assert.Equal(t, user, *got)

	require.NoError(t, store.Clear(ctx, "sid"))
	assert.False(t, store.IsActive(ctx, "sid"))
	_, err = store.CurrentUser(ctx, "sid")
	assert.ErrorIs(t, err, ErrNoSession)
}
