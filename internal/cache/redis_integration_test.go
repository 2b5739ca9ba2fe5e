//go:build integration

package cache_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/comanda-pos/api/internal/cache"
	"github.com/comanda-pos/api/internal/prepestimate"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { container.Terminate(ctx) }) //nolint:errcheck

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client, err := cache.Connect(ctx, fmt.Sprintf("redis://%s:%s/0", host, port.Port()))
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRedisIntegration(t *testing.T) {
	rdb := setupRedis(t)
	ctx := context.Background()

	t.Run("estimate cache round trip", func(t *testing.T) {
		c := cache.NewEstimateCache(rdb, time.Minute)
		id := uuid.New()

		_, found, err := c.Get(ctx, id)
		require.NoError(t, err)
		assert.False(t, found)

		want := prepestimate.Estimate{Preparation: 23, Total: 23, Source: prepestimate.SourceToday, SampleSize: 4}
		require.NoError(t, c.Set(ctx, id, want))

		got, found, err := c.Get(ctx, id)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, want, got)

		require.NoError(t, c.Invalidate(ctx, id))
		_, found, _ = c.Get(ctx, id)
		assert.False(t, found)
	})

	t.Run("tab lock is exclusive and token-guarded", func(t *testing.T) {
		l := cache.NewRedisLocker(rdb)
		key := "tab:" + uuid.NewString()

		release, err := l.Acquire(ctx, key, 5*time.Second)
		require.NoError(t, err)

		_, err = l.Acquire(ctx, key, 5*time.Second)
		assert.ErrorIs(t, err, cache.ErrLocked)

		release()

		release2, err := l.Acquire(ctx, key, 5*time.Second)
		require.NoError(t, err)

		// A stale release from the first holder must not free the new holder's lock.
		release()
		_, err = l.Acquire(ctx, key, 5*time.Second)
		assert.ErrorIs(t, err, cache.ErrLocked)
		release2()
	})

	t.Run("tab lock expires", func(t *testing.T) {
		l := cache.NewRedisLocker(rdb)
		key := "tab:" + uuid.NewString()

		_, err := l.Acquire(ctx, key, 100*time.Millisecond)
		require.NoError(t, err)
		time.Sleep(250 * time.Millisecond)

		release, err := l.Acquire(ctx, key, time.Second)
		require.NoError(t, err)
		release()
	})
}
