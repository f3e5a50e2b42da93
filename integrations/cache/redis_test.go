package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestWebhookDeduper(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping redis backed test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Skipf("redis container unavailable: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client, err := NewRedisClient(ctx, fmt.Sprintf("%s:%s", host, port.Port()), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	deduper := NewWebhookDeduper(client, time.Minute)

	seen, err := deduper.Seen(ctx, "gateway:payment:1")
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, deduper.Remember(ctx, "gateway:payment:1"))

	seen, err = deduper.Seen(ctx, "gateway:payment:1")
	require.NoError(t, err)
	assert.True(t, seen)

	ttl, err := client.TTL(ctx, keyPrefix+"gateway:payment:1").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}
