package realtime

import (
	"context"
	"testing"
	"time"

	"jobboard_back_end_go/logger"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func testRedis(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("redis integration test skipped in -short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	if err != nil {
		t.Skipf("redis container unavailable: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: endpoint})
	t.Cleanup(func() { _ = rdb.Close() })
	require.NoError(t, rdb.Ping(ctx).Err())
	return rdb
}

func TestRedisBroker_RelaysFilteredEvents(t *testing.T) {
	rdb := testRedis(t)
	ctx := context.Background()
	b := NewRedisBroker(rdb, "messages", logger.Nop())

	thread, err := b.Subscribe(ctx, Filter{UserID: "a", CounterpartID: "b"})
	require.NoError(t, err)
	defer thread.Close()
	list, err := b.Subscribe(ctx, Filter{UserID: "a"})
	require.NoError(t, err)
	defer list.Close()

	require.NoError(t, b.Publish(ctx, Event{Type: EventInsert, MessageID: "m1", SenderID: "c", ReceiverID: "a"}))
	require.NoError(t, b.Publish(ctx, Event{Type: EventInsert, MessageID: "m2", SenderID: "b", ReceiverID: "a"}))

	select {
	case ev := <-thread.Events():
		assert.Equal(t, "m2", ev.MessageID)
	case <-time.After(3 * time.Second):
		t.Fatal("thread subscription got no event")
	}

	got := map[string]bool{}
	deadline := time.After(3 * time.Second)
	for len(got) < 2 {
		select {
		case ev := <-list.Events():
			got[ev.MessageID] = true
		case <-deadline:
			t.Fatalf("list subscription got %v", got)
		}
	}
}

func TestRedisBroker_CloseEndsEvents(t *testing.T) {
	rdb := testRedis(t)
	b := NewRedisBroker(rdb, "messages", logger.Nop())

	sub, err := b.Subscribe(context.Background(), Filter{UserID: "a"})
	require.NoError(t, err)
	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close())

	select {
	case _, ok := <-sub.Events():
		assert.False(t, ok)
	case <-time.After(3 * time.Second):
		t.Fatal("events channel not closed")
	}
}
