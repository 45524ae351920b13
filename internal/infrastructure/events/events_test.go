package events

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskboard/backend/internal/config"
	"github.com/taskboard/backend/internal/domain"
	"github.com/taskboard/backend/internal/infrastructure/logger"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	m := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() { rc.Close() })
	return m, rc
}

func receive(t *testing.T, ch <-chan domain.BoardEvent) domain.BoardEvent {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "channel closed")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
	}
	return domain.BoardEvent{}
}

func TestRedisBusPublishSubscribe(t *testing.T) {
	_, rc := newRedis(t)
	bus := NewRedisBus(rc, "board:", logger.NewNop())
	ctx := context.Background()

	ch, closeFn, err := bus.Subscribe(ctx, "p1")
	require.NoError(t, err)
	defer closeFn()

	// Other projects use other channels.
	require.NoError(t, bus.Publish(ctx, domain.BoardEvent{Type: domain.BoardEventTaskCreated, ProjectID: "p2", TaskID: "x"}))

	want := domain.BoardEvent{
		Type:      domain.BoardEventTaskMoved,
		ProjectID: "p1",
		TaskID:    "t1",
		Column:    domain.ColumnDone,
		Position:  2,
		At:        time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	require.NoError(t, bus.Publish(ctx, want))

	got := receive(t, ch)
	assert.Equal(t, want, got)
}

func TestRedisBusSkipsMalformedPayload(t *testing.T) {
	_, rc := newRedis(t)
	bus := NewRedisBus(rc, "board:", logger.NewNop())
	ctx := context.Background()

	ch, closeFn, err := bus.Subscribe(ctx, "p1")
	require.NoError(t, err)
	defer closeFn()

	require.NoError(t, rc.Publish(ctx, "board:p1", "not json").Err())
	require.NoError(t, bus.Publish(ctx, domain.BoardEvent{Type: domain.BoardEventTaskDeleted, ProjectID: "p1", TaskID: "t9"}))

	got := receive(t, ch)
	assert.Equal(t, "t9", got.TaskID)
	assert.Equal(t, domain.BoardEventTaskDeleted, got.Type)
}

func TestRedisBusCloseEndsStream(t *testing.T) {
	_, rc := newRedis(t)
	bus := NewRedisBus(rc, "", logger.NewNop())

	ch, closeFn, err := bus.Subscribe(context.Background(), "p1")
	require.NoError(t, err)
	require.NoError(t, closeFn())
	assert.NoError(t, closeFn())

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed")
	}
}

func TestNewRedisClient(t *testing.T) {
	m := miniredis.RunT(t)
	addr := m.Addr()

	rc, err := NewRedisClient(context.Background(), config.RedisConfig{Addr: addr})
	require.NoError(t, err)
	rc.Close()

	m.Close()
	_, err = NewRedisClient(context.Background(), config.RedisConfig{Addr: addr})
	assert.Error(t, err)
}

func TestMemoryBus(t *testing.T) {
	assert := assert.New(t)
	bus := NewMemoryBus()
	ctx, cancel := context.WithCancel(context.Background())

	ch, closeFn, err := bus.Subscribe(ctx, "p1")
	require.NoError(t, err)

	assert.NoError(bus.Publish(ctx, domain.BoardEvent{Type: domain.BoardEventTaskCreated, ProjectID: "p2"}))
	assert.NoError(bus.Publish(ctx, domain.BoardEvent{Type: domain.BoardEventTaskCreated, ProjectID: "p1", TaskID: "t1"}))

	got := receive(t, ch)
	assert.Equal("t1", got.TaskID)

	cancel()
	select {
	case _, ok := <-ch:
		assert.False(ok)
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed on cancel")
	}
	assert.NoError(closeFn())

	// Publishing with no subscribers left is a no-op.
	assert.NoError(bus.Publish(context.Background(), domain.BoardEvent{ProjectID: "p1"}))
}
