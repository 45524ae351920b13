package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/taskboard/backend/internal/config"
	"github.com/taskboard/backend/internal/domain"
	"github.com/taskboard/backend/internal/infrastructure/logger"
)

const subscriberBuffer = 64

// NewRedisClient dials Redis and verifies the connection with PING.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rc := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rc.Ping(ctx).Err(); err != nil {
		rc.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return rc, nil
}

// RedisBus publishes board events as JSON on one channel per project.
type RedisBus struct {
	rc     *redis.Client
	prefix string
	log    *logger.Logger
}

func NewRedisBus(rc *redis.Client, prefix string, log *logger.Logger) *RedisBus {
	if prefix == "" {
		prefix = "board:"
	}
	return &RedisBus{rc: rc, prefix: prefix, log: log}
}

func (b *RedisBus) channel(projectID string) string {
	return b.prefix + projectID
}

func (b *RedisBus) Publish(ctx context.Context, event domain.BoardEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode board event: %w", err)
	}
	if err := b.rc.Publish(ctx, b.channel(event.ProjectID), payload).Err(); err != nil {
		return fmt.Errorf("publish board event: %w", err)
	}
	b.log.Debugw("board_event_published", "type", event.Type, "project_id", event.ProjectID, "task_id", event.TaskID)
	return nil
}

// Subscribe returns once Redis has confirmed the subscription. The event
// channel is closed after the returned close func runs or ctx ends.
func (b *RedisBus) Subscribe(ctx context.Context, projectID string) (<-chan domain.BoardEvent, func() error, error) {
	sub := b.rc.Subscribe(ctx, b.channel(projectID))
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, nil, fmt.Errorf("subscribe %s: %w", b.channel(projectID), err)
	}

	ctx, cancel := context.WithCancel(ctx)
	out := make(chan domain.BoardEvent, subscriberBuffer)
	msgs := sub.Channel()

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var ev domain.BoardEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					b.log.Warnw("board_event_decode_failed", "channel", msg.Channel, "error", err)
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	var once sync.Once
	var closeErr error
	closeFn := func() error {
		once.Do(func() {
			cancel()
			closeErr = sub.Close()
		})
		return closeErr
	}
	return out, closeFn, nil
}
