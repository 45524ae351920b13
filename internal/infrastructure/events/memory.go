package events

import (
	"context"
	"sync"

	"github.com/taskboard/backend/internal/domain"
)

// MemoryBus fans events out to subscribers of this process only. It is
// used when no Redis address is configured.
type MemoryBus struct {
	mu   sync.RWMutex
	subs map[string]map[chan domain.BoardEvent]struct{}
}

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subs: make(map[string]map[chan domain.BoardEvent]struct{})}
}

// Publish never blocks. Subscribers that fall behind miss events.
func (b *MemoryBus) Publish(_ context.Context, event domain.BoardEvent) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs[event.ProjectID] {
		select {
		case ch <- event:
		default:
		}
	}
	return nil
}

func (b *MemoryBus) Subscribe(ctx context.Context, projectID string) (<-chan domain.BoardEvent, func() error, error) {
	ch := make(chan domain.BoardEvent, subscriberBuffer)

	b.mu.Lock()
	if b.subs[projectID] == nil {
		b.subs[projectID] = make(map[chan domain.BoardEvent]struct{})
	}
	b.subs[projectID][ch] = struct{}{}
	b.mu.Unlock()

	done := make(chan struct{})
	var once sync.Once
	closeFn := func() error {
		once.Do(func() {
			close(done)
			b.mu.Lock()
			delete(b.subs[projectID], ch)
			if len(b.subs[projectID]) == 0 {
				delete(b.subs, projectID)
			}
			b.mu.Unlock()
			close(ch)
		})
		return nil
	}

	go func() {
		select {
		case <-ctx.Done():
			closeFn()
		case <-done:
		}
	}()
	return ch, closeFn, nil
}
