package notify

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/goliatone/go-cms-inline/pkg/interfaces"
)

// Broadcaster fans notifications out to subscribers, typically the host's
// toast stream.
type Broadcaster struct {
	mu       sync.Mutex
	watchers map[uint64]chan interfaces.Notification
	nextID   uint64
	dropped  atomic.Int64
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{watchers: make(map[uint64]chan interfaces.Notification)}
}

// Subscribe registers a buffered watcher that is closed once ctx is done.
func (b *Broadcaster) Subscribe(ctx context.Context, buffer int) <-chan interfaces.Notification {
	if ctx == nil {
		ctx = context.Background()
	}
	if buffer <= 0 {
		buffer = 1
	}
	if ctx.Err() != nil {
		ch := make(chan interfaces.Notification)
		close(ch)
		return ch
	}
	ch := make(chan interfaces.Notification, buffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.watchers[id] = ch
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.watchers, id)
		close(ch)
		b.mu.Unlock()
	}()
	return ch
}

// Notify never blocks; slow watchers miss notifications.
func (b *Broadcaster) Notify(_ context.Context, n interfaces.Notification) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.watchers {
		select {
		case ch <- n:
		default:
			b.dropped.Add(1)
		}
	}
}

// Dropped reports how many deliveries were skipped because a watcher was full.
func (b *Broadcaster) Dropped() int64 { return b.dropped.Load() }
