package notify

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-cms-inline/pkg/interfaces"
)

func TestBroadcasterDeliversToSubscribers(t *testing.T) {
	b := NewBroadcaster()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first := b.Subscribe(ctx, 4)
	second := b.Subscribe(ctx, 4)

	b.Notify(ctx, interfaces.Notification{Kind: interfaces.NotificationSuccess, Code: "autosave.saved"})

	for i, ch := range []<-chan interfaces.Notification{first, second} {
		select {
		case n := <-ch:
			if n.Code != "autosave.saved" {
				t.Fatalf("watcher %d: unexpected code %q", i, n.Code)
			}
		case <-time.After(time.Second):
			t.Fatalf("watcher %d: notification not delivered", i)
		}
	}
}

func TestBroadcasterClosesOnContextDone(t *testing.T) {
	b := NewBroadcaster()
	ctx, cancel := context.WithCancel(context.Background())
	ch := b.Subscribe(ctx, 1)
	cancel()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatalf("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatalf("channel not closed after cancel")
	}

	// Notify after close must not panic.
	b.Notify(context.Background(), interfaces.Notification{Code: "late"})
}

func TestBroadcasterSubscribeWithDoneContext(t *testing.T) {
	b := NewBroadcaster()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, ok := <-b.Subscribe(ctx, 1); ok {
		t.Fatalf("expected closed channel for done context")
	}
}

func TestBroadcasterDropsWhenWatcherFull(t *testing.T) {
	b := NewBroadcaster()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := b.Subscribe(ctx, 1)
	b.Notify(ctx, interfaces.Notification{Code: "one"})
	b.Notify(ctx, interfaces.Notification{Code: "two"})

	if got := b.Dropped(); got != 1 {
		t.Fatalf("expected one dropped notification, got %d", got)
	}
	if n := <-ch; n.Code != "one" {
		t.Fatalf("expected first notification to be kept, got %q", n.Code)
	}
}
