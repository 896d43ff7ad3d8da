package messaging

import (
	"context"
	"testing"
	"time"

	"validnews/internal/shared/events"
)

func TestBusDeliversToSubscriber(t *testing.T) {
	bus := NewBus(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan events.Envelope, 1)
	err := bus.Subscribe(ctx, "claim.distributed", "test-cg", func(_ context.Context, event events.Envelope) error {
		received <- event
		return nil
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	sent := events.Envelope{
		EventID:   "evt-1",
		EventType: "claim.distributed",
	}
	if err := bus.Publish(ctx, "claim.distributed", sent); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case event := <-received:
		if event.EventID != "evt-1" {
			t.Fatalf("got event %q, want evt-1", event.EventID)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestBusPublishWithoutSubscribersIsNoop(t *testing.T) {
	bus := NewBus(nil)
	if err := bus.Publish(context.Background(), "claim.tallied", events.Envelope{EventID: "evt-1"}); err != nil {
		t.Fatalf("publish without subscribers: %v", err)
	}
}
