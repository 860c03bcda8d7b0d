package stream

import (
	"context"
	"testing"
	"time"
)

func TestHubPublishSubscribe(t *testing.T) {
	hub := NewHub()
	events, unsubscribe := hub.Subscribe("lobby")
	other, unsubscribeOther := hub.Subscribe("other")
	defer unsubscribeOther()

	hub.Publish("lobby", Event{Type: "chunk", Content: "hello"})

	select {
	case ev := <-events:
		if ev.Content != "hello" {
			t.Fatalf("unexpected event %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}

	select {
	case ev := <-other:
		t.Fatalf("event leaked to other room: %+v", ev)
	default:
	}

	unsubscribe()
	if n := hub.Subscribers("lobby"); n != 0 {
		t.Fatalf("expected no subscribers, got %d", n)
	}
}

func TestHubCloseCancelsGenerations(t *testing.T) {
	hub := NewHub()
	events, unsubscribe := hub.Subscribe("lobby")
	defer unsubscribe()

	ctx, done := hub.Track(context.Background(), "lobby")
	defer done()

	hub.Close("lobby")

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("expected generation to be cancelled")
	}
	if _, ok := <-events; ok {
		t.Fatal("expected subscriber channel to be closed")
	}
}
