package realtime

import (
	"context"
	"testing"
	"time"
)

func TestHub_FiltersByTable(t *testing.T) {
	hub := NewHub()
	products, cancelP := hub.Subscribe(TableProducts)
	defer cancelP()
	all, cancelAll := hub.Subscribe()
	defer cancelAll()

	_ = hub.Publish(context.Background(), Event{Table: TableOrders, Type: Insert, ID: "7"})
	_ = hub.Publish(context.Background(), Event{Table: TableProducts, Type: Update, ID: "3"})

	select {
	case ev := <-products:
		if ev.Table != TableProducts || ev.ID != "3" {
			t.Fatalf("unexpected event %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatalf("products subscriber got nothing")
	}
	select {
	case ev := <-products:
		t.Fatalf("products subscriber received foreign event %+v", ev)
	default:
	}

	if got := len(all); got != 2 {
		t.Fatalf("expected 2 buffered events for catch-all subscriber, got %d", got)
	}
}

func TestHub_SlowSubscriberDoesNotBlock(t *testing.T) {
	hub := NewHub()
	_, cancel := hub.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*3; i++ {
			_ = hub.Publish(context.Background(), Event{Table: TableProducts, Type: Insert})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("publish blocked on a full subscriber")
	}
}

func TestHub_CancelAndClose(t *testing.T) {
	hub := NewHub()
	ch, cancel := hub.Subscribe()
	cancel()
	cancel()
	if _, ok := <-ch; ok {
		t.Fatalf("expected channel closed after cancel")
	}

	ch2, _ := hub.Subscribe()
	hub.Close()
	if _, ok := <-ch2; ok {
		t.Fatalf("expected channel closed after hub close")
	}
	ch3, _ := hub.Subscribe()
	if _, ok := <-ch3; ok {
		t.Fatalf("subscribing to a closed hub should yield a closed channel")
	}
}
