package realtime

import (
	"context"
	"log"
	"sync"
)

const subscriberBuffer = 16

type subscriber struct {
	ch     chan Event
	tables map[string]bool
}

// Hub is an in-process broadcaster. A subscriber that stops reading loses
// events instead of blocking publishers.
type Hub struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]*subscriber
	closed bool
}

func NewHub() *Hub {
	return &Hub{subs: make(map[int]*subscriber)}
}

// Subscribe returns a channel receiving events for the given tables (all
// tables when none are given) and a cancel func that closes it.
func (h *Hub) Subscribe(tables ...string) (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub := &subscriber{ch: make(chan Event, subscriberBuffer)}
	if len(tables) > 0 {
		sub.tables = make(map[string]bool, len(tables))
		for _, t := range tables {
			sub.tables[t] = true
		}
	}
	if h.closed {
		close(sub.ch)
		return sub.ch, func() {}
	}

	id := h.nextID
	h.nextID++
	h.subs[id] = sub

	var once sync.Once
	return sub.ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if s, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(s.ch)
			}
		})
	}
}

// Publish delivers ev to every matching subscriber.
func (h *Hub) Publish(_ context.Context, ev Event) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, sub := range h.subs {
		if sub.tables != nil && !sub.tables[ev.Table] {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
			log.Printf("[realtime] subscriber buffer full, dropping %s %s", ev.Table, ev.Type)
		}
	}
	return nil
}

// Close closes every subscriber channel.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, sub := range h.subs {
		close(sub.ch)
		delete(h.subs, id)
	}
}
