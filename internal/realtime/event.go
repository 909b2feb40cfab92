// Package realtime fans table change notifications out to subscribers: the
// storefront catalog cache, the owner order view and the SSE feed.
package realtime

import "context"

// Tables that emit change events.
const (
	TableProducts = "products"
	TableOrders   = "orders"
	TablePincodes = "pincodes"
)

// Change types, named like Postgres trigger operations.
const (
	Insert = "INSERT"
	Update = "UPDATE"
	Delete = "DELETE"
)

// Event describes one committed row change.
type Event struct {
	Table string `json:"table"`
	Type  string `json:"type"`
	ID    string `json:"id,omitempty"`
}

// Publisher is implemented by the in-process Hub and by PGNotifier.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Nop drops every event. Services use it when no publisher is configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
