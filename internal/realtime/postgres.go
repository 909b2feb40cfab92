package realtime

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
)

const notifyChannel = "storefront_changes"

// PGNotifier publishes events through pg_notify so every API instance
// listening on the channel relays them to its own hub.
type PGNotifier struct {
	db *sql.DB
}

func NewPGNotifier(db *sql.DB) *PGNotifier {
	return &PGNotifier{db: db}
}

func (n *PGNotifier) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = n.db.ExecContext(ctx, `SELECT pg_notify($1, $2)`, notifyChannel, string(payload))
	return err
}

// Listen holds a dedicated connection on the notify channel and forwards
// every payload to hub until ctx is cancelled or the connection fails.
func Listen(ctx context.Context, dsn string, hub *Hub) error {
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return err
	}
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, "LISTEN "+notifyChannel); err != nil {
		return err
	}
	log.Printf("[realtime] listening on %s", notifyChannel)

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		var ev Event
		if err := json.Unmarshal([]byte(n.Payload), &ev); err != nil {
			log.Printf("[realtime] bad payload %q: %v", n.Payload, err)
			continue
		}
		_ = hub.Publish(ctx, ev)
	}
}

// Run keeps Listen alive, reconnecting after a pause when it fails.
func Run(ctx context.Context, dsn string, hub *Hub, retry time.Duration) {
	for ctx.Err() == nil {
		if err := Listen(ctx, dsn, hub); err != nil {
			log.Printf("[realtime] listener stopped: %v", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(retry):
		}
	}
}
