package realtime

import (
	"bufio"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

// Handler streams hub events as server-sent events. The optional `tables`
// query parameter (comma separated) narrows the feed.
func (h *Hub) Handler(heartbeat time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var tables []string
		for _, t := range strings.Split(c.Query("tables"), ",") {
			if t = strings.TrimSpace(t); t != "" {
				tables = append(tables, t)
			}
		}
		events, cancel := h.Subscribe(tables...)

		c.Set("Content-Type", "text/event-stream")
		c.Set("Cache-Control", "no-cache")
		c.Set("Connection", "keep-alive")

		c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
			defer cancel()
			ticker := time.NewTicker(heartbeat)
			defer ticker.Stop()

			fmt.Fprint(w, ": connected\n\n")
			if err := w.Flush(); err != nil {
				return
			}
			for {
				select {
				case ev, ok := <-events:
					if !ok {
						return
					}
					b, err := json.Marshal(ev)
					if err != nil {
						continue
					}
					fmt.Fprintf(w, "event: change\ndata: %s\n\n", b)
				case <-ticker.C:
					fmt.Fprint(w, ": ping\n\n")
				}
				// a failed flush means the client went away
				if err := w.Flush(); err != nil {
					return
				}
			}
		}))
		return nil
	}
}
