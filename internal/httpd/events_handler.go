package httpd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

const keepAliveInterval = 15 * time.Second

// handleEvents streams the bus over SSE. Each event goes out as
// `event: <type>` with a JSON data payload; a comment line every 15s
// keeps proxies from closing the connection.
func (s *Server) handleEvents() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			respondWithError(w, http.StatusInternalServerError, "streaming unsupported")
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		ch, cancel := s.bus.Subscribe()
		defer cancel()

		keepAlive := time.NewTicker(keepAliveInterval)
		defer keepAlive.Stop()

		for {
			select {
			case <-r.Context().Done():
				return
			case <-keepAlive.C:
				fmt.Fprint(w, ": keep-alive\n\n")
				flusher.Flush()
			case ev, open := <-ch:
				if !open {
					return
				}
				data, err := json.Marshal(ev)
				if err != nil {
					slog.Warn("event marshal failed", "type", ev.Type(), "err", err)
					continue
				}
				fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type(), data)
				flusher.Flush()
			}
		}
	}
}
