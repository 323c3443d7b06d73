// Package httpd is the HTTP surface over the player core. Handlers are
// thin: decode, call, map errors; all state lives below.
package httpd

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Swapnanilb/Svara/internal/cache"
	"github.com/Swapnanilb/Svara/internal/config"
	"github.com/Swapnanilb/Svara/internal/events"
	"github.com/Swapnanilb/Svara/internal/history"
	"github.com/Swapnanilb/Svara/internal/library"
	"github.com/Swapnanilb/Svara/internal/player"
	"github.com/Swapnanilb/Svara/internal/reconcile"
)

type Server struct {
	cfg     *config.Config
	store   *library.Store
	cache   *cache.Cache
	player  *player.Player
	rec     *reconcile.Reconciler
	history *history.Store
	bus     *events.Bus
}

func NewServer(cfg *config.Config, store *library.Store, c *cache.Cache, p *player.Player, rec *reconcile.Reconciler, hist *history.Store, bus *events.Bus) *Server {
	return &Server{cfg: cfg, store: store, cache: c, player: p, rec: rec, history: hist, bus: bus}
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			slog.Warn("response encode failed", "err", err)
		}
	}
}

func respondWithError(w http.ResponseWriter, code int, msg string) {
	respondWithJSON(w, code, map[string]string{"error": msg})
}

// respondWithDomainError maps known error values onto status codes.
func respondWithDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, library.ErrPlaylistNotFound), errors.Is(err, library.ErrSongNotFound):
		respondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, reconcile.ErrNoSourceURL), errors.Is(err, reconcile.ErrSpotifyUnconfigured):
		respondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		respondWithError(w, http.StatusGatewayTimeout, "operation timed out")
	case errors.Is(err, reconcile.ErrSourceUnavailable):
		respondWithError(w, http.StatusBadGateway, err.Error())
	default:
		respondWithError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
