package httpd

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Swapnanilb/Svara/internal/history"
)

// handleSync runs a reconciliation under the configured timeout. A
// deadline hit maps to 504 so callers can tell "source is slow" from
// "source is wrong".
func (s *Server) handleSync() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), s.cfg.SyncTimeout)
		defer cancel()

		summary, err := s.rec.ReconcileWait(ctx, chi.URLParam(r, "id"))
		if err != nil {
			respondWithDomainError(w, err)
			return
		}
		respondWithJSON(w, http.StatusOK, summary)
	}
}

func (s *Server) handleWarmCache() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if _, err := s.store.Get(id); err != nil {
			respondWithDomainError(w, err)
			return
		}
		cached, total, err := s.rec.WarmCache(r.Context(), id)
		if err != nil {
			respondWithDomainError(w, err)
			return
		}
		respondWithJSON(w, http.StatusOK, map[string]int{"cached": cached, "total": total})
	}
}

func (s *Server) handleCacheStats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondWithJSON(w, http.StatusOK, s.cache.Stats())
	}
}

func (s *Server) handleCacheClear() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.cache.Clear()
		respondWithJSON(w, http.StatusOK, map[string]bool{"cleared": true})
	}
}

func (s *Server) handleHistory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.history == nil {
			respondWithError(w, http.StatusNotFound, "history is not enabled")
			return
		}
		limit := 50
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				respondWithError(w, http.StatusBadRequest, "invalid limit")
				return
			}
			limit = n
		}
		entries, err := s.history.Recent(r.Context(), limit)
		if err != nil {
			respondWithDomainError(w, err)
			return
		}
		if entries == nil {
			entries = []history.Entry{}
		}
		respondWithJSON(w, http.StatusOK, entries)
	}
}
