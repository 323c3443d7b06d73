package httpd

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Swapnanilb/Svara/internal/library"
)

func (s *Server) handleListPlaylists() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondWithJSON(w, http.StatusOK, s.store.Playlists())
	}
}

func (s *Server) handleListSongs() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if _, err := s.store.Get(id); err != nil {
			respondWithDomainError(w, err)
			return
		}
		songs := s.store.Songs(id)
		if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
			songs = filterSongs(songs, q)
		}
		respondWithJSON(w, http.StatusOK, songs)
	}
}

func filterSongs(songs []library.Song, q string) []library.Song {
	q = strings.ToLower(q)
	out := make([]library.Song, 0, len(songs))
	for _, s := range songs {
		if strings.Contains(strings.ToLower(s.Title), q) {
			out = append(out, s)
		}
	}
	return out
}

func (s *Server) handleImport() http.HandlerFunc {
	type request struct {
		URL        string `json:"url"`
		PlaylistID string `json:"playlist_id"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if !decodeJSON(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.URL) == "" {
			respondWithError(w, http.StatusBadRequest, "url is required")
			return
		}
		res, err := s.rec.ImportFromLink(r.Context(), strings.TrimSpace(req.URL), req.PlaylistID)
		if err != nil {
			respondWithDomainError(w, err)
			return
		}
		code := http.StatusOK
		if res.Created {
			code = http.StatusCreated
		}
		respondWithJSON(w, code, res)
	}
}

func (s *Server) handleAddSong() http.HandlerFunc {
	type request struct {
		URL string `json:"url"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if !decodeJSON(w, r, &req) {
			return
		}
		id := chi.URLParam(r, "id")
		if _, err := s.store.Get(id); err != nil {
			respondWithDomainError(w, err)
			return
		}
		res, err := s.rec.ImportFromLink(r.Context(), strings.TrimSpace(req.URL), id)
		if err != nil {
			respondWithDomainError(w, err)
			return
		}
		respondWithJSON(w, http.StatusOK, res)
	}
}

func (s *Server) handleRemoveSong() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		index, err := strconv.Atoi(chi.URLParam(r, "index"))
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "invalid song index")
			return
		}
		if err := s.store.RemoveSong(chi.URLParam(r, "id"), index); err != nil {
			respondWithDomainError(w, err)
			return
		}
		respondWithJSON(w, http.StatusOK, map[string]bool{"removed": true})
	}
}

func (s *Server) handleRemovePlaylist() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.store.Remove(chi.URLParam(r, "id")); err != nil {
			respondWithDomainError(w, err)
			return
		}
		respondWithJSON(w, http.StatusOK, map[string]bool{"removed": true})
	}
}

func (s *Server) handleSetThumbnail() http.HandlerFunc {
	type request struct {
		URL string `json:"url"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if !decodeJSON(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.URL) == "" {
			respondWithError(w, http.StatusBadRequest, "url is required")
			return
		}
		if err := s.store.SetThumbnail(chi.URLParam(r, "id"), req.URL); err != nil {
			respondWithDomainError(w, err)
			return
		}
		respondWithJSON(w, http.StatusOK, map[string]bool{"updated": true})
	}
}

func (s *Server) handleClearThumbnail() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.store.ClearThumbnail(chi.URLParam(r, "id")); err != nil {
			respondWithDomainError(w, err)
			return
		}
		respondWithJSON(w, http.StatusOK, map[string]bool{"updated": true})
	}
}
