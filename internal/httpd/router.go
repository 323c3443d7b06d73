package httpd

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleStatus())
		r.Get("/events", s.handleEvents())
		r.Get("/history", s.handleHistory())

		r.Route("/playlists", func(r chi.Router) {
			r.Get("/", s.handleListPlaylists())
			r.Post("/import", s.handleImport())
			r.Route("/{id}", func(r chi.Router) {
				r.Delete("/", s.handleRemovePlaylist())
				r.Get("/songs", s.handleListSongs())
				r.Post("/songs", s.handleAddSong())
				r.Delete("/songs/{index}", s.handleRemoveSong())
				r.Post("/play", s.handlePlay())
				r.Post("/sync", s.handleSync())
				r.Post("/warm", s.handleWarmCache())
				r.Put("/thumbnail", s.handleSetThumbnail())
				r.Delete("/thumbnail", s.handleClearThumbnail())
			})
		})

		r.Route("/player", func(r chi.Router) {
			r.Post("/pause", s.handleTogglePause())
			r.Post("/next", s.handleNext())
			r.Post("/previous", s.handlePrevious())
			r.Post("/stop", s.handleStop())
			r.Post("/seek", s.handleSeek())
			r.Post("/volume", s.handleVolume())
			r.Post("/mute", s.handleMute())
			r.Post("/shuffle", s.handleShuffle())
			r.Post("/repeat", s.handleRepeat())
		})

		r.Route("/cache", func(r chi.Router) {
			r.Get("/stats", s.handleCacheStats())
			r.Post("/clear", s.handleCacheClear())
		})
	})

	return r
}
