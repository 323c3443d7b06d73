package httpd

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondWithJSON(w, http.StatusOK, s.player.Status())
	}
}

func (s *Server) handlePlay() http.HandlerFunc {
	type request struct {
		Index int `json:"index"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if !decodeJSON(w, r, &req) {
			return
		}
		if err := s.player.Play(chi.URLParam(r, "id"), req.Index); err != nil {
			respondWithDomainError(w, err)
			return
		}
		respondWithJSON(w, http.StatusOK, s.player.Status())
	}
}

func (s *Server) handleTogglePause() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.player.TogglePause()
		respondWithJSON(w, http.StatusOK, s.player.Status())
	}
}

func (s *Server) handleNext() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.player.Next()
		respondWithJSON(w, http.StatusOK, s.player.Status())
	}
}

func (s *Server) handlePrevious() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.player.Previous()
		respondWithJSON(w, http.StatusOK, s.player.Status())
	}
}

func (s *Server) handleStop() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.player.Stop()
		respondWithJSON(w, http.StatusOK, s.player.Status())
	}
}

func (s *Server) handleSeek() http.HandlerFunc {
	type request struct {
		PositionMs *int `json:"position_ms"`
		DeltaMs    *int `json:"delta_ms"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if !decodeJSON(w, r, &req) {
			return
		}
		var err error
		switch {
		case req.PositionMs != nil:
			err = s.player.Seek(*req.PositionMs)
		case req.DeltaMs != nil:
			err = s.player.SeekBy(*req.DeltaMs)
		default:
			respondWithError(w, http.StatusBadRequest, "position_ms or delta_ms is required")
			return
		}
		if err != nil {
			respondWithDomainError(w, err)
			return
		}
		respondWithJSON(w, http.StatusOK, s.player.Status())
	}
}

func (s *Server) handleVolume() http.HandlerFunc {
	type request struct {
		Volume *float64 `json:"volume"`
		Step   *float64 `json:"step"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if !decodeJSON(w, r, &req) {
			return
		}
		switch {
		case req.Volume != nil:
			s.player.SetVolume(*req.Volume)
		case req.Step != nil:
			s.player.VolumeStep(*req.Step)
		default:
			respondWithError(w, http.StatusBadRequest, "volume or step is required")
			return
		}
		respondWithJSON(w, http.StatusOK, s.player.Status())
	}
}

func (s *Server) handleMute() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.player.ToggleMute()
		respondWithJSON(w, http.StatusOK, s.player.Status())
	}
}

func (s *Server) handleShuffle() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.player.ToggleShuffle()
		respondWithJSON(w, http.StatusOK, s.player.Status())
	}
}

func (s *Server) handleRepeat() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.player.ToggleRepeat()
		respondWithJSON(w, http.StatusOK, s.player.Status())
	}
}
