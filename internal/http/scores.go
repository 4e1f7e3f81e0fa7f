package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Clark-Hu/trimscore/internal/domain"
	"github.com/Clark-Hu/trimscore/internal/score"
)

// Failures keep status 200; callers distinguish them by body shape.
const (
	msgMissingID   = "missing id query parameter"
	msgInvalidID   = "invalid title id"
	msgUnavailable = "score unavailable"
)

type errorResponse struct {
	Error string `json:"error"`
}

type statusResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleMediaItemScore(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		s.respondJSON(w, http.StatusOK, errorResponse{Error: msgMissingID})
		return
	}

	res, err := s.resolver.Resolve(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidID) {
			s.respondJSON(w, http.StatusOK, errorResponse{Error: msgInvalidID})
			return
		}
		s.logger.Warn().Err(err).Str("id", id).Msg("resolve score failed")
		s.respondJSON(w, http.StatusOK, errorResponse{Error: msgUnavailable})
		return
	}

	s.respondJSON(w, http.StatusOK, score.Format(res.Score))
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			s.logger.Error().Err(err).Msg("failed to encode response")
		}
	}
}
