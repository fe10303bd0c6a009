package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/rampart/internal/auth"
	"github.com/freeeve/rampart/internal/model"
	"github.com/freeeve/rampart/internal/repository"
)

// MatchHistory reads persisted matches and their turns.
type MatchHistory interface {
	FindMatch(ctx context.Context, matchID string) (*model.Match, error)
	ListTurns(ctx context.Context, matchID string) ([]model.Turn, error)
}

// MatchHandler serves the read-only match endpoints.
type MatchHandler struct {
	history MatchHistory
	cache   repository.LiveCache
}

// NewMatchHandler creates a MatchHandler. Either dependency may be nil; the
// endpoints that need it then answer 503.
func NewMatchHandler(history MatchHistory, cache repository.LiveCache) *MatchHandler {
	return &MatchHandler{history: history, cache: cache}
}

// allowed rejects requests whose token is scoped to another match.
func allowed(w http.ResponseWriter, r *http.Request, matchID string) bool {
	if c := auth.ClaimsFromContext(r.Context()); c == nil || !c.CanWatch(matchID) {
		writeError(w, http.StatusForbidden, "token does not cover this match")
		return false
	}
	return true
}

// GetMatch handles GET /matches/{id}.
func (h *MatchHandler) GetMatch(w http.ResponseWriter, r *http.Request) {
	matchID := r.PathValue("id")
	if !allowed(w, r, matchID) {
		return
	}
	if h.history == nil {
		writeError(w, http.StatusServiceUnavailable, "match history not configured")
		return
	}

	m, err := h.history.FindMatch(r.Context(), matchID)
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, "match not found")
		return
	}
	if err != nil {
		log.Error().Err(err).Str("matchId", matchID).Msg("Failed to load match")
		writeError(w, http.StatusInternalServerError, "failed to load match")
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// ListTurns handles GET /matches/{id}/turns.
func (h *MatchHandler) ListTurns(w http.ResponseWriter, r *http.Request) {
	matchID := r.PathValue("id")
	if !allowed(w, r, matchID) {
		return
	}
	if h.history == nil {
		writeError(w, http.StatusServiceUnavailable, "match history not configured")
		return
	}

	turns, err := h.history.ListTurns(r.Context(), matchID)
	if err != nil {
		log.Error().Err(err).Str("matchId", matchID).Msg("Failed to list turns")
		writeError(w, http.StatusInternalServerError, "failed to list turns")
		return
	}
	if turns == nil {
		turns = []model.Turn{}
	}
	writeJSON(w, http.StatusOK, turns)
}

// LastTurn handles GET /matches/{id}/last.
func (h *MatchHandler) LastTurn(w http.ResponseWriter, r *http.Request) {
	matchID := r.PathValue("id")
	if !allowed(w, r, matchID) {
		return
	}
	if h.cache == nil {
		writeError(w, http.StatusServiceUnavailable, "live cache not configured")
		return
	}

	data, err := h.cache.GetLastTurn(r.Context(), matchID)
	if err != nil {
		log.Error().Err(err).Str("matchId", matchID).Msg("Failed to read last turn")
		writeError(w, http.StatusInternalServerError, "failed to read last turn")
		return
	}
	if data == nil {
		writeError(w, http.StatusNotFound, "no turn planned yet")
		return
	}
	writeJSON(w, http.StatusOK, json.RawMessage(data))
}

// Health handles GET /healthz.
func (h *Hub) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"connections": h.ConnectionCount(),
	})
}
