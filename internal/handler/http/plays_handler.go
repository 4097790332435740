package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/betversa/ev-engine/internal/models"
	"github.com/betversa/ev-engine/pkg/market"
)

// PlaySource is the read side of the EV service
type PlaySource interface {
	Plays() []models.Play
	History(ctx context.Context, identity string, limit int) ([]models.Snapshot, error)
}

// PlaysHandler handles HTTP requests for plays and snapshot history
type PlaysHandler struct {
	source PlaySource
	logger zerolog.Logger
}

// NewPlaysHandler creates a new plays HTTP handler
func NewPlaysHandler(source PlaySource, logger zerolog.Logger) *PlaysHandler {
	return &PlaysHandler{
		source: source,
		logger: logger.With().Str("component", "plays_handler").Logger(),
	}
}

// RegisterRoutes registers HTTP routes with the provided mux
func (h *PlaysHandler) RegisterRoutes(mux *http.ServeMux) {
	// GET /api/v1/plays?sport=&bookmaker= - Latest board of plays
	mux.HandleFunc("/api/v1/plays", h.handleGetPlays)

	// GET /api/v1/snapshots?id=&limit= - Snapshot history for one bet
	mux.HandleFunc("/api/v1/snapshots", h.handleGetSnapshots)
}

// handleGetPlays handles GET /api/v1/plays
func (h *PlaysHandler) handleGetPlays(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.errorResponse(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	sport := r.URL.Query().Get("sport")
	book := r.URL.Query().Get("bookmaker")

	plays := h.source.Plays()
	filtered := make([]models.Play, 0, len(plays))
	for _, p := range plays {
		if sport != "" && !strings.EqualFold(p.Sport, sport) {
			continue
		}
		if book != "" && !strings.EqualFold(p.Bookmaker, book) {
			continue
		}
		filtered = append(filtered, p)
	}

	h.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"count": len(filtered),
		"plays": filtered,
	})
}

// handleGetSnapshots handles GET /api/v1/snapshots
func (h *PlaysHandler) handleGetSnapshots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.errorResponse(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		h.errorResponse(w, http.StatusBadRequest, "id is required")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			h.errorResponse(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	history, err := h.source.History(r.Context(), id, limit)
	if err != nil {
		if errors.Is(err, market.ErrInvalidIdentity) {
			h.errorResponse(w, http.StatusBadRequest, "invalid bet identity")
			return
		}
		h.logger.Error().
			Err(err).
			Str("bet_identity", id).
			Msg("failed to retrieve snapshot history")
		h.errorResponse(w, http.StatusInternalServerError, "failed to retrieve snapshots")
		return
	}

	if history == nil {
		history = []models.Snapshot{}
	}

	h.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"id":        id,
		"count":     len(history),
		"snapshots": history,
	})
}

// jsonResponse writes a JSON response
func (h *PlaysHandler) jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error().Err(err).Msg("failed to encode JSON response")
	}
}

// errorResponse writes a JSON error response
func (h *PlaysHandler) errorResponse(w http.ResponseWriter, status int, message string) {
	h.jsonResponse(w, status, map[string]string{
		"error": message,
	})
}
