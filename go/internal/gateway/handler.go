package gateway

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/makeorbreakshop/thumbnail-battle/go/internal/models"
	"github.com/rs/zerolog/log"
)

// LeaderboardReader is the read surface exposed over REST.
type LeaderboardReader interface {
	Best(ctx context.Context) ([]models.LeaderboardEntry, error)
	Recent(ctx context.Context) ([]models.LeaderboardEntry, error)
}

// Handler wires the gameplay WebSocket and the REST read endpoints.
type Handler struct {
	manager *ConnectionManager
	board   LeaderboardReader
}

func NewHandler(manager *ConnectionManager, board LeaderboardReader) *Handler {
	return &Handler{
		manager: manager,
		board:   board,
	}
}

// RegisterRoutes attaches all gateway routes to the router.
func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/ws", h.handleWebSocket)
	router.HandleFunc("/api/leaderboard", h.handleLeaderboard).Methods(http.MethodGet)
	router.HandleFunc("/api/stats", h.handleStats).Methods(http.MethodGet)
	router.HandleFunc("/healthz", h.handleHealth).Methods(http.MethodGet)
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if err := h.manager.UpgradeConnection(w, r); err != nil {
		// Upgrade already wrote the HTTP error response.
		log.Warn().Err(err).Msg("websocket upgrade rejected")
	}
}

// handleLeaderboard serves the cached ranked projections.
// GET /api/leaderboard?view=best|recent
func (h *Handler) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	view := models.LeaderboardView(r.URL.Query().Get("view"))
	if view == "" {
		view = models.LeaderboardViewBest
	}

	var entries []models.LeaderboardEntry
	var err error
	switch view {
	case models.LeaderboardViewBest:
		entries, err = h.board.Best(r.Context())
	case models.LeaderboardViewRecent:
		entries, err = h.board.Recent(r.Context())
	default:
		writeError(w, http.StatusBadRequest, "unknown leaderboard view")
		return
	}
	if err != nil {
		log.Error().Err(err).Str("view", string(view)).Msg("failed to read leaderboard")
		writeError(w, http.StatusInternalServerError, "failed to read leaderboard")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"view":    view,
		"entries": entries,
	})
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.manager.GetConnectionStats())
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("failed to encode response body")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
