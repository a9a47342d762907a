package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/mcoot/powerup-ledger/internal/dependencies/clock"
	"github.com/mcoot/powerup-ledger/internal/model"
	"github.com/mcoot/powerup-ledger/internal/services/player"
	"github.com/mcoot/powerup-ledger/internal/web/templates"
)

const defaultLeaderboardSize = 10

// PlayerHandler renders player cards and the leaderboard
type PlayerHandler struct {
	players *player.Service
	clock   clock.Clock
	logger  *slog.Logger
}

// NewPlayerHandler creates a new PlayerHandler
func NewPlayerHandler(players *player.Service, clock clock.Clock, logger *slog.Logger) *PlayerHandler {
	return &PlayerHandler{
		players: players,
		clock:   clock,
		logger:  logger,
	}
}

// Card renders a single player
func (h *PlayerHandler) Card(w http.ResponseWriter, r *http.Request) {
	id := model.PlayerID(mux.Vars(r)["id"])

	rec, err := h.players.GetPlayer(r.Context(), id)
	if err != nil {
		if errors.Is(err, model.ErrRecordNotFound) {
			render(w, r, http.StatusNotFound, templates.NotFound(pageData(r, "Not found"), "No player named "+string(id)+"."))
			return
		}
		h.logger.Error("failed to load player",
			slog.String("player_id", string(id)),
			slog.String("error", err.Error()),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	render(w, r, http.StatusOK, templates.PlayerCard(templates.PlayerCardData{
		PageData: pageData(r, string(rec.PlayerID)),
		Player:   rec,
		Now:      h.clock.Now(),
	}))
}

// Leaderboard renders the top players by score
func (h *PlayerHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	limit := defaultLeaderboardSize
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil && n > 0 {
			limit = n
		}
	}

	players, err := h.players.Leaderboard(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to load leaderboard", slog.String("error", err.Error()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	render(w, r, http.StatusOK, templates.Leaderboard(templates.LeaderboardData{
		PageData: pageData(r, "Leaderboard"),
		Players:  players,
		Now:      h.clock.Now(),
	}))
}
