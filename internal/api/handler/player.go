package handler

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/mcoot/powerup-ledger/internal/api/middleware"
	"github.com/mcoot/powerup-ledger/internal/api/request"
	"github.com/mcoot/powerup-ledger/internal/api/response"
	"github.com/mcoot/powerup-ledger/internal/dependencies/clock"
	"github.com/mcoot/powerup-ledger/internal/events"
	"github.com/mcoot/powerup-ledger/internal/model"
	"github.com/mcoot/powerup-ledger/internal/services/player"
	"github.com/mcoot/powerup-ledger/internal/services/purchase"
)

// PlayerHandler handles player record endpoints
type PlayerHandler struct {
	players      *player.Service
	orchestrator *purchase.Orchestrator
	hubManager   *events.HubManager
	clock        clock.Clock
}

// NewPlayerHandler creates a new player handler
func NewPlayerHandler(
	players *player.Service,
	orchestrator *purchase.Orchestrator,
	hubManager *events.HubManager,
	clock clock.Clock,
) *PlayerHandler {
	return &PlayerHandler{
		players:      players,
		orchestrator: orchestrator,
		hubManager:   hubManager,
		clock:        clock,
	}
}

// Initialize handles POST /api/v1/players
func (h *PlayerHandler) Initialize(w http.ResponseWriter, r *http.Request) {
	var req request.InitializePlayerRequest
	if err := decodeBody(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	rec, err := h.players.InitializePlayer(r.Context(), model.PlayerID(req.PlayerID))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.Created(w, response.PlayerFromModel(rec, h.clock.Now()))
}

// Get handles GET /api/v1/players/{id}
func (h *PlayerHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := model.PlayerID(mux.Vars(r)["id"])

	rec, err := h.players.GetPlayer(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.PlayerFromModel(rec, h.clock.Now()))
}

// UpdateScore handles PUT /api/v1/players/{id}/score
func (h *PlayerHandler) UpdateScore(w http.ResponseWriter, r *http.Request) {
	id := model.PlayerID(mux.Vars(r)["id"])

	var req request.UpdateScoreRequest
	if err := decodeBody(r, &req); err != nil {
		WriteError(w, err)
		return
	}
	if req.Score == nil {
		WriteError(w, NewInvalidRequestError("score is required"))
		return
	}

	rec, err := h.players.UpdateScore(r.Context(), id, *req.Score)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.PlayerFromModel(rec, h.clock.Now()))
}

// BuyPowerUp handles POST /api/v1/players/{id}/power-ups.
// The authenticated signer is the authority for the payment.
func (h *PlayerHandler) BuyPowerUp(w http.ResponseWriter, r *http.Request) {
	signer := middleware.MustGetSigner(r.Context())
	id := model.PlayerID(mux.Vars(r)["id"])

	var req request.BuyPowerUpRequest
	if err := decodeBody(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	res, err := h.orchestrator.BuyPowerUp(r.Context(), purchase.Request{
		PlayerID:  id,
		PowerUp:   model.PowerUpID(req.PowerUp),
		Authority: signer.ID,
		Funding:   model.AccountID(req.FundingAccount),
		Treasury:  model.AccountID(req.TreasuryAccount),
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.PurchaseFromResult(res, h.clock.Now()))
}

// Events handles GET /api/v1/players/{id}/events (SSE)
func (h *PlayerHandler) Events(w http.ResponseWriter, r *http.Request) {
	id := model.PlayerID(mux.Vars(r)["id"])

	if _, err := h.players.GetPlayer(r.Context(), id); err != nil {
		WriteError(w, err)
		return
	}

	events.ServeSSE(w, r, h.hubManager.GetOrCreateHub(id))
}

// Leaderboard handles GET /api/v1/leaderboard?limit=N
func (h *PlayerHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			WriteError(w, NewInvalidRequestError("limit must be a positive integer"))
			return
		}
		limit = n
	}

	recs, err := h.players.Leaderboard(r.Context(), limit)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.LeaderboardFromModel(recs, h.clock.Now()))
}
