package handler

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/mcoot/powerup-ledger/internal/api/middleware"
	"github.com/mcoot/powerup-ledger/internal/api/request"
	"github.com/mcoot/powerup-ledger/internal/api/response"
	"github.com/mcoot/powerup-ledger/internal/model"
	"github.com/mcoot/powerup-ledger/internal/services/token"
)

const defaultHistoryLimit = 20

// AccountHandler handles token account endpoints
type AccountHandler struct {
	ledger *token.Ledger
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(ledger *token.Ledger) *AccountHandler {
	return &AccountHandler{ledger: ledger}
}

// Open handles POST /api/v1/accounts; the account is owned by the signer
func (h *AccountHandler) Open(w http.ResponseWriter, r *http.Request) {
	signer := middleware.MustGetSigner(r.Context())

	acct, err := h.ledger.OpenAccount(r.Context(), signer.ID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.Created(w, response.AccountFromModel(acct))
}

// Get handles GET /api/v1/accounts/{id}
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := model.AccountID(mux.Vars(r)["id"])

	acct, err := h.ledger.GetAccount(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.AccountFromModel(acct))
}

// Transfers handles GET /api/v1/accounts/{id}/transfers?limit=N
func (h *AccountHandler) Transfers(w http.ResponseWriter, r *http.Request) {
	id := model.AccountID(mux.Vars(r)["id"])

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			WriteError(w, NewInvalidRequestError("limit must be a positive integer"))
			return
		}
		limit = n
	}

	receipts, err := h.ledger.History(r.Context(), id, limit)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.TransferHistoryFromModel(receipts))
}

// Airdrop handles POST /api/v1/accounts/{id}/airdrop
func (h *AccountHandler) Airdrop(w http.ResponseWriter, r *http.Request) {
	signer := middleware.MustGetSigner(r.Context())
	id := model.AccountID(mux.Vars(r)["id"])

	var req request.AirdropRequest
	if err := decodeBody(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	acct, err := h.ledger.Airdrop(r.Context(), id, signer.ID, req.Amount)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.AccountFromModel(acct))
}
