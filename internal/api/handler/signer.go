package handler

import (
	"net/http"

	"github.com/mcoot/powerup-ledger/internal/api/middleware"
	"github.com/mcoot/powerup-ledger/internal/api/request"
	"github.com/mcoot/powerup-ledger/internal/api/response"
	"github.com/mcoot/powerup-ledger/internal/services/auth"
)

// SignerHandler handles signer registration and login
type SignerHandler struct {
	authService *auth.Service
}

// NewSignerHandler creates a new signer handler
func NewSignerHandler(authService *auth.Service) *SignerHandler {
	return &SignerHandler{
		authService: authService,
	}
}

// Register handles POST /api/v1/signers/register
func (h *SignerHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req request.RegisterRequest
	if err := decodeBody(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	if req.Username == "" {
		WriteError(w, NewInvalidRequestError("username is required"))
		return
	}
	if req.Password == "" {
		WriteError(w, NewInvalidRequestError("password is required"))
		return
	}

	session, err := h.authService.RegisterSigner(r.Context(), req.Username, req.Password)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.Created(w, response.AuthResponseFromSession(session))
}

// Login handles POST /api/v1/signers/login
func (h *SignerHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req request.LoginRequest
	if err := decodeBody(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	if req.Username == "" {
		WriteError(w, NewInvalidRequestError("username is required"))
		return
	}
	if req.Password == "" {
		WriteError(w, NewInvalidRequestError("password is required"))
		return
	}

	session, err := h.authService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.AuthResponseFromSession(session))
}

// Logout handles POST /api/v1/signers/logout
func (h *SignerHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r.Context())
	if session != nil {
		h.authService.InvalidateSession(session.Token)
	}
	response.NoContent(w)
}

// GetMe handles GET /api/v1/signers/me
func (h *SignerHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	signer := middleware.MustGetSigner(r.Context())
	response.JSON(w, http.StatusOK, response.SignerFromModel(signer))
}
