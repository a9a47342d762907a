package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/powerup-ledger/internal/api/apierr"
	"github.com/mcoot/powerup-ledger/internal/api/handler"
	"github.com/mcoot/powerup-ledger/internal/api/middleware"
	"github.com/mcoot/powerup-ledger/internal/catalog"
	"github.com/mcoot/powerup-ledger/internal/dependencies/clock"
	"github.com/mcoot/powerup-ledger/internal/events"
	"github.com/mcoot/powerup-ledger/internal/services/auth"
	"github.com/mcoot/powerup-ledger/internal/services/player"
	"github.com/mcoot/powerup-ledger/internal/services/purchase"
	"github.com/mcoot/powerup-ledger/internal/services/token"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger        *slog.Logger
	Clock         clock.Clock
	AuthService   *auth.Service
	PlayerService *player.Service
	Ledger        *token.Ledger
	Orchestrator  *purchase.Orchestrator
	Catalog       *catalog.Catalog
	HubManager    *events.HubManager
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()
	RegisterRoutes(r, cfg)
	return r
}

// RegisterRoutes mounts the /api/v1 routes on an existing router
func RegisterRoutes(r *mux.Router, cfg RouterConfig) {
	signerHandler := handler.NewSignerHandler(cfg.AuthService)
	playerHandler := handler.NewPlayerHandler(cfg.PlayerService, cfg.Orchestrator, cfg.HubManager, cfg.Clock)
	accountHandler := handler.NewAccountHandler(cfg.Ledger)
	catalogHandler := handler.NewCatalogHandler(cfg.Catalog)

	authMiddleware := middleware.Auth(cfg.AuthService)
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)
	api.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		apierr.WriteError(w, apierr.NewNotFoundError())
	})

	// Public routes
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)
	api.HandleFunc("/signers/register", signerHandler.Register).Methods(http.MethodPost)
	api.HandleFunc("/signers/login", signerHandler.Login).Methods(http.MethodPost)
	api.HandleFunc("/catalog", catalogHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/leaderboard", playerHandler.Leaderboard).Methods(http.MethodGet)
	api.HandleFunc("/players/{id}", playerHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/players/{id}/events", playerHandler.Events).Methods(http.MethodGet)
	api.HandleFunc("/accounts/{id}", accountHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/accounts/{id}/transfers", accountHandler.Transfers).Methods(http.MethodGet)

	// Routes acting on behalf of a signer
	protected := api.NewRoute().Subrouter()
	protected.Use(authMiddleware)
	protected.HandleFunc("/signers/me", signerHandler.GetMe).Methods(http.MethodGet)
	protected.HandleFunc("/signers/logout", signerHandler.Logout).Methods(http.MethodPost)
	protected.HandleFunc("/players", playerHandler.Initialize).Methods(http.MethodPost)
	protected.HandleFunc("/players/{id}/score", playerHandler.UpdateScore).Methods(http.MethodPut)
	protected.HandleFunc("/players/{id}/power-ups", playerHandler.BuyPowerUp).Methods(http.MethodPost)
	protected.HandleFunc("/accounts", accountHandler.Open).Methods(http.MethodPost)
	protected.HandleFunc("/accounts/{id}/airdrop", accountHandler.Airdrop).Methods(http.MethodPost)
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
