// Package web serves the server-rendered HTML pages.
package web

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/powerup-ledger/internal/catalog"
	"github.com/mcoot/powerup-ledger/internal/dependencies/clock"
	sharedmw "github.com/mcoot/powerup-ledger/internal/middleware"
	"github.com/mcoot/powerup-ledger/internal/services/auth"
	"github.com/mcoot/powerup-ledger/internal/services/player"
	"github.com/mcoot/powerup-ledger/internal/web/handler"
	"github.com/mcoot/powerup-ledger/internal/web/middleware"
)

// RouterConfig holds configuration for the web router
type RouterConfig struct {
	Logger        *slog.Logger
	Clock         clock.Clock
	AuthService   *auth.Service
	PlayerService *player.Service
	Catalog       *catalog.Catalog
}

// NewRouter creates a new web router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()
	RegisterRoutes(r, cfg)
	return r
}

// RegisterRoutes mounts the HTML pages on an existing router. Mount the API
// first: these routes claim every path the API leaves unmatched.
func RegisterRoutes(r *mux.Router, cfg RouterConfig) {
	homeHandler := handler.NewHomeHandler(cfg.Catalog)
	authHandler := handler.NewAuthHandler(cfg.AuthService)
	playerHandler := handler.NewPlayerHandler(cfg.PlayerService, cfg.Clock, cfg.Logger)

	pages := r.NewRoute().Subrouter()
	pages.Use(sharedmw.Recovery(cfg.Logger, handler.Panic))
	pages.Use(sharedmw.Logging(cfg.Logger))
	pages.Use(middleware.Flash())
	pages.Use(middleware.OptionalAuth(cfg.AuthService))

	pages.HandleFunc("/", homeHandler.Home).Methods(http.MethodGet)
	pages.HandleFunc("/leaderboard", playerHandler.Leaderboard).Methods(http.MethodGet)
	pages.HandleFunc("/players/{id}", playerHandler.Card).Methods(http.MethodGet)

	pages.HandleFunc("/auth/login", authHandler.Login).Methods(http.MethodPost)
	pages.HandleFunc("/auth/register", authHandler.Register).Methods(http.MethodPost)
	pages.HandleFunc("/auth/logout", authHandler.Logout).Methods(http.MethodPost)

	r.NotFoundHandler = http.HandlerFunc(handler.NotFound)
}
