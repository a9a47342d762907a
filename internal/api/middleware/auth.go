package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/mcoot/powerup-ledger/internal/api/apierr"
	"github.com/mcoot/powerup-ledger/internal/model"
	"github.com/mcoot/powerup-ledger/internal/services/auth"
)

type contextKey string

const (
	signerContextKey  contextKey = "signer"
	sessionContextKey contextKey = "session"
)

// Auth creates authentication middleware
func Auth(authService *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				apierr.WriteError(w, apierr.NewUnauthorizedError())
				return
			}

			session, err := authService.ValidateSession(token)
			if err != nil {
				apierr.WriteError(w, err)
				return
			}

			ctx := r.Context()
			ctx = context.WithValue(ctx, sessionContextKey, session)
			ctx = context.WithValue(ctx, signerContextKey, &session.Signer)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractToken extracts the session token from the request
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	cookie, err := r.Cookie("session")
	if err == nil {
		return cookie.Value
	}

	return ""
}

// GetSigner returns the authenticated signer from the request context
func GetSigner(ctx context.Context) *model.Signer {
	signer, _ := ctx.Value(signerContextKey).(*model.Signer)
	return signer
}

// GetSession returns the session from the request context
func GetSession(ctx context.Context) *auth.Session {
	session, _ := ctx.Value(sessionContextKey).(*auth.Session)
	return session
}

// MustGetSigner returns the authenticated signer or panics
func MustGetSigner(ctx context.Context) *model.Signer {
	signer := GetSigner(ctx)
	if signer == nil {
		panic("no signer in context - auth middleware not applied?")
	}
	return signer
}
