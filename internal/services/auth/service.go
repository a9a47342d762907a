package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/powerup-ledger/internal/dependencies/clock"
	"github.com/mcoot/powerup-ledger/internal/model"
	"github.com/mcoot/powerup-ledger/internal/storage"
)

// Errors
var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrInvalidSession      = errors.New("invalid or expired session")
	ErrUsernameExists      = errors.New("username already exists")
	ErrInvalidRegistration = errors.New("invalid registration")
)

// Registration bounds
const (
	MaxUsernameLen    = 32
	MinPasswordLen    = 8
	signerIDRandBytes = 12
)

// Session is an authenticated signer. Signer.ID is the authority used for transfers.
type Session struct {
	Token     string
	Signer    model.Signer
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Authority returns the signing authority of the session
func (s *Session) Authority() model.Authority {
	return s.Signer.ID
}

// Service handles signer registration and session management
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	logger  *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session

	sessionDuration time.Duration
}

// Config holds configuration for the auth service
type Config struct {
	SessionDuration time.Duration
}

// DefaultConfig returns default auth configuration
func DefaultConfig() Config {
	return Config{
		SessionDuration: 24 * time.Hour,
	}
}

// New creates a new auth Service
func New(storage storage.Storage, clock clock.Clock, logger *slog.Logger, cfg Config) *Service {
	if cfg.SessionDuration == 0 {
		cfg.SessionDuration = DefaultConfig().SessionDuration
	}
	return &Service{
		storage:         storage,
		clock:           clock,
		logger:          logger,
		sessions:        make(map[string]*Session),
		sessionDuration: cfg.SessionDuration,
	}
}

// RegisterSigner creates a signer and a session for it
func (s *Service) RegisterSigner(ctx context.Context, username, password string) (*Session, error) {
	if username == "" || len(username) > MaxUsernameLen {
		return nil, fmt.Errorf("%w: username must be 1-%d bytes", ErrInvalidRegistration, MaxUsernameLen)
	}
	if len(password) < MinPasswordLen {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidRegistration, MinPasswordLen)
	}

	_, err := s.storage.GetSignerByUsername(ctx, username)
	if err == nil {
		return nil, ErrUsernameExists
	}
	if !errors.Is(err, model.ErrSignerNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	signer := &model.Signer{
		ID:           model.Authority(generateID("sig_", signerIDRandBytes)),
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    s.clock.Now(),
	}
	if err := s.storage.SaveSigner(ctx, signer); err != nil {
		if errors.Is(err, model.ErrAlreadyExists) {
			return nil, ErrUsernameExists
		}
		return nil, err
	}

	s.logger.Info("signer registered",
		slog.String("signer_id", string(signer.ID)),
		slog.String("username", username),
	)
	return s.createSession(signer), nil
}

// Login checks a signer's password and creates a session
func (s *Service) Login(ctx context.Context, username, password string) (*Session, error) {
	signer, err := s.storage.GetSignerByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, model.ErrSignerNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(signer.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.createSession(signer), nil
}

// ValidateSession checks if a session token is valid and returns the session
func (s *Service) ValidateSession(token string) (*Session, error) {
	s.mu.RLock()
	session, ok := s.sessions[token]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrInvalidSession
	}

	if s.clock.Now().After(session.ExpiresAt) {
		s.mu.Lock()
		delete(s.sessions, token)
		s.mu.Unlock()
		return nil, ErrInvalidSession
	}

	return session, nil
}

// InvalidateSession removes a session
func (s *Service) InvalidateSession(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}

func (s *Service) createSession(signer *model.Signer) *Session {
	now := s.clock.Now()
	session := &Session{
		Token:     generateID("sess_", 16),
		Signer:    *signer,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionDuration),
	}

	s.mu.Lock()
	s.sessions[session.Token] = session
	s.mu.Unlock()

	return session
}

// generateID returns prefix followed by n random bytes, base64url encoded
func generateID(prefix string, n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return prefix + base64.RawURLEncoding.EncodeToString(b)
}

// CleanExpiredSessions removes expired sessions (call periodically)
func (s *Service) CleanExpiredSessions() {
	now := s.clock.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	for token, session := range s.sessions {
		if now.After(session.ExpiresAt) {
			delete(s.sessions, token)
		}
	}
}
