package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/inkwellapp/inkwell-server/internal/auth"
	"github.com/inkwellapp/inkwell-server/internal/domain"
	domainerrors "github.com/inkwellapp/inkwell-server/internal/errors"
	"github.com/inkwellapp/inkwell-server/internal/session"
)

// SessionService binds sessions to access tokens. The token carries the
// session id; the session store is what says who is signed in, so ending a
// session revokes its token.
type SessionService struct {
	sessions *session.Manager
	tokens   *auth.TokenService
	logger   *slog.Logger
}

// NewSessionService creates a new session management service.
func NewSessionService(sessions *session.Manager, tokens *auth.TokenService, logger *slog.Logger) *SessionService {
	return &SessionService{
		sessions: sessions,
		tokens:   tokens,
		logger:   logger,
	}
}

// SessionResponse carries the access token for a new session.
type SessionResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	SessionID   string `json:"session_id"`
}

// Begin starts an authenticated session for user and issues its token.
func (s *SessionService) Begin(ctx context.Context, user *domain.User) (*SessionResponse, error) {
	ident, err := s.sessions.Begin(ctx, user)
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.GenerateAccessToken(user, ident.SessionID)
	if err != nil {
		// Without a token nobody can use the session.
		if endErr := s.sessions.End(ctx, ident.SessionID); endErr != nil {
			s.logger.Warn("failed to end orphaned session", "session_id", ident.SessionID, "error", endErr)
		}
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	return &SessionResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(s.tokens.AccessTokenDuration().Seconds()),
		SessionID:   ident.SessionID,
	}, nil
}

// Authenticate resolves an access token to the signed-in identity.
func (s *SessionService) Authenticate(ctx context.Context, token string) (session.Identity, error) {
	claims, err := s.tokens.VerifyAccessToken(token)
	if err != nil {
		return session.Identity{}, domainerrors.Unauthenticated("invalid or expired token")
	}

	ident, err := s.sessions.Rehydrate(ctx, claims.SessionID)
	if err != nil {
		return session.Identity{}, fmt.Errorf("rehydrate session: %w", err)
	}
	if ident.User == nil {
		return session.Identity{}, domainerrors.Unauthenticated("session has ended")
	}
	if ident.User.ID != claims.UserID {
		s.logger.Warn("token does not match session user",
			"session_id", claims.SessionID,
			"token_user", claims.UserID,
			"session_user", ident.User.ID,
		)
		return session.Identity{}, domainerrors.Unauthenticated("invalid or expired token")
	}
	return ident, nil
}

// End signs the session out.
func (s *SessionService) End(ctx context.Context, sessionID string) error {
	return s.sessions.End(ctx, sessionID)
}
