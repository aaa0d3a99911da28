package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/inkwellapp/inkwell-server/internal/accounts"
	"github.com/inkwellapp/inkwell-server/internal/domain"
	domainerrors "github.com/inkwellapp/inkwell-server/internal/errors"
	"github.com/inkwellapp/inkwell-server/internal/events"
	"github.com/inkwellapp/inkwell-server/internal/metrics"
	"github.com/inkwellapp/inkwell-server/internal/session"
	"github.com/inkwellapp/inkwell-server/internal/sse"
	"github.com/inkwellapp/inkwell-server/internal/store"
	"github.com/inkwellapp/inkwell-server/internal/validation"
)

// AuthService handles signup, login and logout.
// Session management is delegated to SessionService.
type AuthService struct {
	users     *accounts.Directory
	store     *store.Store
	sessions  *SessionService
	search    *SearchService
	emitter   events.Emitter
	metrics   *metrics.Metrics
	validator *validation.Validator
	logger    *slog.Logger
}

// NewAuthService creates a new authentication service. search and m may be
// nil.
func NewAuthService(
	users *accounts.Directory,
	db *store.Store,
	sessions *SessionService,
	search *SearchService,
	emitter events.Emitter,
	m *metrics.Metrics,
	validator *validation.Validator,
	logger *slog.Logger,
) *AuthService {
	if emitter == nil {
		emitter = events.Noop{}
	}
	return &AuthService{
		users:     users,
		store:     db,
		sessions:  sessions,
		search:    search,
		emitter:   emitter,
		metrics:   m,
		validator: validator,
		logger:    logger,
	}
}

// SignupRequest contains user registration data.
type SignupRequest struct {
	Username string `json:"username" validate:"required,handle,min=3,max=32"`
	FullName string `json:"full_name" validate:"notblank,max=100"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=1024"`
}

// LoginRequest contains user credentials. Identifier is a username or an
// email address.
type LoginRequest struct {
	Identifier string `json:"identifier" validate:"notblank"`
	Password   string `json:"password" validate:"required"`
}

// AuthResponse contains the session token and the signed-in user.
type AuthResponse struct {
	User AccountView `json:"user"`
	SessionResponse
}

// Signup registers a new user and signs them in.
func (s *AuthService) Signup(ctx context.Context, req SignupRequest) (*AuthResponse, error) {
	resp, err := s.signup(ctx, req)
	s.metrics.AuthAttempt("signup", err == nil)
	return resp, err
}

func (s *AuthService) signup(ctx context.Context, req SignupRequest) (*AuthResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.users.Signup(domain.SignupDraft{
		Username: req.Username,
		FullName: req.FullName,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return nil, err
	}

	// The database indexes are the second line of defence against a
	// duplicate identity.
	if err := s.store.Users.Create(ctx, store.IDKey(user.ID), user); err != nil {
		s.users.Remove(user.ID)
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.DuplicateIdentity("username or email already exists")
		}
		return nil, fmt.Errorf("persist user: %w", err)
	}

	sess, err := s.sessions.Begin(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("begin session: %w", err)
	}

	s.logger.Info("user signed up", "user_id", user.ID, "username", user.Username)
	s.emitter.Emit(sse.NewUserSignedUpEvent(user))
	if s.search != nil {
		s.search.IndexUser(user)
	}

	return &AuthResponse{User: NewAccountView(user), SessionResponse: *sess}, nil
}

// Login verifies credentials and begins a session.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	resp, err := s.login(ctx, req)
	s.metrics.AuthAttempt("login", err == nil)
	return resp, err
}

func (s *AuthService) login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.users.Login(req.Identifier, req.Password)
	if err != nil {
		if errors.Is(err, domainerrors.ErrInvalidCredentials) {
			s.logger.Info("login failed", "identifier", req.Identifier)
		}
		return nil, err
	}

	sess, err := s.sessions.Begin(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("begin session: %w", err)
	}

	s.logger.Info("user logged in", "user_id", user.ID)
	return &AuthResponse{User: NewAccountView(user), SessionResponse: *sess}, nil
}

// Logout ends the session, returning it to anonymous.
func (s *AuthService) Logout(ctx context.Context, ident session.Identity) error {
	if ident.State() != session.Authenticated {
		return domainerrors.Unauthenticated("not logged in")
	}
	if err := s.sessions.End(ctx, ident.SessionID); err != nil {
		return err
	}
	s.logger.Info("user logged out", "user_id", ident.User.ID)
	return nil
}

// Current returns the signed-in user of a rehydrated session.
func (s *AuthService) Current(ident session.Identity) (*AccountView, error) {
	if ident.State() != session.Authenticated {
		return nil, domainerrors.Unauthenticated("not logged in")
	}
	view := NewAccountView(ident.User)
	return &view, nil
}
