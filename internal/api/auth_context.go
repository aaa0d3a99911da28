package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/inkwellapp/inkwell-server/internal/domain"
	domainerrors "github.com/inkwellapp/inkwell-server/internal/errors"
	"github.com/inkwellapp/inkwell-server/internal/service"
	"github.com/inkwellapp/inkwell-server/internal/session"
)

// ctxKey is the type for context keys to avoid collisions.
type ctxKey string

// identityKey is the context key for the resolved session identity.
const identityKey ctxKey = "identity"

// IdentityFrom returns the session identity attached to ctx. Requests
// without a valid token are anonymous.
func IdentityFrom(ctx context.Context) session.Identity {
	ident, _ := ctx.Value(identityKey).(session.Identity)
	return ident
}

func withIdentity(ctx context.Context, ident session.Identity) context.Context {
	return context.WithValue(ctx, identityKey, ident)
}

// currentUser returns the signed-in user, or nil for anonymous requests.
// Services reject a nil user where sign-in is required.
func currentUser(ctx context.Context) *domain.User {
	return IdentityFrom(ctx).User
}

// authMiddleware returns a middleware that validates Bearer tokens and stores
// the session identity in context.
// If no token is present or it is invalid, the request continues anonymously.
func authMiddleware(sessions *service.SessionService, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			ident, err := sessions.Authenticate(r.Context(), token)
			if err != nil {
				if !errors.Is(err, domainerrors.ErrUnauthenticated) {
					logger.Warn("failed to resolve session", "error", err)
				}
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), ident)))
		})
	}
}

// bearerToken extracts the token from the Authorization header. EventSource
// clients cannot set headers, so the events stream also accepts ?token=.
func bearerToken(r *http.Request) (string, bool) {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, found := strings.Cut(h, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
			return "", false
		}
		return token, true
	}
	if t := r.URL.Query().Get("token"); t != "" && strings.HasSuffix(r.URL.Path, "/events") {
		return t, true
	}
	return "", false
}
