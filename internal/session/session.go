// Package session tracks who is signed in.
//
// A session moves Anonymous -> Authenticated on login or signup and back to
// Anonymous on logout. While authenticated, the user's public record is
// persisted under the fixed key name "currentUser" (namespaced by session
// id) so the identity can be rehydrated by any request, or after a restart.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/inkwellapp/inkwell-server/internal/domain"
	"github.com/inkwellapp/inkwell-server/internal/id"
)

// CurrentUserKey is the key name the authenticated user is stored under.
const CurrentUserKey = "currentUser"

// KV is the key/value store sessions persist to.
type KV interface {
	// Get returns the value and true, or false when the key is absent.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value; a positive ttl expires it.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes key; a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// State is the authentication state of a session.
type State int

// Session states.
const (
	Anonymous State = iota
	Authenticated
)

func (s State) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "anonymous"
}

// Identity is the resolved state of a session.
type Identity struct {
	SessionID string
	User      *domain.User // nil when anonymous
}

// State reports whether the identity is signed in.
func (i Identity) State() State {
	if i.User != nil {
		return Authenticated
	}
	return Anonymous
}

// Manager begins, rehydrates and ends sessions.
type Manager struct {
	kv     KV
	ttl    time.Duration
	logger *slog.Logger
}

// NewManager creates a session manager. A ttl of zero keeps records until
// logout.
func NewManager(kv KV, ttl time.Duration, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Manager{kv: kv, ttl: ttl, logger: logger}
}

func storageKey(sessionID string) string {
	return sessionID + ":" + CurrentUserKey
}

// Begin starts a new authenticated session for user and persists the
// user's public record.
func (m *Manager) Begin(ctx context.Context, user *domain.User) (Identity, error) {
	sid, err := id.Generate("sess")
	if err != nil {
		return Identity{}, err
	}

	pub := user.Public()
	data, err := json.Marshal(&pub)
	if err != nil {
		return Identity{}, fmt.Errorf("encode session user: %w", err)
	}
	if err := m.kv.Set(ctx, storageKey(sid), data, m.ttl); err != nil {
		return Identity{}, fmt.Errorf("persist session: %w", err)
	}

	m.logger.Debug("session started", "session_id", sid, "user_id", user.ID)
	return Identity{SessionID: sid, User: &pub}, nil
}

// Rehydrate restores the identity of sessionID from persistence. An unknown,
// expired or ended session is Anonymous, not an error.
func (m *Manager) Rehydrate(ctx context.Context, sessionID string) (Identity, error) {
	anon := Identity{SessionID: sessionID}
	if sessionID == "" {
		return anon, nil
	}

	data, ok, err := m.kv.Get(ctx, storageKey(sessionID))
	if err != nil {
		return anon, fmt.Errorf("load session: %w", err)
	}
	if !ok {
		return anon, nil
	}

	var user domain.User
	if err := json.Unmarshal(data, &user); err != nil {
		// A record that cannot be decoded is discarded so the next login starts clean.
		m.logger.Warn("discarding unreadable session", "session_id", sessionID, "error", err)
		_ = m.kv.Delete(ctx, storageKey(sessionID))
		return anon, nil
	}
	return Identity{SessionID: sessionID, User: &user}, nil
}

// End signs the session out by removing the persisted user.
func (m *Manager) End(ctx context.Context, sessionID string) error {
	if err := m.kv.Delete(ctx, storageKey(sessionID)); err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	m.logger.Debug("session ended", "session_id", sessionID)
	return nil
}
