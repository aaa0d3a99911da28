package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/inkwellapp/inkwell-server/internal/accounts"
	"github.com/inkwellapp/inkwell-server/internal/auth"
	"github.com/inkwellapp/inkwell-server/internal/domain"
	"github.com/inkwellapp/inkwell-server/internal/logger"
	"github.com/inkwellapp/inkwell-server/internal/posts"
	"github.com/inkwellapp/inkwell-server/internal/search"
	"github.com/inkwellapp/inkwell-server/internal/session"
	"github.com/inkwellapp/inkwell-server/internal/sse"
	"github.com/inkwellapp/inkwell-server/internal/store"
	"github.com/inkwellapp/inkwell-server/internal/validation"
)

const testKeyHex = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

// recorder captures emitted events.
type recorder struct {
	mu     sync.Mutex
	events []sse.Event
}

func (r *recorder) Emit(event any) {
	if e, ok := event.(sse.Event); ok {
		r.mu.Lock()
		r.events = append(r.events, e)
		r.mu.Unlock()
	}
}

func (r *recorder) types() []sse.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]sse.EventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

// testEnv wires the services over an in-memory database and search index.
type testEnv struct {
	db       *store.Store
	posts    *posts.Store
	users    *accounts.Directory
	events   *recorder
	search   *SearchService
	sessions *SessionService
	auth     *AuthService
	post     *PostService
	profile  *ProfileService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := logger.Discard()

	db, err := store.NewInMemory(nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	index, err := search.NewSearchIndex(search.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	tokens, err := auth.NewTokenService(testKeyHex, time.Hour)
	require.NoError(t, err)

	hasher := auth.NewPasswordHasher(auth.Argon2Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})
	postStore := posts.NewStore(nil)
	users := accounts.NewDirectory(nil, hasher)
	rec := &recorder{}
	v := validation.New()

	searchSvc := NewSearchService(index, postStore, users, log)
	sessions := NewSessionService(session.NewManager(db.KV("session:"), 0, log), tokens, log)

	return &testEnv{
		db:       db,
		posts:    postStore,
		users:    users,
		events:   rec,
		search:   searchSvc,
		sessions: sessions,
		auth:     NewAuthService(users, db, sessions, searchSvc, rec, nil, v, log),
		post:     NewPostService(postStore, db, searchSvc, rec, nil, v, DefaultPageSize, log),
		profile:  NewProfileService(users, postStore),
	}
}

// signup registers a user and returns their record.
func (e *testEnv) signup(t *testing.T, username string) *domain.User {
	t.Helper()
	resp, err := e.auth.Signup(context.Background(), SignupRequest{
		Username: username,
		FullName: username + " Writer",
		Email:    username + "@example.com",
		Password: "password123",
	})
	require.NoError(t, err)
	u, ok := e.users.Get(resp.User.ID)
	require.True(t, ok)
	return u
}

func (e *testEnv) createPost(t *testing.T, author *domain.User, title string, tags ...string) *PostView {
	t.Helper()
	p, err := e.post.Create(context.Background(), author, CreatePostRequest{
		Title:   title,
		Content: "Body of " + title,
		Tags:    tags,
	})
	require.NoError(t, err)
	return p
}

func canceledContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return ctx
}
