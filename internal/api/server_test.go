package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/require"

	"github.com/inkwellapp/inkwell-server/internal/accounts"
	"github.com/inkwellapp/inkwell-server/internal/auth"
	"github.com/inkwellapp/inkwell-server/internal/generate"
	"github.com/inkwellapp/inkwell-server/internal/logger"
	"github.com/inkwellapp/inkwell-server/internal/media/covers"
	"github.com/inkwellapp/inkwell-server/internal/media/images"
	"github.com/inkwellapp/inkwell-server/internal/metrics"
	"github.com/inkwellapp/inkwell-server/internal/posts"
	"github.com/inkwellapp/inkwell-server/internal/ratelimit"
	"github.com/inkwellapp/inkwell-server/internal/search"
	"github.com/inkwellapp/inkwell-server/internal/service"
	"github.com/inkwellapp/inkwell-server/internal/session"
	"github.com/inkwellapp/inkwell-server/internal/sse"
	"github.com/inkwellapp/inkwell-server/internal/store"
	"github.com/inkwellapp/inkwell-server/internal/validation"
)

const testKeyHex = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

// testEnvelope mirrors the response envelope with typed data.
type testEnvelope[T any] struct {
	Version int            `json:"v"`
	Success bool           `json:"success"`
	Data    T              `json:"data"`
	Error   string         `json:"error"`
	Code    string         `json:"code"`
	Details map[string]any `json:"details"`
}

func decode[T any](t *testing.T, resp *httptest.ResponseRecorder) testEnvelope[T] {
	t.Helper()
	var env testEnvelope[T]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &env), resp.Body.String())
	return env
}

// stubGenerator answers from a function.
type stubGenerator func(ctx context.Context, topic string) (string, error)

func (f stubGenerator) Generate(ctx context.Context, topic string) (string, error) {
	return f(ctx, topic)
}

var echoGenerator = stubGenerator(func(_ context.Context, topic string) (string, error) {
	return "Thoughts on " + topic, nil
})

type testServer struct {
	server  *Server
	api     humatest.TestAPI
	db      *store.Store
	metrics *metrics.Metrics
}

type testOptions struct {
	generator   generate.Generator
	authLimiter *ratelimit.KeyedRateLimiter
	coverOpts   []covers.Option
}

// setupTestServer wires the full service graph over an in-memory database,
// a memory search index and disk image storage in a temp dir.
func setupTestServer(t *testing.T, opts ...func(*testOptions)) *testServer {
	t.Helper()
	o := testOptions{generator: echoGenerator}
	for _, fn := range opts {
		fn(&o)
	}
	log := logger.Discard()

	db, err := store.NewInMemory(log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	index, err := search.NewSearchIndex(search.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	tokens, err := auth.NewTokenService(testKeyHex, time.Hour)
	require.NoError(t, err)
	hasher := auth.NewPasswordHasher(auth.Argon2Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})

	storage, err := images.NewDiskStorage(t.TempDir(), "images")
	require.NoError(t, err)

	sseManager := sse.NewManager(log)
	m := metrics.New()
	v := validation.New()
	postStore := posts.NewStore(nil)
	users := accounts.NewDirectory(nil, hasher)

	coord := generate.NewCoordinator(o.generator, log)
	t.Cleanup(func() { _ = coord.Shutdown() })

	searchSvc := service.NewSearchService(index, postStore, users, log)
	sessions := service.NewSessionService(session.NewManager(db.KV("session:"), 0, log), tokens, log)
	services := &Services{
		Auth:       service.NewAuthService(users, db, sessions, searchSvc, sseManager, m, v, log),
		Session:    sessions,
		Post:       service.NewPostService(postStore, db, searchSvc, sseManager, m, v, service.DefaultPageSize, log),
		Profile:    service.NewProfileService(users, postStore),
		Search:     searchSvc,
		Image:      service.NewImageService(images.NewProcessor(storage, log), covers.NewDownloader(log, o.coverOpts...), db, log),
		Generation: service.NewGenerationService(coord, nil, sseManager, m, v, log),
	}

	server := NewServer(db, services, sseManager, m, o.authLimiter, Options{}, log)
	return &testServer{
		server:  server,
		api:     humatest.Wrap(t, server.API()),
		db:      db,
		metrics: m,
	}
}

// withLocalCovers lets image imports reach httptest servers on loopback.
func withLocalCovers() func(*testOptions) {
	return func(o *testOptions) { o.coverOpts = append(o.coverOpts, covers.AllowPrivateNetworks()) }
}

func withGenerator(gen generate.Generator) func(*testOptions) {
	return func(o *testOptions) { o.generator = gen }
}

func withAuthLimiter(l *ratelimit.KeyedRateLimiter) func(*testOptions) {
	return func(o *testOptions) { o.authLimiter = l }
}

// signup registers username and returns the bearer header for its session.
func (ts *testServer) signup(t *testing.T, username string) string {
	t.Helper()
	resp := ts.api.Post("/api/v1/auth/signup", map[string]any{
		"username":  username,
		"full_name": username + " Writer",
		"email":     username + "@example.com",
		"password":  "password123",
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	env := decode[service.AuthResponse](t, resp)
	return "Authorization: Bearer " + env.Data.AccessToken
}

// createPost publishes a post as the given bearer and returns it.
func (ts *testServer) createPost(t *testing.T, bearer, title string) service.PostView {
	t.Helper()
	resp := ts.api.Post("/api/v1/posts", bearer, map[string]any{
		"title":   title,
		"content": "Body of " + title,
		"tags":    []string{"go"},
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	return decode[service.PostView](t, resp).Data
}

var errBackendDown = errors.New("backend down")
