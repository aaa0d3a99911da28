package api

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwellapp/inkwell-server/internal/service"
)

func TestGenerate(t *testing.T) {
	ts := setupTestServer(t)
	bearer := ts.signup(t, "alex")

	resp := ts.api.Post("/api/v1/generate", bearer, map[string]any{
		"prompt": "goroutines",
		"draft":  "Intro.",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	out := decode[service.GenerateResponse](t, resp).Data
	assert.Equal(t, "Thoughts on goroutines", out.Generated)
	assert.Equal(t, "Intro.\n\nThoughts on goroutines", out.Draft)
	assert.False(t, out.Failed)

	// Generating never touches the post list.
	resp = ts.api.Get("/api/v1/posts")
	assert.Equal(t, 0, decode[service.PostPage](t, resp).Data.Total)
}

func TestGenerate_FailureIsInline(t *testing.T) {
	ts := setupTestServer(t, withGenerator(stubGenerator(func(context.Context, string) (string, error) {
		return "", errBackendDown
	})))
	bearer := ts.signup(t, "alex")

	resp := ts.api.Post("/api/v1/generate", bearer, map[string]any{"prompt": "goroutines", "draft": "Intro."})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	out := decode[service.GenerateResponse](t, resp).Data
	assert.True(t, out.Failed)
	assert.NotEmpty(t, out.Generated)
	assert.Equal(t, "Intro.\n\n"+out.Generated, out.Draft, "the failure message is appended like generated text")
}

func TestGenerate_Rejected(t *testing.T) {
	ts := setupTestServer(t)
	bearer := ts.signup(t, "alex")

	resp := ts.api.Post("/api/v1/generate", map[string]any{"prompt": "goroutines"})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = ts.api.Post("/api/v1/generate", bearer, map[string]any{"prompt": "  "})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "VALIDATION", decode[any](t, resp).Code)
}

func TestCancelGeneration(t *testing.T) {
	started := make(chan struct{})
	ts := setupTestServer(t, withGenerator(stubGenerator(func(ctx context.Context, _ string) (string, error) {
		close(started)
		<-ctx.Done()
		return "", ctx.Err()
	})))
	bearer := ts.signup(t, "alex")

	resp := ts.api.Delete("/api/v1/generate", bearer)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.False(t, decode[CancelGenerationResponse](t, resp).Data.Canceled)

	done := make(chan int, 1)
	go func() {
		resp := ts.api.Post("/api/v1/generate", bearer, map[string]any{"prompt": "slow"})
		done <- resp.Code
	}()

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("generation never started")
	}

	resp = ts.api.Delete("/api/v1/generate", bearer)
	assert.True(t, decode[CancelGenerationResponse](t, resp).Data.Canceled)

	select {
	case code := <-done:
		assert.Equal(t, http.StatusConflict, code)
	case <-time.After(2 * time.Second):
		t.Fatal("canceled generation did not return")
	}

	resp = ts.api.Delete("/api/v1/generate")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}
