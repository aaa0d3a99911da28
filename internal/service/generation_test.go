package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwellapp/inkwell-server/internal/domain"
	domainerrors "github.com/inkwellapp/inkwell-server/internal/errors"
	"github.com/inkwellapp/inkwell-server/internal/generate"
	"github.com/inkwellapp/inkwell-server/internal/logger"
	"github.com/inkwellapp/inkwell-server/internal/ratelimit"
	"github.com/inkwellapp/inkwell-server/internal/sse"
	"github.com/inkwellapp/inkwell-server/internal/validation"
)

// stubGenerator answers from a function.
type stubGenerator func(ctx context.Context, topic string) (string, error)

func (f stubGenerator) Generate(ctx context.Context, topic string) (string, error) {
	return f(ctx, topic)
}

func newGenerationService(t *testing.T, gen generate.Generator, limiter *ratelimit.KeyedRateLimiter) *GenerationService {
	t.Helper()
	coord := generate.NewCoordinator(gen, logger.Discard())
	t.Cleanup(func() { _ = coord.Shutdown() })
	return NewGenerationService(coord, limiter, nil, nil, validation.New(), logger.Discard())
}

var writer = &domain.User{ID: 1, Username: "alex"}

func TestGenerationService_EmitsToRequester(t *testing.T) {
	coord := generate.NewCoordinator(stubGenerator(func(_ context.Context, topic string) (string, error) {
		return "All about " + topic, nil
	}), logger.Discard())
	t.Cleanup(func() { _ = coord.Shutdown() })
	rec := &recorder{}
	svc := NewGenerationService(coord, nil, rec, nil, validation.New(), logger.Discard())

	resp, err := svc.Generate(context.Background(), writer, GenerateRequest{Prompt: "maps"})
	require.NoError(t, err)

	require.Equal(t, []sse.EventType{sse.EventGenerationFinished}, rec.types())
	e := rec.events[0]
	assert.Equal(t, "1", e.UserID)
	assert.Equal(t, sse.GenerationEventData{TaskID: resp.TaskID, Outcome: "ok"}, e.Data)
}

func TestGenerationService_Generate(t *testing.T) {
	svc := newGenerationService(t, stubGenerator(func(_ context.Context, topic string) (string, error) {
		return "All about " + topic, nil
	}), nil)

	tests := []struct {
		name      string
		draft     string
		wantDraft string
	}{
		{"empty draft", "", "All about channels"},
		{"existing draft", "Intro.", "Intro.\n\nAll about channels"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := svc.Generate(context.Background(), writer, GenerateRequest{Prompt: " channels ", Draft: tt.draft})
			require.NoError(t, err)
			assert.Equal(t, "All about channels", resp.Generated)
			assert.Equal(t, tt.wantDraft, resp.Draft)
			assert.False(t, resp.Failed)
			assert.NotEmpty(t, resp.TaskID)
		})
	}
}

func TestGenerationService_FailureIsInline(t *testing.T) {
	svc := newGenerationService(t, stubGenerator(func(context.Context, string) (string, error) {
		return "", errors.New("quota exceeded")
	}), nil)

	resp, err := svc.Generate(context.Background(), writer, GenerateRequest{Prompt: "go", Draft: "Draft"})
	require.NoError(t, err)
	assert.True(t, resp.Failed)
	assert.Contains(t, resp.Generated, "quota exceeded")
	assert.Equal(t, "Draft\n\n"+resp.Generated, resp.Draft)
}

func TestGenerationService_Rejected(t *testing.T) {
	svc := newGenerationService(t, stubGenerator(func(context.Context, string) (string, error) {
		return "text", nil
	}), nil)

	_, err := svc.Generate(context.Background(), nil, GenerateRequest{Prompt: "go"})
	assert.ErrorIs(t, err, domainerrors.ErrUnauthenticated)

	_, err = svc.Generate(context.Background(), writer, GenerateRequest{Prompt: "  "})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestGenerationService_RateLimited(t *testing.T) {
	limiter := ratelimit.New(0.001, 1)
	t.Cleanup(limiter.Stop)
	svc := newGenerationService(t, stubGenerator(func(context.Context, string) (string, error) {
		return "text", nil
	}), limiter)

	_, err := svc.Generate(context.Background(), writer, GenerateRequest{Prompt: "go"})
	require.NoError(t, err)

	_, err = svc.Generate(context.Background(), writer, GenerateRequest{Prompt: "go"})
	assert.ErrorIs(t, err, domainerrors.ErrRateLimited)

	// Limits are per user.
	_, err = svc.Generate(context.Background(), &domain.User{ID: 2}, GenerateRequest{Prompt: "go"})
	assert.NoError(t, err)
}

func TestGenerationService_NewerRequestSupersedes(t *testing.T) {
	started := make(chan string, 2)
	svc := newGenerationService(t, stubGenerator(func(ctx context.Context, topic string) (string, error) {
		started <- topic
		if topic == "second" {
			return "second text", nil
		}
		<-ctx.Done()
		return "", ctx.Err()
	}), nil)

	firstErr := make(chan error, 1)
	go func() {
		_, err := svc.Generate(context.Background(), writer, GenerateRequest{Prompt: "first"})
		firstErr <- err
	}()
	require.Equal(t, "first", <-started)

	resp, err := svc.Generate(context.Background(), writer, GenerateRequest{Prompt: "second"})
	require.NoError(t, err)
	assert.Equal(t, "second text", resp.Generated)

	select {
	case err := <-firstErr:
		assert.ErrorIs(t, err, generate.ErrSuperseded)
		assert.ErrorIs(t, err, domainerrors.ErrConflict)
	case <-time.After(2 * time.Second):
		t.Fatal("first request never finished")
	}
}

func TestGenerationService_Cancel(t *testing.T) {
	started := make(chan struct{})
	svc := newGenerationService(t, stubGenerator(func(ctx context.Context, _ string) (string, error) {
		close(started)
		<-ctx.Done()
		return "", ctx.Err()
	}), nil)

	ok, err := svc.Cancel(writer)
	require.NoError(t, err)
	assert.False(t, ok, "nothing running yet")

	done := make(chan error, 1)
	go func() {
		_, err := svc.Generate(context.Background(), writer, GenerateRequest{Prompt: "go"})
		done <- err
	}()
	<-started

	ok, err = svc.Cancel(writer)
	require.NoError(t, err)
	assert.True(t, ok)

	select {
	case err := <-done:
		assert.ErrorIs(t, err, domainerrors.ErrConflict)
	case <-time.After(2 * time.Second):
		t.Fatal("canceled request never finished")
	}

	_, err = svc.Cancel(nil)
	assert.ErrorIs(t, err, domainerrors.ErrUnauthenticated)
}

func TestGenerationService_CallerGoesAway(t *testing.T) {
	started := make(chan struct{})
	svc := newGenerationService(t, stubGenerator(func(ctx context.Context, _ string) (string, error) {
		close(started)
		<-ctx.Done()
		return "", ctx.Err()
	}), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := svc.Generate(ctx, writer, GenerateRequest{Prompt: "go"})
		done <- err
	}()
	<-started
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("request never finished")
	}
}
