package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/inkwellapp/inkwell-server/internal/domain"
	domainerrors "github.com/inkwellapp/inkwell-server/internal/errors"
	"github.com/inkwellapp/inkwell-server/internal/events"
	"github.com/inkwellapp/inkwell-server/internal/generate"
	"github.com/inkwellapp/inkwell-server/internal/metrics"
	"github.com/inkwellapp/inkwell-server/internal/ratelimit"
	"github.com/inkwellapp/inkwell-server/internal/sse"
	"github.com/inkwellapp/inkwell-server/internal/validation"
)

// GenerationService drafts post content with the generative backend. Each
// user has at most one request in flight; a newer one supersedes it.
type GenerationService struct {
	coordinator *generate.Coordinator
	limiter     *ratelimit.KeyedRateLimiter
	emitter     events.Emitter
	metrics     *metrics.Metrics
	validator   *validation.Validator
	logger      *slog.Logger
}

// NewGenerationService creates a generation service. limiter, emitter and m
// may be nil.
func NewGenerationService(
	coordinator *generate.Coordinator,
	limiter *ratelimit.KeyedRateLimiter,
	emitter events.Emitter,
	m *metrics.Metrics,
	validator *validation.Validator,
	logger *slog.Logger,
) *GenerationService {
	if emitter == nil {
		emitter = events.Noop{}
	}
	return &GenerationService{
		coordinator: coordinator,
		limiter:     limiter,
		emitter:     emitter,
		metrics:     m,
		validator:   validator,
		logger:      logger,
	}
}

// GenerateRequest names a topic and carries the current draft body.
type GenerateRequest struct {
	Prompt string `json:"prompt" validate:"notblank,max=2000"`
	Draft  string `json:"draft" validate:"max=50000"`
}

// GenerateResponse is the generated text and the draft with it appended.
// When Failed is set, Generated holds the failure message instead.
type GenerateResponse struct {
	TaskID    string `json:"task_id"`
	Generated string `json:"generated"`
	Draft     string `json:"draft"`
	Failed    bool   `json:"failed"`
}

// Generate runs a generation for actor and appends the result to the draft.
// The draft is never committed to a post here. A request superseded by a
// newer one from the same user fails with CONFLICT.
func (s *GenerationService) Generate(ctx context.Context, actor *domain.User, req GenerateRequest) (*GenerateResponse, error) {
	if actor == nil {
		return nil, domainerrors.Unauthenticated("you must be logged in to generate content")
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if s.limiter != nil && !s.limiter.Allow(strconv.FormatInt(actor.ID, 10)) {
		s.metrics.RateLimited("generate")
		return nil, domainerrors.ErrRateLimited
	}

	start := time.Now()
	task := s.coordinator.Start(ctx, actor.ID, strings.TrimSpace(req.Prompt))
	res := task.Wait(ctx)
	s.metrics.GenerationFinished(string(res.Outcome()), time.Since(start))
	s.emitter.Emit(sse.NewGenerationFinishedEvent(actor.ID, task.ID(), string(res.Outcome())))

	switch res.Outcome() {
	case generate.OutcomeSuperseded:
		return nil, generate.ErrSuperseded
	case generate.OutcomeCanceled:
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, domainerrors.Conflict("generation was canceled")
	case generate.OutcomeFailed:
		if !errors.Is(res.Err, domainerrors.ErrGenerationFailed) {
			return nil, res.Err
		}
	}

	draft := domain.PostDraft{Content: req.Draft}
	draft.AppendGenerated(res.Text)

	s.logger.Debug("generation finished",
		"task_id", task.ID(),
		"user_id", actor.ID,
		"outcome", res.Outcome(),
		"duration", time.Since(start),
	)

	return &GenerateResponse{
		TaskID:    task.ID(),
		Generated: res.Text,
		Draft:     draft.Content,
		Failed:    res.Failed(),
	}, nil
}

// Cancel stops actor's in-flight generation. It reports whether one was
// running.
func (s *GenerationService) Cancel(actor *domain.User) (bool, error) {
	if actor == nil {
		return false, domainerrors.Unauthenticated("you must be logged in to cancel generation")
	}
	return s.coordinator.Cancel(actor.ID), nil
}
