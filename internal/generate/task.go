package generate

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	domainerrors "github.com/inkwellapp/inkwell-server/internal/errors"
	"github.com/inkwellapp/inkwell-server/internal/id"
)

// ErrSuperseded is delivered to a task that was replaced by a newer request
// from the same user.
var ErrSuperseded = domainerrors.Conflict("generation superseded by a newer request")

// ErrCanceled is delivered to a task canceled by its owner.
var ErrCanceled = errors.New("generate: canceled")

// Outcome labels how a task ended.
type Outcome string

// Task outcomes.
const (
	OutcomeOK         Outcome = "ok"
	OutcomeFailed     Outcome = "failed"
	OutcomeSuperseded Outcome = "superseded"
	OutcomeCanceled   Outcome = "canceled"
)

// Result is the single value a task delivers.
//
// On failure Text carries the inline failure message and Err wraps
// GENERATION_FAILED. A superseded or canceled task has empty Text.
type Result struct {
	Text string
	Err  error
}

// Failed reports whether the backend failed to generate content.
func (r Result) Failed() bool {
	return errors.Is(r.Err, domainerrors.ErrGenerationFailed)
}

// Outcome classifies the result.
func (r Result) Outcome() Outcome {
	switch {
	case r.Err == nil:
		return OutcomeOK
	case errors.Is(r.Err, ErrSuperseded):
		return OutcomeSuperseded
	case errors.Is(r.Err, ErrCanceled), errors.Is(r.Err, context.Canceled):
		return OutcomeCanceled
	default:
		return OutcomeFailed
	}
}

// Task is one in-flight generation. It delivers exactly one Result.
type Task struct {
	id     string
	cancel context.CancelCauseFunc
	result chan Result
}

// ID returns the task identifier.
func (t *Task) ID() string { return t.id }

// Result returns the channel the outcome is delivered on. It receives
// exactly one value and is then closed.
func (t *Task) Result() <-chan Result { return t.result }

// Cancel stops the task. A task that already finished is unaffected.
func (t *Task) Cancel() { t.cancel(ErrCanceled) }

func (t *Task) supersede() { t.cancel(ErrSuperseded) }

// Wait blocks for the result or until ctx is done.
func (t *Task) Wait(ctx context.Context) Result {
	select {
	case r := <-t.result:
		return r
	case <-ctx.Done():
		t.Cancel()
		return <-t.result
	}
}

// Start runs gen for topic in a new task bound to ctx.
func Start(ctx context.Context, gen Generator, topic string, logger *slog.Logger) *Task {
	return start(ctx, gen, topic, logger, nil)
}

func start(ctx context.Context, gen Generator, topic string, logger *slog.Logger, done func(*Task)) *Task {
	taskID, err := id.Generate("gen")
	if err != nil {
		taskID = "gen-unknown"
	}

	taskCtx, cancel := context.WithCancelCause(ctx)
	t := &Task{
		id:     taskID,
		cancel: cancel,
		result: make(chan Result, 1),
	}

	go func() {
		defer cancel(nil)
		text, err := gen.Generate(taskCtx, topic)

		var r Result
		switch cause := context.Cause(taskCtx); {
		case errors.Is(cause, ErrSuperseded), errors.Is(cause, ErrCanceled):
			r = Result{Err: cause}
		case err != nil && taskCtx.Err() != nil:
			r = Result{Err: cause}
		case err != nil:
			logger.Error("content generation failed", "task_id", t.id, "error", err)
			r = Result{Text: FailureText(err), Err: domainerrors.GenerationFailed(err)}
		default:
			r = Result{Text: text}
		}

		if done != nil {
			done(t)
		}
		t.result <- r
		close(t.result)
	}()

	return t
}

// Coordinator allows at most one in-flight generation per user. Starting a
// new one supersedes the previous.
type Coordinator struct {
	gen    Generator
	logger *slog.Logger

	mu       sync.Mutex
	inflight map[int64]*Task
}

// NewCoordinator creates a coordinator running gen.
func NewCoordinator(gen Generator, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		gen:      gen,
		logger:   logger,
		inflight: make(map[int64]*Task),
	}
}

// Start begins a generation for userID, superseding any task that user
// already has in flight.
func (c *Coordinator) Start(ctx context.Context, userID int64, topic string) *Task {
	c.mu.Lock()
	defer c.mu.Unlock()

	if prev, ok := c.inflight[userID]; ok {
		c.logger.Debug("superseding generation", "user_id", userID, "task_id", prev.id)
		prev.supersede()
	}

	t := start(ctx, c.gen, topic, c.logger, func(done *Task) {
		c.mu.Lock()
		if c.inflight[userID] == done {
			delete(c.inflight, userID)
		}
		c.mu.Unlock()
	})
	c.inflight[userID] = t
	return t
}

// Cancel stops userID's in-flight task, if any, and reports whether there
// was one.
func (c *Coordinator) Cancel(userID int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.inflight[userID]
	if !ok {
		return false
	}
	t.Cancel()
	delete(c.inflight, userID)
	return true
}

// InFlight returns the number of running tasks.
func (c *Coordinator) InFlight() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.inflight)
}

// Shutdown cancels every running task.
func (c *Coordinator) Shutdown() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for userID, t := range c.inflight {
		t.Cancel()
		delete(c.inflight, userID)
	}
	return nil
}
