package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/timmy/plantgram/internal/domain"
	"github.com/timmy/plantgram/internal/logger"
	"github.com/timmy/plantgram/internal/metrics"
	"github.com/timmy/plantgram/internal/repository"
	"github.com/timmy/plantgram/internal/syncutil"
)

// Trigger names what started a workflow run.
type Trigger string

const (
	TriggerAuto     Trigger = "auto"
	TriggerManual   Trigger = "manual"
	TriggerBackfill Trigger = "backfill"
)

// Outcome is the non-error result of a workflow run.
type Outcome int

const (
	// OutcomePublished means a new fairy comment was stored.
	OutcomePublished Outcome = iota
	// OutcomeAlreadyCommented means the post already had a fairy comment.
	OutcomeAlreadyCommented
)

func (o Outcome) String() string {
	if o == OutcomeAlreadyCommented {
		return "already_commented"
	}
	return "published"
}

// RunResult describes a successful workflow run.
type RunResult struct {
	Outcome    Outcome
	Comment    *domain.Comment
	Generation Generation
}

// ResponseGenerator produces comment text for a post.
type ResponseGenerator interface {
	GenerateDetailed(ctx context.Context, post *domain.PlantPost) Generation
}

// PostGetter loads posts by ID.
type PostGetter interface {
	GetByID(ctx context.Context, id string) (*domain.PlantPost, error)
}

// FairyWorkflow runs guard, generator, registry and publisher in sequence.
// Runs for the same post are serialized in-process; the store's unique
// index on persona comments covers other processes.
type FairyWorkflow struct {
	posts     PostGetter
	guard     *DuplicateGuard
	generator ResponseGenerator
	registry  *PersonaRegistry
	publisher *CommentPublisher
	locks     *syncutil.KeyedMutex
	timeout   time.Duration
	logger    *logger.Logger
}

// NewFairyWorkflow wires the workflow components.
// Parameters:
//   - posts: post lookup for RunByID.
//   - guard: duplicate guard.
//   - generator: response generator.
//   - registry: persona registry.
//   - publisher: comment publisher.
//   - timeout: bound for a whole run; non-positive means 20s.
//   - log: base logger.
//
// Returns:
//   - *FairyWorkflow: workflow ready for concurrent use.
func NewFairyWorkflow(
	posts PostGetter,
	guard *DuplicateGuard,
	generator ResponseGenerator,
	registry *PersonaRegistry,
	publisher *CommentPublisher,
	timeout time.Duration,
	log *logger.Logger,
) *FairyWorkflow {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &FairyWorkflow{
		posts:     posts,
		guard:     guard,
		generator: generator,
		registry:  registry,
		publisher: publisher,
		locks:     syncutil.NewKeyedMutex(),
		timeout:   timeout,
		logger:    log,
	}
}

// HasCommented exposes the duplicate guard.
func (w *FairyWorkflow) HasCommented(ctx context.Context, postID string) bool {
	return w.guard.HasPersonaCommented(ctx, postID)
}

// RunByID loads the post and runs the workflow for it.
func (w *FairyWorkflow) RunByID(ctx context.Context, postID string, trigger Trigger) (*RunResult, error) {
	post, err := w.posts.GetByID(ctx, postID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			w.record(trigger, "not_found")
			return nil, ErrPostNotFound
		}
		w.record(trigger, "error")
		return nil, fmt.Errorf("load post: %w", err)
	}
	return w.Run(ctx, post, trigger)
}

// Run comments on post as the fairy unless it already has.
// Parameters:
//   - ctx: parent context; the run is additionally bounded by the workflow timeout.
//   - post: the post to comment on.
//   - trigger: trigger name for logs and metrics.
//
// Returns:
//   - *RunResult: published or already-commented outcome.
//   - error: persona bootstrap, publish, or lock acquisition failure.
func (w *FairyWorkflow) Run(ctx context.Context, post *domain.PlantPost, trigger Trigger) (*RunResult, error) {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	log := logger.FromContextOr(ctx, w.logger).WithFields(logger.Fields{
		logger.FieldPostID:  post.ID,
		logger.FieldTrigger: string(trigger),
	})
	ctx = log.WithContext(ctx)
	start := time.Now()

	unlock, err := w.locks.Lock(ctx, post.ID)
	if err != nil {
		w.record(trigger, "error")
		return nil, fmt.Errorf("wait for post lock: %w", err)
	}
	defer unlock()

	if w.guard.HasPersonaCommented(ctx, post.ID) {
		w.record(trigger, OutcomeAlreadyCommented.String())
		log.Debug("Fairy already commented, nothing to do")
		return &RunResult{Outcome: OutcomeAlreadyCommented}, nil
	}

	gen := w.generator.GenerateDetailed(ctx, post)

	if err := w.registry.EnsurePersonaExists(ctx); err != nil {
		w.record(trigger, "error")
		return nil, err
	}

	comment, err := w.publisher.Publish(ctx, post.ID, gen.Text)
	if errors.Is(err, ErrAlreadyCommented) {
		w.record(trigger, OutcomeAlreadyCommented.String())
		return &RunResult{Outcome: OutcomeAlreadyCommented, Generation: gen}, nil
	}
	if err != nil {
		w.record(trigger, "error")
		return nil, err
	}

	w.record(trigger, OutcomePublished.String())
	log.WithFields(logger.Fields{
		logger.FieldGenerationSource: gen.Source,
		logger.FieldProvider:         gen.Provider,
		logger.FieldDurationMs:       time.Since(start).Milliseconds(),
	}).Info("Fairy comment published")

	return &RunResult{Outcome: OutcomePublished, Comment: comment, Generation: gen}, nil
}

// Preview generates a comment without publishing it.
func (w *FairyWorkflow) Preview(ctx context.Context, post *domain.PlantPost) Generation {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()
	return w.generator.GenerateDetailed(ctx, post)
}

func (w *FairyWorkflow) record(trigger Trigger, result string) {
	metrics.FairyCommentsTotal.WithLabelValues(string(trigger), result).Inc()
}
