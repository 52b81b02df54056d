package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/timmy/plantgram/internal/domain"
	"github.com/timmy/plantgram/internal/logger"
)

// UncommentedPostLister finds posts without a comment by a given author.
type UncommentedPostLister interface {
	ListWithoutAuthorComment(ctx context.Context, authorID string, limit int) ([]domain.PlantPost, error)
}

// BackfillRunStore persists run records.
type BackfillRunStore interface {
	Create(ctx context.Context, run *domain.BackfillRun) error
	Save(ctx context.Context, run *domain.BackfillRun) error
}

// WorkflowRunner runs or previews the fairy workflow for a loaded post.
type WorkflowRunner interface {
	Run(ctx context.Context, post *domain.PlantPost, trigger Trigger) (*RunResult, error)
	Preview(ctx context.Context, post *domain.PlantPost) Generation
}

// PersonaEnsurer bootstraps the fairy profile.
type PersonaEnsurer interface {
	PersonaID() string
	EnsurePersonaExists(ctx context.Context) error
}

// BackfillService comments as the fairy on existing posts that have no
// fairy comment yet.
type BackfillService struct {
	posts    UncommentedPostLister
	runs     BackfillRunStore
	workflow WorkflowRunner
	persona  PersonaEnsurer
	logger   *logger.Logger
	workers  int
}

// BackfillConfig holds configuration for the backfill service.
type BackfillConfig struct {
	Workers int
}

// NewBackfillService creates a new backfill service. runs may be nil.
func NewBackfillService(
	posts UncommentedPostLister,
	runs BackfillRunStore,
	workflow WorkflowRunner,
	persona PersonaEnsurer,
	log *logger.Logger,
	cfg *BackfillConfig,
) *BackfillService {
	workers := 4
	if cfg != nil && cfg.Workers > 0 {
		workers = cfg.Workers
	}
	return &BackfillService{
		posts:    posts,
		runs:     runs,
		workflow: workflow,
		persona:  persona,
		logger:   log,
		workers:  workers,
	}
}

func (s *BackfillService) log(ctx context.Context) *logger.Logger {
	return logger.FromContextOr(ctx, s.logger)
}

// BackfillOptions configures a single run.
type BackfillOptions struct {
	Limit   int
	Workers int
	// DryRun generates comments without publishing them.
	DryRun bool
}

// BackfillStats holds statistics for a backfill run.
type BackfillStats struct {
	Total     int64
	Published int64
	Skipped   int64
	Failed    int64
	Previewed int64
	StartTime time.Time
	EndTime   time.Time
}

type backfillResult struct {
	postID    string
	published bool
	skipped   bool
	previewed bool
	err       error
}

// Run processes up to opts.Limit posts with a worker pool.
// Parameters:
//   - ctx: cancelling it stops handing out new posts.
//   - opts: limit, worker count, dry-run flag.
//
// Returns:
//   - *BackfillStats: counters for the run.
//   - error: persona bootstrap or post listing failure.
func (s *BackfillService) Run(ctx context.Context, opts *BackfillOptions) (*BackfillStats, error) {
	stats := &BackfillStats{StartTime: time.Now()}
	ctx = logger.SetTrigger(s.log(ctx).WithContext(ctx), string(TriggerBackfill))

	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = s.workers
	}

	if !opts.DryRun {
		if err := s.persona.EnsurePersonaExists(ctx); err != nil {
			return nil, err
		}
	}

	posts, err := s.posts.ListWithoutAuthorComment(ctx, s.persona.PersonaID(), limit)
	if err != nil {
		return nil, fmt.Errorf("list posts without fairy comment: %w", err)
	}
	stats.Total = int64(len(posts))

	run := &domain.BackfillRun{
		ID:        uuid.New().String(),
		Status:    domain.RunStatusRunning,
		DryRun:    opts.DryRun,
		Total:     len(posts),
		StartedAt: stats.StartTime,
	}
	s.saveRun(ctx, run, true)

	postsChan := make(chan domain.PlantPost, workers*2)
	resultsChan := make(chan *backfillResult, workers*2)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.worker(ctx, postsChan, resultsChan, opts.DryRun)
		}()
	}

	var errLog []string
	done := make(chan struct{})
	go func() {
		for result := range resultsChan {
			switch {
			case result.err != nil:
				atomic.AddInt64(&stats.Failed, 1)
				errLog = append(errLog, fmt.Sprintf("%s: %v", result.postID, result.err))
				s.log(ctx).WithField(logger.FieldPostID, result.postID).
					WithError(result.err).Error("Failed to backfill post")
			case result.previewed:
				atomic.AddInt64(&stats.Previewed, 1)
			case result.skipped:
				atomic.AddInt64(&stats.Skipped, 1)
			case result.published:
				atomic.AddInt64(&stats.Published, 1)
			}
		}
		close(done)
	}()

feed:
	for _, post := range posts {
		select {
		case postsChan <- post:
		case <-ctx.Done():
			break feed
		}
	}

	close(postsChan)
	wg.Wait()
	close(resultsChan)
	<-done

	stats.EndTime = time.Now()

	run.Published = int(stats.Published)
	run.Skipped = int(stats.Skipped)
	run.Failed = int(stats.Failed)
	if opts.DryRun {
		run.Published = int(stats.Previewed)
	}
	run.Status = domain.RunStatusCompleted
	if ctx.Err() != nil || (stats.Failed > 0 && stats.Failed == stats.Total) {
		run.Status = domain.RunStatusFailed
	}
	run.ErrorLog = strings.Join(errLog, "\n")
	completed := stats.EndTime
	run.CompletedAt = &completed
	s.saveRun(context.WithoutCancel(ctx), run, false)

	s.log(ctx).WithFields(logger.Fields{
		"total":     stats.Total,
		"published": stats.Published,
		"skipped":   stats.Skipped,
		"failed":    stats.Failed,
		"previewed": stats.Previewed,
		"dry_run":   opts.DryRun,
		"duration":  stats.EndTime.Sub(stats.StartTime).String(),
	}).Info("Backfill completed")

	return stats, nil
}

func (s *BackfillService) worker(ctx context.Context, posts <-chan domain.PlantPost, results chan<- *backfillResult, dryRun bool) {
	for post := range posts {
		select {
		case <-ctx.Done():
			return
		default:
		}

		result := &backfillResult{postID: post.ID}
		if dryRun {
			gen := s.workflow.Preview(ctx, &post)
			s.log(ctx).WithFields(logger.Fields{
				logger.FieldPostID:           post.ID,
				logger.FieldGenerationSource: gen.Source,
				"text":                       gen.Text,
			}).Info("Backfill preview")
			result.previewed = true
			results <- result
			continue
		}

		res, err := s.workflow.Run(ctx, &post, TriggerBackfill)
		switch {
		case err != nil:
			result.err = err
		case res.Outcome == OutcomeAlreadyCommented:
			result.skipped = true
		default:
			result.published = true
		}
		results <- result
	}
}

func (s *BackfillService) saveRun(ctx context.Context, run *domain.BackfillRun, create bool) {
	if s.runs == nil {
		return
	}
	var err error
	if create {
		err = s.runs.Create(ctx, run)
	} else {
		err = s.runs.Save(ctx, run)
	}
	if err != nil {
		s.log(ctx).WithError(err).Warn("Failed to record backfill run")
	}
}
